package notifications

import (
	"testing"

	"clipstream/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestChannelNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "user:42", UserChannel(42))
	assert.Equal(t, "Video:7", ContentChannel(models.ContentRef{Type: models.ContentTypeVideo, ID: 7}))
	assert.Equal(t, "Comment:3", ContentChannel(models.ContentRef{Type: models.ContentTypeComment, ID: 3}))
	assert.Equal(t, "Article:9", ContentChannel(models.ContentRef{Type: models.ContentTypeArticle, ID: 9}))
}

func TestValidChannel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		channel string
		want    bool
	}{
		{"user channel", "user:1", true},
		{"video channel", "Video:123", true},
		{"comment channel", "Comment:5", true},
		{"article channel", "Article:8", true},
		{"unknown prefix", "Podcast:1", false},
		{"lowercase content type", "video:1", false},
		{"missing id", "Video:", false},
		{"missing separator", "Video", false},
		{"non-numeric id", "Video:abc", false},
		{"negative id", "Video:-1", false},
		{"empty", "", false},
		{"bare user", "user:", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ValidChannel(tt.channel))
		})
	}
}

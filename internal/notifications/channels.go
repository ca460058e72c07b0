// Package notifications provides real-time notification delivery and management.
package notifications

import (
	"strconv"
	"strings"

	"clipstream/internal/models"
)

// Channel naming is the contract between publishers and subscribers: any
// component wanting to notify derives the same name independently. Content
// channels are "{contentType}:{contentId}" and user channels "user:{userId}".
// These formats are client-visible; do not change them.

// UserChannel derives the channel name for user-targeted events.
func UserChannel(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

// ContentChannel derives the channel name for content-scoped events.
func ContentChannel(ref models.ContentRef) string {
	return ref.Channel()
}

// ValidChannel reports whether name is a well-formed subscribable channel.
func ValidChannel(name string) bool {
	prefix, id, ok := strings.Cut(name, ":")
	if !ok || id == "" {
		return false
	}
	if _, err := strconv.ParseUint(id, 10, 32); err != nil {
		return false
	}
	if prefix == "user" {
		return true
	}
	_, ok = models.ParseContentType(prefix)
	return ok
}

// Package models contains data structures for the application's domain models.
package models

import "strconv"

// ContentType tags the kind of content a like or comment points at.
type ContentType string

const (
	ContentTypeVideo   ContentType = "Video"
	ContentTypeComment ContentType = "Comment"
	ContentTypeArticle ContentType = "Article"
)

// Valid reports whether t is one of the known content kinds.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeVideo, ContentTypeComment, ContentTypeArticle:
		return true
	}
	return false
}

// ParseContentType converts a request-supplied string into a ContentType.
func ParseContentType(s string) (ContentType, bool) {
	t := ContentType(s)
	return t, t.Valid()
}

// ContentRef identifies a single piece of engageable content.
type ContentRef struct {
	Type ContentType
	ID   uint
}

// Channel returns the realtime channel name for this content.
// The format is "{contentType}:{contentId}" and is relied upon by clients;
// do not change it.
func (r ContentRef) Channel() string {
	return string(r.Type) + ":" + strconv.FormatUint(uint64(r.ID), 10)
}

// Package model defines the data structures shared by the API server and the
// client-side controllers.
package model

import (
	"strings"
	"time"
)

// TagSeparator joins tags when they are shown or edited as one string.
const TagSeparator = ", "

// Snippet represents a stored code sample. The server is authoritative for
// every field; ID, AddedBy and AddedOn never change after creation.
//
// JSON names follow the public API so the client can decode responses
// straight into this struct.
type Snippet struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Value       string    `json:"value"` // the code body
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Tags        []string  `json:"tags"`
	Source      string    `json:"source,omitempty"`
	Private     bool      `json:"private"`
	AddedBy     string    `json:"addedBy"`
	LikedBy     []string  `json:"likedBy"`
	AddedOn     time.Time `json:"addedOn"`
	UpdatedOn   time.Time `json:"updatedOn"`
}

// TagString renders the tags the way drafts hold them: ", "-joined.
func (s Snippet) TagString() string {
	return strings.Join(s.Tags, TagSeparator)
}

// LikedByUser reports whether username is in the snippet's like-set.
func (s Snippet) LikedByUser(username string) bool {
	for _, u := range s.LikedBy {
		if u == username {
			return true
		}
	}
	return false
}

// SplitTags turns a delimited tag string back into a sequence. Whitespace
// around each tag is dropped, as are empty entries.
//
//	SplitTags("sort, algo")  → ["sort", "algo"]
//	SplitTags(" , go,,")     → ["go"]
func SplitTags(s string) []string {
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// Package draft holds the editable, client-local copy of a snippet.
package draft

import (
	"strings"

	"github.com/victorlut/cheathub/internal/model"
)

// Store is a plain value container with one setter per field. It is not
// safe for concurrent use; session.Controller serializes access to it.
//
// Tags are kept exactly as typed ("sort, algo"). TagList derives the
// sequence; the string stays authoritative.
type Store struct {
	d model.Draft
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Reset empties every field, including the id.
func (s *Store) Reset() {
	s.d = model.Draft{}
}

// Load replaces the draft with the editable fields of snippet.
func (s *Store) Load(snippet model.Snippet) {
	s.d = model.DraftFromSnippet(snippet)
}

// Draft returns a copy of the current fields.
func (s *Store) Draft() model.Draft {
	return s.d
}

// ID is empty until the snippet exists on the server.
func (s *Store) ID() string {
	return s.d.ID
}

func (s *Store) SetTitle(v string)       { s.d.Title = v }
func (s *Store) SetValue(v string)       { s.d.Value = v }
func (s *Store) SetDescription(v string) { s.d.Description = v }
func (s *Store) SetLanguage(v string)    { s.d.Language = v }
func (s *Store) SetTags(v string)        { s.d.Tags = v }
func (s *Store) SetSource(v string)      { s.d.Source = v }
func (s *Store) SetPrivate(v bool)       { s.d.Private = v }

// TagList splits the tag string on commas, trimming and dropping empties.
func (s *Store) TagList() []string {
	return model.SplitTags(s.d.Tags)
}

// Missing lists the required fields that are empty or whitespace-only, in
// the order title, value, description, language.
func (s *Store) Missing() []string {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"title", s.d.Title},
		{"value", s.d.Value},
		{"description", s.d.Description},
		{"language", s.d.Language},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

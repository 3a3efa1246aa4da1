package model

// Draft is the client-local, editable mirror of a Snippet's mutable fields.
//
// ID is empty while the draft describes a snippet that has not been created
// yet. Tags is kept in its delimited form ("sort, algo"); SplitTags derives
// the sequence when it is needed.
type Draft struct {
	ID          string
	Title       string
	Value       string
	Description string
	Language    string
	Tags        string
	Source      string
	Private     bool
}

// DraftFromSnippet copies the editable fields of s, field for field.
func DraftFromSnippet(s Snippet) Draft {
	return Draft{
		ID:          s.ID,
		Title:       s.Title,
		Value:       s.Value,
		Description: s.Description,
		Language:    s.Language,
		Tags:        s.TagString(),
		Source:      s.Source,
		Private:     s.Private,
	}
}

// IsZero reports whether every field is empty.
func (d Draft) IsZero() bool {
	return d == Draft{}
}

package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"sort, algo", []string{"sort", "algo"}},
		{"sort,algo", []string{"sort", "algo"}},
		{" , go,,", []string{"go"}},
		{"", []string{}},
		{"c++, c#", []string{"c++", "c#"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitTags(tt.in))
		})
	}
}

func TestTagString_RoundTrip(t *testing.T) {
	s := Snippet{Tags: []string{"sort", "algo"}}
	assert.Equal(t, "sort, algo", s.TagString())
	assert.Equal(t, strings.Join(s.Tags, ", "), s.TagString())
	assert.Equal(t, s.Tags, SplitTags(s.TagString()))
}

func TestDraftFromSnippet(t *testing.T) {
	s := Snippet{
		ID:          "abc",
		Title:       "Quicksort",
		Value:       "def qs(...): ...",
		Description: "in-place sort",
		Language:    "python",
		Tags:        []string{"sort", "algo"},
		Source:      "https://example.com/qs",
		Private:     true,
		AddedBy:     "ada",
		LikedBy:     []string{"grace"},
	}

	assert.Equal(t, Draft{
		ID:          "abc",
		Title:       "Quicksort",
		Value:       "def qs(...): ...",
		Description: "in-place sort",
		Language:    "python",
		Tags:        "sort, algo",
		Source:      "https://example.com/qs",
		Private:     true,
	}, DraftFromSnippet(s))
}

func TestDraftIsZero(t *testing.T) {
	assert.True(t, Draft{}.IsZero())
	assert.False(t, Draft{Title: "x"}.IsZero())
	assert.False(t, Draft{Private: true}.IsZero())
}

func TestLikedByUser(t *testing.T) {
	s := Snippet{LikedBy: []string{"grace", "ada"}}
	assert.True(t, s.LikedByUser("ada"))
	assert.False(t, s.LikedByUser("linus"))
	assert.False(t, Snippet{}.LikedByUser("ada"))
}

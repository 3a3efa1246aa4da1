package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/victorlut/cheathub/internal/favorite"
	"github.com/victorlut/cheathub/internal/model"
)

// styles holds the CLI's text styles. Colors degrade to plain text when
// the output is not a terminal.
type styles struct {
	title  lipgloss.Style
	id     lipgloss.Style
	muted  lipgloss.Style
	tag    lipgloss.Style
	star   lipgloss.Style
	ok     lipgloss.Style
	danger lipgloss.Style
	code   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7")),
		id:     r.NewStyle().Foreground(lipgloss.Color("#565f89")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#9aa5ce")),
		tag:    r.NewStyle().Foreground(lipgloss.Color("#bb9af7")),
		star:   r.NewStyle().Foreground(lipgloss.Color("#e0af68")),
		ok:     r.NewStyle().Foreground(lipgloss.Color("#9ece6a")).Bold(true),
		danger: r.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true),
		code:   r.NewStyle().PaddingLeft(2),
	}
}

// tags renders "#sort #algo".
func (s styles) tags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = s.tag.Render("#" + t)
	}
	return strings.Join(parts, " ")
}

func (s styles) likes(n int, favorited bool) string {
	mark := "☆"
	if favorited {
		mark = "★"
	}
	return s.star.Render(fmt.Sprintf("%s %d", mark, n))
}

// snippetLine is one row of the list output.
func (s styles) snippetLine(sn model.Snippet, viewer string) string {
	parts := []string{
		s.id.Render(sn.ID),
		s.title.Render(sn.Title),
		s.muted.Render("[" + sn.Language + "]"),
		s.likes(len(sn.LikedBy), sn.LikedByUser(viewer)),
	}
	if sn.Private {
		parts = append(parts, s.muted.Render("private"))
	}
	if t := s.tags(sn.Tags); t != "" {
		parts = append(parts, t)
	}
	return strings.Join(parts, "  ")
}

// snippet is the full view used by show, add and edit.
func (s styles) snippet(sn model.Snippet, viewer string) string {
	var b strings.Builder

	b.WriteString(s.title.Render(sn.Title))
	b.WriteString("\n")

	meta := []string{
		s.id.Render(sn.ID),
		s.muted.Render(sn.Language),
		s.muted.Render("by " + sn.AddedBy),
		s.likes(len(sn.LikedBy), sn.LikedByUser(viewer)),
	}
	if sn.Private {
		meta = append(meta, s.muted.Render("private"))
	}
	b.WriteString(strings.Join(meta, " · "))
	b.WriteString("\n")

	if t := s.tags(sn.Tags); t != "" {
		b.WriteString(t)
		b.WriteString("\n")
	}
	if sn.Source != "" {
		b.WriteString(s.muted.Render("source: " + sn.Source))
		b.WriteString("\n")
	}
	if sn.Description != "" {
		b.WriteString("\n")
		b.WriteString(sn.Description)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.code.Render(strings.TrimRight(sn.Value, "\n")))
	b.WriteString("\n")
	return b.String()
}

func (s styles) favorite(st favorite.State) string {
	verb := "removed from favorites"
	if st.Favorited {
		verb = "added to favorites"
	}
	return s.ok.Render(verb) + "  " + s.likes(len(st.LikedBy), st.Favorited)
}

func (s styles) failure(msg string) string {
	return s.danger.Render("error:") + " " + msg
}

// Package markdown provides a normaliser for imported Markdown notes.
package markdown

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown files.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Normalise extracts an article from a Markdown note.
// The first "# " heading becomes the title and is dropped from the text.
func (n *Normaliser) Normalise(_ context.Context, path string, content []byte) (*domain.Article, error) {
	if content == nil {
		return nil, domain.ErrInvalidInput
	}

	title, body := splitTitle(string(content))
	if title == "" {
		title = titleFromPath(path)
	}

	return &domain.Article{
		Title:      title,
		Text:       stripMarkdown(body),
		SourcePath: path,
	}, nil
}

// splitTitle finds the first H1 heading outside code fences and returns it
// with the remaining content.
func splitTitle(content string) (string, string) {
	lines := strings.Split(content, "\n")
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(trimmed, "# ") {
			title := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
			rest := append(append([]string{}, lines[:i]...), lines[i+1:]...)
			return title, strings.Join(rest, "\n")
		}
	}
	return "", content
}

var (
	codeBlock     = regexp.MustCompile("(?s)```.*?```")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis      = regexp.MustCompile(`(\*\*|__|\*|_)([^*_\n]+)(\*\*|__|\*|_)`)
	blockquote    = regexp.MustCompile(`(?m)^>\s*`)
	horizontal    = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList  = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common Markdown formatting and keeps the prose.
// Code blocks are dropped; inline code keeps its text.
func stripMarkdown(content string) string {
	content = codeBlock.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// titleFromPath turns "my_cat-notes.md" into "my cat notes".
func titleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

package domain

import (
	"strings"
	"time"
)

// Article is an archived piece of writing.
// Only Title, Text, Explanation and the first comment feed the index.
type Article struct {
	// ID is the unique identifier for the article.
	ID int64

	// Title is the human-readable title.
	Title string

	// Text is the main body. It may contain HTML from the rich-text editor.
	Text string

	// Explanation is the user's own annotation of the article.
	Explanation string

	// Comments are ordered oldest first.
	Comments []Comment

	// SourcePath is set for articles imported from the filesystem.
	SourcePath string

	// Date is the article's display date.
	Date time.Time

	// CreatedAt is when the article was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the article was last changed.
	UpdatedAt time.Time
}

// Comment is a note attached to an article.
type Comment struct {
	ID        int64
	ArticleID int64
	Text      string
	CreatedAt time.Time
}

// IndexableText combines the fields that are chunked and embedded.
// Empty fields are skipped.
func (a *Article) IndexableText() string {
	parts := []string{a.Title, a.Text, a.Explanation}
	if len(a.Comments) > 0 {
		parts = append(parts, a.Comments[0].Text)
	}

	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

// ArticleRef is the minimal display metadata for a cited article.
type ArticleRef struct {
	ID    int64
	Title string
	Date  time.Time
}

// Ref returns the display metadata of the article.
// Date falls back to CreatedAt when unset.
func (a *Article) Ref() ArticleRef {
	date := a.Date
	if date.IsZero() {
		date = a.CreatedAt
	}
	return ArticleRef{ID: a.ID, Title: a.Title, Date: date}
}

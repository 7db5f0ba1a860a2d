package domain

import "time"

// DefaultKBCategory is used when an article is saved without a category.
const DefaultKBCategory = "General"

// KBArticle is a knowledge base entry.
type KBArticle struct {
	ID         string
	Title      string
	Category   string
	Tags       []string
	Published  bool
	Body       string
	AuthorID   string
	AuthorName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

package dto

import "time"

// KBArticleRequest is the full editable content of an article.
type KBArticleRequest struct {
	Title     string   `json:"title" validate:"required,max=200"`
	Category  string   `json:"category" validate:"max=80"`
	Tags      []string `json:"tags" validate:"max=20,dive,max=40"`
	Published bool     `json:"published"`
	Body      string   `json:"body" validate:"max=100000"`
}

// KBArticleResponse is an article.
type KBArticleResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Tags       []string  `json:"tags"`
	Published  bool      `json:"published"`
	Body       string    `json:"body"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

package domain

import "time"

// CommentKind differentiates public replies and internal notes.
type CommentKind string

const (
	CommentKindPublic   CommentKind = "public"
	CommentKindInternal CommentKind = "internal"
)

// Comment is a public reply or an internal note on a ticket.
type Comment struct {
	ID         string      `json:"id"`
	Kind       CommentKind `json:"kind"`
	AuthorID   string      `json:"author_id"`
	AuthorName string      `json:"author_name"`
	Body       string      `json:"body"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Attachment stores metadata for a file whose bytes live in the blob store.
type Attachment struct {
	ID             string    `json:"id"`
	TicketID       string    `json:"ticket_id"`
	Name           string    `json:"name"`
	ContentType    string    `json:"content_type"`
	Size           int64     `json:"size"`
	UploadedByID   string    `json:"uploaded_by_id"`
	UploadedByName string    `json:"uploaded_by_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// Package storage keeps attachment bytes outside the ticket record.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no blob exists for a key.
var ErrNotFound = errors.New("blob not found")

// Blob is the stored payload of one attachment.
type Blob struct {
	TicketID     string
	AttachmentID string
	ContentType  string
	Data         []byte
}

// BlobStore persists attachment bytes keyed by ticket and attachment id.
type BlobStore interface {
	Put(ctx context.Context, blob Blob) error
	Get(ctx context.Context, ticketID, attachmentID string) (*Blob, error)
	// Delete removes one blob. Missing blobs are not an error.
	Delete(ctx context.Context, ticketID, attachmentID string) error
	// ListByTicket returns the attachment ids stored for a ticket.
	ListByTicket(ctx context.Context, ticketID string) ([]string, error)
}

// ObjectKey is the storage key of an attachment.
func ObjectKey(ticketID, attachmentID string) string {
	return fmt.Sprintf("%s%s", TicketPrefix(ticketID), attachmentID)
}

// TicketPrefix is the key prefix shared by every attachment of a ticket.
func TicketPrefix(ticketID string) string {
	return fmt.Sprintf("tickets/%s/", ticketID)
}

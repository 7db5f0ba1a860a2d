package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated           EventType = "ticket_created"
	EventTicketStatusChanged     EventType = "ticket_status_changed"
	EventTicketPriorityChanged   EventType = "ticket_priority_changed"
	EventTicketAssigned          EventType = "ticket_assigned"
	EventTicketCommentAdded      EventType = "ticket_comment_added"
	EventTicketAttachmentAdded   EventType = "ticket_attachment_added"
	EventTicketAttachmentRemoved EventType = "ticket_attachment_removed"
	EventTicketDeleted           EventType = "ticket_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
}

// ActorFrom copies the acting user's identity.
func ActorFrom(a domain.Actor) Actor {
	return Actor{ID: a.ID, Name: a.Name, Role: a.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	HumanID   string    `json:"human_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Priority domain.Priority `json:"priority"`
	Subject  string          `json:"subject"`
	Category string          `json:"category"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.Priority `json:"old_priority"`
	NewPriority domain.Priority `json:"new_priority"`
}

// TicketAssignedPayload payload. A nil assignee means the ticket was unassigned.
type TicketAssignedPayload struct {
	AssigneeID   *string `json:"assignee_id,omitempty"`
	AssigneeName *string `json:"assignee_name,omitempty"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string             `json:"comment_id"`
	Kind        domain.CommentKind `json:"kind"`
	BodyPreview string             `json:"body_preview"`
}

// TicketAttachmentPayload payload for attachment add and remove.
type TicketAttachmentPayload struct {
	AttachmentID string `json:"attachment_id"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
}

package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload. Zero impact or urgency takes the default level.
type CreateTicketRequest struct {
	Type        domain.TicketType `json:"type"`
	Category    string            `json:"category"`
	Subcategory string            `json:"subcategory"`
	Impact      int               `json:"impact" validate:"omitempty,min=1,max=3"`
	Urgency     int               `json:"urgency" validate:"omitempty,min=1,max=3"`
	Subject     string            `json:"subject" validate:"required,max=200"`
	Description string            `json:"description" validate:"max=20000"`
	Tags        []string          `json:"tags" validate:"max=20,dive,max=40"`
	RequesterID *string           `json:"requester_id"`
}

// UpdateTicketRequest is a partial update. Omitting assignee_id leaves the
// assignment alone; null or "" unassigns. Version enables the optimistic check.
type UpdateTicketRequest struct {
	Subject     *string              `json:"subject" validate:"omitempty,max=200"`
	Description *string              `json:"description" validate:"omitempty,max=20000"`
	Type        *domain.TicketType   `json:"type"`
	Category    *string              `json:"category"`
	Subcategory *string              `json:"subcategory"`
	Impact      *int                 `json:"impact" validate:"omitempty,min=1,max=3"`
	Urgency     *int                 `json:"urgency" validate:"omitempty,min=1,max=3"`
	Tags        *[]string            `json:"tags"`
	Status      *domain.TicketStatus `json:"status"`
	AssigneeID  OptionalString       `json:"assignee_id"`
	Version     *int                 `json:"version" validate:"omitempty,min=1"`
}

// OptionalString records whether a JSON field was present at all, so an
// explicit null is not mistaken for an omitted field.
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON is only called when the key is present, null included.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Or returns the value, or fallback when absent or null.
func (o OptionalString) Or(fallback string) string {
	if o.Value == nil {
		return fallback
	}
	return *o.Value
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body string             `json:"body" validate:"required,max=20000"`
	Kind domain.CommentKind `json:"kind" validate:"omitempty,oneof=public internal"`
}

// CreateWorklogRequest payload.
type CreateWorklogRequest struct {
	Minutes int    `json:"minutes" validate:"required,gt=0,lte=1440"`
	Note    string `json:"note" validate:"max=2000"`
}

// BreachResponse reports missed SLA targets at read time.
type BreachResponse struct {
	FirstResponseBreached bool `json:"first_response_breached"`
	ResolutionBreached    bool `json:"resolution_breached"`
}

// TicketSummary response.
type TicketSummary struct {
	ID            string              `json:"id"`
	HumanID       string              `json:"human_id"`
	Subject       string              `json:"subject"`
	Status        domain.TicketStatus `json:"status"`
	Priority      domain.Priority     `json:"priority"`
	RequesterName string              `json:"requester_name"`
	AssigneeName  *string             `json:"assignee_name"`
	Tags          []string            `json:"tags"`
	Breach        BreachResponse      `json:"breach"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info. Internal notes are omitted
// for requesters.
type TicketDetailResponse struct {
	ID                 string               `json:"id"`
	HumanID            string               `json:"human_id"`
	Type               domain.TicketType    `json:"type"`
	Category           string               `json:"category"`
	Subcategory        string               `json:"subcategory"`
	Impact             int                  `json:"impact"`
	Urgency            int                  `json:"urgency"`
	Priority           domain.Priority      `json:"priority"`
	Subject            string               `json:"subject"`
	Description        string               `json:"description"`
	Tags               []string             `json:"tags"`
	Status             domain.TicketStatus  `json:"status"`
	RequesterID        string               `json:"requester_id"`
	RequesterName      string               `json:"requester_name"`
	AssigneeID         *string              `json:"assignee_id"`
	AssigneeName       *string              `json:"assignee_name"`
	FirstResponseDueAt *time.Time           `json:"first_response_due_at"`
	FirstResponseAt    *time.Time           `json:"first_response_at"`
	ResolutionDueAt    *time.Time           `json:"resolution_due_at"`
	ResolvedAt         *time.Time           `json:"resolved_at"`
	ClosedAt           *time.Time           `json:"closed_at"`
	Comments           []CommentResponse    `json:"comments"`
	InternalNotes      []CommentResponse    `json:"internal_notes,omitempty"`
	Timeline           []TimelineResponse   `json:"timeline"`
	Attachments        []AttachmentResponse `json:"attachments"`
	Breach             BreachResponse       `json:"breach"`
	Version            int                  `json:"version"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// CommentResponse is a public reply or internal note.
type CommentResponse struct {
	ID         string             `json:"id"`
	Kind       domain.CommentKind `json:"kind"`
	AuthorID   string             `json:"author_id"`
	AuthorName string             `json:"author_name"`
	Body       string             `json:"body"`
	CreatedAt  time.Time          `json:"created_at"`
}

// TimelineResponse is one timeline entry.
type TimelineResponse struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ContentType    string    `json:"content_type"`
	Size           int64     `json:"size"`
	UploadedByName string    `json:"uploaded_by_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// WorklogResponse is one worklog entry.
type WorklogResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Minutes   int       `json:"minutes"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// BackupDocument is the export file. The same document restores the data.
type BackupDocument struct {
	Version    int                  `json:"version" validate:"required"`
	ExportedAt time.Time            `json:"exported_at"`
	Users      []BackupUser         `json:"users" validate:"dive"`
	Tickets    []BackupTicket       `json:"tickets" validate:"dive"`
	KB         []KBArticleResponse  `json:"kb"`
	Worklogs   []WorklogResponse    `json:"worklogs"`
	Audit      []AuditEntryResponse `json:"audit"`
}

// BackupUser carries the password hash, unlike UserResponse.
type BackupUser struct {
	ID           string      `json:"id" validate:"required"`
	Username     string      `json:"username" validate:"required"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Role         domain.Role `json:"role" validate:"oneof=Requester Agent Supervisor Admin"`
	Active       bool        `json:"active"`
	PasswordHash string      `json:"password_hash"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// BackupTicket is a ticket with its internal notes and version.
type BackupTicket struct {
	ID                 string                 `json:"id" validate:"required"`
	HumanID            string                 `json:"human_id" validate:"required"`
	Type               domain.TicketType      `json:"type"`
	Category           string                 `json:"category"`
	Subcategory        string                 `json:"subcategory"`
	Impact             int                    `json:"impact"`
	Urgency            int                    `json:"urgency"`
	Priority           domain.Priority        `json:"priority"`
	Subject            string                 `json:"subject"`
	Description        string                 `json:"description"`
	Tags               []string               `json:"tags"`
	Status             domain.TicketStatus    `json:"status"`
	RequesterID        string                 `json:"requester_id"`
	RequesterName      string                 `json:"requester_name"`
	AssigneeID         *string                `json:"assignee_id"`
	AssigneeName       *string                `json:"assignee_name"`
	FirstResponseDueAt *time.Time             `json:"first_response_due_at"`
	FirstResponseAt    *time.Time             `json:"first_response_at"`
	ResolutionDueAt    *time.Time             `json:"resolution_due_at"`
	ResolvedAt         *time.Time             `json:"resolved_at"`
	ClosedAt           *time.Time             `json:"closed_at"`
	Comments           []domain.Comment       `json:"comments"`
	InternalNotes      []domain.Comment       `json:"internal_notes"`
	Timeline           []domain.TimelineEntry `json:"timeline"`
	Attachments        []domain.Attachment    `json:"attachments"`
	Version            int                    `json:"version"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// RestoreResponse counts the records a restore wrote.
type RestoreResponse struct {
	Users    int `json:"users"`
	Tickets  int `json:"tickets"`
	KB       int `json:"kb"`
	Worklogs int `json:"worklogs"`
	Audit    int `json:"audit"`
}

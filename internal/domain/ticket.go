package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew             TicketStatus = "New"
	TicketStatusAssigned        TicketStatus = "Assigned"
	TicketStatusInProgress      TicketStatus = "In Progress"
	TicketStatusPendingCustomer TicketStatus = "Pending Customer"
	TicketStatusPendingVendor   TicketStatus = "Pending Vendor"
	TicketStatusResolved        TicketStatus = "Resolved"
	TicketStatusClosed          TicketStatus = "Closed"
	TicketStatusReopened        TicketStatus = "Reopened"
	TicketStatusCancelled       TicketStatus = "Cancelled"
)

// TicketStatuses lists every status in workflow order.
var TicketStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusPendingCustomer,
	TicketStatusPendingVendor,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusReopened,
	TicketStatusCancelled,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Priority is the P1-P4 tier derived from impact and urgency.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
)

// Priorities lists tiers from most to least urgent.
var Priorities = []Priority{PriorityP1, PriorityP2, PriorityP3, PriorityP4}

// Ticket is the aggregate for support requests. It owns its comments,
// internal notes, timeline and attachment metadata.
type Ticket struct {
	ID          string
	HumanID     string
	Type        TicketType
	Category    string
	Subcategory string
	Impact      int
	Urgency     int
	Priority    Priority
	Subject     string
	Description string
	Tags        []string
	Status      TicketStatus

	RequesterID   string
	RequesterName string
	AssigneeID    *string
	AssigneeName  *string

	FirstResponseDueAt *time.Time
	FirstResponseAt    *time.Time
	ResolutionDueAt    *time.Time
	ResolvedAt         *time.Time
	ClosedAt           *time.Time

	Comments      []Comment
	InternalNotes []Comment
	Timeline      []TimelineEntry
	Attachments   []Attachment

	// Version is bumped on every persisted mutation and used for compare-and-swap writes.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// FindAttachment returns the index of the attachment with the given id, or -1.
func (t *Ticket) FindAttachment(id string) int {
	for i := range t.Attachments {
		if t.Attachments[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	c.Tags = append([]string(nil), t.Tags...)
	c.Comments = append([]Comment(nil), t.Comments...)
	c.InternalNotes = append([]Comment(nil), t.InternalNotes...)
	c.Timeline = append([]TimelineEntry(nil), t.Timeline...)
	c.Attachments = append([]Attachment(nil), t.Attachments...)
	c.AssigneeID = cloneString(t.AssigneeID)
	c.AssigneeName = cloneString(t.AssigneeName)
	c.FirstResponseDueAt = cloneTime(t.FirstResponseDueAt)
	c.FirstResponseAt = cloneTime(t.FirstResponseAt)
	c.ResolutionDueAt = cloneTime(t.ResolutionDueAt)
	c.ResolvedAt = cloneTime(t.ResolvedAt)
	c.ClosedAt = cloneTime(t.ClosedAt)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

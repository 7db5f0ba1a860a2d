package domain

import "time"

// TimelineEntry is an immutable, human-readable record of a ticket change.
type TimelineEntry struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntry is an append-only log line naming the actor of an action.
type AuditEntry struct {
	ID        string
	Actor     string
	Action    string
	CreatedAt time.Time
}

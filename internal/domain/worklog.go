package domain

import "time"

// Worklog records time spent on a ticket. Entries are immutable.
type Worklog struct {
	ID        string
	TicketID  string
	ActorID   string
	ActorName string
	Minutes   int
	Note      string
	CreatedAt time.Time
}

package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ReportSummaryResponse aggregates tickets created in a window.
type ReportSummaryResponse struct {
	From                  time.Time                   `json:"from"`
	To                    time.Time                   `json:"to"`
	Total                 int                         `json:"total"`
	ByStatus              map[domain.TicketStatus]int `json:"by_status"`
	ByPriority            map[domain.Priority]int     `json:"by_priority"`
	AvgResolutionMinutes  int                         `json:"avg_resolution_minutes"`
	FirstResponseBreached int                         `json:"first_response_breached"`
	ResolutionBreached    int                         `json:"resolution_breached"`
	WorklogMinutes        int                         `json:"worklog_minutes"`
}

// AuditEntryResponse is one audit line.
type AuditEntryResponse struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

package service

import (
	"context"
	"math"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const defaultReportWindow = 7 * 24 * time.Hour

// ReportSummary aggregates the tickets created in a window.
type ReportSummary struct {
	From                  time.Time
	To                    time.Time
	Total                 int
	ByStatus              map[domain.TicketStatus]int
	ByPriority            map[domain.Priority]int
	AvgResolutionMinutes  int
	FirstResponseBreached int
	ResolutionBreached    int
	WorklogMinutes        int
}

// ReportService computes operational summaries.
type ReportService struct {
	tickets  repository.TicketRepository
	worklogs repository.WorklogRepository
	now      Clock
}

// NewReportService constructs the service.
func NewReportService(tickets repository.TicketRepository, worklogs repository.WorklogRepository, clock Clock) *ReportService {
	return &ReportService{tickets: tickets, worklogs: worklogs, now: clockOrDefault(clock)}
}

// Summary aggregates tickets visible to the actor whose creation time lies in
// [from, to]. Zero bounds default to the last seven days. Agent+.
func (s *ReportService) Summary(ctx context.Context, from, to time.Time, actor domain.Actor) (*ReportSummary, error) {
	if err := requireRole(actor, domain.RoleAgent); err != nil {
		return nil, err
	}
	now := s.now()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.Add(-defaultReportWindow)
	}
	if from.After(to) {
		return nil, apperrors.NewValidationError("from must not be after to",
			map[string]any{"from": from, "to": to})
	}

	filter := repository.TicketFilter{CreatedFrom: &from, CreatedTo: &to}
	if err := applyViewScope(&filter, actor); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	summary := &ReportSummary{
		From:       from,
		To:         to,
		Total:      len(tickets),
		ByStatus:   make(map[domain.TicketStatus]int),
		ByPriority: make(map[domain.Priority]int),
	}
	var (
		resolvedCount int
		resolvedTotal float64
		ids           = make([]string, 0, len(tickets))
	)
	for i := range tickets {
		t := &tickets[i]
		ids = append(ids, t.ID)
		summary.ByStatus[t.Status]++
		summary.ByPriority[t.Priority]++

		end := t.ClosedAt
		if end == nil {
			end = t.ResolvedAt
		}
		if end != nil {
			resolvedCount++
			resolvedTotal += math.Max(0, end.Sub(t.CreatedAt).Minutes())
		}

		breach := sla.BreachStatus(t, now)
		if breach.FirstResponseBreached {
			summary.FirstResponseBreached++
		}
		if breach.ResolutionBreached {
			summary.ResolutionBreached++
		}
	}
	if resolvedCount > 0 {
		summary.AvgResolutionMinutes = int(math.Round(resolvedTotal / float64(resolvedCount)))
	}

	if len(ids) > 0 {
		entries, err := s.worklogs.ListByTickets(ctx, ids)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		for _, entry := range entries {
			if entry.CreatedAt.Before(from) || entry.CreatedAt.After(to) {
				continue
			}
			summary.WorklogMinutes += entry.Minutes
		}
	}
	return summary, nil
}

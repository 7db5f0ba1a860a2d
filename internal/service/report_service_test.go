package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestReportSummary(t *testing.T) {
	f := newFixture(t)
	reports := NewReportService(f.tickets, f.worklogs, f.clock.Now)
	start := f.clock.Now()

	urgent, err := f.ticketSvc.Create(f.ctx, TicketCreateInput{Subject: "Outage", Impact: 3, Urgency: 3}, f.requester)
	require.NoError(t, err)
	routine := f.createTicket(t, f.requester, "Mouse")

	f.clock.Advance(30 * time.Minute)
	_, err = f.ticketSvc.Update(f.ctx, routine.ID, TicketPatch{Status: ptr(domain.TicketStatusResolved)}, f.agent)
	require.NoError(t, err)
	f.clock.Advance(30 * time.Minute)
	_, err = f.ticketSvc.Update(f.ctx, routine.ID, TicketPatch{Status: ptr(domain.TicketStatusClosed)}, f.agent)
	require.NoError(t, err)

	_, err = f.ticketSvc.AddWorklog(f.ctx, urgent.ID, WorklogInput{Minutes: 45}, f.agent)
	require.NoError(t, err)
	_, err = f.ticketSvc.AddWorklog(f.ctx, routine.ID, WorklogInput{Minutes: 15}, f.agent)
	require.NoError(t, err)

	_, err = reports.Summary(f.ctx, time.Time{}, time.Time{}, f.requester)
	requireCode(t, err, apperrors.CodeForbidden)

	summary, err := reports.Summary(f.ctx, start, f.clock.Now(), f.supervisor)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.ByStatus[domain.TicketStatusNew])
	assert.Equal(t, 1, summary.ByStatus[domain.TicketStatusClosed])
	assert.Equal(t, 1, summary.ByPriority[domain.PriorityP1])
	assert.Equal(t, 1, summary.ByPriority[domain.PriorityP3])
	assert.Equal(t, 60, summary.AvgResolutionMinutes, "closedAt wins over resolvedAt")
	assert.Equal(t, 1, summary.FirstResponseBreached, "P1 unanswered after an hour")
	assert.Equal(t, 0, summary.ResolutionBreached)
	assert.Equal(t, 60, summary.WorklogMinutes)

	agentView, err := reports.Summary(f.ctx, start, f.clock.Now(), f.agent)
	require.NoError(t, err)
	assert.Equal(t, 0, agentView.Total, "agents only count tickets they participate in")

	_, err = reports.Summary(f.ctx, f.clock.Now(), start, f.supervisor)
	requireCode(t, err, apperrors.CodeValidation)
}

func TestReportDefaultsToLastWeek(t *testing.T) {
	f := newFixture(t)
	reports := NewReportService(f.tickets, f.worklogs, f.clock.Now)
	f.createTicket(t, f.requester, "old")
	f.clock.Advance(8 * 24 * time.Hour)
	f.createTicket(t, f.requester, "new")

	summary, err := reports.Summary(f.ctx, time.Time{}, time.Time{}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, f.clock.Now().Add(-7*24*time.Hour), summary.From)
}

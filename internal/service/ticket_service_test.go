package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestTicketLifecycleEndToEnd(t *testing.T) {
	f := newFixture(t)
	created := f.clock.Now()

	ticket, err := f.ticketSvc.Create(f.ctx, TicketCreateInput{
		Subject: "Email down",
		Impact:  3,
		Urgency: 3,
	}, f.requester)
	require.NoError(t, err)
	assert.Equal(t, "HD-1001", ticket.HumanID)
	assert.Equal(t, domain.PriorityP1, ticket.Priority)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	require.NotNil(t, ticket.FirstResponseDueAt)
	require.NotNil(t, ticket.ResolutionDueAt)
	assert.Equal(t, created.Add(15*time.Minute), *ticket.FirstResponseDueAt)
	assert.Equal(t, created.Add(240*time.Minute), *ticket.ResolutionDueAt)

	f.clock.Advance(5 * time.Minute)
	view, err := f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Assignee: &AssigneePatch{UserID: f.agent.ID}}, f.supervisor)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, view.Ticket.Status)
	require.NotNil(t, view.Ticket.AssigneeName)
	assert.Equal(t, "Alex Agent", *view.Ticket.AssigneeName)
	assert.Equal(t, "Status: New → Assigned · Assigned to Alex Agent", view.Ticket.Timeline[1].Action)

	f.clock.Advance(time.Minute)
	view, err = f.ticketSvc.AddComment(f.ctx, ticket.ID, CommentInput{Body: "Acknowledged"}, f.agent)
	require.NoError(t, err)
	require.NotNil(t, view.Ticket.FirstResponseAt)
	assert.Equal(t, f.clock.Now(), *view.Ticket.FirstResponseAt)
	assert.Len(t, view.Ticket.Timeline, 3)
	assert.False(t, view.Breach.FirstResponseBreached)

	view, err = f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Status: ptr(domain.TicketStatusResolved)}, f.agent)
	require.NoError(t, err)
	require.NotNil(t, view.Ticket.ResolvedAt)

	view, err = f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Status: ptr(domain.TicketStatusReopened)}, f.agent)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusReopened, view.Ticket.Status)
	assert.Nil(t, view.Ticket.ResolvedAt)
	assert.Nil(t, view.Ticket.ClosedAt)

	assert.Equal(t, []string{
		"Created ticket HD-1001",
		"Updated ticket HD-1001",
		"Commented on HD-1001",
		"Updated ticket HD-1001",
		"Updated ticket HD-1001",
	}, f.audit.actions())
}

func TestResolvedTimestampIsLatched(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Printer jam")

	view, err := f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Status: ptr(domain.TicketStatusResolved)}, f.agent)
	require.NoError(t, err)
	resolvedAt := *view.Ticket.ResolvedAt
	timeline := len(view.Ticket.Timeline)

	f.clock.Advance(time.Hour)
	view, err = f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Status: ptr(domain.TicketStatusResolved)}, f.agent)
	require.NoError(t, err)
	assert.Equal(t, resolvedAt, *view.Ticket.ResolvedAt)
	assert.Len(t, view.Ticket.Timeline, timeline, "re-applying the same status is a no-op")

	view, err = f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Status: ptr(domain.TicketStatusClosed)}, f.agent)
	require.NoError(t, err)
	require.NotNil(t, view.Ticket.ClosedAt)
	assert.Equal(t, f.clock.Now(), *view.Ticket.ClosedAt)
	assert.Equal(t, resolvedAt, *view.Ticket.ResolvedAt)
}

func TestReopenRequiresFinishedTicket(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Laptop slow")

	_, err := f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Status: ptr(domain.TicketStatusReopened)}, f.agent)
	requireCode(t, err, apperrors.CodeValidation)
}

func TestFirstResponseOnlyFromAgents(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "VPN")

	view, err := f.ticketSvc.AddComment(f.ctx, ticket.ID, CommentInput{Body: "any update?"}, f.requester)
	require.NoError(t, err)
	assert.Nil(t, view.Ticket.FirstResponseAt)

	view, err = f.ticketSvc.AddComment(f.ctx, ticket.ID, CommentInput{Body: "looking", Kind: domain.CommentKindInternal}, f.agent)
	require.NoError(t, err)
	assert.Nil(t, view.Ticket.FirstResponseAt, "internal notes are not a response")

	f.clock.Advance(2 * time.Minute)
	view, err = f.ticketSvc.AddComment(f.ctx, ticket.ID, CommentInput{Body: "on it"}, f.agent)
	require.NoError(t, err)
	first := *view.Ticket.FirstResponseAt

	f.clock.Advance(2 * time.Minute)
	view, err = f.ticketSvc.AddComment(f.ctx, ticket.ID, CommentInput{Body: "still on it"}, f.agent)
	require.NoError(t, err)
	assert.Equal(t, first, *view.Ticket.FirstResponseAt)
}

func TestInternalNotesHiddenFromRequesters(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Badge reader")

	_, err := f.ticketSvc.AddComment(f.ctx, ticket.ID, CommentInput{Body: "secret", Kind: domain.CommentKindInternal}, f.requester)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.ticketSvc.AddComment(f.ctx, ticket.ID, CommentInput{Body: "vendor RMA", Kind: domain.CommentKindInternal}, f.agent)
	require.NoError(t, err)

	asRequester, err := f.ticketSvc.Get(f.ctx, ticket.ID, f.requester)
	require.NoError(t, err)
	assert.Empty(t, asRequester.Ticket.InternalNotes)

	asSupervisor, err := f.ticketSvc.Get(f.ctx, ticket.ID, f.supervisor)
	require.NoError(t, err)
	require.Len(t, asSupervisor.Ticket.InternalNotes, 1)
	assert.Equal(t, "vendor RMA", asSupervisor.Ticket.InternalNotes[0].Body)
}

func TestCommentValidation(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Monitor")

	_, err := f.ticketSvc.AddComment(f.ctx, ticket.ID, CommentInput{Body: "   "}, f.agent)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.ticketSvc.AddComment(f.ctx, ticket.ID, CommentInput{Body: "x", Kind: "shout"}, f.agent)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.ticketSvc.AddComment(f.ctx, ticket.ID, CommentInput{Body: "me too"}, f.other)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestViewScope(t *testing.T) {
	f := newFixture(t)
	mine := f.createTicket(t, f.requester, "Mine")
	theirs := f.createTicket(t, f.other, "Theirs")
	_, err := f.ticketSvc.Update(f.ctx, theirs.ID, TicketPatch{Assignee: &AssigneePatch{UserID: f.agent.ID}}, f.supervisor)
	require.NoError(t, err)

	_, err = f.ticketSvc.Get(f.ctx, theirs.ID, f.requester)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.ticketSvc.Get(f.ctx, mine.ID, f.agent)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.ticketSvc.Get(f.ctx, theirs.ID, f.agent)
	require.NoError(t, err)

	_, err = f.ticketSvc.Get(f.ctx, "missing", f.admin)
	requireCode(t, err, apperrors.CodeNotFound)

	list, err := f.ticketSvc.List(f.ctx, TicketListFilter{}, f.requester)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].Ticket.ID)

	list, err = f.ticketSvc.List(f.ctx, TicketListFilter{}, f.agent)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, theirs.ID, list[0].Ticket.ID)

	list, err = f.ticketSvc.List(f.ctx, TicketListFilter{}, f.supervisor)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = f.ticketSvc.List(f.ctx, TicketListFilter{Statuses: []domain.TicketStatus{domain.TicketStatusNew}}, f.supervisor)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].Ticket.ID)
}

func TestCreateValidationAndOnBehalf(t *testing.T) {
	f := newFixture(t)

	_, err := f.ticketSvc.Create(f.ctx, TicketCreateInput{Subject: "  "}, f.requester)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.ticketSvc.Create(f.ctx, TicketCreateInput{Subject: "x", Impact: 4}, f.requester)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.ticketSvc.Create(f.ctx, TicketCreateInput{Subject: "x", Category: "Hardware", Subcategory: "Nope"}, f.requester)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.ticketSvc.Create(f.ctx, TicketCreateInput{Subject: "x", RequesterID: ptr(f.other.ID)}, f.requester)
	requireCode(t, err, apperrors.CodeForbidden)

	ticket, err := f.ticketSvc.Create(f.ctx, TicketCreateInput{Subject: "phoned in", RequesterID: ptr(f.other.ID)}, f.agent)
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, ticket.RequesterID)
	assert.Equal(t, "Oscar Other", ticket.RequesterName)
	assert.Equal(t, domain.PriorityP3, ticket.Priority)
	assert.Equal(t, domain.TicketTypeIncident, ticket.Type)
	assert.Equal(t, domain.DefaultCategory, ticket.Category)
	assert.Equal(t, domain.DefaultSubcategory, ticket.Subcategory)
	assert.Equal(t, "Created ticket", ticket.Timeline[0].Action)
	assert.Equal(t, f.agent.ID, ticket.Timeline[0].ActorID)
}

func TestUpdateNoChangesAndNoOp(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Keyboard")

	_, err := f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{}, f.agent)
	requireCode(t, err, apperrors.CodeValidation)

	auditBefore := len(f.audit.actions())
	view, err := f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Subject: ptr(" Keyboard "), Impact: ptr(2)}, f.agent)
	require.NoError(t, err)
	assert.Len(t, view.Ticket.Timeline, 1)
	assert.Equal(t, 1, view.Ticket.Version)
	assert.Len(t, f.audit.actions(), auditBefore)
}

// concurrentSameSubject lets another writer store the same subject change
// just before the first write, so that write loses the version race.
type concurrentSameSubject struct {
	*memory.TicketRepository
	subject string
	raced   bool
}

func (r *concurrentSameSubject) Update(ctx context.Context, ticket *domain.Ticket) error {
	if !r.raced {
		r.raced = true
		stored, err := r.TicketRepository.GetByID(ctx, ticket.ID)
		if err != nil {
			return err
		}
		stored.Subject = r.subject
		if err := r.TicketRepository.Update(ctx, stored); err != nil {
			return err
		}
		return repository.ErrVersionConflict
	}
	return r.TicketRepository.Update(ctx, ticket)
}

func TestUpdateLosingRaceToIdenticalChangeIsNoOp(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Monitor flickers")
	svc := NewTicketService(TicketDependencies{
		TicketRepo: &concurrentSameSubject{TicketRepository: f.tickets, subject: "Monitor flickering"},
		UserRepo:   f.users,
		Audit:      f.audit,
		Dispatcher: f.dispatcher,
		Clock:      f.clock.Now,
	})
	auditBefore := len(f.audit.actions())
	f.published = nil

	view, err := svc.Update(f.ctx, ticket.ID, TicketPatch{Subject: ptr("Monitor flickering")}, f.agent)
	require.NoError(t, err)

	assert.Len(t, f.audit.actions(), auditBefore)
	assert.Empty(t, f.published)
	assert.Equal(t, 2, view.Ticket.Version)
	assert.Len(t, view.Ticket.Timeline, 1)

	stored, err := f.tickets.GetByID(f.ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	assert.Len(t, stored.Timeline, 1)
}

func TestUpdateReclassifiesPriority(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Server room hot")
	f.published = nil

	f.clock.Advance(10 * time.Minute)
	view, err := f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{
		Impact:  ptr(3),
		Urgency: ptr(3),
		Tags:    ptr([]string{"facilities", " facilities ", ""}),
	}, f.supervisor)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityP1, view.Ticket.Priority)
	assert.Equal(t, []string{"facilities"}, view.Ticket.Tags)
	assert.Equal(t, "Updated priority matrix · Updated tags", view.Ticket.Timeline[len(view.Ticket.Timeline)-1].Action)
	assert.Equal(t, ticket.CreatedAt.Add(15*time.Minute), *view.Ticket.FirstResponseDueAt)

	require.Len(t, f.published, 1)
	assert.Equal(t, events.EventTicketPriorityChanged, f.published[0].Type)
}

func TestAssigneeRules(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Phone")

	_, err := f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Assignee: &AssigneePatch{UserID: f.other.ID}}, f.agent)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Assignee: &AssigneePatch{UserID: "ghost"}}, f.agent)
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Assignee: &AssigneePatch{UserID: f.agent2.ID}}, f.agent)
	require.NoError(t, err)

	view, err := f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Assignee: &AssigneePatch{}}, f.agent)
	require.NoError(t, err)
	assert.Nil(t, view.Ticket.AssigneeID)
	assert.Equal(t, domain.TicketStatusAssigned, view.Ticket.Status)
	assert.Equal(t, "Assigned to —", view.Ticket.Timeline[len(view.Ticket.Timeline)-1].Action)

	_, err = f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Subject: ptr("Desk phone")}, f.other)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestStaleExpectedVersionConflicts(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Wifi")

	_, err := f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Subject: ptr("Wifi flaky"), ExpectedVersion: ptr(1)}, f.agent)
	require.NoError(t, err)

	_, err = f.ticketSvc.Update(f.ctx, ticket.ID, TicketPatch{Subject: ptr("Wifi dead"), ExpectedVersion: ptr(1)}, f.agent2)
	requireCode(t, err, apperrors.CodeConflict)

	current, err := f.ticketSvc.Get(f.ctx, ticket.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "Wifi flaky", current.Ticket.Subject)
	assert.Equal(t, 2, current.Ticket.Version)
}

func TestConcurrentCommentsAreAllKept(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Shared drive")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.ticketSvc.AddComment(f.ctx, ticket.ID, CommentInput{Body: "reply"}, f.agent)
		}(i)
	}
	wg.Wait()

	stored, err := f.tickets.GetByID(f.ctx, ticket.ID)
	require.NoError(t, err)
	kept := 0
	for _, err := range errs {
		if err == nil {
			kept++
		}
	}
	assert.Len(t, stored.Comments, kept)
	assert.Equal(t, 2, kept)
}

func TestWorklogs(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Install Office")

	_, err := f.ticketSvc.AddWorklog(f.ctx, ticket.ID, WorklogInput{Minutes: 30}, f.requester)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.ticketSvc.AddWorklog(f.ctx, ticket.ID, WorklogInput{Minutes: 0}, f.agent)
	requireCode(t, err, apperrors.CodeValidation)

	entry, err := f.ticketSvc.AddWorklog(f.ctx, ticket.ID, WorklogInput{Minutes: 30, Note: " remote session "}, f.agent)
	require.NoError(t, err)
	assert.Equal(t, "remote session", entry.Note)
	assert.Contains(t, f.audit.actions(), "Logged 30m on HD-1001")

	entries, err := f.ticketSvc.ListWorklogs(f.ctx, ticket.ID, f.requester)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = f.ticketSvc.ListWorklogs(f.ctx, ticket.ID, f.other)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestDeleteTicket(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Old laptop")
	_, err := f.ticketSvc.AddAttachment(f.ctx, ticket.ID, AttachmentInput{Name: "a.txt", Data: []byte("a")}, f.requester)
	require.NoError(t, err)

	requireCode(t, f.ticketSvc.Delete(f.ctx, ticket.ID, f.supervisor), apperrors.CodeForbidden)
	require.NoError(t, f.ticketSvc.Delete(f.ctx, ticket.ID, f.admin))

	_, err = f.ticketSvc.Get(f.ctx, ticket.ID, f.admin)
	requireCode(t, err, apperrors.CodeNotFound)
	assert.Equal(t, 0, f.blobs.Len())
	assert.Equal(t, events.EventTicketDeleted, f.published[len(f.published)-1].Type)
}

func TestSequentialHumanIDs(t *testing.T) {
	f := newFixture(t)
	first := f.createTicket(t, f.requester, "one")
	second := f.createTicket(t, f.requester, "two")
	assert.Equal(t, "HD-1001", first.HumanID)
	assert.Equal(t, "HD-1002", second.HumanID)
}

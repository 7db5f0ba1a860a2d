package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// maxWriteAttempts bounds retries of append-style mutations that lost a version race.
const maxWriteAttempts = 3

// TicketService is the ticket lifecycle engine. Every mutation is guarded by
// role and ownership, appends one timeline entry and records one audit line.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	worklogs   repository.WorklogRepository
	sequence   repository.TicketSequence
	blobs      storage.BlobStore
	audit      auditor
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.TicketConfig
	now        Clock
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	WorklogRepo repository.WorklogRepository
	Sequence    repository.TicketSequence
	Blobs       storage.BlobStore
	Audit       AuditSink
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Config      config.TicketConfig
	Clock       Clock
}

// TicketCreateInput describes ticket creation payload. Zero Impact/Urgency
// mean the default level. RequesterID files the ticket on behalf of another user.
type TicketCreateInput struct {
	Type        domain.TicketType
	Category    string
	Subcategory string
	Impact      int
	Urgency     int
	Subject     string
	Description string
	Tags        []string
	RequesterID *string
}

// AssigneePatch sets the assignee. An empty UserID clears the assignment.
type AssigneePatch struct {
	UserID string
}

// TicketPatch is a partial update; nil fields are left untouched.
type TicketPatch struct {
	Subject         *string
	Description     *string
	Type            *domain.TicketType
	Category        *string
	Subcategory     *string
	Impact          *int
	Urgency         *int
	Tags            *[]string
	Status          *domain.TicketStatus
	Assignee        *AssigneePatch
	ExpectedVersion *int
}

// IsEmpty reports whether the patch names no field.
func (p TicketPatch) IsEmpty() bool {
	return p.Subject == nil && p.Description == nil && p.Type == nil && p.Category == nil &&
		p.Subcategory == nil && p.Impact == nil && p.Urgency == nil && p.Tags == nil &&
		p.Status == nil && p.Assignee == nil
}

// CommentInput is a public reply or internal note.
type CommentInput struct {
	Body string
	Kind domain.CommentKind
}

// WorklogInput records time spent.
type WorklogInput struct {
	Minutes int
	Note    string
}

// TicketListFilter narrows listings within the caller's view scope.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.Priority
	AssigneeID  *string
	RequesterID *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketView is a ticket as seen by one actor, with its breach state at read time.
type TicketView struct {
	Ticket *domain.Ticket
	Breach sla.Breach
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config
	if cfg.Prefix == "" {
		cfg.Prefix = "HD"
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		worklogs:   deps.WorklogRepo,
		sequence:   deps.Sequence,
		blobs:      deps.Blobs,
		audit:      auditor{sink: deps.Audit},
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cfg:        cfg,
		now:        clockOrDefault(deps.Clock),
	}
}

// CanView applies the read scope: Supervisor+ see everything, agents see
// tickets they are assigned to or raised, requesters see their own.
func CanView(actor domain.Actor, ticket *domain.Ticket) bool {
	switch {
	case domain.RoleAtLeast(actor.Role, domain.RoleSupervisor):
		return true
	case actor.Role == domain.RoleAgent:
		return ticket.IsAssignedTo(actor.ID) || ticket.RequesterID == actor.ID
	case actor.Role == domain.RoleRequester:
		return ticket.RequesterID == actor.ID
	default:
		return false
	}
}

// canMutate gates update and comment: Agent+ or the ticket's requester.
func canMutate(actor domain.Actor, ticket *domain.Ticket) bool {
	if domain.RoleAtLeast(actor.Role, domain.RoleAgent) {
		return true
	}
	return actor.Role.Valid() && ticket.RequesterID == actor.ID
}

// Create files a new ticket in status New with priority and SLA due dates derived.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput, actor domain.Actor) (*domain.Ticket, error) {
	if !actor.Role.Valid() {
		return nil, apperrors.NewForbidden("authenticated user required")
	}

	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject is required", nil)
	}
	impact, urgency, err := levelsOrDefault(input.Impact, input.Urgency)
	if err != nil {
		return nil, err
	}
	ticketType := input.Type
	if ticketType == "" {
		ticketType = domain.TicketTypeIncident
	}
	if !ticketType.Valid() {
		return nil, apperrors.NewValidationError("unknown ticket type", map[string]any{"type": ticketType})
	}
	category := strings.TrimSpace(input.Category)
	subcategory := strings.TrimSpace(input.Subcategory)
	if category == "" {
		category = domain.DefaultCategory
	}
	if subcategory == "" {
		if category == domain.DefaultCategory {
			subcategory = domain.DefaultSubcategory
		} else if subs := domain.CategoryCatalog[category]; len(subs) > 0 {
			subcategory = subs[0]
		}
	}
	if !domain.ValidClassification(category, subcategory) {
		return nil, apperrors.NewValidationError("unknown category or subcategory",
			map[string]any{"category": category, "subcategory": subcategory})
	}

	requesterID, requesterName := actor.ID, actor.Name
	if input.RequesterID != nil && *input.RequesterID != "" && *input.RequesterID != actor.ID {
		if err := requireRole(actor, domain.RoleAgent); err != nil {
			return nil, err
		}
		requester, err := s.users.GetByID(ctx, *input.RequesterID)
		if err != nil {
			return nil, repoError(err, "user", map[string]any{"user_id": *input.RequesterID})
		}
		if !requester.Active {
			return nil, apperrors.NewValidationError("requester is inactive", map[string]any{"user_id": requester.ID})
		}
		requesterID, requesterName = requester.ID, requester.Name
	}

	seq, err := s.sequence.Next(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	ticket := &domain.Ticket{
		ID:            uuid.NewString(),
		HumanID:       fmt.Sprintf("%s-%d", s.cfg.Prefix, seq),
		Type:          ticketType,
		Category:      category,
		Subcategory:   subcategory,
		Impact:        impact,
		Urgency:       urgency,
		Priority:      sla.PriorityFromImpactUrgency(impact, urgency),
		Subject:       subject,
		Description:   strings.TrimSpace(input.Description),
		Tags:          normalizeTags(input.Tags),
		Status:        domain.TicketStatusNew,
		RequesterID:   requesterID,
		RequesterName: requesterName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	sla.ComputeDueDates(ticket)
	ticket.Timeline = []domain.TimelineEntry{newTimelineEntry(actor, now, "Created ticket")}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, repoError(err, "ticket", map[string]any{"human_id": ticket.HumanID})
	}

	s.audit.record(actor, now, "Created ticket %s", ticket.HumanID)
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		HumanID:  ticket.HumanID,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketCreatedPayload{
			Priority: ticket.Priority,
			Subject:  ticket.Subject,
			Category: ticket.Category,
		},
	}, now)
	return ticket, nil
}

// Get returns a ticket within the actor's view scope.
func (s *TicketService) Get(ctx context.Context, ticketID string, actor domain.Actor) (*TicketView, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("ticket is outside your view scope")
	}
	return s.view(ticket, actor), nil
}

// List returns visible tickets, most recently updated first.
func (s *TicketService) List(ctx context.Context, filter TicketListFilter, actor domain.Actor) ([]TicketView, error) {
	repoFilter := repository.TicketFilter{
		RequesterID: filter.RequesterID,
		AssigneeID:  filter.AssigneeID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if err := applyViewScope(&repoFilter, actor); err != nil {
		return nil, err
	}

	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	views := make([]TicketView, 0, len(tickets))
	for i := range tickets {
		views = append(views, *s.view(&tickets[i], actor))
	}
	return views, nil
}

func applyViewScope(filter *repository.TicketFilter, actor domain.Actor) error {
	switch {
	case domain.RoleAtLeast(actor.Role, domain.RoleSupervisor):
	case actor.Role == domain.RoleAgent:
		id := actor.ID
		filter.ParticipantID = &id
	case actor.Role == domain.RoleRequester:
		id := actor.ID
		filter.RequesterID = &id
	default:
		return apperrors.NewForbidden("authenticated user required")
	}
	return nil
}

// Update applies a partial patch. Re-applying values the ticket already holds
// is a no-op: nothing is persisted and no timeline or audit entry is written.
func (s *TicketService) Update(ctx context.Context, ticketID string, patch TicketPatch, actor domain.Actor) (*TicketView, error) {
	if patch.IsEmpty() {
		return nil, apperrors.NewValidationError("no changes", nil)
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var assignee *domain.User
	if patch.Assignee != nil && patch.Assignee.UserID != "" {
		user, err := s.users.GetByID(ctx, patch.Assignee.UserID)
		if err != nil {
			return nil, repoError(err, "user", map[string]any{"user_id": patch.Assignee.UserID})
		}
		if !user.Active || !domain.RoleAtLeast(user.Role, domain.RoleAgent) {
			return nil, apperrors.NewValidationError("assignee must be an active agent",
				map[string]any{"user_id": user.ID})
		}
		assignee = user
	}

	var (
		before *domain.Ticket
		after  *domain.Ticket
	)
	retry := patch.ExpectedVersion == nil
	err := s.mutate(ctx, ticketID, retry, func(ticket *domain.Ticket) (bool, error) {
		// Each attempt starts from freshly loaded state; a copy from a lost
		// version race was never stored.
		before, after = nil, nil
		if !canMutate(actor, ticket) {
			return false, apperrors.NewForbidden("only agents or the requester may update this ticket")
		}
		if patch.ExpectedVersion != nil && *patch.ExpectedVersion != ticket.Version {
			return false, apperrors.NewConflict("ticket was modified by someone else",
				map[string]any{"expected_version": *patch.ExpectedVersion, "current_version": ticket.Version})
		}
		before = ticket.Clone()
		actions, err := applyPatch(ticket, patch, assignee, s.now())
		if err != nil {
			return false, err
		}
		if len(actions) == 0 {
			return false, nil
		}
		ticket.UpdatedAt = s.now()
		ticket.Timeline = append(ticket.Timeline, newTimelineEntry(actor, ticket.UpdatedAt, strings.Join(actions, " · ")))
		after = ticket
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if after == nil {
		return s.view(before, actor), nil
	}

	s.audit.record(actor, after.UpdatedAt, "Updated ticket %s", after.HumanID)
	s.publishUpdateEvents(ctx, before, after, actor)
	return s.view(after, actor), nil
}

func validatePatch(patch TicketPatch) error {
	if patch.Subject != nil && strings.TrimSpace(*patch.Subject) == "" {
		return apperrors.NewValidationError("subject cannot be empty", nil)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": *patch.Status})
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return apperrors.NewValidationError("unknown ticket type", map[string]any{"type": *patch.Type})
	}
	if patch.Impact != nil && !sla.ValidLevel(*patch.Impact) {
		return apperrors.NewValidationError("impact must be between 1 and 3", map[string]any{"impact": *patch.Impact})
	}
	if patch.Urgency != nil && !sla.ValidLevel(*patch.Urgency) {
		return apperrors.NewValidationError("urgency must be between 1 and 3", map[string]any{"urgency": *patch.Urgency})
	}
	return nil
}

// applyPatch mutates ticket and returns the timeline summary parts in their
// fixed order. It returns no parts when nothing changed.
func applyPatch(ticket *domain.Ticket, patch TicketPatch, assignee *domain.User, now time.Time) ([]string, error) {
	beforeStatus := ticket.Status

	subjectChanged := false
	if patch.Subject != nil {
		subject := strings.TrimSpace(*patch.Subject)
		subjectChanged = subject != ticket.Subject
		ticket.Subject = subject
	}
	descriptionChanged := false
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		descriptionChanged = description != ticket.Description
		ticket.Description = description
	}

	classificationChanged := false
	if patch.Type != nil || patch.Category != nil || patch.Subcategory != nil {
		ticketType, category, subcategory := ticket.Type, ticket.Category, ticket.Subcategory
		if patch.Type != nil {
			ticketType = *patch.Type
		}
		if patch.Category != nil {
			category = strings.TrimSpace(*patch.Category)
		}
		if patch.Subcategory != nil {
			subcategory = strings.TrimSpace(*patch.Subcategory)
		}
		if !domain.ValidClassification(category, subcategory) {
			return nil, apperrors.NewValidationError("unknown category or subcategory",
				map[string]any{"category": category, "subcategory": subcategory})
		}
		classificationChanged = ticketType != ticket.Type || category != ticket.Category || subcategory != ticket.Subcategory
		ticket.Type, ticket.Category, ticket.Subcategory = ticketType, category, subcategory
	}

	tagsChanged := false
	if patch.Tags != nil {
		tags := normalizeTags(*patch.Tags)
		tagsChanged = !equalStrings(tags, ticket.Tags)
		ticket.Tags = tags
	}

	matrixChanged := false
	if patch.Impact != nil || patch.Urgency != nil {
		impact, urgency := ticket.Impact, ticket.Urgency
		if patch.Impact != nil {
			impact = *patch.Impact
		}
		if patch.Urgency != nil {
			urgency = *patch.Urgency
		}
		if impact != ticket.Impact || urgency != ticket.Urgency {
			ticket.Impact, ticket.Urgency = impact, urgency
			sla.Reclassify(ticket)
			matrixChanged = true
		}
	}

	if patch.Status != nil && *patch.Status != ticket.Status {
		if err := transition(ticket, *patch.Status, now); err != nil {
			return nil, err
		}
	}

	assignmentChanged := false
	if patch.Assignee != nil {
		var newID, newName *string
		if assignee != nil {
			id, name := assignee.ID, assignee.Name
			newID, newName = &id, &name
		}
		assignmentChanged = !sameString(ticket.AssigneeID, newID)
		ticket.AssigneeID, ticket.AssigneeName = newID, newName
		if assignee != nil && ticket.Status == domain.TicketStatusNew {
			ticket.Status = domain.TicketStatusAssigned
		}
	}

	var actions []string
	if beforeStatus != ticket.Status {
		actions = append(actions, fmt.Sprintf("Status: %s → %s", beforeStatus, ticket.Status))
	}
	if assignmentChanged {
		name := "—"
		if ticket.AssigneeName != nil {
			name = *ticket.AssigneeName
		}
		actions = append(actions, "Assigned to "+name)
	}
	if subjectChanged {
		actions = append(actions, "Updated subject")
	}
	if descriptionChanged {
		actions = append(actions, "Updated description")
	}
	if matrixChanged {
		actions = append(actions, "Updated priority matrix")
	}
	if tagsChanged {
		actions = append(actions, "Updated tags")
	}
	if classificationChanged {
		actions = append(actions, "Updated classification")
	}
	return actions, nil
}

// transition moves the ticket to status. Resolved and Closed stamp their
// timestamp only when unset; Reopened clears both and requires a finished ticket.
func transition(ticket *domain.Ticket, status domain.TicketStatus, now time.Time) error {
	switch status {
	case domain.TicketStatusReopened:
		if ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusClosed {
			return apperrors.NewValidationError("only resolved or closed tickets can be reopened",
				map[string]any{"status": ticket.Status})
		}
		ticket.ResolvedAt = nil
		ticket.ClosedAt = nil
	case domain.TicketStatusResolved:
		if ticket.ResolvedAt == nil {
			at := now
			ticket.ResolvedAt = &at
		}
	case domain.TicketStatusClosed:
		if ticket.ClosedAt == nil {
			at := now
			ticket.ClosedAt = &at
		}
	}
	ticket.Status = status
	return nil
}

func (s *TicketService) publishUpdateEvents(ctx context.Context, before, after *domain.Ticket, actor domain.Actor) {
	base := events.Event{TicketID: after.ID, HumanID: after.HumanID, Actor: events.ActorFrom(actor)}
	if before.Status != after.Status {
		ev := base
		ev.Type = events.EventTicketStatusChanged
		ev.Payload = events.TicketStatusChangedPayload{OldStatus: before.Status, NewStatus: after.Status}
		publish(ctx, s.dispatcher, ev, after.UpdatedAt)
	}
	if before.Priority != after.Priority {
		ev := base
		ev.Type = events.EventTicketPriorityChanged
		ev.Payload = events.TicketPriorityChangedPayload{OldPriority: before.Priority, NewPriority: after.Priority}
		publish(ctx, s.dispatcher, ev, after.UpdatedAt)
	}
	if !sameString(before.AssigneeID, after.AssigneeID) {
		ev := base
		ev.Type = events.EventTicketAssigned
		ev.Payload = events.TicketAssignedPayload{AssigneeID: after.AssigneeID, AssigneeName: after.AssigneeName}
		publish(ctx, s.dispatcher, ev, after.UpdatedAt)
	}
}

// AddComment appends a public reply or internal note. The first public reply
// by an agent or above latches FirstResponseAt.
func (s *TicketService) AddComment(ctx context.Context, ticketID string, input CommentInput, actor domain.Actor) (*TicketView, error) {
	kind := input.Kind
	if kind == "" {
		kind = domain.CommentKindPublic
	}
	if kind != domain.CommentKindPublic && kind != domain.CommentKindInternal {
		return nil, apperrors.NewValidationError("unknown comment kind", map[string]any{"kind": kind})
	}
	body := strings.TrimSpace(input.Body)

	var (
		updated *domain.Ticket
		comment domain.Comment
	)
	err := s.mutate(ctx, ticketID, true, func(ticket *domain.Ticket) (bool, error) {
		if !canMutate(actor, ticket) {
			return false, apperrors.NewForbidden("only agents or the requester may comment on this ticket")
		}
		if kind == domain.CommentKindInternal && !domain.RoleAtLeast(actor.Role, domain.RoleAgent) {
			return false, apperrors.NewForbidden("internal notes require Agent+")
		}
		if body == "" {
			return false, apperrors.NewValidationError("comment body is required", nil)
		}

		now := s.now()
		comment = domain.Comment{
			ID:         uuid.NewString(),
			Kind:       kind,
			AuthorID:   actor.ID,
			AuthorName: actor.Name,
			Body:       body,
			CreatedAt:  now,
		}
		action := "Added public reply"
		if kind == domain.CommentKindInternal {
			ticket.InternalNotes = append(ticket.InternalNotes, comment)
			action = "Added internal note"
		} else {
			ticket.Comments = append(ticket.Comments, comment)
			if ticket.FirstResponseAt == nil && domain.RoleAtLeast(actor.Role, domain.RoleAgent) {
				at := now
				ticket.FirstResponseAt = &at
			}
		}
		ticket.UpdatedAt = now
		ticket.Timeline = append(ticket.Timeline, newTimelineEntry(actor, now, action))
		updated = ticket
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(actor, updated.UpdatedAt, "Commented on %s", updated.HumanID)
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: updated.ID,
		HumanID:  updated.HumanID,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			Kind:        comment.Kind,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	}, updated.UpdatedAt)
	return s.view(updated, actor), nil
}

// AddWorklog records minutes spent on a ticket. The ticket itself is not modified.
func (s *TicketService) AddWorklog(ctx context.Context, ticketID string, input WorklogInput, actor domain.Actor) (*domain.Worklog, error) {
	if err := requireRole(actor, domain.RoleAgent); err != nil {
		return nil, err
	}
	if input.Minutes <= 0 {
		return nil, apperrors.NewValidationError("minutes must be greater than 0", map[string]any{"minutes": input.Minutes})
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	entry := &domain.Worklog{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Minutes:   input.Minutes,
		Note:      strings.TrimSpace(input.Note),
		CreatedAt: s.now(),
	}
	if err := s.worklogs.Create(ctx, entry); err != nil {
		return nil, repoError(err, "worklog", nil)
	}
	s.audit.record(actor, entry.CreatedAt, "Logged %dm on %s", entry.Minutes, ticket.HumanID)
	return entry, nil
}

// ListWorklogs returns the worklogs of a visible ticket, newest first.
func (s *TicketService) ListWorklogs(ctx context.Context, ticketID string, actor domain.Actor) ([]domain.Worklog, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("ticket is outside your view scope")
	}
	entries, err := s.worklogs.ListByTickets(ctx, []string{ticket.ID})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}

// Delete removes a ticket and every stored attachment blob. Admin only.
func (s *TicketService) Delete(ctx context.Context, ticketID string, actor domain.Actor) error {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return err
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return repoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	ids, err := s.blobs.ListByTicket(ctx, ticket.ID)
	if err != nil {
		s.logger.Warn("list attachment blobs failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		ids = nil
		for _, att := range ticket.Attachments {
			ids = append(ids, att.ID)
		}
	}
	for _, id := range ids {
		if err := s.blobs.Delete(ctx, ticket.ID, id); err != nil {
			s.logger.Warn("delete attachment blob failed",
				zap.String("ticket_id", ticket.ID), zap.String("attachment_id", id), zap.Error(err))
		}
	}

	now := s.now()
	s.audit.record(actor, now, "Deleted ticket %s", ticket.HumanID)
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		HumanID:  ticket.HumanID,
		Actor:    events.ActorFrom(actor),
	}, now)
	return nil
}

func (s *TicketService) load(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, repoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

// mutate loads the ticket, applies fn and writes it back with a version check.
// fn returning false skips the write. With retry set, a lost version race
// reloads and reapplies fn.
func (s *TicketService) mutate(ctx context.Context, ticketID string, retry bool, fn func(*domain.Ticket) (bool, error)) error {
	attempts := 1
	if retry {
		attempts = maxWriteAttempts
	}
	for attempt := 1; ; attempt++ {
		ticket, err := s.load(ctx, ticketID)
		if err != nil {
			return err
		}
		changed, err := fn(ticket)
		if err != nil || !changed {
			return err
		}
		err = s.tickets.Update(ctx, ticket)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrVersionConflict) && attempt < attempts {
			s.logger.Debug("ticket version race, retrying", zap.String("ticket_id", ticketID), zap.Int("attempt", attempt))
			continue
		}
		return repoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
}

// view builds the actor's read model. Requesters never see internal notes.
func (s *TicketService) view(ticket *domain.Ticket, actor domain.Actor) *TicketView {
	if !domain.RoleAtLeast(actor.Role, domain.RoleAgent) {
		ticket.InternalNotes = nil
	}
	return &TicketView{Ticket: ticket, Breach: sla.BreachStatus(ticket, s.now())}
}

func levelsOrDefault(impact, urgency int) (int, int, error) {
	if impact == 0 {
		impact = sla.DefaultLevel
	}
	if urgency == 0 {
		urgency = sla.DefaultLevel
	}
	if !sla.ValidLevel(impact) {
		return 0, 0, apperrors.NewValidationError("impact must be between 1 and 3", map[string]any{"impact": impact})
	}
	if !sla.ValidLevel(urgency) {
		return 0, 0, apperrors.NewValidationError("urgency must be between 1 and 3", map[string]any{"urgency": urgency})
	}
	return impact, urgency, nil
}

func newTimelineEntry(actor domain.Actor, at time.Time, action string) domain.TimelineEntry {
	return domain.TimelineEntry{
		ID:        uuid.NewString(),
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Action:    action,
		CreatedAt: at,
	}
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

package service

import (
	"context"
	"sort"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AssignmentService lists assignable agents and handles self-assignment.
type AssignmentService struct {
	tickets *TicketService
	users   repository.UserRepository
}

// NewAssignmentService creates the service.
func NewAssignmentService(tickets *TicketService, users repository.UserRepository) *AssignmentService {
	return &AssignmentService{tickets: tickets, users: users}
}

// Candidates returns active Agent+ users sorted by name. Agent+.
func (s *AssignmentService) Candidates(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if err := requireRole(actor, domain.RoleAgent); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, repository.UserFilter{
		Roles:      []domain.Role{domain.RoleAgent, domain.RoleSupervisor, domain.RoleAdmin},
		ActiveOnly: true,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Name < users[j].Name
	})
	return users, nil
}

// SelfAssign makes the actor the ticket's assignee. Agent+.
func (s *AssignmentService) SelfAssign(ctx context.Context, ticketID string, actor domain.Actor) (*TicketView, error) {
	if err := requireRole(actor, domain.RoleAgent); err != nil {
		return nil, err
	}
	return s.tickets.Update(ctx, ticketID, TicketPatch{Assignee: &AssigneePatch{UserID: actor.ID}}, actor)
}

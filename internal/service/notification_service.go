package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

const webhookTimeout = 5 * time.Second

// NotificationService turns ticket events into notifications for the
// requester and assignee. Email delivery is logged only; the webhook receives
// every event as JSON.
type NotificationService struct {
	dispatcher events.Dispatcher
	tickets    repository.TicketRepository
	users      repository.UserRepository
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, tickets repository.TicketRepository, users repository.UserRepository, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		tickets:    tickets,
		users:      users,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleTicketCommentAdded)
	if strings.TrimSpace(n.cfg.WebhookURL) != "" {
		n.dispatcher.SubscribeAll(n.sendWebhook)
	}
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", event.TicketID, err)
	}
	n.notify(ctx, ticket.RequesterID, event, fmt.Sprintf("[%s] We received your request: %s", ticket.HumanID, ticket.Subject))
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", event.TicketID, err)
	}
	if ticket.RequesterID != event.Actor.ID {
		n.notify(ctx, ticket.RequesterID, event, fmt.Sprintf("[%s] Status is now %s", ticket.HumanID, payload.NewStatus))
	}
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.AssigneeID == nil || *payload.AssigneeID == event.Actor.ID {
		return nil
	}
	n.notify(ctx, *payload.AssigneeID, event, fmt.Sprintf("[%s] Ticket assigned to you", event.HumanID))
	return nil
}

func (n *NotificationService) handleTicketCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentAddedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", event.TicketID, err)
	}
	subject := fmt.Sprintf("[%s] New reply: %s", ticket.HumanID, payload.BodyPreview)
	if payload.Kind == domain.CommentKindPublic && ticket.RequesterID != event.Actor.ID {
		n.notify(ctx, ticket.RequesterID, event, subject)
	}
	if ticket.AssigneeID != nil && *ticket.AssigneeID != event.Actor.ID {
		n.notify(ctx, *ticket.AssigneeID, event, subject)
	}
	return nil
}

// notify resolves the recipient and hands the message to the mail stub.
// Inactive users are skipped.
func (n *NotificationService) notify(ctx context.Context, userID string, event events.Event, subject string) {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Warn("notification recipient lookup failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if !user.Active {
		return
	}
	n.sendEmailNotificationStub(user.Email, subject, event)
}

func (n *NotificationService) sendEmailNotificationStub(to, subject string, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Info("email notification",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhook(_ context.Context, event events.Event) error {
	agent := fiber.Post(n.cfg.WebhookURL).JSON(event).Timeout(webhookTimeout)
	status, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("webhook %s: %w", event.Type, errs[0])
	}
	if status >= fiber.StatusBadRequest {
		return fmt.Errorf("webhook %s: status %d", event.Type, status)
	}
	n.logger.Debug("webhook delivered", zap.String("event_type", string(event.Type)), zap.Int("status", status))
	return nil
}

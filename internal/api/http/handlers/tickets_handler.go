package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketsHandler exposes the ticket lifecycle endpoints.
type TicketsHandler struct {
	service     *service.TicketService
	assignments *service.AssignmentService
	validate    *validator.Validate
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, assignments *service.AssignmentService, v *validator.Validate) *TicketsHandler {
	return &TicketsHandler{service: ticketService, assignments: assignments, validate: v}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	ticket, err := h.service.Create(c.UserContext(), service.TicketCreateInput{
		Type:        req.Type,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Impact:      req.Impact,
		Urgency:     req.Urgency,
		Subject:     req.Subject,
		Description: req.Description,
		Tags:        req.Tags,
		RequesterID: req.RequesterID,
	}, actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, ticketDetail(ticket, sla.Breach{}))
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	views, err := h.service.List(c.UserContext(), filter, actor)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(views))
	for i := range views {
		items = append(items, ticketSummary(&views[i]))
	}
	return data(c, http.StatusOK, items)
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	view, err := h.service.Get(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, ticketDetail(view.Ticket, view.Breach))
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	patch := service.TicketPatch{
		Subject:         req.Subject,
		Description:     req.Description,
		Type:            req.Type,
		Category:        req.Category,
		Subcategory:     req.Subcategory,
		Impact:          req.Impact,
		Urgency:         req.Urgency,
		Tags:            req.Tags,
		Status:          req.Status,
		ExpectedVersion: req.Version,
	}
	if req.AssigneeID.Present {
		patch.Assignee = &service.AssigneePatch{UserID: req.AssigneeID.Or("")}
	}
	view, err := h.service.Update(c.UserContext(), c.Params("id"), patch, actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, ticketDetail(view.Ticket, view.Breach))
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), c.Params("id"), actor); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SelfAssign POST /tickets/:id/assign-self.
func (h *TicketsHandler) SelfAssign(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	view, err := h.assignments.SelfAssign(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, ticketDetail(view.Ticket, view.Breach))
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	view, err := h.service.AddComment(c.UserContext(), c.Params("id"), service.CommentInput{Body: req.Body, Kind: req.Kind}, actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, ticketDetail(view.Ticket, view.Breach))
}

// ListWorklogs GET /tickets/:id/worklogs.
func (h *TicketsHandler) ListWorklogs(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	entries, err := h.service.ListWorklogs(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	items := make([]dto.WorklogResponse, 0, len(entries))
	for i := range entries {
		items = append(items, worklogResponse(&entries[i]))
	}
	return data(c, http.StatusOK, items)
}

// AddWorklog POST /tickets/:id/worklogs.
func (h *TicketsHandler) AddWorklog(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateWorklogRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	entry, err := h.service.AddWorklog(c.UserContext(), c.Params("id"), service.WorklogInput{Minutes: req.Minutes, Note: req.Note}, actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, worklogResponse(entry))
}

// UploadAttachment POST /tickets/:id/attachments (multipart field "file").
func (h *TicketsHandler) UploadAttachment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("multipart field \"file\" is required", nil)
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	attachment, err := h.service.AddAttachment(c.UserContext(), c.Params("id"), service.AttachmentInput{
		Name:        header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Data:        content,
	}, actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, attachmentResponse(*attachment))
}

// DownloadAttachment GET /tickets/:id/attachments/:attachmentId.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	content, err := h.service.GetAttachment(c.UserContext(), c.Params("id"), c.Params("attachmentId"), actor)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, content.Attachment.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", content.Attachment.Name))
	return c.Send(content.Data)
}

// DeleteAttachment DELETE /tickets/:id/attachments/:attachmentId.
func (h *TicketsHandler) DeleteAttachment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteAttachment(c.UserContext(), c.Params("id"), c.Params("attachmentId"), actor); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{
		AssigneeID:  optionalQuery(c, "assignee_id"),
		RequesterID: optionalQuery(c, "requester_id"),
		SearchTerm:  optionalQuery(c, "q"),
	}
	for _, part := range splitList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(part))
	}
	for _, part := range splitList(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.Priority(part))
	}
	from, err := parseTime(c.Query("created_from"), false)
	if err != nil {
		return filter, err
	}
	to, err := parseTime(c.Query("created_to"), true)
	if err != nil {
		return filter, err
	}
	filter.CreatedFrom, filter.CreatedTo = from, to

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	if pageSize > 200 {
		pageSize = 200
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, nil
}

func breachResponse(b sla.Breach) dto.BreachResponse {
	return dto.BreachResponse{
		FirstResponseBreached: b.FirstResponseBreached,
		ResolutionBreached:    b.ResolutionBreached,
	}
}

func ticketSummary(view *service.TicketView) dto.TicketSummary {
	ticket := view.Ticket
	return dto.TicketSummary{
		ID:            ticket.ID,
		HumanID:       ticket.HumanID,
		Subject:       ticket.Subject,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
		RequesterName: ticket.RequesterName,
		AssigneeName:  ticket.AssigneeName,
		Tags:          ticket.Tags,
		Breach:        breachResponse(view.Breach),
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, breach sla.Breach) dto.TicketDetailResponse {
	timeline := make([]dto.TimelineResponse, 0, len(ticket.Timeline))
	for _, entry := range ticket.Timeline {
		timeline = append(timeline, dto.TimelineResponse{
			ID:        entry.ID,
			ActorID:   entry.ActorID,
			ActorName: entry.ActorName,
			Action:    entry.Action,
			CreatedAt: entry.CreatedAt,
		})
	}
	attachments := make([]dto.AttachmentResponse, 0, len(ticket.Attachments))
	for _, att := range ticket.Attachments {
		attachments = append(attachments, attachmentResponse(att))
	}
	var notes []dto.CommentResponse
	if len(ticket.InternalNotes) > 0 {
		notes = commentResponses(ticket.InternalNotes)
	}
	return dto.TicketDetailResponse{
		ID:                 ticket.ID,
		HumanID:            ticket.HumanID,
		Type:               ticket.Type,
		Category:           ticket.Category,
		Subcategory:        ticket.Subcategory,
		Impact:             ticket.Impact,
		Urgency:            ticket.Urgency,
		Priority:           ticket.Priority,
		Subject:            ticket.Subject,
		Description:        ticket.Description,
		Tags:               ticket.Tags,
		Status:             ticket.Status,
		RequesterID:        ticket.RequesterID,
		RequesterName:      ticket.RequesterName,
		AssigneeID:         ticket.AssigneeID,
		AssigneeName:       ticket.AssigneeName,
		FirstResponseDueAt: ticket.FirstResponseDueAt,
		FirstResponseAt:    ticket.FirstResponseAt,
		ResolutionDueAt:    ticket.ResolutionDueAt,
		ResolvedAt:         ticket.ResolvedAt,
		ClosedAt:           ticket.ClosedAt,
		Comments:           commentResponses(ticket.Comments),
		InternalNotes:      notes,
		Timeline:           timeline,
		Attachments:        attachments,
		Breach:             breachResponse(breach),
		Version:            ticket.Version,
		CreatedAt:          ticket.CreatedAt,
		UpdatedAt:          ticket.UpdatedAt,
	}
}

func commentResponses(comments []domain.Comment) []dto.CommentResponse {
	resp := make([]dto.CommentResponse, 0, len(comments))
	for _, cm := range comments {
		resp = append(resp, dto.CommentResponse{
			ID:         cm.ID,
			Kind:       cm.Kind,
			AuthorID:   cm.AuthorID,
			AuthorName: cm.AuthorName,
			Body:       cm.Body,
			CreatedAt:  cm.CreatedAt,
		})
	}
	return resp
}

func attachmentResponse(att domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:             att.ID,
		Name:           att.Name,
		ContentType:    att.ContentType,
		Size:           att.Size,
		UploadedByName: att.UploadedByName,
		CreatedAt:      att.CreatedAt,
	}
}

func worklogResponse(entry *domain.Worklog) dto.WorklogResponse {
	return dto.WorklogResponse{
		ID:        entry.ID,
		TicketID:  entry.TicketID,
		ActorID:   entry.ActorID,
		ActorName: entry.ActorName,
		Minutes:   entry.Minutes,
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt,
	}
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// AdminHandler exposes backup and restore.
type AdminHandler struct {
	backups  *service.BackupService
	validate *validator.Validate
}

// NewAdminHandler constructs handler.
func NewAdminHandler(backups *service.BackupService, v *validator.Validate) *AdminHandler {
	return &AdminHandler{backups: backups, validate: v}
}

// Backup handles GET /admin/backup. The body is the bare document so it can
// be posted back to /admin/restore unchanged.
func (h *AdminHandler) Backup(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	backup, err := h.backups.Export(c.UserContext(), actor)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("helpdesk-backup-%s.json", backup.ExportedAt.Format("2006-01-02"))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Status(http.StatusOK).JSON(backupDocument(backup))
}

// Restore handles POST /admin/restore.
func (h *AdminHandler) Restore(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.BackupDocument
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	summary, err := h.backups.Restore(c.UserContext(), backupFromDocument(req), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.RestoreResponse{
		Users:    summary.Users,
		Tickets:  summary.Tickets,
		KB:       summary.KB,
		Worklogs: summary.Worklogs,
		Audit:    summary.Audit,
	})
}

func backupDocument(b *service.Backup) dto.BackupDocument {
	doc := dto.BackupDocument{
		Version:    b.Version,
		ExportedAt: b.ExportedAt,
		Users:      make([]dto.BackupUser, 0, len(b.Users)),
		Tickets:    make([]dto.BackupTicket, 0, len(b.Tickets)),
		KB:         make([]dto.KBArticleResponse, 0, len(b.KB)),
		Worklogs:   make([]dto.WorklogResponse, 0, len(b.Worklogs)),
		Audit:      make([]dto.AuditEntryResponse, 0, len(b.Audit)),
	}
	for _, u := range b.Users {
		doc.Users = append(doc.Users, dto.BackupUser{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			Name:         u.Name,
			Role:         u.Role,
			Active:       u.Active,
			PasswordHash: u.PasswordHash,
			CreatedAt:    u.CreatedAt,
			UpdatedAt:    u.UpdatedAt,
		})
	}
	for i := range b.Tickets {
		doc.Tickets = append(doc.Tickets, backupTicket(&b.Tickets[i]))
	}
	for i := range b.KB {
		doc.KB = append(doc.KB, articleResponse(&b.KB[i]))
	}
	for i := range b.Worklogs {
		doc.Worklogs = append(doc.Worklogs, worklogResponse(&b.Worklogs[i]))
	}
	for _, e := range b.Audit {
		doc.Audit = append(doc.Audit, dto.AuditEntryResponse{ID: e.ID, Actor: e.Actor, Action: e.Action, CreatedAt: e.CreatedAt})
	}
	return doc
}

func backupTicket(t *domain.Ticket) dto.BackupTicket {
	return dto.BackupTicket{
		ID:                 t.ID,
		HumanID:            t.HumanID,
		Type:               t.Type,
		Category:           t.Category,
		Subcategory:        t.Subcategory,
		Impact:             t.Impact,
		Urgency:            t.Urgency,
		Priority:           t.Priority,
		Subject:            t.Subject,
		Description:        t.Description,
		Tags:               t.Tags,
		Status:             t.Status,
		RequesterID:        t.RequesterID,
		RequesterName:      t.RequesterName,
		AssigneeID:         t.AssigneeID,
		AssigneeName:       t.AssigneeName,
		FirstResponseDueAt: t.FirstResponseDueAt,
		FirstResponseAt:    t.FirstResponseAt,
		ResolutionDueAt:    t.ResolutionDueAt,
		ResolvedAt:         t.ResolvedAt,
		ClosedAt:           t.ClosedAt,
		Comments:           t.Comments,
		InternalNotes:      t.InternalNotes,
		Timeline:           t.Timeline,
		Attachments:        t.Attachments,
		Version:            t.Version,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func backupFromDocument(doc dto.BackupDocument) *service.Backup {
	b := &service.Backup{
		Version:    doc.Version,
		ExportedAt: doc.ExportedAt,
		Users:      make([]domain.User, 0, len(doc.Users)),
		Tickets:    make([]domain.Ticket, 0, len(doc.Tickets)),
		KB:         make([]domain.KBArticle, 0, len(doc.KB)),
		Worklogs:   make([]domain.Worklog, 0, len(doc.Worklogs)),
		Audit:      make([]domain.AuditEntry, 0, len(doc.Audit)),
	}
	for _, u := range doc.Users {
		b.Users = append(b.Users, domain.User{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			Name:         u.Name,
			Role:         u.Role,
			Active:       u.Active,
			PasswordHash: u.PasswordHash,
			CreatedAt:    u.CreatedAt,
			UpdatedAt:    u.UpdatedAt,
		})
	}
	for _, t := range doc.Tickets {
		b.Tickets = append(b.Tickets, domain.Ticket{
			ID:                 t.ID,
			HumanID:            t.HumanID,
			Type:               t.Type,
			Category:           t.Category,
			Subcategory:        t.Subcategory,
			Impact:             t.Impact,
			Urgency:            t.Urgency,
			Priority:           t.Priority,
			Subject:            t.Subject,
			Description:        t.Description,
			Tags:               t.Tags,
			Status:             t.Status,
			RequesterID:        t.RequesterID,
			RequesterName:      t.RequesterName,
			AssigneeID:         t.AssigneeID,
			AssigneeName:       t.AssigneeName,
			FirstResponseDueAt: t.FirstResponseDueAt,
			FirstResponseAt:    t.FirstResponseAt,
			ResolutionDueAt:    t.ResolutionDueAt,
			ResolvedAt:         t.ResolvedAt,
			ClosedAt:           t.ClosedAt,
			Comments:           t.Comments,
			InternalNotes:      t.InternalNotes,
			Timeline:           t.Timeline,
			Attachments:        t.Attachments,
			Version:            t.Version,
			CreatedAt:          t.CreatedAt,
			UpdatedAt:          t.UpdatedAt,
		})
	}
	for _, a := range doc.KB {
		b.KB = append(b.KB, domain.KBArticle{
			ID:         a.ID,
			Title:      a.Title,
			Category:   a.Category,
			Tags:       a.Tags,
			Published:  a.Published,
			Body:       a.Body,
			AuthorID:   a.AuthorID,
			AuthorName: a.AuthorName,
			CreatedAt:  a.CreatedAt,
			UpdatedAt:  a.UpdatedAt,
		})
	}
	for _, w := range doc.Worklogs {
		b.Worklogs = append(b.Worklogs, domain.Worklog{
			ID:        w.ID,
			TicketID:  w.TicketID,
			ActorID:   w.ActorID,
			ActorName: w.ActorName,
			Minutes:   w.Minutes,
			Note:      w.Note,
			CreatedAt: w.CreatedAt,
		})
	}
	for _, e := range doc.Audit {
		b.Audit = append(b.Audit, domain.AuditEntry{ID: e.ID, Actor: e.Actor, Action: e.Action, CreatedAt: e.CreatedAt})
	}
	return b
}

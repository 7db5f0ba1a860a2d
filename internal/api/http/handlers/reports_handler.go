package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// ReportsHandler exposes the summary report and the audit log.
type ReportsHandler struct {
	reports *service.ReportService
	audit   *service.AuditService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService, audit *service.AuditService) *ReportsHandler {
	return &ReportsHandler{reports: reports, audit: audit}
}

// Summary handles GET /reports/summary?from=&to=. Both bounds are inclusive.
func (h *ReportsHandler) Summary(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	from, err := parseTime(c.Query("from"), false)
	if err != nil {
		return err
	}
	to, err := parseTime(c.Query("to"), true)
	if err != nil {
		return err
	}
	var fromT, toT time.Time
	if from != nil {
		fromT = *from
	}
	if to != nil {
		toT = *to
	}
	summary, err := h.reports.Summary(c.UserContext(), fromT, toT, actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.ReportSummaryResponse{
		From:                  summary.From,
		To:                    summary.To,
		Total:                 summary.Total,
		ByStatus:              summary.ByStatus,
		ByPriority:            summary.ByPriority,
		AvgResolutionMinutes:  summary.AvgResolutionMinutes,
		FirstResponseBreached: summary.FirstResponseBreached,
		ResolutionBreached:    summary.ResolutionBreached,
		WorklogMinutes:        summary.WorklogMinutes,
	})
}

// Audit handles GET /audit?limit=.
func (h *ReportsHandler) Audit(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.audit.List(c.UserContext(), limit, actor)
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.AuditEntryResponse{ID: e.ID, Actor: e.Actor, Action: e.Action, CreatedAt: e.CreatedAt})
	}
	return data(c, http.StatusOK, items)
}

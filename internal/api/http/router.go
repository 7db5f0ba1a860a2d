package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	KB             *handlers.KBHandler
	Reports        *handlers.ReportsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Services enforce the fine-grained rules;
// the role guards here only reject callers that can never succeed.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protected.Post("/auth/password/change", cfg.Auth.ChangePassword)

	tickets := protected.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/assign-self", auth.RequireRole(domain.RoleAgent), cfg.Tickets.SelfAssign)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/worklogs", cfg.Tickets.ListWorklogs)
	tickets.Post("/:id/worklogs", auth.RequireRole(domain.RoleAgent), cfg.Tickets.AddWorklog)
	tickets.Post("/:id/attachments", cfg.Tickets.UploadAttachment)
	tickets.Get("/:id/attachments/:attachmentId", cfg.Tickets.DownloadAttachment)
	tickets.Delete("/:id/attachments/:attachmentId", auth.RequireRole(domain.RoleAgent), cfg.Tickets.DeleteAttachment)

	users := protected.Group("/users")
	users.Get("/me", cfg.Users.Me)
	users.Get("/agents", auth.RequireRole(domain.RoleAgent), cfg.Users.Agents)
	users.Get("/", auth.RequireRole(domain.RoleSupervisor), cfg.Users.List)
	users.Post("/", auth.RequireRole(domain.RoleAdmin), cfg.Users.Create)
	users.Patch("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Users.Update)
	users.Post("/:id/active", auth.RequireRole(domain.RoleAdmin), cfg.Users.SetActive)
	users.Post("/:id/password", auth.RequireRole(domain.RoleAdmin), cfg.Users.SetPassword)

	kb := protected.Group("/kb")
	kb.Get("/", cfg.KB.List)
	kb.Post("/", auth.RequireRole(domain.RoleAgent), cfg.KB.Create)
	kb.Get("/:id", cfg.KB.Get)
	kb.Put("/:id", auth.RequireRole(domain.RoleAgent), cfg.KB.Update)
	kb.Delete("/:id", auth.RequireRole(domain.RoleSupervisor), cfg.KB.Delete)

	protected.Get("/reports/summary", auth.RequireRole(domain.RoleAgent), cfg.Reports.Summary)
	protected.Get("/audit", auth.RequireRole(domain.RoleSupervisor), cfg.Reports.Audit)

	admin := protected.Group("/admin")
	admin.Get("/backup", auth.RequireRole(domain.RoleSupervisor), cfg.Admin.Backup)
	admin.Post("/restore", auth.RequireRole(domain.RoleAdmin), cfg.Admin.Restore)
}

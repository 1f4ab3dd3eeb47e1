package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/api/http/handlers"
	"github.com/ticketdesk/ticketdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Dashboards     *handlers.DashboardsHandler
	Admin          *handlers.AdminHandler
	Queries        *handlers.QueriesHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireActor())

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("/:channelID", cfg.Tickets.Get)
	tickets.Post("/:channelID/claim", cfg.Tickets.Claim)
	tickets.Post("/:channelID/unclaim", cfg.Tickets.Unclaim)
	tickets.Post("/:channelID/transfer", cfg.Tickets.Transfer)
	tickets.Post("/:channelID/status", cfg.Tickets.ChangeStatus)
	tickets.Post("/:channelID/tags", cfg.Tickets.AddTag)
	tickets.Delete("/:channelID/tags/:tag", cfg.Tickets.RemoveTag)
	tickets.Post("/:channelID/close", cfg.Tickets.Close)
	tickets.Post("/:channelID/activity", cfg.Tickets.RecordActivity)
	tickets.Post("/:channelID/notes", cfg.Tickets.AddNote)

	dashboards := api.Group("/dashboards")
	dashboards.Post("", cfg.Dashboards.Create)
	dashboards.Get("", cfg.Dashboards.List)
	dashboards.Get("/:identifier", cfg.Dashboards.Get)
	dashboards.Post("/:identifier/buttons", cfg.Dashboards.AddButton)
	dashboards.Delete("/:identifier/buttons/:button", cfg.Dashboards.RemoveButton)

	admin := api.Group("/admin")
	admin.Post("/setup", cfg.Admin.InitialSetup)
	admin.Put("/settings/claim", cfg.Admin.UpdateClaim)
	admin.Put("/settings/autoclose", cfg.Admin.UpdateAutoClose)
	admin.Put("/settings/reminders", cfg.Admin.UpdateReminders)
	admin.Put("/settings/limits", cfg.Admin.UpdateLimits)
	admin.Put("/settings/mode", cfg.Admin.SwitchMode)
	admin.Post("/roles", cfg.Admin.LinkRole)
	admin.Delete("/roles/:type/:roleID", cfg.Admin.UnlinkRole)
	admin.Get("/roles/:type", cfg.Admin.ListRoles)
	admin.Post("/bans", cfg.Admin.BanUser)
	admin.Delete("/bans/:userID", cfg.Admin.UnbanUser)
	admin.Get("/bans", cfg.Admin.ListBanned)

	queries := api.Group("/queries")
	queries.Get("/tickets", cfg.Queries.Search)
	queries.Get("/members/:userID/tickets", cfg.Queries.MemberTickets)
	queries.Get("/staff/:staffID/profile", cfg.Queries.StaffProfile)
	queries.Get("/reports", cfg.Queries.StatusReport)
}

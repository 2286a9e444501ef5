package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/blazehunter/internal/config"
	"github.com/example/blazehunter/internal/handlers"
	"github.com/example/blazehunter/internal/middleware"
	"github.com/example/blazehunter/internal/realtime"
	"github.com/example/blazehunter/internal/services"
	"github.com/example/blazehunter/internal/state"
)

// Deps are the long-lived components the routes are built from. Gateway,
// Sessions and Cleanup are nil when no data service is configured.
type Deps struct {
	Config   *config.Config
	Site     *config.Site
	State    *state.App
	Gateway  services.Gateway
	Sessions *services.SessionService
	Cleanup  *services.CleanupService
	Notifier services.ChangeNotifier
	Broker   *realtime.Broker
	Done     <-chan struct{}
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, d Deps) {
	adminHandler := handlers.NewAdminHandler(d.Gateway, d.Notifier)
	configHandler := handlers.NewConfigHandler(d.Config)
	siteHandler := handlers.NewSiteHandler(d.Site, d.State)
	eventsHandler := handlers.NewEventsHandler(d.Broker, d.Done)

	api := app.Group("/api")

	// Forwarder: every method reaches the handler so it can answer 405
	api.All("/admin", adminHandler.Forward)
	api.Get("/config", configHandler.Get)

	// Public site
	api.Get("/nations", siteHandler.Nations)
	api.Get("/page", siteHandler.Page)
	api.Get("/feed/:key", siteHandler.Feed)
	api.Get("/items/:key/:id", siteHandler.Item)
	api.Get("/home-settings", siteHandler.HomeSettings)
	api.Get("/events", eventsHandler.Stream)

	if d.Gateway == nil || d.Sessions == nil {
		return
	}

	sessionHandler := handlers.NewSessionHandler(d.Sessions)
	dashboardHandler := handlers.NewDashboardHandler(d.Gateway, d.Cleanup, d.Notifier)
	auth := middleware.AuthMiddleware(d.Sessions)

	api.Post("/session", sessionHandler.Login)
	api.Get("/session", auth, sessionHandler.Current)
	api.Delete("/session", auth, sessionHandler.Logout)

	// Protected dashboard routes
	dashboard := api.Group("/dashboard", auth)

	dashboard.Post("/activate", dashboardHandler.Activate)
	dashboard.Get("/banners", dashboardHandler.ListBanners)
	dashboard.Get("/news", dashboardHandler.ListNews)
	dashboard.Get("/ended", dashboardHandler.ListEnded)
	dashboard.Post("/items", dashboardHandler.UpsertItem)
	dashboard.Put("/items/:id", dashboardHandler.UpsertItem)
	dashboard.Delete("/items", dashboardHandler.DeleteItems)
	dashboard.Get("/home-settings", dashboardHandler.GetHomeSettings)
	dashboard.Put("/home-settings", dashboardHandler.UpdateHomeSettings)
	dashboard.Get("/admins", dashboardHandler.ListAdmins)
	dashboard.Post("/admins", middleware.RequireSenior(), dashboardHandler.ManageAdmin)
}

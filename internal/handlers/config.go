package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/blazehunter/internal/config"
)

// ConfigHandler exposes the public connection parameters.
type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// Get returns the realtime parameters. Empty values disable live updates on
// the page; they never fail it.
func (h *ConfigHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"supabaseUrl":             h.cfg.SupabaseURL,
		"supabaseAnonKey":         h.cfg.SupabaseAnonKey,
		"realtime":                h.cfg.RealtimeEnabled(),
		"eventsPath":              "/api/events",
		"inactivityReloadSeconds": int(h.cfg.InactivityReload.Seconds()),
	})
}

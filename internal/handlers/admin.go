package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/example/blazehunter/internal/realtime"
	"github.com/example/blazehunter/internal/services"
)

// AdminHandler is the single forwarding endpoint for admin actions. The
// service-role credentials never leave the server.
type AdminHandler struct {
	gateway  services.Gateway
	notifier services.ChangeNotifier
}

// NewAdminHandler builds an AdminHandler. A nil gateway means the server has
// no data service credentials; every call then fails with 500. notifier may
// be nil.
func NewAdminHandler(gateway services.Gateway, notifier services.ChangeNotifier) *AdminHandler {
	return &AdminHandler{gateway: gateway, notifier: notifier}
}

// Forward runs the action named in the body and returns its result as the
// response body.
func (h *AdminHandler) Forward(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"error": "Method Not Allowed"})
	}
	if h.gateway == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server configuration error: Missing API keys"})
	}

	var req services.AdminRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	result, err := services.Dispatch(c.UserContext(), h.gateway, req)
	if err != nil {
		return respondError(c, err)
	}

	if table := changedTable(req.Action); table != "" && h.notifier != nil {
		_ = h.notifier.Notify(c.UserContext(), table)
	}
	return c.JSON(result)
}

// changedTable names the table a successful action modified.
func changedTable(action string) string {
	switch action {
	case services.ActionBannerUpsert, services.ActionBannerDelete:
		return realtime.TableItems
	case services.ActionManageHomeSettings:
		return realtime.TableSettings
	}
	return ""
}

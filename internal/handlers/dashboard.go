package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/blazehunter/internal/config"
	"github.com/example/blazehunter/internal/feed"
	"github.com/example/blazehunter/internal/lifecycle"
	"github.com/example/blazehunter/internal/middleware"
	"github.com/example/blazehunter/internal/models"
	"github.com/example/blazehunter/internal/realtime"
	"github.com/example/blazehunter/internal/services"
	"github.com/example/blazehunter/internal/utils"
)

// DashboardHandler serves the admin dashboard. Lists are read straight from
// the gateway so admins always see the stored state.
type DashboardHandler struct {
	gateway  services.Gateway
	cleanup  *services.CleanupService
	notifier services.ChangeNotifier
	now      func() time.Time
}

// NewDashboardHandler constructs DashboardHandler. notifier may be nil.
func NewDashboardHandler(gateway services.Gateway, cleanup *services.CleanupService, notifier services.ChangeNotifier) *DashboardHandler {
	return &DashboardHandler{gateway: gateway, cleanup: cleanup, notifier: notifier, now: time.Now}
}

type itemRow struct {
	models.ContentItem
	Status      lifecycle.Status `json:"status"`
	StatusLabel string           `json:"status_label"`
	DisplayEnd  string           `json:"display_end"`
}

func (h *DashboardHandler) rows(items []models.ContentItem) []itemRow {
	today := h.now()
	out := make([]itemRow, 0, len(items))
	for _, item := range items {
		status := lifecycle.Classify(item.StartDate, item.EndDate, today).Status
		out = append(out, itemRow{
			ContentItem: item,
			Status:      status,
			StatusLabel: lifecycle.Label(status, nil),
			DisplayEnd:  feed.DisplayEnd(item),
		})
	}
	return out
}

func (h *DashboardHandler) notify(c *fiber.Ctx, table string) {
	if h.notifier != nil {
		_ = h.notifier.Notify(c.UserContext(), table)
	}
}

func session(c *fiber.Ctx) (*services.Session, error) {
	s, ok := middleware.CurrentSession(c)
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	return s, nil
}

// Activate runs the auto-cleanup the first time a session opens the
// dashboard.
func (h *DashboardHandler) Activate(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return respondError(c, err)
	}

	ids, err := h.cleanup.Activate(c.UserContext(), s)
	if err != nil {
		return respondError(c, err)
	}
	if len(ids) > 0 {
		h.notify(c, realtime.TableItems)
	}
	if ids == nil {
		ids = []int64{}
	}
	return c.JSON(fiber.Map{"success": true, "cleaned": ids})
}

// ListBanners returns the banners (everything but news) matching the
// category and start-date filters, one page at a time.
func (h *DashboardHandler) ListBanners(c *fiber.Ctx) error {
	return h.list(c, strings.ToLower(c.Query("category", feed.CategoryAll)), false)
}

// ListNews returns the news items matching the start-date filters.
func (h *DashboardHandler) ListNews(c *fiber.Ctx) error {
	return h.list(c, config.KeyNews, true)
}

func (h *DashboardHandler) list(c *fiber.Ctx, category string, news bool) error {
	items, err := h.gateway.List(c.UserContext(), "")
	if err != nil {
		return respondError(c, err)
	}

	scoped := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if item.IsNews() == news {
			scoped = append(scoped, item)
		}
	}

	filtered := feed.Filter{Category: category, From: c.Query("from"), To: c.Query("to")}.Apply(scoped)

	pg := utils.ParsePagination(c)
	start, end := pg.Window(len(filtered))

	return c.JSON(fiber.Map{"success": true, "data": h.rows(filtered[start:end]), "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    len(filtered),
	}})
}

// ListEnded returns the items that ended recently but are not yet eligible
// for cleanup.
func (h *DashboardHandler) ListEnded(c *fiber.Ctx) error {
	items, err := h.gateway.List(c.UserContext(), "")
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": h.rows(feed.SelectEndedWindow(items, h.now()))})
}

// UpsertItem creates an item, or updates it when the body carries an id.
func (h *DashboardHandler) UpsertItem(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return respondError(c, err)
	}

	var item models.ContentItem
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if id := c.Params("id"); id != "" {
		parsed, err := c.ParamsInt("id")
		if err != nil || parsed <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid id")
		}
		item.ID = int64(parsed)
	}

	saved, err := h.gateway.Upsert(c.UserContext(), item, s.Credentials())
	if err != nil {
		return respondError(c, err)
	}
	h.notify(c, realtime.TableItems)

	status := fiber.StatusOK
	if item.ID == 0 {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"success": true, "data": saved})
}

type deleteRequest struct {
	IDs services.IDList `json:"ids"`
}

// DeleteItems removes the listed items.
func (h *DashboardHandler) DeleteItems(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return respondError(c, err)
	}

	var req deleteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.gateway.Delete(c.UserContext(), req.IDs, s.Credentials()); err != nil {
		return respondError(c, err)
	}
	h.notify(c, realtime.TableItems)
	return c.JSON(fiber.Map{"success": true, "deleted": len(req.IDs)})
}

// GetHomeSettings returns the stored backgrounds without cache overlay.
func (h *DashboardHandler) GetHomeSettings(c *fiber.Ctx) error {
	settings, err := h.gateway.GetHomeSettings(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if settings == nil {
		settings = &models.HomeSettings{ID: models.HomeSettingsID}
	}
	return c.JSON(fiber.Map{"success": true, "data": settings})
}

// UpdateHomeSettings stores new background URLs.
func (h *DashboardHandler) UpdateHomeSettings(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return respondError(c, err)
	}

	var req models.HomeSettings
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	settings := models.HomeSettings{
		ID:          models.HomeSettingsID,
		BgPcURL:     strings.TrimSpace(req.BgPcURL),
		BgMobileURL: strings.TrimSpace(req.BgMobileURL),
	}

	if err := h.gateway.SetHomeSettings(c.UserContext(), settings, s.Credentials()); err != nil {
		return respondError(c, err)
	}
	h.notify(c, realtime.TableSettings)
	return c.JSON(fiber.Map{"success": true, "data": settings})
}

type adminRow struct {
	Email       string `json:"email,omitempty"`
	MaskedEmail string `json:"masked_email"`
	Role        string `json:"role"`
	RoleLabel   string `json:"role_label"`
	Self        bool   `json:"self"`
}

func roleLabel(role string) string {
	if role == models.RoleSeniorAdmin {
		return "Senior Admin"
	}
	return "Admin"
}

// ListAdmins returns the whitelist with masked emails. Seniors also get the
// plain email they need to manage an account.
func (h *DashboardHandler) ListAdmins(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return respondError(c, err)
	}

	admins, err := h.gateway.ListAdmins(c.UserContext(), s.Credentials())
	if err != nil {
		return respondError(c, err)
	}

	rows := make([]adminRow, 0, len(admins))
	for _, a := range admins {
		row := adminRow{
			MaskedEmail: utils.MaskEmail(a.Email),
			Role:        a.Role,
			RoleLabel:   roleLabel(a.Role),
			Self:        strings.EqualFold(a.Email, s.Email),
		}
		if s.IsSenior() {
			row.Email = a.Email
		}
		rows = append(rows, row)
	}
	return c.JSON(fiber.Map{"success": true, "data": rows, "can_manage": s.IsSenior()})
}

type manageAdminRequest struct {
	Action   string `json:"action"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// ManageAdmin adds, updates or removes an admin account.
func (h *DashboardHandler) ManageAdmin(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return respondError(c, err)
	}

	var req manageAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	action := services.AdminAction(strings.ToUpper(strings.TrimSpace(req.Action)))
	target := services.AdminTarget{
		Email:    strings.TrimSpace(req.Email),
		Role:     strings.TrimSpace(req.Role),
		Password: strings.TrimSpace(req.Password),
	}

	if err := h.gateway.ManageAdmin(c.UserContext(), action, target, s.Credentials()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

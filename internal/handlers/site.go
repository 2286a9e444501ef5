package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/blazehunter/internal/config"
	"github.com/example/blazehunter/internal/feed"
	"github.com/example/blazehunter/internal/lifecycle"
	"github.com/example/blazehunter/internal/media"
	"github.com/example/blazehunter/internal/models"
	"github.com/example/blazehunter/internal/router"
	"github.com/example/blazehunter/internal/state"
)

const connectionError = "Connection Error"

// SiteHandler serves the public site's data: pages, feeds, item details and
// backgrounds.
type SiteHandler struct {
	site *config.Site
	app  *state.App
	now  func() time.Time
}

// NewSiteHandler constructs SiteHandler.
func NewSiteHandler(site *config.Site, app *state.App) *SiteHandler {
	return &SiteHandler{site: site, app: app, now: time.Now}
}

type cardView struct {
	ID        int64                  `json:"id"`
	Title     string                 `json:"title"`
	Image     *media.ImageAttributes `json:"image"`
	Link      string                 `json:"link,omitempty"`
	StartDate string                 `json:"startDate,omitempty"`
	EndDate   string                 `json:"endDate,omitempty"`
	Status    lifecycle.Status       `json:"status"`
	Badge     string                 `json:"badge,omitempty"`
}

type emptyState struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type feedView struct {
	Key    string      `json:"key"`
	IsNews bool        `json:"isNews"`
	Items  []cardView  `json:"items"`
	Empty  *emptyState `json:"empty,omitempty"`
}

// Nations lists the navigation links and labels for a language.
func (h *SiteHandler) Nations(c *fiber.Ctx) error {
	t := h.site.Translator(c.Query("lang"))
	return c.JSON(fiber.Map{
		"language": t.Lang(),
		"nations":  h.site.NationLinks(),
		"labels": fiber.Map{
			"home":    t.Translate("home_link"),
			"nation":  t.Translate("nation_link"),
			"news":    t.Translate("news_link"),
			"contact": t.Translate("contact_link"),
		},
	})
}

// Page resolves a virtual path and returns the section to show with its feed.
func (h *SiteHandler) Page(c *fiber.Ctx) error {
	lang := c.Query("lang")
	from := router.Home
	if prev := c.Query("from"); prev != "" {
		from, _ = router.Transition(h.site, router.Home, prev, lang)
	}

	next, effect := router.Transition(h.site, from, c.Query("path", "/"), lang)
	resp := fiber.Map{"state": next, "effect": effect}

	if effect.FeedKey != "" {
		view, err := h.feed(effect.FeedKey, lang)
		if err != nil {
			return err
		}
		resp["feed"] = view
	}
	return c.JSON(resp)
}

// Feed returns the assembled feed of one category.
func (h *SiteHandler) Feed(c *fiber.Ctx) error {
	view, err := h.feed(strings.ToLower(c.Params("key")), c.Query("lang"))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (h *SiteHandler) feed(key, lang string) (feedView, error) {
	if !h.app.Loaded() && h.app.ItemsError() != nil {
		return feedView{}, fiber.NewError(fiber.StatusServiceUnavailable, connectionError)
	}

	t := h.site.Translator(lang)
	items, _ := h.app.Collection(key)
	entries := feed.Assemble(items, h.now())

	view := feedView{
		Key:    key,
		IsNews: key == config.KeyNews,
		Items:  make([]cardView, 0, len(entries)),
	}
	for _, e := range entries {
		view.Items = append(view.Items, h.card(e, t, view.IsNews))
	}

	if len(view.Items) == 0 {
		view.Empty = h.emptyState(key, t)
	}
	return view, nil
}

func (h *SiteHandler) card(e feed.Entry, t config.Translator, isNews bool) cardView {
	card := cardView{
		ID:        e.Item.ID,
		Title:     displayTitle(e.Item, t),
		Link:      strings.TrimSpace(e.Item.BannerLink),
		StartDate: e.Item.StartDate,
		EndDate:   e.EndDate,
		Status:    e.Result.Status,
	}
	if e.Item.HasImage() {
		img := media.Responsive(strings.TrimSpace(e.Item.URL), card.Title)
		card.Image = &img
	}
	// news cards carry no lifecycle badge
	if !isNews {
		card.Badge = lifecycle.Label(e.Result.Status, t)
	}
	return card
}

func (h *SiteHandler) emptyState(key string, t config.Translator) *emptyState {
	switch key {
	case config.KeyDefault:
		return &emptyState{Title: t.Translate("select_prompt"), Message: t.Translate("update_banner")}
	case config.KeyNews:
		return &emptyState{Title: t.Translate("update_news"), Message: t.Translate("check_back_news")}
	default:
		return &emptyState{Title: t.Translate("update_banner"), Message: t.Translate("check_back")}
	}
}

// Item returns the detail overlay of one item.
func (h *SiteHandler) Item(c *fiber.Ctx) error {
	key := strings.ToLower(c.Params("key"))
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	item, ok := h.app.Item(key, id)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "item not found")
	}

	t := h.site.Translator(c.Query("lang"))
	dateLabel := t.Translate("start_date")
	if item.IsNews() {
		dateLabel = t.Translate("date_posting")
	}

	detail := fiber.Map{
		"id":            item.ID,
		"title":         displayTitle(item, t),
		"dateLabel":     dateLabel,
		"startDate":     item.StartDate,
		"endDate":       feed.DisplayEnd(item),
		"link":          strings.TrimSpace(item.BannerLink),
		"linkLabel":     t.Translate("link_access"),
		"downloadLabel": t.Translate("download_image"),
		"image":         nil,
	}
	if item.HasImage() {
		detail["image"] = strings.TrimSpace(item.URL)
	}
	if !item.IsNews() {
		status := lifecycle.Classify(item.StartDate, item.EndDate, h.now()).Status
		detail["status"] = status
		detail["badge"] = lifecycle.Label(status, t)
	}
	return c.JSON(detail)
}

// HomeSettings returns the resolved backgrounds. Live values win over the
// last cached ones field by field.
func (h *SiteHandler) HomeSettings(c *fiber.Ctx) error {
	settings, found := h.app.EffectiveSettings(c.UserContext())
	if !found {
		return c.JSON(media.Backgrounds{})
	}
	return c.JSON(media.ResolveBackgrounds(settings, h.now()))
}

// displayTitle falls back to the translated "no title" label.
func displayTitle(item models.ContentItem, t config.Translator) string {
	if title := strings.TrimSpace(item.Title); title != "" {
		return title
	}
	return t.Translate("no_title")
}

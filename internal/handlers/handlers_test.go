package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/blazehunter/internal/config"
	"github.com/example/blazehunter/internal/models"
	"github.com/example/blazehunter/internal/realtime"
	"github.com/example/blazehunter/internal/services"
	"github.com/example/blazehunter/internal/state"
)

type stubGateway struct {
	services.Gateway
	items    []models.ContentItem
	settings *models.HomeSettings
	err      error
	upserted []models.ContentItem
}

func (s *stubGateway) List(context.Context, string) ([]models.ContentItem, error) {
	return s.items, s.err
}

func (s *stubGateway) GetHomeSettings(context.Context) (*models.HomeSettings, error) {
	return s.settings, s.err
}

func (s *stubGateway) VerifyAdminKey(_ context.Context, creds services.Credentials) (bool, error) {
	return creds.Key == "good", s.err
}

func (s *stubGateway) Upsert(_ context.Context, item models.ContentItem, _ services.Credentials) (models.ContentItem, error) {
	if s.err != nil {
		return models.ContentItem{}, s.err
	}
	item.ID = 99
	s.upserted = append(s.upserted, item)
	return item, nil
}

type recordingNotifier struct {
	tables []string
}

func (r *recordingNotifier) Notify(_ context.Context, table string) error {
	r.tables = append(r.tables, table)
	return nil
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestAdminForward_MethodAndConfiguration(t *testing.T) {
	app := newApp()
	app.All("/api/admin", NewAdminHandler(&stubGateway{}, nil).Forward)

	resp, body := doJSON(t, app, http.MethodGet, "/api/admin", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Method Not Allowed", body["error"])

	unconfigured := newApp()
	unconfigured.All("/api/admin", NewAdminHandler(nil, nil).Forward)
	resp, body = doJSON(t, unconfigured, http.MethodPost, "/api/admin", map[string]any{"action": "fetch_banners"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Server configuration error: Missing API keys", body["error"])
}

func TestAdminForward_Actions(t *testing.T) {
	gw := &stubGateway{items: []models.ContentItem{{ID: 1, NationKey: "brazil"}}}
	notifier := &recordingNotifier{}
	app := newApp()
	app.All("/api/admin", NewAdminHandler(gw, notifier).Forward)

	resp, body := doJSON(t, app, http.MethodPost, "/api/admin", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing action in request body", body["error"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/admin", map[string]any{"action": "drop_tables"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid action", body["error"])

	req := httptest.NewRequest(http.MethodPost, "/api/admin", strings.NewReader(`{"action":"verify_admin_key","params":{"p_email":"a@b.c","p_key":"good"}}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "true", string(raw))

	req = httptest.NewRequest(http.MethodPost, "/api/admin", strings.NewReader(`{"action":"fetch_banners","params":{}}`))
	resp, err = app.Test(req)
	require.NoError(t, err)
	var items []models.ContentItem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.Empty(t, notifier.tables)

	resp, body = doJSON(t, app, http.MethodPost, "/api/admin", map[string]any{
		"action": "manage_banner_upsert",
		"params": map[string]any{"p_email": "a@b.c", "p_key": "good", "p_nation_key": "brazil", "p_url": "https://x/a.jpg"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 99, body["id"])
	assert.Equal(t, []string{realtime.TableItems}, notifier.tables)
}

func TestAdminForward_GatewayErrors(t *testing.T) {
	gw := &stubGateway{err: &services.APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"}}
	app := newApp()
	app.All("/api/admin", NewAdminHandler(gw, nil).Forward)

	resp, body := doJSON(t, app, http.MethodPost, "/api/admin", map[string]any{"action": "fetch_banners"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", body["error"])

	gw.err = &services.NetworkError{Op: "fetch", Err: assert.AnError}
	resp, _ = doJSON(t, app, http.MethodPost, "/api/admin", map[string]any{"action": "fetch_banners"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestConfigHandler(t *testing.T) {
	cfg := &config.Config{SupabaseURL: "https://p.supabase.co", SupabaseAnonKey: "anon", InactivityReload: 30 * time.Second}
	app := newApp()
	app.Get("/api/config", NewConfigHandler(cfg).Get)

	resp, body := doJSON(t, app, http.MethodGet, "/api/config", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://p.supabase.co", body["supabaseUrl"])
	assert.Equal(t, "anon", body["supabaseAnonKey"])
	assert.Equal(t, true, body["realtime"])
	assert.EqualValues(t, 30, body["inactivityReloadSeconds"])
}

func newSiteApp(t *testing.T, items []models.ContentItem) (*fiber.App, *state.App) {
	t.Helper()

	site, err := config.LoadSite("")
	require.NoError(t, err)

	st := state.New(site.Categories(), services.NewMemorySettingsCache())
	if items != nil {
		st.ApplyItems(st.Ticket(), items)
	}

	h := NewSiteHandler(site, st)
	h.now = func() time.Time { return time.Date(2024, time.January, 21, 9, 0, 0, 0, time.UTC) }

	app := newApp()
	app.Get("/api/page", h.Page)
	app.Get("/api/feed/:key", h.Feed)
	app.Get("/api/items/:key/:id", h.Item)
	app.Get("/api/home-settings", h.HomeSettings)
	app.Get("/api/nations", h.Nations)
	return app, st
}

func TestSiteFeed_OrdersAndBadges(t *testing.T) {
	app, _ := newSiteApp(t, []models.ContentItem{
		{ID: 1, NationKey: "brazil", Title: "Old", StartDate: "05/01/2024", URL: "https://ik.imagekit.io/blazehunter/a.jpg"},
		{ID: 2, NationKey: "brazil", StartDate: "20/01/2024", URL: "https://cdn/x.png"},
		{ID: 3, NationKey: "brazil"},
		{ID: 4, NationKey: "news", Title: "Patch", StartDate: "20/01/2024"},
	})

	resp, body := doJSON(t, app, http.MethodGet, "/api/feed/brazil", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := body["items"].([]any)
	require.Len(t, items, 3)

	first := items[0].(map[string]any)
	assert.EqualValues(t, 2, first["id"])
	assert.Equal(t, "NO TITLE", first["title"])
	assert.Equal(t, "ACTIVE", first["badge"])

	second := items[1].(map[string]any)
	assert.Equal(t, "ENDING", second["badge"])
	image := second["image"].(map[string]any)
	assert.Contains(t, image["srcset"], "tr=w-640,f-auto,c-at_max")

	third := items[2].(map[string]any)
	assert.Nil(t, third["image"])
	assert.Nil(t, third["badge"])

	_, body = doJSON(t, app, http.MethodGet, "/api/feed/news", nil)
	news := body["items"].([]any)
	require.Len(t, news, 1)
	assert.Nil(t, news[0].(map[string]any)["badge"])
	assert.Equal(t, true, body["isNews"])
}

func TestSiteFeed_EmptyStates(t *testing.T) {
	app, _ := newSiteApp(t, []models.ContentItem{})

	_, body := doJSON(t, app, http.MethodGet, "/api/feed/india", nil)
	empty := body["empty"].(map[string]any)
	assert.Equal(t, "BANNER DATA IS CURRENTLY BEING UPDATED.", empty["title"])
	assert.Equal(t, "PLEASE CHECK BACK LATER.", empty["message"])

	_, body = doJSON(t, app, http.MethodGet, "/api/feed/news?lang=vietnam", nil)
	empty = body["empty"].(map[string]any)
	assert.Equal(t, "DỮ LIỆU TIN TỨC ĐANG ĐƯỢC CẬP NHẬT.", empty["title"])

	_, body = doJSON(t, app, http.MethodGet, "/api/page?path=/nation", nil)
	feed := body["feed"].(map[string]any)
	empty = feed["empty"].(map[string]any)
	assert.Equal(t, "PLEASE SELECT A COUNTRY", empty["title"])
	assert.Equal(t, "BANNER DATA IS CURRENTLY BEING UPDATED.", empty["message"])
}

func TestSiteFeed_ConnectionError(t *testing.T) {
	app, st := newSiteApp(t, nil)
	_, err := st.RefreshItems(context.Background(), &stubGateway{err: assert.AnError})
	require.Error(t, err)

	resp, body := doJSON(t, app, http.MethodGet, "/api/feed/brazil", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Connection Error", body["error"])
}

func TestSitePage_RoutesAndUnknownPaths(t *testing.T) {
	app, _ := newSiteApp(t, []models.ContentItem{{ID: 1, NationKey: "vietnam", StartDate: "20/01/2024"}})

	_, body := doJSON(t, app, http.MethodGet, "/api/page?path=/nation/vietnam/", nil)
	effect := body["effect"].(map[string]any)
	assert.Equal(t, "CURRENT NATION: VIETNAM", effect["heading"])
	assert.Equal(t, "/nation", effect["activeNav"])
	assert.Len(t, body["feed"].(map[string]any)["items"], 1)

	_, body = doJSON(t, app, http.MethodGet, "/api/page?path=/nowhere", nil)
	assert.Equal(t, "home", body["state"].(map[string]any)["section"])
	assert.Nil(t, body["feed"])

	_, body = doJSON(t, app, http.MethodGet, "/api/page?path=/news&from=/news", nil)
	assert.Equal(t, false, body["effect"].(map[string]any)["pushHistory"])
}

func TestSiteItem_Detail(t *testing.T) {
	app, _ := newSiteApp(t, []models.ContentItem{
		{ID: 1, NationKey: "brazil", StartDate: "01/01/2024", BannerLink: "https://game/event"},
		{ID: 2, NationKey: "news", StartDate: "02/01/2024", URL: "https://cdn/n.jpg"},
	})

	_, body := doJSON(t, app, http.MethodGet, "/api/items/brazil/1", nil)
	assert.Equal(t, "START DATE", body["dateLabel"])
	assert.Equal(t, "11/01/2024", body["endDate"])
	assert.Equal(t, "https://game/event", body["link"])
	assert.Equal(t, "ENDING", body["badge"])

	_, body = doJSON(t, app, http.MethodGet, "/api/items/news/2?lang=vietnam", nil)
	assert.Equal(t, "NGÀY ĐĂNG", body["dateLabel"])
	assert.Equal(t, "https://cdn/n.jpg", body["image"])
	assert.NotContains(t, body, "badge")

	resp, _ := doJSON(t, app, http.MethodGet, "/api/items/brazil/7", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/items/brazil/x", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSiteHomeSettings(t *testing.T) {
	app, st := newSiteApp(t, nil)

	_, body := doJSON(t, app, http.MethodGet, "/api/home-settings", nil)
	assert.Nil(t, body["pc"])
	assert.Nil(t, body["mobile"])

	st.ApplySettings(st.Ticket(), &models.HomeSettings{ID: 1, BgPcURL: "https://cdn/bg.MP4", BgMobileURL: "https://cdn/m.jpg"})

	_, body = doJSON(t, app, http.MethodGet, "/api/home-settings", nil)
	pc := body["pc"].(map[string]any)
	assert.Equal(t, "video", pc["kind"])
	assert.Equal(t, "https://cdn/bg.MP4", pc["url"])
	mobile := body["mobile"].(map[string]any)
	assert.Equal(t, "image", mobile["kind"])
	assert.True(t, strings.HasPrefix(mobile["url"].(string), "https://cdn/m.jpg?v="))
}

func TestSiteNations(t *testing.T) {
	app, _ := newSiteApp(t, nil)

	_, body := doJSON(t, app, http.MethodGet, "/api/nations?lang=vietnam", nil)
	assert.Equal(t, "vietnam", body["language"])
	assert.Len(t, body["nations"], 8)
	assert.Equal(t, "TIN TỨC", body["labels"].(map[string]any)["news"])
}

func TestEventsStream(t *testing.T) {
	broker := realtime.NewBroker(nil, zerolog.Nop())
	done := make(chan struct{})
	close(done)

	app := newApp()
	app.Get("/api/events", NewEventsHandler(broker, done).Stream)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/events", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), ": connected")
	assert.Equal(t, 0, broker.Subscribers())
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, writeEvent(w, realtime.Event{Type: "refresh", Payload: realtime.Notification{Table: realtime.TableSettings}}))
	assert.Equal(t, "event: refresh\ndata: {\"table\":\"home_settings\"}\n\n", buf.String())
}

func TestErrorHandler(t *testing.T) {
	app := newApp()
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/forbidden", func(c *fiber.Ctx) error { return services.ErrForbidden })

	resp, body := doJSON(t, app, http.MethodGet, "/fiber", nil)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", body["error"])

	resp, _ = doJSON(t, app, http.MethodGet, "/forbidden", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

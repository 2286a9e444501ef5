// Package state holds the current snapshot of content and settings the site is
// rendered from.
package state

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/example/blazehunter/internal/feed"
	"github.com/example/blazehunter/internal/models"
	"github.com/example/blazehunter/internal/services"
)

// App is the application state object. Collections are replaced wholesale on
// every fetch. Each fetch takes a ticket before it starts; a result is applied
// only when its ticket is newer than the last one applied, so a slow earlier
// response can never overwrite a newer one.
type App struct {
	seq atomic.Uint64

	mu             sync.RWMutex
	categories     []string
	collections    map[string][]models.ContentItem
	itemsTicket    uint64
	settings       *models.HomeSettings
	settingsTicket uint64
	itemsErr       error
	itemsErrTicket uint64
	cache          services.SettingsCache
}

// New builds an empty state seeded with categories. cache may be nil.
func New(categories []string, cache services.SettingsCache) *App {
	return &App{
		categories:  append([]string(nil), categories...),
		collections: feed.GroupByCategory(nil, categories),
		cache:       cache,
	}
}

// Ticket reserves the next sequence number for a fetch.
func (a *App) Ticket() uint64 {
	return a.seq.Add(1)
}

// ApplyItems replaces all collections with items fetched under ticket. It
// reports false and changes nothing when a newer result was already applied.
func (a *App) ApplyItems(ticket uint64, items []models.ContentItem) bool {
	groups := feed.GroupByCategory(items, a.categories)

	a.mu.Lock()
	defer a.mu.Unlock()

	if ticket <= a.itemsTicket {
		return false
	}
	a.itemsTicket = ticket
	a.collections = groups
	if ticket > a.itemsErrTicket {
		a.itemsErr = nil
	}
	return true
}

// ApplySettings replaces the home settings fetched under ticket.
func (a *App) ApplySettings(ticket uint64, settings *models.HomeSettings) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ticket <= a.settingsTicket {
		return false
	}
	a.settingsTicket = ticket
	if settings == nil {
		a.settings = nil
		return true
	}
	copied := *settings
	a.settings = &copied
	return true
}

// Collection returns a copy of the items in category.
func (a *App) Collection(category string) ([]models.ContentItem, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	items, ok := a.collections[category]
	if !ok {
		return nil, false
	}
	return append([]models.ContentItem(nil), items...), true
}

// Item finds an item by category and id.
func (a *App) Item(category string, id int64) (models.ContentItem, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, item := range a.collections[category] {
		if item.ID == id {
			return item, true
		}
	}
	return models.ContentItem{}, false
}

// HomeSettings returns the current settings, or nil before the first fetch.
func (a *App) HomeSettings() *models.HomeSettings {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.settings == nil {
		return nil
	}
	copied := *a.settings
	return &copied
}

// Loaded reports whether any item fetch has been applied.
func (a *App) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.itemsTicket > 0
}

// ItemsError returns the error of the most recent item fetch, if it failed.
func (a *App) ItemsError() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.itemsErr
}

// setItemsErr records a failed fetch unless a newer one already finished.
func (a *App) setItemsErr(ticket uint64, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ticket <= a.itemsTicket || ticket <= a.itemsErrTicket {
		return
	}
	a.itemsErrTicket = ticket
	a.itemsErr = err
}

// RefreshItems fetches every item and applies the result. Errors leave the
// previous snapshot in place.
func (a *App) RefreshItems(ctx context.Context, gw services.Gateway) (bool, error) {
	ticket := a.Ticket()
	items, err := gw.List(ctx, "")
	if err != nil {
		a.setItemsErr(ticket, err)
		return false, err
	}
	return a.ApplyItems(ticket, items), nil
}

// RefreshSettings fetches the home settings, applies them and remembers the
// non-empty URLs in the cache.
func (a *App) RefreshSettings(ctx context.Context, gw services.Gateway) (bool, error) {
	ticket := a.Ticket()
	settings, err := gw.GetHomeSettings(ctx)
	if err != nil {
		return false, err
	}

	applied := a.ApplySettings(ticket, settings)
	if applied && settings != nil && a.cache != nil {
		if err := a.cache.Merge(ctx, *settings); err != nil {
			return applied, err
		}
	}
	return applied, nil
}

// EffectiveSettings overlays the non-empty live URLs on the last cached ones,
// so an empty or failed fetch never blanks a background that was shown
// before. It reports false when neither source has anything.
func (a *App) EffectiveSettings(ctx context.Context) (models.HomeSettings, bool) {
	out := models.HomeSettings{ID: models.HomeSettingsID}
	found := false

	if a.cache != nil {
		if cached, ok, err := a.cache.Load(ctx); err == nil && ok {
			out.BgPcURL, out.BgMobileURL = cached.BgPcURL, cached.BgMobileURL
			found = true
		}
	}

	if live := a.HomeSettings(); live != nil {
		if live.BgPcURL != "" {
			out.BgPcURL = live.BgPcURL
			found = true
		}
		if live.BgMobileURL != "" {
			out.BgMobileURL = live.BgMobileURL
			found = true
		}
		out.UpdatedAt = live.UpdatedAt
	}
	return out, found
}

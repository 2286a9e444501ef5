// Package realtime turns data service change events into full refetches and
// pushes "refresh" events to connected browsers.
package realtime

import (
	"context"

	"github.com/example/blazehunter/internal/models"
)

// Tables that produce change notifications.
var (
	TableItems    = models.ContentItem{}.TableName()
	TableSettings = models.HomeSettings{}.TableName()
)

// Notification says that a table changed. The payload of the change is not
// used; receivers refetch the whole table.
type Notification struct {
	Table string `json:"table"`
	Event string `json:"event,omitempty"`
	// NationKey is the category of the changed row when the source reports it.
	NationKey string `json:"nation_key,omitempty"`
}

// Source delivers notifications until ctx is cancelled.
type Source interface {
	Run(ctx context.Context, out chan<- Notification) error
}

func known(table string) bool {
	return table == TableItems || table == TableSettings
}

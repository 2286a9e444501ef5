package feed

import (
	"strings"
	"time"

	"github.com/example/blazehunter/internal/dates"
	"github.com/example/blazehunter/internal/lifecycle"
	"github.com/example/blazehunter/internal/models"
)

// EndedWindowStart is the number of days past its end after which an item is
// listed in the dashboard's ended view.
const EndedWindowStart = 10

// SelectForCleanup returns the ids of items whose explicit end date lies more
// than ExpiryDays in the past. Items without an end date, or with one the
// strict parser rejects, are never selected.
func SelectForCleanup(items []models.ContentItem, today time.Time) []int64 {
	today = dates.Today(today)

	var ids []int64
	for _, item := range items {
		past, ok := daysPastExplicitEnd(item, today)
		if ok && past > lifecycle.ExpiryDays {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// SelectEndedWindow returns items ended more than EndedWindowStart and at most
// ExpiryDays days ago, in input order.
func SelectEndedWindow(items []models.ContentItem, today time.Time) []models.ContentItem {
	today = dates.Today(today)

	out := []models.ContentItem{}
	for _, item := range items {
		past, ok := daysPastExplicitEnd(item, today)
		if ok && past > EndedWindowStart && past <= lifecycle.ExpiryDays {
			out = append(out, item)
		}
	}
	return out
}

func daysPastExplicitEnd(item models.ContentItem, today time.Time) (int, bool) {
	if strings.TrimSpace(item.EndDate) == "" {
		return 0, false
	}
	end, ok := dates.ParseStrict(item.EndDate)
	if !ok {
		return 0, false
	}
	return dates.DaysBetween(end, today), true
}

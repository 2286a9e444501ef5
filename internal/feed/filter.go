package feed

import (
	"github.com/example/blazehunter/internal/dates"
	"github.com/example/blazehunter/internal/models"
)

// CategoryAll disables category filtering.
const CategoryAll = "all"

// Filter narrows the dashboard lists. Bounds are inclusive DD/MM/YYYY strings;
// a bound the strict parser rejects is ignored.
type Filter struct {
	Category string
	From     string
	To       string
}

// Apply returns the items matching f in input order. When either bound is set,
// items whose start date does not parse are excluded.
func (f Filter) Apply(items []models.ContentItem) []models.ContentItem {
	from, hasFrom := dates.ParseStrict(f.From)
	to, hasTo := dates.ParseStrict(f.To)

	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if f.Category != "" && f.Category != CategoryAll && item.NationKey != f.Category {
			continue
		}
		if hasFrom || hasTo {
			start, ok := dates.ParseStrict(item.StartDate)
			if !ok {
				continue
			}
			if hasFrom && start.Before(from) {
				continue
			}
			if hasTo && start.After(to) {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

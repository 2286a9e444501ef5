// Package feed turns raw content items into the ordered lists shown on the
// site and the dashboard.
package feed

import (
	"sort"
	"strings"
	"time"

	"github.com/example/blazehunter/internal/dates"
	"github.com/example/blazehunter/internal/lifecycle"
	"github.com/example/blazehunter/internal/models"
)

// Entry pairs an item with its status on the assembly day. EndDate is the
// resolved end in DD/MM/YYYY form; it is presentation data and never stored.
type Entry struct {
	Item    models.ContentItem
	Result  lifecycle.Result
	EndDate string
}

// Assemble drops items more than ExpiryDays past their end and orders the rest
// by start date, most recent first. Items without a parseable start date are
// never dropped and keep their relative order at the end of the list.
func Assemble(items []models.ContentItem, today time.Time) []Entry {
	today = dates.Today(today)

	type keyed struct {
		entry Entry
		start time.Time
	}

	kept := make([]keyed, 0, len(items))
	for _, item := range items {
		start := dates.ParseLenient(item.StartDate)
		if !dates.IsEpoch(start) {
			end := lifecycle.ResolveEnd(start, item.EndDate)
			if dates.DaysBetween(end, today) > lifecycle.ExpiryDays {
				continue
			}
		}
		kept = append(kept, keyed{
			entry: Entry{
				Item:    item,
				Result:  lifecycle.Classify(item.StartDate, item.EndDate, today),
				EndDate: DisplayEnd(item),
			},
			start: start,
		})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i].start, kept[j].start
		aNone, bNone := dates.IsEpoch(a), dates.IsEpoch(b)
		switch {
		case aNone && bNone:
			return false
		case aNone:
			return false
		case bNone:
			return true
		default:
			return a.After(b)
		}
	})

	out := make([]Entry, len(kept))
	for i, k := range kept {
		out[i] = k.entry
	}
	return out
}

// DisplayEnd returns the end date shown next to an item: the stored end date
// when present, else start plus the implicit run when the start parses.
func DisplayEnd(item models.ContentItem) string {
	if end := strings.TrimSpace(item.EndDate); end != "" {
		return end
	}
	if strings.TrimSpace(item.StartDate) == "" {
		return ""
	}
	start := dates.ParseLenient(item.StartDate)
	if dates.IsEpoch(start) {
		return ""
	}
	return dates.Format(lifecycle.ResolveEnd(start, ""))
}

// GroupByCategory splits items into per-category collections. Every key in
// seed gets a collection even when empty; unknown categories are added as
// they appear. Input order is preserved within each collection.
func GroupByCategory(items []models.ContentItem, seed []string) map[string][]models.ContentItem {
	groups := make(map[string][]models.ContentItem, len(seed))
	for _, key := range seed {
		groups[key] = []models.ContentItem{}
	}
	for _, item := range items {
		groups[item.NationKey] = append(groups[item.NationKey], item)
	}
	return groups
}

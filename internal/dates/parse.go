// Package dates parses the free-form calendar dates stored on content items.
//
// Two parsers exist on purpose and must not be merged. ParseStrict is used
// wherever "does not match" is the safe answer (admin filters, cleanup
// selection) and reports failure to the caller. ParseLenient is used for
// display ordering and classification, where "sort last" is the safe answer,
// and returns the Unix epoch on failure.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const secondsPerDay = 24 * 60 * 60

// Epoch is the sentinel returned by ParseLenient for unparseable input.
var Epoch = time.Unix(0, 0).UTC()

// ParseStrict parses a day-first DD/MM/YYYY date. Separators '/', '-' and '.'
// are accepted. Every token must be an integer; zero padding is ignored.
func ParseStrict(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	parts := splitDate(value)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	nums := make([]int, 3)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return time.Time{}, false
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	return civil(nums[2], nums[1], nums[0]), true
}

// ParseLenient parses the date formats found in stored items. A first token of
// length four selects YYYY-MM-DD, anything else DD/MM/YYYY. Input that does
// not split into three numeric tokens goes through generic parsing and is
// truncated to its UTC calendar day. Failure yields Epoch.
func ParseLenient(value string) time.Time {
	if value == "" {
		return Epoch
	}

	clean := value
	if idx := strings.IndexByte(clean, 'T'); idx >= 0 {
		clean = clean[:idx]
	}
	clean = strings.TrimSpace(clean)

	if parts := splitDate(clean); len(parts) == 3 {
		first, second, third := parts[0], parts[1], parts[2]
		var year, month, day int
		var okY, okM, okD bool
		if len(first) == 4 {
			year, okY = leadingInt(first)
			month, okM = leadingInt(second)
			day, okD = leadingInt(third)
		} else {
			day, okD = leadingInt(first)
			month, okM = leadingInt(second)
			year, okY = leadingInt(third)
		}
		if okY && okM && okD {
			return civil(year, month, day)
		}
	}

	parsed, err := dateparse.ParseIn(strings.TrimSpace(value), time.UTC)
	if err != nil {
		return Epoch
	}
	return Truncate(parsed)
}

// IsEpoch reports whether t is the ParseLenient failure sentinel.
func IsEpoch(t time.Time) bool {
	return t.Unix() == 0
}

// Truncate drops the time-of-day component, keeping the UTC calendar day.
func Truncate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the UTC calendar day containing now.
func Today(now time.Time) time.Time {
	return Truncate(now)
}

// AddDays shifts a calendar day by n days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysBetween returns the whole days from a to b, rounded towards negative
// infinity.
func DaysBetween(a, b time.Time) int {
	diff := b.Unix() - a.Unix()
	days := diff / secondsPerDay
	if diff%secondsPerDay != 0 && diff < 0 {
		days--
	}
	return int(days)
}

// Format renders t in the DD/MM/YYYY display form.
func Format(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%02d/%02d/%04d", t.Day(), int(t.Month()), t.Year())
}

// civil builds a UTC midnight date. Overflowing months and days roll forward
// and two-digit years land in the 1900s.
func civil(year, month, day int) time.Time {
	if year >= 0 && year <= 99 {
		year += 1900
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// splitDate keeps empty tokens so "01//2024" yields three parts, one empty.
func splitDate(value string) []string {
	parts := make([]string, 0, 3)
	start := 0
	for i, r := range value {
		if isSeparator(r) {
			parts = append(parts, value[start:i])
			start = i + 1
		}
	}
	return append(parts, value[start:])
}

func isSeparator(r rune) bool {
	return r == '/' || r == '-' || r == '.'
}

// leadingInt reads an optionally signed run of digits after leading
// whitespace and ignores whatever follows it.
func leadingInt(token string) (int, bool) {
	s := strings.TrimLeft(token, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

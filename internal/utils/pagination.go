package utils

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds pagination parameters.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// MaxLimit caps the page size a client can ask for.
const MaxLimit = 100

// ParsePagination reads page and limit query params with sane defaults.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := parseInt(c.Query("page", "1"), 1)
	limit := parseInt(c.Query("limit", "20"), 20)
	if limit <= 0 {
		limit = 20
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page <= 0 {
		page = 1
	}
	// (page-1)*limit must stay within int.
	if maxPage := math.MaxInt/limit + 1; page > maxPage {
		page = maxPage
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}

// Window returns the slice bounds of the current page within n items.
// Out of range offsets and limits are clamped, never added before clamping.
func (p Pagination) Window(n int) (int, int) {
	if n < 0 {
		n = 0
	}
	start := min(max(p.Offset, 0), n)
	size := min(max(p.Limit, 0), n-start)
	return start, start + size
}

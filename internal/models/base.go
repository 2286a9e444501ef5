package models

import (
	"time"
)

// Timestamps provides shared bookkeeping columns for stored tables.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

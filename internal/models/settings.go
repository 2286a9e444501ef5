package models

import "time"

// HomeSettingsID is the primary key of the single home settings row.
const HomeSettingsID = 1

// HomeSettings stores the home page backgrounds managed via the admin panel.
// There is only one row (singleton pattern).
type HomeSettings struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	BgPcURL     string    `json:"bg_pc_url"`
	BgMobileURL string    `json:"bg_mobile_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (HomeSettings) TableName() string {
	return "home_settings"
}

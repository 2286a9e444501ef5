package models

import "strings"

// Reserved category keys that are not countries.
const (
	CategoryNews    = "news"
	CategoryDefault = "default"
)

// ContentItem is one banner or news entry. Dates are kept in the display form
// they were entered in (normally DD/MM/YYYY); they are parsed on every read.
type ContentItem struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	NationKey  string `gorm:"index;not null" json:"nation_key"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	BannerLink string `json:"banner_link"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Timestamps
}

func (ContentItem) TableName() string {
	return "nation_banners"
}

// IsNews reports whether the item belongs to the news feed.
func (c ContentItem) IsNews() bool {
	return c.NationKey == CategoryNews
}

// HasImage reports whether the item carries an image URL worth rendering.
func (c ContentItem) HasImage() bool {
	return strings.TrimSpace(c.URL) != ""
}

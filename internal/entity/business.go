package entity

import "time"

// Business represents a directory listing stored in the catalogue. The
// natural key is SourceURL: two rows never share one, and re-scrapes merge
// into the existing row instead of duplicating it.
type Business struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Source      string     `json:"source"`
	SourceURL   string     `json:"source_url"`
	SourceID    *string    `json:"source_id,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Website     *string    `json:"website,omitempty"`
	Address     *string    `json:"address,omitempty"`
	City        *string    `json:"city,omitempty"`
	State       *string    `json:"state,omitempty"`
	ZipCode     *string    `json:"zip_code,omitempty"`
	Country     *string    `json:"country,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Description *string    `json:"description,omitempty"`
	Rating      *float64   `json:"rating,omitempty"`
	ReviewCount *int       `json:"review_count,omitempty"`
	Hours       *string    `json:"hours,omitempty"`
	Amenities   []string   `json:"amenities,omitempty"`
	Images      []string   `json:"images,omitempty"`
	ScrapedAt   *time.Time `json:"scraped_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	IsActive    bool       `json:"is_active"`
}

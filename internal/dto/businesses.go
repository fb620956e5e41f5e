package dto

import "time"

// ListFilter contains query parameters for business listing endpoints.
type ListFilter struct {
	Q            string
	Source       string
	Category     string
	City         string
	State        string
	MinRating    *float64
	ScrapedSince *time.Time
	ActiveOnly   bool
	Page         int
	PerPage      int
}

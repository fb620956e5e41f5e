package dto

// ScrapeRequest is the payload used by the scraping endpoint. Either
// Category or Categories must be set; Categories runs one crawl per entry.
type ScrapeRequest struct {
	Source     string   `json:"source"`
	Category   string   `json:"category,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Location   string   `json:"location"`
	MaxPages   int      `json:"max_pages,omitempty"`
}

// ScrapeQueuedResponse acknowledges an accepted crawl run.
type ScrapeQueuedResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

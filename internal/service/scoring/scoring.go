// Package scoring rates how complete a scraped listing is. The score is
// informational; it never gates persistence.
package scoring

import (
	"net/url"
	"strings"
)

const (
	categoryContact    = "contact_completeness"
	categoryLocation   = "location_quality"
	categoryProfile    = "profile_richness"
	categoryReputation = "reputation"
)

var freeHostingDomains = []string{
	"wordpress.com",
	"blogspot.com",
	"wixsite.com",
	"weebly.com",
	"squarespace.com",
	"godaddysites.com",
	"notion.site",
}

// ListingFeatures captures the extracted fields used for scoring.
type ListingFeatures struct {
	Phone       string
	Email       string
	Website     string
	Address     string
	City        string
	State       string
	ZipCode     string
	Category    string
	Description string
	Hours       string
	Amenities   int
	Images      int
	Rating      *float64
	ReviewCount *int
}

// ScoreResult reports the aggregate score and the per-category breakdown.
type ScoreResult struct {
	Total     int
	Breakdown map[string]int
}

// ComputeScore evaluates the provided features and returns the score breakdown.
func ComputeScore(input ListingFeatures) ScoreResult {
	breakdown := map[string]int{
		categoryContact:    scoreContact(input),
		categoryLocation:   scoreLocation(input),
		categoryProfile:    scoreProfile(input),
		categoryReputation: scoreReputation(input),
	}

	total := 0
	for _, value := range breakdown {
		total += value
	}

	return ScoreResult{
		Total:     total,
		Breakdown: breakdown,
	}
}

func scoreContact(input ListingFeatures) int {
	score := 0
	if strings.TrimSpace(input.Phone) != "" {
		score += 10
	}
	if strings.TrimSpace(input.Email) != "" {
		score += 10
	}
	if highQualityDomain(input.Website) {
		score += 10
	}
	if score > 30 {
		return 30
	}
	return score
}

func scoreLocation(input ListingFeatures) int {
	score := 0
	if strings.TrimSpace(input.Address) != "" {
		score += 10
	}
	if strings.TrimSpace(input.City) != "" {
		score += 5
	}
	if strings.TrimSpace(input.State) != "" || strings.TrimSpace(input.ZipCode) != "" {
		score += 5
	}
	if score > 20 {
		return 20
	}
	return score
}

func scoreProfile(input ListingFeatures) int {
	score := 0
	if strings.TrimSpace(input.Category) != "" {
		score += 5
	}
	if strings.TrimSpace(input.Description) != "" {
		score += 5
	}
	if strings.TrimSpace(input.Hours) != "" {
		score += 5
	}
	if input.Amenities > 0 {
		score += 5
	}
	if input.Images > 0 {
		score += 5
	}
	if score > 25 {
		return 25
	}
	return score
}

func scoreReputation(input ListingFeatures) int {
	score := 0
	if input.Rating != nil {
		if *input.Rating >= 4.0 {
			score += 10
		} else if *input.Rating > 0 {
			score += 5
		}
	}
	if input.ReviewCount != nil {
		if *input.ReviewCount >= 50 {
			score += 10
		} else if *input.ReviewCount >= 10 {
			score += 5
		}
	}
	if score > 25 {
		return 25
	}
	return score
}

func highQualityDomain(raw string) bool {
	domain := extractDomain(raw)
	if domain == "" {
		return false
	}
	for _, bad := range freeHostingDomains {
		if domain == bad || strings.HasSuffix(domain, "."+bad) {
			return false
		}
	}
	return strings.Count(domain, ".") >= 1
}

func extractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lowered := strings.ToLower(raw)
	if !strings.Contains(lowered, "://") {
		lowered = "https://" + lowered
	}
	parsed, err := url.Parse(lowered)
	if err != nil {
		return ""
	}
	host := strings.TrimSpace(strings.ToLower(parsed.Host))
	return strings.TrimPrefix(host, "www.")
}

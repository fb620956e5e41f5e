package scrape

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// maxListItems caps category and amenity lists before serialization.
const maxListItems = 5

var (
	ratingKeywordRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:star|rating)`)
	decimalRe       = regexp.MustCompile(`\d+(?:\.\d+)?`)
	reviewBeforeRe  = regexp.MustCompile(`(?i)(\d+)\s*review`)
	reviewAfterRe   = regexp.MustCompile(`(?i)reviews?\D{0,10}(\d+)`)
	phoneRunRe      = regexp.MustCompile(`[+(\d][\d\s\-().]{5,}\d`)
	usZipRe         = regexp.MustCompile(`\d{5}(?:-\d{4})?`)
	caPostalRe      = regexp.MustCompile(`(?i)[a-z]\d[a-z]\s?\d[a-z]\d`)
)

// parseRating pulls a rating out of free text such as "4.5 star rating".
// The keyword form wins; otherwise the first decimal-looking token is used.
// Negative or absent values yield nil.
func parseRating(raw string) *float64 {
	m := ratingKeywordRe.FindStringSubmatch(raw)
	token := ""
	if len(m) > 1 {
		token = m[1]
	} else {
		token = decimalRe.FindString(raw)
	}
	if token == "" {
		return nil
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil || value < 0 {
		return nil
	}
	return &value
}

// parseReviewCount extracts an integer adjacent to the word "review",
// e.g. "(123 reviews)" or "Reviews: 123".
func parseReviewCount(raw string) *int {
	m := reviewBeforeRe.FindStringSubmatch(raw)
	if len(m) < 2 {
		m = reviewAfterRe.FindStringSubmatch(raw)
	}
	if len(m) < 2 {
		return nil
	}
	value, err := strconv.Atoi(m[1])
	if err != nil || value < 0 {
		return nil
	}
	return &value
}

// parsePhone captures the first phone-shaped run of digits and separators,
// collapses internal whitespace, and attempts E.164 formatting for the
// site's region. Formatting failure falls back to the cleaned raw run.
func parsePhone(raw, region string) *string {
	run := phoneRunRe.FindString(raw)
	if run == "" {
		return nil
	}
	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(run, " "))
	if cleaned == "" {
		return nil
	}
	if number, err := phonenumbers.Parse(cleaned, region); err == nil {
		if phonenumbers.IsPossibleNumber(number) {
			formatted := phonenumbers.Format(number, phonenumbers.E164)
			return &formatted
		}
	}
	return &cleaned
}

var integerRe = regexp.MustCompile(`\d+`)

// parseInteger extracts the first non-negative integer token, for count
// markup that omits the "review" keyword entirely (e.g. "(123)").
func parseInteger(raw string) *int {
	token := integerRe.FindString(raw)
	if token == "" {
		return nil
	}
	value, err := strconv.Atoi(token)
	if err != nil || value < 0 {
		return nil
	}
	return &value
}

// splitAddress applies the best-effort comma heuristic: up to three logical
// parts (street, city, state+postal). The third part is scanned for a
// US ZIP or Canadian postal token; whatever precedes the match becomes the
// state. Fewer parts leave the trailing fields nil.
func splitAddress(raw string) (address, city, state, zip *string) {
	parts := strings.SplitN(raw, ",", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) > 0 && parts[0] != "" {
		address = &parts[0]
	}
	if len(parts) > 1 && parts[1] != "" {
		city = &parts[1]
	}
	if len(parts) < 3 || parts[2] == "" {
		return address, city, nil, nil
	}

	tail := parts[2]
	loc := usZipRe.FindStringIndex(tail)
	if loc == nil {
		loc = caPostalRe.FindStringIndex(tail)
	}
	if loc == nil {
		state = &tail
		return address, city, state, nil
	}
	token := tail[loc[0]:loc[1]]
	zip = &token
	if prefix := strings.TrimSpace(tail[:loc[0]]); prefix != "" {
		state = &prefix
	}
	return address, city, state, zip
}

// resolveURL makes href absolute against the site base. Protocol-relative
// URLs are coerced to https.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return strings.TrimRight(base, "/") + href
	default:
		return href
	}
}

// canonicalURL resolves href and strips the query string and fragment,
// producing the identity key used for dedup and persistence.
func canonicalURL(base, href string) string {
	resolved := resolveURL(base, href)
	if resolved == "" {
		return ""
	}
	parsed, err := url.Parse(resolved)
	if err != nil {
		if i := strings.IndexAny(resolved, "?#"); i >= 0 {
			return resolved[:i]
		}
		return resolved
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

// capList de-duplicates preserving first-seen order and caps the result.
func capList(values []string, max int) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) >= max {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

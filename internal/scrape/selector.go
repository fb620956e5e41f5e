package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Rule matches elements by tag name plus an attribute pattern. A nil Regex
// with an empty Exact value matches any element of the tag. Attr == ""
// means the pattern is tried against every attribute of the element.
type Rule struct {
	Tag   string
	Attr  string
	Exact string
	Regex *regexp.Regexp
}

func classRule(tag, pattern string) Rule {
	return Rule{Tag: tag, Attr: "class", Regex: regexp.MustCompile(pattern)}
}

func attrRule(tag, attr, exact string) Rule {
	return Rule{Tag: tag, Attr: attr, Exact: exact}
}

func tagRule(tag string) Rule {
	return Rule{Tag: tag}
}

func (r Rule) matches(n *html.Node) bool {
	if r.Exact == "" && r.Regex == nil {
		return true
	}
	for _, a := range n.Attr {
		if r.Attr != "" && a.Key != r.Attr {
			continue
		}
		if r.Exact != "" && a.Val == r.Exact {
			return true
		}
		if r.Regex != nil && r.Regex.MatchString(a.Val) {
			return true
		}
	}
	return false
}

func (r Rule) apply(root *goquery.Selection) *goquery.Selection {
	return root.Find(r.Tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return len(s.Nodes) > 0 && r.matches(s.Nodes[0])
	})
}

// findFirst tries rules in order and returns the first element matched by
// the first rule that matches anything. Rule order encodes a confidence
// ranking: most specific pattern first, most generic last. Later rules are
// never consulted once an earlier one succeeds.
func findFirst(root *goquery.Selection, rules []Rule) *goquery.Selection {
	for _, rule := range rules {
		if sel := rule.apply(root); sel.Length() > 0 {
			return sel.First()
		}
	}
	return nil
}

// findAll is findFirst's multi-element counterpart: the first rule that
// matches at least one element wins and all of its matches are returned.
func findAll(root *goquery.Selection, rules []Rule) *goquery.Selection {
	for _, rule := range rules {
		if sel := rule.apply(root); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// text returns the trimmed, whitespace-collapsed text of a selection.
func text(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(sel.Text(), " "))
}

// attrValue returns the named attribute of the first element, trimmed.
func attrValue(sel *goquery.Selection, name string) string {
	if sel == nil {
		return ""
	}
	v, _ := sel.Attr(name)
	return strings.TrimSpace(v)
}

// closestAnchor returns the selection itself if it is an anchor, otherwise
// the nearest ancestor anchor, or nil when none exists.
func closestAnchor(sel *goquery.Selection) *goquery.Selection {
	if sel == nil {
		return nil
	}
	if goquery.NodeName(sel) == "a" {
		return sel
	}
	if a := sel.Closest("a"); a.Length() > 0 {
		return a
	}
	return nil
}

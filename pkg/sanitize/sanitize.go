// Package sanitize strips unsafe markup from rich text bodies before they are stored.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func htmlPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td")
		p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("th", "td")
		p.AllowElements("u", "s", "sub", "sup", "mark")
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		policy = p
	})
	return policy
}

// HTML returns the sanitized markup. Blank input yields an empty string.
func HTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return htmlPolicy().Sanitize(raw)
}

// HTMLPtr sanitizes an optional body, keeping nil as nil and collapsing blank bodies to nil.
func HTMLPtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	clean := HTML(*raw)
	if clean == "" {
		return nil
	}
	return &clean
}

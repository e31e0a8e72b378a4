package markdown

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Policy returns the allow-list applied by Render. Tags and attributes not
// listed here are dropped.
func Policy() *bluemonday.Policy {
	policyOnce.Do(func() { policy = newPolicy() })
	return policy
}

// Sanitize filters an HTML fragment through Policy.
func Sanitize(fragment string) string {
	return Policy().Sanitize(fragment)
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	// imagen: is the placeholder scheme for attachments not yet uploaded.
	p.AllowURLSchemes("http", "https", "mailto", "imagen")

	p.AllowElements("p", "br", "hr", "h1", "h2", "h3", "h4", "h5", "h6",
		"strong", "em", "del", "code", "pre", "li", "ul", "ol", "blockquote")

	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("rel").Matching(regexp.MustCompile(`^[a-z ]+$`)).OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-z0-9 :\-]+$`)).OnElements(
		"p", "h1", "h2", "h3", "strong", "em", "code", "pre", "a", "li", "blockquote", "img")

	return p
}

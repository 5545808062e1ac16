// Package sanitizer cleans operator-supplied message bodies before they are
// handed to an email provider.
package sanitizer

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	emailPolicy  *bluemonday.Policy
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once

	blockEnd   = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|tr|h[1-6]|blockquote|pre)>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		// UGC plus the inline styles mail clients need, since they ignore <style>.
		emailPolicy = bluemonday.UGCPolicy()
		emailPolicy.AllowStyles(
			"color", "background-color", "font-weight", "font-style", "text-align",
			"text-decoration", "padding", "margin", "border-radius", "display",
		).Globally()
		emailPolicy.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
		emailPolicy.RequireNoReferrerOnLinks(true)
	})
}

// EmailHTML keeps formatting, links, images and inline styles and removes
// scripts, event handlers and dangerous URLs.
func EmailHTML(s string) string {
	initPolicies()
	return strings.TrimSpace(emailPolicy.Sanitize(s))
}

// PlainText renders s as readable text: block elements become line breaks,
// all markup is dropped and entities are decoded.
func PlainText(s string) string {
	initPolicies()

	s = blockEnd.ReplaceAllString(s, "$0\n")
	s = html.UnescapeString(strictPolicy.Sanitize(s))

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")

	return strings.TrimSpace(s)
}

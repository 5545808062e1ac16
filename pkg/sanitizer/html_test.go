package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/mailportal/pkg/sanitizer"
)

func TestEmailHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "keeps formatting",
			input:    `<p>Hello <strong>team</strong></p>`,
			contains: []string{"<p>", "<strong>team</strong>"},
		},
		{
			name:     "drops scripts",
			input:    `<p>Hi</p><script>alert('xss')</script>`,
			contains: []string{"<p>Hi</p>"},
			excludes: []string{"script", "alert"},
		},
		{
			name:     "drops event handlers",
			input:    `<img src="https://example.com/a.png" onerror="alert(1)">`,
			excludes: []string{"onerror"},
		},
		{
			name:     "drops javascript urls",
			input:    `<a href="javascript:alert(1)">click</a>`,
			contains: []string{"click"},
			excludes: []string{"javascript"},
		},
		{
			name:     "keeps safe inline styles",
			input:    `<a href="https://example.com" style="color: #fff">Go</a>`,
			contains: []string{`href="https://example.com"`, "color: #fff"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := sanitizer.EmailHTML(tt.input)
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain text unchanged", input: "just text", expected: "just text"},
		{name: "inline tags stripped", input: "<p>Hello <em>world</em></p>", expected: "Hello world"},
		{name: "paragraphs become lines", input: "<p>One</p><p>Two</p>", expected: "One\nTwo"},
		{name: "line breaks kept", input: "a<br>b<br/>c", expected: "a\nb\nc"},
		{name: "entities decoded", input: "<p>Tom &amp; Jerry</p>", expected: "Tom & Jerry"},
		{name: "script content removed", input: "<p>Hi</p><script>alert(1)</script>", expected: "Hi"},
		{name: "blank runs collapsed", input: "<p>a</p>\n\n\n\n<p>b</p>", expected: "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, sanitizer.PlainText(tt.input))
		})
	}
}

package mailer

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dmitrymomot/mailportal/pkg/sanitizer"
)

//go:embed layouts/message.html
var layoutFS embed.FS

var layout = template.Must(template.ParseFS(layoutFS, "layouts/message.html"))

// BodyFormat tells the Composer how to read a message body.
type BodyFormat string

const (
	FormatHTML     BodyFormat = "html"
	FormatMarkdown BodyFormat = "markdown"
)

// ComposeParams is the operator's input for one message.
type ComposeParams struct {
	From    Address
	ReplyTo string
	Subject string
	Body    string
	Format  BodyFormat
	Tags    map[string]string
	To      []Address
}

// Composer builds sanitized emails. Safe for concurrent use.
type Composer struct {
	md         goldmark.Markdown
	noLayout   bool
	defaultFmt BodyFormat
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithDefaultFormat is used when ComposeParams.Format is empty. Default: html.
func WithDefaultFormat(f BodyFormat) ComposerOption {
	return func(c *Composer) { c.defaultFmt = f }
}

// WithoutLayout skips the HTML document wrapper around the body.
func WithoutLayout() ComposerOption {
	return func(c *Composer) { c.noLayout = true }
}

// NewComposer creates a Composer with GitHub-flavored markdown and buttons.
func NewComposer(opts ...ComposerOption) *Composer {
	c := &Composer{
		md:         goldmark.New(goldmark.WithExtensions(extension.GFM, ButtonExtension())),
		defaultFmt: FormatHTML,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose turns params into an Email. The body is rendered (markdown) or
// taken as is (html), sanitized, wrapped in the layout, and mirrored as
// plain text.
func (c *Composer) Compose(p ComposeParams) (*Email, error) {
	if p.From.Email == "" {
		return nil, ErrNoSender
	}
	if len(p.To) == 0 {
		return nil, ErrNoRecipient
	}
	subject := strings.TrimSpace(p.Subject)
	if subject == "" {
		return nil, ErrNoSubject
	}
	raw := strings.ReplaceAll(p.Body, "\r\n", "\n")
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoContent
	}

	body, err := c.renderBody(raw, p.Format)
	if err != nil {
		return nil, err
	}

	body = sanitizer.EmailHTML(body)
	if body == "" {
		return nil, ErrNoContent
	}

	email := &Email{
		From:    p.From,
		To:      p.To,
		ReplyTo: p.ReplyTo,
		Subject: subject,
		HTML:    body,
		Text:    sanitizer.PlainText(body),
		Tags:    p.Tags,
	}

	if !c.noLayout {
		var buf bytes.Buffer
		err := layout.Execute(&buf, struct {
			Subject string
			Body    template.HTML
		}{Subject: subject, Body: template.HTML(body)}) //nolint:gosec // body is sanitized above
		if err != nil {
			return nil, errors.Join(ErrRenderFailed, err)
		}
		email.HTML = buf.String()
	}

	return email, nil
}

func (c *Composer) renderBody(body string, format BodyFormat) (string, error) {
	if format == "" {
		format = c.defaultFmt
	}

	switch format {
	case FormatMarkdown:
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(body), &buf); err != nil {
			return "", errors.Join(ErrRenderFailed, err)
		}
		return buf.String(), nil
	case FormatHTML:
		if !strings.Contains(body, "<") {
			// A plain text body keeps its line breaks.
			return "<p>" + strings.ReplaceAll(template.HTMLEscapeString(body), "\n", "<br>") + "</p>", nil
		}
		return body, nil
	default:
		return "", errors.Join(ErrRenderFailed, errors.New("unknown body format "+string(format)))
	}
}

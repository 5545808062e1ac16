// Package sendgrid sends mail through the SendGrid v3 Mail Send API.
//
// All recipients share one personalization, so SendGrid delivers a single
// message listing every recipient in To.
package sendgrid

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/dmitrymomot/mailportal/pkg/mailer"
)

const (
	providerName   = "sendgrid"
	defaultBaseURL = "https://api.sendgrid.com"
	sendPath       = "/v3/mail/send"
)

// Config holds SendGrid credentials.
type Config struct {
	APIKey string
	// BaseURL defaults to https://api.sendgrid.com.
	BaseURL string
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// Sender implements mailer.Sender.
type Sender struct {
	client *rest.Client
	host   string
	apiKey string
}

// New creates a SendGrid sender.
func New(cfg Config) (*Sender, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid: api key is required")
	}

	host := cfg.BaseURL
	if host == "" {
		host = defaultBaseURL
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}

	return &Sender{
		client: &rest.Client{HTTPClient: hc},
		host:   strings.TrimSuffix(host, "/"),
		apiKey: cfg.APIKey,
	}, nil
}

// Send posts the message once. 202 Accepted is success; any other status
// becomes a *mailer.ProviderError carrying SendGrid's error messages.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if err := mailer.Validate(email); err != nil {
		return err
	}

	// sg.Client stores the body on its embedded request, so build one per call.
	req := sg.GetRequest(s.apiKey, sendPath, s.host)
	req.Method = rest.Post
	req.Body = mail.GetRequestBody(buildMessage(email))

	resp, err := s.client.SendWithContext(ctx, req)
	if err != nil {
		return errors.Join(mailer.ErrSendFailed, err)
	}
	if resp.StatusCode == http.StatusAccepted {
		return nil
	}

	return mailer.NewProviderError(providerName, resp.StatusCode, errorMessages(resp), nil)
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

// errorMessages extracts errors[].message. A short plain body is relayed
// as is; HTML pages (proxies, gateways) leave the status text to stand in.
func errorMessages(resp *rest.Response) []string {
	var parsed errorResponse
	if err := json.Unmarshal([]byte(resp.Body), &parsed); err == nil && len(parsed.Errors) > 0 {
		out := make([]string, 0, len(parsed.Errors))
		for _, e := range parsed.Errors {
			out = append(out, e.Message)
		}
		return out
	}

	raw := strings.TrimSpace(resp.Body)
	if raw == "" || strings.HasPrefix(raw, "<") || isHTML(http.Header(resp.Headers)) {
		return nil
	}
	return []string{raw}
}

func isHTML(h http.Header) bool {
	return strings.Contains(strings.ToLower(h.Get("Content-Type")), "html")
}

func buildMessage(email *mailer.Email) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(email.From.Name, email.From.Email))
	m.Subject = email.Subject

	p := mail.NewPersonalization()
	for _, a := range email.To {
		p.AddTos(mail.NewEmail(a.Name, a.Email))
	}
	m.AddPersonalizations(p)

	if email.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", email.ReplyTo))
	}

	// SendGrid requires text/plain to precede text/html.
	if email.Text != "" {
		m.AddContent(mail.NewContent("text/plain", email.Text))
	}
	if email.HTML != "" {
		m.AddContent(mail.NewContent("text/html", email.HTML))
	}

	for name, value := range email.Headers {
		m.SetHeader(name, value)
	}
	m.AddCategories(slices.Sorted(maps.Keys(email.Tags))...)

	return m
}

var _ mailer.Sender = (*Sender)(nil)

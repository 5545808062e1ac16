// Package resend sends mail through the Resend API.
package resend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/mailportal/pkg/mailer"
)

const providerName = "resend"

// Config holds Resend credentials.
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint. Empty means Resend's default.
	BaseURL string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Sender implements mailer.Sender.
type Sender struct {
	client *resend.Client
}

// New creates a Resend sender.
func New(cfg Config) (*Sender, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("resend: api key is required")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	client := resend.NewCustomClient(hc, cfg.APIKey)

	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, errors.Join(errors.New("resend: invalid base url"), err)
		}
		client.BaseURL = u
	}

	return &Sender{client: client}, nil
}

// Send delivers email as a single message addressed to every recipient.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if err := mailer.Validate(email); err != nil {
		return err
	}

	req := &resend.SendEmailRequest{
		From:    email.From.String(),
		To:      mailer.Strings(email.To),
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
		Headers: email.Headers,
	}
	for name, value := range email.Tags {
		req.Tags = append(req.Tags, resend.Tag{Name: name, Value: value})
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return classify(err)
	}

	return nil
}

// classify separates transport failures from API rejections. The SDK
// reports rejections as plain errors carrying the API's message.
func classify(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(mailer.ErrSendFailed, err)
	}

	msg := strings.TrimSpace(strings.TrimPrefix(err.Error(), "[ERROR]:"))
	return mailer.NewProviderError(providerName, 0, []string{msg}, err)
}

var _ mailer.Sender = (*Sender)(nil)

// Package msgraph sends mail through the Microsoft Graph sendMail endpoint,
// authenticating with the OAuth2 client credentials flow.
package msgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/dmitrymomot/mailportal/pkg/mailer"
)

const (
	providerName    = "msgraph"
	defaultGraphURL = "https://graph.microsoft.com/v1.0"
	tokenURLFormat  = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	graphScope      = "https://graph.microsoft.com/.default"
	maxErrorBody    = 64 << 10
)

// Config holds the app registration used to send as Sender.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// Sender is the mailbox (UPN or id) the message is sent from.
	Sender string
	// GraphURL defaults to https://graph.microsoft.com/v1.0.
	GraphURL string
	// TokenURL defaults to the tenant's v2.0 token endpoint.
	TokenURL string
	// HTTPClient is the base client for both token and Graph calls.
	HTTPClient *http.Client
}

// Sender implements mailer.Sender.
type Sender struct {
	client   *http.Client
	endpoint string
}

// New creates a Graph sender. Tokens are fetched lazily and reused until
// they expire.
func New(cfg Config) (*Sender, error) {
	var missing []string
	if cfg.TenantID == "" && cfg.TokenURL == "" {
		missing = append(missing, "tenant id")
	}
	if cfg.ClientID == "" {
		missing = append(missing, "client id")
	}
	if cfg.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if cfg.Sender == "" {
		missing = append(missing, "sender")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("msgraph: missing %s", strings.Join(missing, ", "))
	}

	graphURL := cfg.GraphURL
	if graphURL == "" {
		graphURL = defaultGraphURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = fmt.Sprintf(tokenURLFormat, url.PathEscape(cfg.TenantID))
	}
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{graphScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := cc.Client(ctx)
	client.Timeout = base.Timeout

	return &Sender{
		client:   client,
		endpoint: strings.TrimSuffix(graphURL, "/") + "/users/" + url.PathEscape(cfg.Sender) + "/sendMail",
	}, nil
}

// Send posts the message once. 202 Accepted is success.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if err := mailer.Validate(email); err != nil {
		return err
	}

	payload, err := json.Marshal(buildRequest(email))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Join(mailer.ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return tokenError(rerr)
		}
		return errors.Join(mailer.ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return mailer.NewProviderError(providerName, resp.StatusCode, errorMessages(body), nil)
}

func tokenError(rerr *oauth2.RetrieveError) error {
	status := 0
	if rerr.Response != nil {
		status = rerr.Response.StatusCode
	}

	msg := rerr.ErrorDescription
	if msg == "" {
		msg = rerr.ErrorCode
	}
	if msg == "" {
		msg = strings.TrimSpace(string(rerr.Body))
	}

	return mailer.NewProviderError(providerName, status, []string{msg}, rerr)
}

func errorMessages(body []byte) []string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error.Message != "" {
		return []string{resp.Error.Message}
	}
	if raw := strings.TrimSpace(string(body)); raw != "" {
		return []string{raw}
	}
	return nil
}

var _ mailer.Sender = (*Sender)(nil)

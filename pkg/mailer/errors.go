package mailer

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

var (
	ErrNoSender     = errors.New("mailer: email must have a sender")
	ErrNoRecipient  = errors.New("mailer: email must have at least one recipient")
	ErrNoSubject    = errors.New("mailer: email must have a subject")
	ErrNoContent    = errors.New("mailer: email must have content")
	ErrRenderFailed = errors.New("mailer: failed to render body")
	ErrSendFailed   = errors.New("mailer: failed to reach provider")
)

// ProviderError means the provider answered and refused the message.
// Messages holds the provider's own error payload, one entry per error.
type ProviderError struct {
	Err        error
	Provider   string
	Messages   []string
	StatusCode int
}

// Limits on what a ProviderError relays.
const (
	MaxMessageLen = 300
	MaxMessages   = 10
)

// NewProviderError builds a ProviderError. Blank messages are dropped and,
// when none remain, the HTTP status text stands in for them. At most
// MaxMessages messages of MaxMessageLen bytes each are kept.
func NewProviderError(provider string, status int, messages []string, err error) *ProviderError {
	clean := make([]string, 0, min(len(messages), MaxMessages))
	for _, m := range messages {
		if len(clean) == MaxMessages {
			break
		}
		if m = strings.TrimSpace(m); m != "" {
			clean = append(clean, truncate(m, MaxMessageLen))
		}
	}
	if len(clean) == 0 {
		text := http.StatusText(status)
		if text == "" {
			text = "the provider rejected the message"
		}
		clean = append(clean, text)
	}

	return &ProviderError{Provider: provider, StatusCode: status, Messages: clean, Err: err}
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("mailer: %s rejected the message", e.Provider)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	return msg + ": " + strings.Join(e.Messages, "; ")
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AsProviderError finds a *ProviderError in err's chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// truncate cuts s to at most n bytes on a rune boundary, marking the cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	const ellipsis = "..."
	cut := n - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut]) + ellipsis
}

// Package mailer defines a provider-neutral email message, the Sender
// interface implemented by provider adapters, and a Composer that turns an
// operator's form input into a sendable message.
package mailer

import (
	"context"
	"net/mail"
	"strings"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// String renders the address in RFC 5322 form, e.g. "Ann Lee" <ann@example.com>.
// Without a name only the bare address is returned.
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return (&mail.Address{Name: a.Name, Address: a.Email}).String()
}

// ParseAddress accepts either a bare address or "Name <address>".
func ParseAddress(s string) (Address, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return Address{}, err
	}
	return Address{Name: parsed.Name, Email: parsed.Address}, nil
}

// Email is a fully prepared message. All recipients receive the same copy.
type Email struct {
	Headers map[string]string
	Tags    map[string]string
	From    Address
	ReplyTo string
	Subject string
	HTML    string
	Text    string
	To      []Address
}

// Sender delivers an Email through a provider.
//
// Send returns nil once the provider has accepted the message, a
// *ProviderError when the provider rejected it, and any other error when the
// provider could not be reached.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, email *Email) error

func (f SenderFunc) Send(ctx context.Context, email *Email) error {
	return f(ctx, email)
}

// Validate checks the fields every provider requires.
func Validate(e *Email) error {
	switch {
	case e == nil:
		return ErrNoContent
	case e.From.Email == "":
		return ErrNoSender
	case len(e.To) == 0:
		return ErrNoRecipient
	case strings.TrimSpace(e.Subject) == "":
		return ErrNoSubject
	case e.HTML == "" && e.Text == "":
		return ErrNoContent
	}

	for _, to := range e.To {
		if to.Email == "" {
			return ErrNoRecipient
		}
	}

	return nil
}

// Strings returns the RFC 5322 forms of list.
func Strings(list []Address) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.String()
	}
	return out
}

// Package stdout prints messages instead of sending them. Meant for local
// development.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dmitrymomot/mailportal/pkg/mailer"
)

const rule = "========================================\n"

// Sender implements mailer.Sender by writing to an io.Writer.
type Sender struct {
	mu sync.Mutex
	w  io.Writer
}

// New writes to os.Stdout.
func New() *Sender {
	return NewWithWriter(os.Stdout)
}

func NewWithWriter(w io.Writer) *Sender {
	return &Sender{w: w}
}

// Send prints the message. Only an invalid message fails; write errors are
// ignored.
func (s *Sender) Send(_ context.Context, email *mailer.Email) error {
	if err := mailer.Validate(email); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(rule)
	fmt.Fprintf(&b, "From: %s\n", email.From)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(mailer.Strings(email.To), ", "))
	if email.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\n", email.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	b.WriteString("Body:\n")

	body := email.Text
	if body == "" {
		body = email.HTML
	}
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(rule)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.w, b.String())

	return nil
}

var _ mailer.Sender = (*Sender)(nil)

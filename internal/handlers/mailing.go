// Package handlers holds the portal's HTTP handlers.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/mailportal/internal/requests"
	"github.com/dmitrymomot/mailportal/internal/views"
	"github.com/dmitrymomot/mailportal/internal/web"
	"github.com/dmitrymomot/mailportal/pkg/cookie"
	"github.com/dmitrymomot/mailportal/pkg/directory"
	"github.com/dmitrymomot/mailportal/pkg/mailer"
)

const (
	flashSuccess = "success"
	flashErrors  = "errors"
	flashOld     = "old"
)

// User-facing messages.
const (
	MsgSent           = "E-mails successfully sent out!!"
	MsgProviderFailed = "Failed to reach the email provider. Please try again later."
	MsgBadForm        = "The form could not be read. Please try again."
	MsgEmptyBody      = "Body has no content left after removing unsupported markup"
	MsgRenderFailed   = "The message body could not be rendered."
	MsgInvalidForm    = "The form has too many problems to list. Please check it and try again."
)

const defaultSendTimeout = 15 * time.Second

// MailingHandler serves the compose form and sends the message.
type MailingHandler struct {
	users       directory.Store
	composer    *mailer.Composer
	sender      mailer.Sender
	defaultFrom string
	replyTo     string
	format      mailer.BodyFormat
	tags        map[string]string
	sendTimeout time.Duration
}

type MailingOption func(*MailingHandler)

// WithDefaultFrom pre-fills the sender field.
func WithDefaultFrom(from string) MailingOption {
	return func(h *MailingHandler) { h.defaultFrom = from }
}

func WithReplyTo(addr string) MailingOption {
	return func(h *MailingHandler) { h.replyTo = addr }
}

// WithBodyFormat selects how the body field is read: html or markdown.
func WithBodyFormat(f mailer.BodyFormat) MailingOption {
	return func(h *MailingHandler) {
		if f != "" {
			h.format = f
		}
	}
}

// WithTags attaches provider tags (categories) to every message.
func WithTags(tags map[string]string) MailingOption {
	return func(h *MailingHandler) { h.tags = tags }
}

// WithSendTimeout bounds the provider call.
func WithSendTimeout(d time.Duration) MailingOption {
	return func(h *MailingHandler) {
		if d > 0 {
			h.sendTimeout = d
		}
	}
}

func NewMailingHandler(users directory.Store, composer *mailer.Composer, sender mailer.Sender, opts ...MailingOption) *MailingHandler {
	h := &MailingHandler{
		users:       users,
		composer:    composer,
		sender:      sender,
		format:      mailer.FormatHTML,
		sendTimeout: defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *MailingHandler) Routes(r web.Router) {
	r.GET("/", h.index)
	r.POST("/sendmail", h.send)
}

func (h *MailingHandler) index(c web.Context) error {
	users, err := h.users.List(c)
	if err != nil {
		return c.Error(http.StatusInternalServerError, "The user directory is unavailable. Please try again later.", web.WithError(err))
	}

	data := views.MailingPageData{
		Users:       users,
		DefaultFrom: h.defaultFrom,
		Markdown:    h.format == mailer.FormatMarkdown,
	}
	readFlash(c, flashSuccess, &data.Success)
	readFlash(c, flashErrors, &data.Errors)
	readFlash(c, flashOld, &data.Old)

	return c.Render(http.StatusOK, views.MailingPage(data))
}

func (h *MailingHandler) send(c web.Context) error {
	var req requests.SendMailRequest

	verrs, err := c.Bind(&req)
	if err != nil {
		c.LogWarn("malformed sendmail form", slog.Any("error", err))
		return h.fail(c, req, MsgInvalidForm, MsgBadForm)
	}
	if !verrs.IsEmpty() {
		return h.fail(c, req, MsgInvalidForm, verrs.Messages()...)
	}

	to, verrs := req.Recipients()
	if !verrs.IsEmpty() {
		return h.fail(c, req, MsgInvalidForm, verrs.Messages()...)
	}

	from, err := mailer.ParseAddress(req.From)
	if err != nil {
		return h.fail(c, req, MsgInvalidForm, "Sender must be a valid email address")
	}

	email, err := h.composer.Compose(mailer.ComposeParams{
		From:    from,
		To:      to,
		ReplyTo: h.replyTo,
		Subject: req.Subject,
		Body:    req.Body,
		Format:  h.format,
		Tags:    h.tags,
	})
	if err != nil {
		return h.fail(c, req, MsgRenderFailed, composeMessage(err))
	}

	ctx, cancel := context.WithTimeout(c, h.sendTimeout)
	defer cancel()

	if err := h.sender.Send(ctx, email); err != nil {
		if pe, ok := mailer.AsProviderError(err); ok {
			c.LogWarn("provider rejected message",
				slog.String("provider", pe.Provider),
				slog.Int("status", pe.StatusCode),
				slog.Any("messages", pe.Messages),
			)
			return h.fail(c, req, MsgProviderFailed, pe.Messages...)
		}

		c.LogError("failed to send message", slog.Any("error", err), slog.Int("recipients", len(to)))
		return h.fail(c, req, MsgProviderFailed, MsgProviderFailed)
	}

	c.LogInfo("message sent", slog.Int("recipients", len(to)), slog.String("subject", email.Subject))

	if err := c.SetFlash(flashSuccess, MsgSent); err != nil {
		c.LogWarn("failed to set flash", slog.String("key", flashSuccess), slog.Any("error", err))
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// fail flashes the errors and the submitted input, then redirects back to
// the form. When the messages do not fit in a cookie the fallback is
// flashed instead; the old input is skipped when it cannot be stored.
func (h *MailingHandler) fail(c web.Context, req requests.SendMailRequest, fallback string, messages ...string) error {
	err := c.SetFlash(flashErrors, messages)
	if errors.Is(err, cookie.ErrTooLarge) {
		c.LogWarn("error messages too large for flash, using fallback",
			slog.Int("messages", len(messages)), slog.Any("error", err))
		err = c.SetFlash(flashErrors, []string{fallback})
	}
	if err != nil {
		c.LogWarn("failed to set flash", slog.String("key", flashErrors), slog.Any("error", err))
	}
	if err := c.SetFlash(flashOld, req.Old()); err != nil {
		c.LogWarn("failed to set flash", slog.String("key", flashOld), slog.Any("error", err))
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func composeMessage(err error) string {
	switch {
	case errors.Is(err, mailer.ErrNoSender):
		return "Sender is required"
	case errors.Is(err, mailer.ErrNoRecipient):
		return "Recipients is required"
	case errors.Is(err, mailer.ErrNoSubject):
		return "Subject is required"
	case errors.Is(err, mailer.ErrNoContent):
		return MsgEmptyBody
	default:
		return MsgRenderFailed
	}
}

// readFlash treats a missing or unreadable flash as absent.
func readFlash(c web.Context, key string, dest any) {
	err := c.Flash(key, dest)
	if err != nil && !errors.Is(err, cookie.ErrNotFound) {
		c.LogDebug("discarding unreadable flash", slog.String("key", key), slog.Any("error", err))
	}
}

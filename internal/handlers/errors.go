package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/mailportal/internal/middlewares"
	"github.com/dmitrymomot/mailportal/internal/views"
	"github.com/dmitrymomot/mailportal/internal/web"
)

const msgInternal = "Something went wrong. Please try again later."

// ErrorHandler renders handler errors as an HTML error page. Server errors
// are logged with their cause and shown with a generic message.
func ErrorHandler() web.ErrorHandler {
	return func(c web.Context, err error) error {
		httpErr := web.AsHTTPError(err)

		message := httpErr.Message
		if httpErr.Code >= http.StatusInternalServerError {
			c.LogError("request failed", slog.Int("status", httpErr.Code), slog.Any("error", err))
			if message == http.StatusText(httpErr.Code) {
				message = msgInternal
			}
		}

		return c.Render(httpErr.Code, views.ErrorPage(views.ErrorPageData{
			Code:      httpErr.Code,
			Title:     httpErr.StatusText(),
			Message:   message,
			RequestID: middlewares.GetRequestID(c),
		}))
	}
}

// NotFound renders the 404 page.
func NotFound(c web.Context) error {
	return c.Error(http.StatusNotFound, "The page you are looking for does not exist.")
}

// MethodNotAllowed renders the 405 page.
func MethodNotAllowed(c web.Context) error {
	return c.Error(http.StatusMethodNotAllowed, "This page does not accept that kind of request.")
}

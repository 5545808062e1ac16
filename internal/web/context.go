package web

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/mailportal/pkg/binder"
	"github.com/dmitrymomot/mailportal/pkg/cookie"
	"github.com/dmitrymomot/mailportal/pkg/validator"
)

// ValidationErrors is a collection of field validation errors.
type ValidationErrors = validator.ValidationErrors

// Component is anything renderable; templ.Component satisfies it.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

// Context provides request/response access and helper methods.
// It also implements context.Context by delegating to the request context.
type Context interface {
	context.Context

	Request() *http.Request
	Response() http.ResponseWriter

	// ResponseWriter exposes status and size of the response so far.
	ResponseWriter() *ResponseWriter

	// Param returns the URL parameter value by name.
	Param(name string) string

	// Form returns the form value by name, parsing the body on first use.
	Form(name string) string

	Header(name string) string
	SetHeader(name, value string)

	String(code int, s string) error
	NoContent(code int) error
	Redirect(code int, url string) error

	// Render writes component as HTML with the given status code.
	Render(code int, component Component) error

	// Error creates an HTTPError without writing a response. Return it from
	// the handler to reach the error handler.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Bind binds form data into v and validates it. Field problems come back
	// as ValidationErrors; the error is reserved for malformed requests.
	Bind(v any) (ValidationErrors, error)

	// Written reports whether a response has been started.
	Written() bool

	Logger() *slog.Logger
	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	Set(key any, value any)
	Get(key any) any

	// Flash reads a flash value into dest and deletes it.
	// It returns cookie.ErrNotFound when there is none.
	Flash(key string, dest any) error

	// SetFlash stores a value for the next request.
	SetFlash(key string, value any) error
}

type requestContext struct {
	response      *ResponseWriter
	request       *http.Request
	logger        *slog.Logger
	cookieManager *cookie.Manager
}

func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	return &requestContext{
		request:       r,
		response:      NewResponseWriter(w),
		logger:        app.logger,
		cookieManager: app.cookieManager,
	}
}

func (c *requestContext) Request() *http.Request {
	return c.request
}

func (c *requestContext) Response() http.ResponseWriter {
	return c.response
}

func (c *requestContext) ResponseWriter() *ResponseWriter {
	return c.response
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *requestContext) Err() error {
	return c.request.Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Form(name string) string {
	return c.request.FormValue(name)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

func (c *requestContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := io.WriteString(c.response, s)
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	http.Redirect(c.response, c.request, url, code)
	return nil
}

func (c *requestContext) Render(code int, component Component) error {
	c.response.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.response.WriteHeader(code)
	return component.Render(c.request.Context(), c.response)
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) Bind(v any) (ValidationErrors, error) {
	if err := binder.Form()(c.request, v); err != nil {
		return nil, fmt.Errorf("bind form: %w", err)
	}
	if err := validator.Struct(v); err != nil {
		if validator.IsValidationError(err) {
			return validator.ExtractValidationErrors(err), nil
		}
		return nil, fmt.Errorf("validate: %w", err)
	}
	return nil, nil
}

func (c *requestContext) Written() bool {
	return c.response.Written()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Flash(key string, dest any) error {
	if c.cookieManager == nil {
		return ErrNoCookieManager
	}
	return c.cookieManager.Flash(c.response, c.request, key, dest)
}

func (c *requestContext) SetFlash(key string, value any) error {
	if c.cookieManager == nil {
		return ErrNoCookieManager
	}
	return c.cookieManager.SetFlash(c.response, key, value)
}

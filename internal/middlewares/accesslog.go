package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/mailportal/internal/web"
)

// AccessLog logs one line per request after the handler returns. Errors
// returned by the handler are passed through untouched; their status is
// decided later by the error handler, so the line reports the error instead.
func AccessLog() web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			start := time.Now()
			err := next(c)

			r := c.Request()
			rw := c.ResponseWriter()
			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.Status()),
				slog.Int64("size", rw.Size()),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", r.RemoteAddr),
			}

			switch {
			case err != nil:
				c.LogWarn("request handled with error", append(attrs, slog.Any("error", err))...)
			case rw.Status() >= http.StatusInternalServerError:
				c.LogError("request handled", attrs...)
			default:
				c.LogInfo("request handled", attrs...)
			}

			return err
		}
	}
}

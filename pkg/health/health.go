// Package health serves liveness and readiness probes.
//
// Probes answer plain text ("OK" / "Service Unavailable") unless the client
// asks for JSON with ?format=json or an Accept header.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports whether a dependency is usable.
type CheckFunc func(ctx context.Context) error

// Checks maps a dependency name to its check.
type Checks map[string]CheckFunc

// Report is the JSON body of a probe.
type Report struct {
	Checks map[string]Result `json:"checks,omitempty"`
	Status string            `json:"status"`
}

// Result is the outcome of one check.
type Result struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Option configures ReadinessHandler.
type Option func(*probe)

type probe struct {
	logger  *slog.Logger
	timeout time.Duration
}

// WithTimeout bounds all checks together. Default: 5s.
func WithTimeout(d time.Duration) Option {
	return func(p *probe) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger logs failed checks at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(p *probe) {
		if l != nil {
			p.logger = l
		}
	}
}

// LivenessHandler always answers 200.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, &Report{Status: StatusHealthy})
	}
}

// ReadinessHandler runs checks concurrently and answers 503 if any fails.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	p := &probe{timeout: 5 * time.Second, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, p.run(r.Context(), checks))
	}
}

// Run executes checks outside of HTTP, e.g. at startup.
func Run(ctx context.Context, checks Checks) *Report {
	p := &probe{timeout: 5 * time.Second, logger: slog.New(slog.DiscardHandler)}
	return p.run(ctx, checks)
}

func (p *probe) run(ctx context.Context, checks Checks) *Report {
	report := &Report{Status: StatusHealthy}
	if len(checks) == 0 {
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	report.Checks = make(map[string]Result, len(checks))

	for name, check := range checks {
		wg.Go(func() {
			res := Result{Status: StatusHealthy}
			if err := check(ctx); err != nil {
				res = Result{Status: StatusUnhealthy, Error: err.Error()}
				p.logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checks[name] = res
			if res.Status == StatusUnhealthy {
				report.Status = StatusUnhealthy
			}
		})
	}
	wg.Wait()

	return report
}

func respond(w http.ResponseWriter, r *http.Request, report *Report) {
	status := http.StatusOK
	if report.Status != StatusHealthy {
		status = http.StatusServiceUnavailable
	}

	if r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(http.StatusText(status)))
}

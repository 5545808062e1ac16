package main

import (
	"context"

	"github.com/dmitrymomot/mailportal/internal/web"
	"github.com/dmitrymomot/mailportal/pkg/health"
)

// resources tracks the readiness checks and shutdown hooks of everything
// opened during start-up.
type resources struct {
	checks []web.HealthOption
	hooks  []func(context.Context) error
}

func (r *resources) add(name string, check health.CheckFunc, shutdown func(context.Context) error) {
	if check != nil {
		r.checks = append(r.checks, web.WithReadinessCheck(name, check))
	}
	if shutdown != nil {
		r.hooks = append(r.hooks, shutdown)
	}
}

// shutdown runs the hooks directly, for start-up failures before the server
// owns them.
func (r *resources) shutdown(ctx context.Context) {
	for _, hook := range r.hooks {
		_ = hook(ctx)
	}
}

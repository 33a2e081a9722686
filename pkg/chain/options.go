package chain

import (
	"context"
	"log/slog"

	"github.com/aretw0/chains/pkg/domain"
)

// Option configures the Registry.
type Option func(*Registry)

// WithLogger sets the structured logger. Replacements are logged at Warn level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithScheduler sets the timer source used by wait steps.
func WithScheduler(s Scheduler) Option {
	return func(r *Registry) {
		r.scheduler = s
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Registry) {
		r.hooks = hooks
	}
}

// WithContext sets the context handed to lifecycle hooks.
func WithContext(ctx context.Context) Option {
	return func(r *Registry) {
		r.ctx = ctx
	}
}

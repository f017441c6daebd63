package runner

import (
	"log/slog"
	"time"
)

// DefaultSettleTimeout bounds how long the runner waits for pending replies.
const DefaultSettleTimeout = 30 * time.Second

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithSettleTimeout bounds the wait for delayed replies and async effects
// after every reply.
func WithSettleTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.SettleTimeout = d
	}
}

// WithInterruptSource sets a channel that stops the runner when closed or signalled.
func WithInterruptSource(ch <-chan struct{}) Option {
	return func(r *Runner) {
		r.InterruptSource = ch
	}
}

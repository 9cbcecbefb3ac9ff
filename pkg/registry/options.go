package registry

import (
	"log/slog"
	"time"
)

const (
	defaultBufferSize    = 16
	defaultHeartbeatTTL  = 90 * time.Second
	defaultSweepInterval = 30 * time.Second
)

// Option configures a Registry.
type Option func(*Registry)

// WithBufferSize sets the per-connection event buffer. When a connection's
// buffer is full, pushes to it fail and the connection is evicted.
func WithBufferSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.bufferSize = n
		}
	}
}

// WithHeartbeatTTL sets how long a connection may go without a heartbeat
// before the sweep removes it.
func WithHeartbeatTTL(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.heartbeatTTL = d
		}
	}
}

// WithSweepInterval sets the liveness sweep period. Zero disables the sweep.
func WithSweepInterval(d time.Duration) Option {
	return func(r *Registry) { r.sweepInterval = d }
}

// WithLogger sets the logger for eviction and sweep events.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

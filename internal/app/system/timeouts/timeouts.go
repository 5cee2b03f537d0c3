// Package timeouts holds the uniform deadlines applied to store and upstream
// calls. Every handler and background job picks one of these tiers instead
// of choosing its own duration:
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries and searches
//   - Long: multi-collection work and outbound notifications
package timeouts

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

var ping, short, medium, long atomic.Int64

func init() { Reset() }

// Ping is the deadline for connectivity checks.
func Ping() time.Duration { return time.Duration(ping.Load()) }

// Short is the deadline for single-document operations.
func Short() time.Duration { return time.Duration(short.Load()) }

// Medium is the deadline for list queries and donor searches.
func Medium() time.Duration { return time.Duration(medium.Load()) }

// Long is the deadline for multi-step writes and notifier fan-out.
func Long() time.Duration { return time.Duration(long.Load()) }

// Config overrides tiers. Zero or negative fields keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// Configure applies cfg. Call it once during startup.
func Configure(cfg Config) {
	set(&ping, cfg.Ping)
	set(&short, cfg.Short)
	set(&medium, cfg.Medium)
	set(&long, cfg.Long)
}

// Reset restores the defaults. Tests use it to undo Configure.
func Reset() {
	ping.Store(int64(DefaultPing))
	short.Store(int64(DefaultShort))
	medium.Store(int64(DefaultMedium))
	long.Store(int64(DefaultLong))
}

// Current returns the active tiers, for startup logging.
func Current() Config {
	return Config{Ping: Ping(), Short: Short(), Medium: Medium(), Long: Long()}
}

func set(v *atomic.Int64, d time.Duration) {
	if d > 0 {
		v.Store(int64(d))
	}
}

// WithTimeout derives a context bounded by d. The returned cancel logs a
// warning naming op when the deadline was what ended the context.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "donor search")
//	defer cancel()
func WithTimeout(parent context.Context, d time.Duration, log *zap.Logger, op string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		if log != nil && ctx.Err() == context.DeadlineExceeded {
			log.Warn("operation timed out", zap.String("operation", op), zap.Duration("timeout", d))
		}
		cancel()
	}
}

// internal/app/system/workers/requestexpiry.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Expirer moves stale active blood requests to expired.
type Expirer interface {
	ExpireStale(ctx context.Context, ttl time.Duration) (int64, error)
}

// RequestExpiry is a background worker that expires blood requests older
// than a TTL.
type RequestExpiry struct {
	expirer  Expirer
	log      *zap.Logger
	interval time.Duration
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRequestExpiry creates a new request expiry worker.
//
// Parameters:
//   - expirer: the blood request manager
//   - logger: zap logger for logging
//   - interval: how often to sweep (e.g., 15 minutes)
//   - ttl: how long a request may stay active (e.g., 7 days)
func NewRequestExpiry(expirer Expirer, logger *zap.Logger, interval, ttl time.Duration) *RequestExpiry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestExpiry{
		expirer:  expirer,
		log:      logger,
		interval: interval,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval.
func (w *RequestExpiry) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("request expiry worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("ttl", w.ttl))
}

// Stop signals the worker to stop and waits for it to finish. It is safe
// to call more than once.
func (w *RequestExpiry) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("request expiry worker stopped")
	})
}

func (w *RequestExpiry) run() {
	defer w.wg.Done()

	w.Sweep()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep expires stale requests once.
func (w *RequestExpiry) Sweep() {
	ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Long(), w.log, "request expiry sweep")
	defer cancel()

	count, err := w.expirer.ExpireStale(ctx, w.ttl)
	if err != nil {
		w.log.Error("failed to expire stale blood requests", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("expired stale blood requests", zap.Int64("count", count))
	}
}

// internal/app/system/workers/limitersweep.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper drops idle rate-limit buckets.
type Sweeper interface {
	Sweep(now time.Time) int
}

// LimiterSweep periodically clears idle rate-limit buckets so the limiter's
// memory tracks active clients only.
type LimiterSweep struct {
	sweeper  Sweeper
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewLimiterSweep(sweeper Sweeper, logger *zap.Logger, interval time.Duration) *LimiterSweep {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LimiterSweep{
		sweeper:  sweeper,
		log:      logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start sweeps once per interval until Stop.
func (w *LimiterSweep) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
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
	}()
}

// Stop is safe to call more than once.
func (w *LimiterSweep) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
	})
}

// Sweep clears idle buckets once.
func (w *LimiterSweep) Sweep() {
	if n := w.sweeper.Sweep(w.now()); n > 0 {
		w.log.Debug("swept idle rate-limit buckets", zap.Int("count", n))
	}
}

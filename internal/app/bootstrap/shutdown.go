// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the workers, lets in-flight notifications finish, closes
// the broker connection and disconnects MongoDB, in that order.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	var errs []error

	if s := deps.Services; s != nil {
		if s.Expiry != nil {
			s.Expiry.Stop()
		}
		if s.LimiterSweep != nil {
			s.LimiterSweep.Stop()
		}
		if s.RequestMgr != nil {
			waitOrTimeout(ctx, s.RequestMgr.Wait, logger)
		}
		if s.Publisher != nil {
			if err := s.Publisher.Close(); err != nil {
				logger.Error("event publisher close failed", zap.Error(err))
				errs = append(errs, err)
			}
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// waitOrTimeout runs wait but gives up when ctx ends first.
func waitOrTimeout(ctx context.Context, wait func(), logger *zap.Logger) {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("shutdown deadline reached with notifications still in flight")
	}
}

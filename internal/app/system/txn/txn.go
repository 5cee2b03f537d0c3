// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner executes multi-document writes in a MongoDB transaction when the
// deployment supports one. Standalone servers (common in development) do
// not, and the writes then run sequentially without a transaction.
type Runner struct {
	client *mongo.Client
	log    *zap.Logger
}

// New returns a Runner bound to client. A nil client always runs fn directly.
func New(client *mongo.Client, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{client: client, log: log}
}

// Do runs fn inside a transaction. fn must use the ctx it is given so its
// operations join the session.
func (r *Runner) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.client == nil {
		return fn(ctx)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		r.log.Debug("transactions not supported; running without one", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err means the server cannot run
// transactions (standalone mongod, or an operation illegal in one).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	s := strings.ToLower(err.Error())
	if !strings.Contains(s, "transaction") {
		return false
	}
	return strings.Contains(s, "replica set") ||
		strings.Contains(s, "session") ||
		strings.Contains(s, "illegal operation")
}

// Package testutil provides shared helpers for tests that need a live
// MongoDB, fixture data, or an authenticated request.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/system/indexes"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnvMongoURI names the variable that points tests at a MongoDB server.
// Tests that need a database are skipped when it is unset.
const EnvMongoURI = "BLOODCONNECT_TEST_MONGO_URI"

// DefaultTimeout bounds a single test's database work.
const DefaultTimeout = 15 * time.Second

// TestContext returns a context with DefaultTimeout.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DefaultTimeout)
}

// SetupTestDB connects to the test server, creates a uniquely named
// database with all indexes in place, and drops it when the test ends.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	// A .env in the repo root is optional; real env vars win.
	_ = godotenv.Load("../../../.env", "../../../../.env", ".env")

	uri := os.Getenv(EnvMongoURI)
	if uri == "" {
		t.Skipf("%s not set; skipping MongoDB test", EnvMongoURI)
	}

	ctx, cancel := TestContext()
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect to test mongo: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Fatalf("ping test mongo: %v", err)
	}

	name := fmt.Sprintf("bloodconnect_test_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
	db := client.Database(name)

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop test database %s: %v", name, err)
		}
		_ = client.Disconnect(ctx)
	})
	return db
}

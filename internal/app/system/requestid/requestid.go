// internal/app/system/requestid/requestid.go
package requestid

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Header carries the request ID in both directions.
const Header = "X-Request-ID"

const maxIncomingLen = 128

type ctxKey struct{}

// Middleware assigns every request an ID, reusing a sane incoming
// X-Request-ID and otherwise generating a UUID. The ID is echoed in the
// response header and stored in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(Header))
		if id == "" || len(id) > maxIncomingLen || strings.ContainsAny(id, "\r\n") {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// FromContext returns the request ID, or "" outside Middleware.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Field returns a zap field carrying the request ID of r.
func Field(r *http.Request) zap.Field {
	return zap.String("request_id", FromContext(r.Context()))
}

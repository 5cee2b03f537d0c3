// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/system/httpjson"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Principal                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the authenticated principal injected into r.Context().
// It is rebuilt from the user store on every request, so role and status
// changes take effect immediately.
type SessionUser struct {
	ID        string
	Name      string
	Email     string
	Role      string
	Status    string
	BloodType string
	Location  *models.GeoPoint
}

// ObjectID parses ID. ok is false for a malformed ID.
func (u *SessionUser) ObjectID() (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	return oid, err == nil
}

// UserFetcher loads the current principal for a user ID. It returns an
// error when the user no longer exists.
type UserFetcher interface {
	FetchUser(ctx context.Context, id primitive.ObjectID) (*SessionUser, error)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the principal and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u into the request context the way LoadSessionUser
// does. Tests use it to bypass cookies and tokens.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// SessionManager resolves the principal from a bearer token or a signed,
// encrypted session cookie.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	tokens  *Tokens
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds the cookie store. sessionKey signs cookies and,
// hashed, encrypts them. In production (secure=true) cookies are Secure with
// SameSite=None; otherwise SameSite=Lax so http://localhost works.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, tokens *Tokens, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "bloodconnect-session"
	}

	blockKey := sha256.Sum256([]byte("enc:" + sessionKey))
	store := &sessions.CookieStore{
		Codecs: securecookie.CodecsFromPairs([]byte(sessionKey), blockKey[:]),
	}
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	store.MaxAge(opts.MaxAge)

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, tokens: tokens, log: logger}, nil
}

// SetUserFetcher installs the store used to rebuild the principal.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// Tokens returns the bearer-token issuer.
func (sm *SessionManager) Tokens() *Tokens { return sm.tokens }

// SignIn writes the session cookie for userID.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser injects the principal into context when the request
// carries a valid bearer token or session cookie. A bearer token wins over
// a cookie. Requests without credentials pass through anonymously.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := sm.principalID(r)
		if id == "" || sm.fetcher == nil {
			next.ServeHTTP(w, r)
			return
		}
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), sm.log, "load session user")
		u, err := sm.fetcher.FetchUser(ctx, oid)
		cancel()
		if err != nil {
			sm.log.Debug("session user not loaded", zap.String("user_id", id), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

func (sm *SessionManager) principalID(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || sm.tokens == nil {
			return ""
		}
		c, err := sm.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			return ""
		}
		return c.UserID
	}

	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return ""
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return ""
	}
	id, _ := sess.Values[userIDKey].(string)
	return id
}

// RequireSignedIn rejects anonymous requests with 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			httpjson.Message(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"time"

	userstore "github.com/dalemusser/bloodconnect/internal/app/store/users"
	"github.com/dalemusser/bloodconnect/internal/app/system/auditlog"
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/httpjson"
	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/app/system/ratelimit"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.uber.org/zap"
)

// UserFinder looks up an account by email, including its password hash.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type Handler struct {
	Users      UserFinder
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Audit      *auditlog.Logger // optional
	Log        *zap.Logger
}

func NewHandler(users UserFinder, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{Users: users, SessionMgr: sessionMgr, Limiter: limiter, Log: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Response carries the bearer token and the signed-in user.
type Response struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

var errBadCredentials = apperr.New(apperr.Unauthorized, "invalid email or password")

// HandleLogin handles POST /api/auth/login. It returns a bearer token and
// also sets the session cookie so browser clients can use either.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Log, "login", err)
		return
	}
	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		httpjson.Error(w, h.Log, "login", apperr.Invalid("email and password are required"))
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.Log.Warn("login rate limited",
				zap.String("ip", ratelimit.ClientIP(r)),
				zap.String("email", email))
			h.Audit.LoginFailedRateLimit(r.Context(), r)
			httpjson.Message(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		// Spend the same work as a real check so timing does not reveal
		// which emails are registered.
		auth.CheckPassword(in.Password, dummyHash)
		h.Audit.LoginFailedUserNotFound(ctx, r, email)
		httpjson.Error(w, h.Log, "login", errBadCredentials)
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, "login", apperr.Wrap(apperr.Upstream, "load user", err))
		return
	}
	if !auth.CheckPassword(in.Password, u.PasswordHash) {
		h.Log.Info("login failed", zap.String("user_id", u.ID.Hex()))
		h.Audit.LoginFailedWrongPassword(ctx, r, u.ID, email)
		httpjson.Error(w, h.Log, "login", errBadCredentials)
		return
	}

	token, exp, err := h.SessionMgr.Tokens().Issue(u.ID.Hex(), u.Role)
	if err != nil {
		httpjson.Error(w, h.Log, "login", apperr.Wrap(apperr.Internal, "issue token", err))
		return
	}
	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Warn("login: session cookie not saved", zap.Error(err))
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}

	h.Audit.LoginSuccess(ctx, r, u.ID, email)
	h.Log.Info("user logged in", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))
	httpjson.OK(w, Response{Token: token, ExpiresAt: exp, User: *u})
}

// dummyHash is compared against when the email is unknown.
var dummyHash, _ = auth.HashPassword("unknown-account-placeholder")

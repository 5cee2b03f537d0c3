// internal/app/features/register/handler.go
package register

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	userstore "github.com/dalemusser/bloodconnect/internal/app/store/users"
	"github.com/dalemusser/bloodconnect/internal/app/system/auditlog"
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/htmlsanitize"
	"github.com/dalemusser/bloodconnect/internal/app/system/httpjson"
	"github.com/dalemusser/bloodconnect/internal/app/system/inputval"
	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/app/system/params"
	"github.com/dalemusser/bloodconnect/internal/app/system/ratelimit"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.uber.org/zap"
)

// UserCreator stores a new account.
type UserCreator interface {
	Create(ctx context.Context, u models.User) (models.User, error)
}

type Handler struct {
	Users      UserCreator
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Audit      *auditlog.Logger // optional
	Log        *zap.Logger
}

func NewHandler(users UserCreator, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{Users: users, SessionMgr: sessionMgr, Limiter: limiter, Log: logger}
}

type registerRequest struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Role      string   `json:"role"`
	BloodType string   `json:"bloodType"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Response is returned by register and login.
type Response struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// HandleRegister handles POST /api/auth/register.
// Only donors and recipients may self-register; admins are provisioned.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, ""); !ok {
			httpjson.Message(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	var in registerRequest
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, h.Log, "register", err)
		return
	}
	u, err := validate(in)
	if err != nil {
		httpjson.Error(w, h.Log, "register", err)
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		httpjson.Error(w, h.Log, "register", apperr.Wrap(apperr.Internal, "hash password", err))
		return
	}
	u.PasswordHash = hash

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register")
	defer cancel()

	created, err := h.Users.Create(ctx, u)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		httpjson.Error(w, h.Log, "register", apperr.New(apperr.Conflict, "an account with this email already exists"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, "register", apperr.Wrap(apperr.Upstream, "create user", err))
		return
	}

	token, exp, err := h.SessionMgr.Tokens().Issue(created.ID.Hex(), created.Role)
	if err != nil {
		httpjson.Error(w, h.Log, "register", apperr.Wrap(apperr.Internal, "issue token", err))
		return
	}
	if err := h.SessionMgr.SignIn(w, r, created.ID.Hex()); err != nil {
		h.Log.Warn("register: session cookie not saved", zap.Error(err))
	}

	h.Audit.Registered(ctx, r, created.ID, created.Role)
	h.Log.Info("user registered",
		zap.String("user_id", created.ID.Hex()),
		zap.String("role", created.Role))
	httpjson.Created(w, Response{Token: token, ExpiresAt: exp, User: created})
}

func validate(in registerRequest) (models.User, error) {
	var res inputval.Result

	name := normalize.Name(htmlsanitize.PlainText(in.Name))
	email := normalize.Email(in.Email)
	role := normalize.Role(in.Role)
	bloodType := strings.TrimSpace(in.BloodType)
	phone := strings.TrimSpace(in.Phone)

	res.Check(inputval.IsValidName(name), "name", "name must be at least 2 letters")
	res.Check(inputval.IsValidEmail(email), "email", "email is not valid")
	if problems := inputval.PasswordProblems(in.Password); len(problems) > 0 {
		res.Check(false, "password", "password needs "+strings.Join(problems, ", "))
	}
	res.Check(role == models.RoleDonor || role == models.RoleRecipient, "role", `role must be "donor" or "recipient"`)
	if role == models.RoleDonor {
		res.Check(bloodType != "", "bloodType", "bloodType is required for donors")
	}
	if bloodType != "" {
		res.Check(inputval.IsValidBloodType(bloodType), "bloodType", "bloodType must be one of A+, A-, B+, B-, AB+, AB-, O+, O-")
	}
	if phone != "" {
		res.Check(inputval.IsValidPhone(phone), "phone", "phone must have 10 digits")
	}
	if res.HasErrors() {
		return models.User{}, apperr.Invalid(res.All())
	}

	loc, err := params.Point(in.Latitude, in.Longitude)
	if err != nil {
		return models.User{}, err
	}

	return models.User{
		Name:        name,
		Email:       email,
		Role:        role,
		BloodType:   bloodType,
		Phone:       normalize.Phone(phone),
		Address:     htmlsanitize.PlainText(in.Address),
		Coordinates: loc,
		Status:      models.StatusActive,
	}, nil
}

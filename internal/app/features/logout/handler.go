// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/bloodconnect/internal/app/system/auditlog"
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/httpjson"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Audit      *auditlog.Logger // optional
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

type logoutResponse struct {
	Message string `json:"message"`
}

// HandleLogout handles POST /api/auth/logout. It expires the session
// cookie. Bearer tokens are stateless and simply expire; clients discard
// them.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	if u, ok := auth.CurrentUser(r); ok {
		h.Audit.Logout(r.Context(), r, u.ID)
		h.Log.Info("user logged out", zap.String("user_id", u.ID))
	}
	httpjson.OK(w, logoutResponse{Message: "logged out"})
}

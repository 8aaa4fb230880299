// internal/app/features/accounts/login.go
package accounts

import (
	"net/http"

	accountsvc "github.com/intellipmo/intellipmo/internal/app/accounts"
	"github.com/intellipmo/intellipmo/internal/app/system/ratelimit"
	"github.com/intellipmo/intellipmo/internal/app/system/respond"
	"github.com/intellipmo/intellipmo/internal/app/system/timeouts"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.uber.org/zap"
)

// loginResponse carries the token and the signed-in account under its role
// name ("student", "supervisor", ...).
type loginResponse struct {
	Message    string             `json:"message"`
	Token      string             `json:"token"`
	Student    *models.Student    `json:"student,omitempty"`
	Supervisor *models.Supervisor `json:"supervisor,omitempty"`
	Evaluator  *models.Evaluator  `json:"evaluator,omitempty"`
	Admin      *models.Admin      `json:"admin,omitempty"`
}

func newLoginResponse(l accountsvc.Login) loginResponse {
	return loginResponse{
		Message:    "Logged in successfully.",
		Token:      l.Token,
		Student:    l.Identity.Student,
		Supervisor: l.Identity.Supervisor,
		Evaluator:  l.Identity.Evaluator,
		Admin:      l.Identity.Admin,
	}
}

// HandleLoginStudent handles POST /api/students/login.
func (h *Handler) HandleLoginStudent(w http.ResponseWriter, r *http.Request) {
	var in accountsvc.StudentLogin
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, "student login", err)
		return
	}
	if err := h.Throttle.Check(r, in.RollNo); err != nil {
		respond.Error(w, r, h.Log, "student login", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "student login")
	defer cancel()

	l, err := h.Accounts.LoginStudent(ctx, in)
	if err != nil {
		respond.Error(w, r, h.Log, "student login", err)
		return
	}
	h.succeeded(r, in.RollNo, l.Identity)
	respond.JSON(w, http.StatusOK, newLoginResponse(l))
}

// HandleLogin returns the POST /login handler for an email-login role.
func (h *Handler) HandleLogin(role models.Role) http.HandlerFunc {
	op := string(role) + " login"
	return func(w http.ResponseWriter, r *http.Request) {
		var in accountsvc.EmailLogin
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, r, h.Log, op, err)
			return
		}
		if err := h.Throttle.Check(r, in.Email); err != nil {
			respond.Error(w, r, h.Log, op, err)
			return
		}
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, op)
		defer cancel()

		l, err := h.Accounts.LoginByEmail(ctx, role, in)
		if err != nil {
			respond.Error(w, r, h.Log, op, err)
			return
		}
		h.succeeded(r, in.Email, l.Identity)
		respond.JSON(w, http.StatusOK, newLoginResponse(l))
	}
}

// succeeded clears the throttle and records the login. A failed write is
// logged and does not fail the login.
func (h *Handler) succeeded(r *http.Request, loginID string, id models.Identity) {
	h.Throttle.Succeeded(loginID)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "record login")
	defer cancel()
	err := h.Logins.Record(ctx, models.LoginRecord{
		AccountID: id.Account().ID,
		Role:      id.Role,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.Log.Warn("login record failed", zap.String("role", string(id.Role)), zap.Error(err))
	}
}

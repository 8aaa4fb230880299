// internal/app/features/accounts/register.go
package accounts

import (
	"net/http"

	accountsvc "github.com/intellipmo/intellipmo/internal/app/accounts"
	"github.com/intellipmo/intellipmo/internal/app/system/respond"
	"github.com/intellipmo/intellipmo/internal/app/system/timeouts"
)

type createdResponse struct {
	Message string `json:"message"`
}

// HandleRegisterStudent handles POST /api/students/register.
func (h *Handler) HandleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	var in accountsvc.StudentRegistration
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, "register student", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register student")
	defer cancel()

	if _, err := h.Accounts.RegisterStudent(ctx, in); err != nil {
		respond.Error(w, r, h.Log, "register student", err)
		return
	}
	respond.JSON(w, http.StatusCreated, createdResponse{Message: msgCreated})
}

// HandleRegisterSupervisor handles POST /api/supervisors/register.
func (h *Handler) HandleRegisterSupervisor(w http.ResponseWriter, r *http.Request) {
	var in accountsvc.SupervisorRegistration
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, "register supervisor", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register supervisor")
	defer cancel()

	if _, err := h.Accounts.RegisterSupervisor(ctx, in); err != nil {
		respond.Error(w, r, h.Log, "register supervisor", err)
		return
	}
	respond.JSON(w, http.StatusCreated, createdResponse{Message: msgCreated})
}

// HandleRegisterEvaluator handles POST /api/evaluators/register.
func (h *Handler) HandleRegisterEvaluator(w http.ResponseWriter, r *http.Request) {
	var in accountsvc.StaffRegistration
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, "register evaluator", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register evaluator")
	defer cancel()

	if _, err := h.Accounts.RegisterEvaluator(ctx, in); err != nil {
		respond.Error(w, r, h.Log, "register evaluator", err)
		return
	}
	respond.JSON(w, http.StatusCreated, createdResponse{Message: msgCreated})
}

// HandleRegisterAdmin handles POST /api/admins/register.
func (h *Handler) HandleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var in accountsvc.StaffRegistration
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, "register admin", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register admin")
	defer cancel()

	if _, err := h.Accounts.RegisterAdmin(ctx, in); err != nil {
		respond.Error(w, r, h.Log, "register admin", err)
		return
	}
	respond.JSON(w, http.StatusCreated, createdResponse{Message: msgCreated})
}

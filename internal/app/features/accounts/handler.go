// internal/app/features/accounts/handler.go
package accounts

import (
	"context"
	"net/http"

	accountsvc "github.com/intellipmo/intellipmo/internal/app/accounts"
	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/auth"
	"github.com/intellipmo/intellipmo/internal/app/system/timeouts"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Service is what the handlers need from the accounts service.
type Service interface {
	RegisterStudent(ctx context.Context, in accountsvc.StudentRegistration) (models.Student, error)
	RegisterSupervisor(ctx context.Context, in accountsvc.SupervisorRegistration) (models.Supervisor, error)
	RegisterEvaluator(ctx context.Context, in accountsvc.StaffRegistration) (models.Evaluator, error)
	RegisterAdmin(ctx context.Context, in accountsvc.StaffRegistration) (models.Admin, error)
	LoginStudent(ctx context.Context, in accountsvc.StudentLogin) (accountsvc.Login, error)
	LoginByEmail(ctx context.Context, role models.Role, in accountsvc.EmailLogin) (accountsvc.Login, error)
	Load(ctx context.Context, a auth.Actor) (models.Identity, error)
}

// LoginHistory stores and lists successful logins.
type LoginHistory interface {
	Record(ctx context.Context, rec models.LoginRecord) error
	ListRecent(ctx context.Context, accountID primitive.ObjectID, role models.Role, limit int64) ([]models.LoginRecord, error)
}

// Throttle limits login attempts.
type Throttle interface {
	Check(r *http.Request, loginID string) error
	Succeeded(loginID string)
}

// Handler serves registration, login and the signed-in identity for every
// role.
type Handler struct {
	Accounts Service
	Logins   LoginHistory
	Throttle Throttle
	Log      *zap.Logger
}

func NewHandler(svc Service, logins LoginHistory, throttle Throttle, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: svc,
		Logins:   logins,
		Throttle: throttle,
		Log:      logger,
	}
}

const msgCreated = "Account created successfully."

// current loads the identity of the signed-in actor.
func (h *Handler) current(r *http.Request) (models.Identity, error) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		return models.Identity{}, apierr.ErrUnauthenticated
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load identity")
	defer cancel()
	return h.Accounts.Load(ctx, actor)
}

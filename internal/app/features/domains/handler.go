// internal/app/features/domains/handler.go
package domains

import (
	"context"
	"net/http"

	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/auth"
	"github.com/intellipmo/intellipmo/internal/app/system/timeouts"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type DomainStore interface {
	Create(ctx context.Context, d models.Domain) (models.Domain, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Domain, error)
	List(ctx context.Context) ([]models.Domain, error)
	Update(ctx context.Context, id primitive.ObjectID, name, description string) (models.Domain, error)
}

type SupervisorStore interface {
	ListBySession(ctx context.Context, sessionID primitive.ObjectID, domainID *primitive.ObjectID) ([]models.Supervisor, error)
}

type ActiveSessions interface {
	ActiveFor(ctx context.Context, id models.Identity) (*models.Session, error)
}

type IdentityLoader interface {
	Load(ctx context.Context, a auth.Actor) (models.Identity, error)
}

// Handler serves the domain catalogue and the supervisors-by-domain listing.
type Handler struct {
	Domains     DomainStore
	Supervisors SupervisorStore
	Sessions    ActiveSessions
	Identities  IdentityLoader
	Log         *zap.Logger
}

func NewHandler(domains DomainStore, supervisors SupervisorStore, sessions ActiveSessions, identities IdentityLoader, logger *zap.Logger) *Handler {
	return &Handler{
		Domains:     domains,
		Supervisors: supervisors,
		Sessions:    sessions,
		Identities:  identities,
		Log:         logger,
	}
}

func (h *Handler) current(r *http.Request) (models.Identity, error) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		return models.Identity{}, apierr.ErrUnauthenticated
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load identity")
	defer cancel()
	return h.Identities.Load(ctx, actor)
}

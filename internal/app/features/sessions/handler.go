// internal/app/features/sessions/handler.go
package sessions

import (
	"context"

	"github.com/intellipmo/intellipmo/internal/app/activation"
	"github.com/intellipmo/intellipmo/internal/app/registry"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.uber.org/zap"
)

// Registry is the part of the session registry these handlers use.
type Registry interface {
	Scope() activation.Scope
	List(ctx context.Context, status string) ([]models.Session, error)
	FindActive(ctx context.Context, department string) (*models.Session, error)
	ResolvePolicy(ctx context.Context, year, department string) (models.Session, error)
	UpsertPolicy(ctx context.Context, in registry.PolicyInput) (models.Session, error)
}

// Handler serves the session dropdown, the active session and session policy
// reads and writes.
type Handler struct {
	Sessions Registry
	Log      *zap.Logger
}

func NewHandler(reg Registry, logger *zap.Logger) *Handler {
	return &Handler{
		Sessions: reg,
		Log:      logger,
	}
}

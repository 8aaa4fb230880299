// Package eligibility decides whether an actor may act within the active
// session. It does no I/O: callers hand it records they already loaded.
package eligibility

import (
	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotActive is returned when there is no active session, the actor has no
// session, or the actor's session is not the active one.
var ErrNotActive = apierr.ErrNotActive

// Check returns nil when actorSession refers to active.
func Check(actorSession *primitive.ObjectID, active *models.Session) error {
	if active == nil || actorSession == nil {
		return ErrNotActive
	}
	if *actorSession != active.ID {
		return ErrNotActive
	}
	return nil
}

// CheckIdentity applies Check to the session reference of any role.
func CheckIdentity(id models.Identity, active *models.Session) error {
	return Check(id.SessionID(), active)
}

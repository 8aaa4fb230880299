package eligibility_test

import (
	"errors"
	"testing"

	"github.com/intellipmo/intellipmo/internal/app/system/eligibility"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCheck(t *testing.T) {
	activeID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()
	active := &models.Session{ID: activeID, Status: models.SessionActive}

	tests := []struct {
		name   string
		actor  *primitive.ObjectID
		active *models.Session
		ok     bool
	}{
		{"no active session", &activeID, nil, false},
		{"actor without session", nil, active, false},
		{"both missing", nil, nil, false},
		{"different session", &otherID, active, false},
		{"matching session", &activeID, active, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eligibility.Check(tt.actor, tt.active)
			if tt.ok && err != nil {
				t.Errorf("expected nil, got %v", err)
			}
			if !tt.ok && !errors.Is(err, eligibility.ErrNotActive) {
				t.Errorf("expected ErrNotActive, got %v", err)
			}
		})
	}
}

func TestCheckIdentity_EveryRole(t *testing.T) {
	sid := primitive.NewObjectID()
	active := &models.Session{ID: sid, Status: models.SessionActive}

	ids := []models.Identity{
		models.StudentIdentity(models.Student{SessionID: &sid}),
		models.SupervisorIdentity(models.Supervisor{SessionID: &sid}),
		models.EvaluatorIdentity(models.Evaluator{SessionID: &sid}),
		models.AdminIdentity(models.Admin{SessionID: &sid}),
	}
	for _, id := range ids {
		t.Run(string(id.Role), func(t *testing.T) {
			if err := eligibility.CheckIdentity(id, active); err != nil {
				t.Errorf("expected eligible, got %v", err)
			}
		})
	}

	if err := eligibility.CheckIdentity(models.Identity{}, active); err == nil {
		t.Error("empty identity must not be eligible")
	}
}

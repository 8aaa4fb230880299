package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/intellipmo/intellipmo/internal/app/system/auth"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newMiddleware(t *testing.T) *auth.Middleware {
	t.Helper()
	tm, err := auth.NewTokenManager("test-secret-that-is-long-enough-0123", "intellipmo", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return auth.NewMiddleware(tm, zap.NewNop())
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireSignedIn_NoHeader_Returns401(t *testing.T) {
	m := newMiddleware(t)
	rec := httptest.NewRecorder()
	m.RequireSignedIn(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/api/students/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireSignedIn_BadToken_Returns401(t *testing.T) {
	m := newMiddleware(t)
	req := httptest.NewRequest("GET", "/api/students/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	m.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireSignedIn_ValidToken_SetsActor(t *testing.T) {
	m := newMiddleware(t)
	id := primitive.NewObjectID()
	tok, _ := m.Tokens.Issue(id, models.RoleSupervisor)

	var got auth.Actor
	h := m.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentActor(r)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.SubjectID != id || got.Role != models.RoleSupervisor {
		t.Errorf("actor = %+v", got)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		actor  *auth.Actor
		status int
	}{
		{"no actor", nil, http.StatusUnauthorized},
		{"wrong role", &auth.Actor{SubjectID: primitive.NewObjectID(), Role: models.RoleStudent}, http.StatusForbidden},
		{"allowed", &auth.Actor{SubjectID: primitive.NewObjectID(), Role: models.RoleAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/admins/save-session", nil)
			if tt.actor != nil {
				req = req.WithContext(auth.WithActor(req.Context(), *tt.actor))
			}
			rec := httptest.NewRecorder()
			auth.RequireRole(models.RoleAdmin)(okHandler()).ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/intellipmo/intellipmo/internal/app/features/health"
	"github.com/intellipmo/intellipmo/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type downPinger struct{}

func (downPinger) Ping(context.Context, *readpref.ReadPref) error {
	return errors.New("connection refused")
}

type response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message"`
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Serve(rec, httptest.NewRequest("GET", "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var got response
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if got.Status != "ok" || got.Database != "connected" {
		t.Errorf("response = %+v", got)
	}
}

func TestServe_DatabaseDown(t *testing.T) {
	handler := health.NewHandler(downPinger{}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Serve(rec, httptest.NewRequest("GET", "/api/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	var got response
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if got.Status != "error" || got.Database != "disconnected" || got.Message != "Database unavailable" {
		t.Errorf("response = %+v", got)
	}
}

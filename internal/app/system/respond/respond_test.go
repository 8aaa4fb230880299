package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/respond"
	"go.uber.org/zap"
)

type body struct {
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Errors  []string `json:"errors"`
}

func TestError_ValidationWithFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/students/register", nil)

	err := apierr.ErrInvalidInput.WithMessage("fullName is required").WithFields([]string{"fullName is required", "email is required"})
	respond.Error(rec, req, zap.NewNop(), "register", err)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var b body
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Code != "invalid_input" || len(b.Errors) != 2 {
		t.Errorf("unexpected body: %+v", b)
	}
}

func TestError_InternalHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/groups", nil)

	respond.Error(rec, req, zap.NewNop(), "list groups", errors.New("socket closed by peer"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "socket") {
		t.Errorf("internal cause leaked: %s", rec.Body.String())
	}
}

func TestJSON_EscapesMarkup(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.JSON(rec, http.StatusOK, map[string]string{"ideaDescription": "Compare x<y & <script>alert(1)</script>"})

	raw := rec.Body.String()
	if strings.ContainsAny(raw, "<>") {
		t.Errorf("body carries raw markup: %s", raw)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	var b map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b["ideaDescription"] != "Compare x<y & <script>alert(1)</script>" {
		t.Errorf("text changed on the way out: %q", b["ideaDescription"])
	}
}

func TestDecodeJSON_BadBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))
	var dst map[string]any
	err := respond.DecodeJSON(req, &dst)
	if !errors.Is(err, apierr.ErrBadJSON) {
		t.Errorf("expected ErrBadJSON, got %v", err)
	}
}

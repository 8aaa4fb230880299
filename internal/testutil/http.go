package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/intellipmo/intellipmo/internal/app/system/auth"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JSONRequest creates a request whose body is body encoded as JSON. A nil
// body sends no payload.
func JSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, target, nil)
	}
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithBearer adds an Authorization header carrying token.
func WithBearer(r *http.Request, token string) *http.Request {
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// WithActor puts an authenticated actor in the request context, bypassing
// token verification.
func WithActor(r *http.Request, id primitive.ObjectID, role models.Role) *http.Request {
	return r.WithContext(auth.WithActor(r.Context(), auth.Actor{SubjectID: id, Role: role}))
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t testing.TB, expected string) {
	t.Helper()
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q: %s", expected, r.Body.String())
	}
}

// Decode unmarshals the JSON body into v.
func (r *ResponseRecorder) Decode(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", r.Body.String(), err)
	}
}

// ErrorBody is the JSON shape of every failure response.
type ErrorBody struct {
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Errors  []string `json:"errors"`
}

// AssertError checks status and error code of a failure response.
func (r *ResponseRecorder) AssertError(t testing.TB, status int, code string) ErrorBody {
	t.Helper()
	r.AssertStatus(t, status)
	var b ErrorBody
	r.Decode(t, &b)
	if b.Code != code {
		t.Errorf("error code: got %q, want %q (message %q)", b.Code, code, b.Message)
	}
	return b
}

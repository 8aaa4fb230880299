package sessions_test

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/intellipmo/intellipmo/internal/app/activation"
	"github.com/intellipmo/intellipmo/internal/app/features/accounts"
	"github.com/intellipmo/intellipmo/internal/app/features/sessions"
	"github.com/intellipmo/intellipmo/internal/app/system/ratelimit"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"github.com/intellipmo/intellipmo/internal/testutil"
	"go.uber.org/zap"
)

func newRouter(f *testutil.Fixtures) chi.Router {
	h := sessions.NewHandler(f.Registry, zap.NewNop())
	ah := accounts.NewHandler(f.Accounts, f.DB.Logins(), ratelimit.NewLoginThrottle(), zap.NewNop())
	r := chi.NewRouter()
	r.Mount("/api/sessions", sessions.Routes(h))
	r.Mount("/api/session-policy", sessions.PolicyRoutes(h, f.Middleware))
	r.Mount("/api/admins", accounts.AdminRoutes(ah, sessions.AdminRoutes(h, f.Middleware)))
	return r
}

func serve(r http.Handler, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func savePayload(year, status string) map[string]any {
	return map[string]any{
		"year":              year,
		"department":        "CS",
		"status":            status,
		"minCGPA":           2.5,
		"minMembers":        1,
		"maxMembers":        3,
		"minGroups":         0,
		"maxGroups":         20,
		"numEvaluations":    2,
		"defense1Weightage": 40,
		"defense2Weightage": 60,
	}
}

func TestList(t *testing.T) {
	f := testutil.NewFixtures(t)
	f.Session("2022-2026", "CS", models.SessionDraft)
	f.Session("2021-2025", "CS", models.SessionActive)
	r := newRouter(f)

	rec := serve(r, testutil.JSONRequest(t, "GET", "/api/sessions", nil))
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Sessions []struct {
			Year string `json:"year"`
		} `json:"sessions"`
	}
	rec.Decode(t, &body)
	if len(body.Sessions) != 2 || body.Sessions[0].Year != "2021-2025" {
		t.Errorf("sessions = %+v, want both sorted by year", body.Sessions)
	}

	rec = serve(r, testutil.JSONRequest(t, "GET", "/api/sessions?status=active", nil))
	rec.Decode(t, &body)
	if len(body.Sessions) != 1 {
		t.Errorf("active filter returned %d sessions", len(body.Sessions))
	}

	rec = serve(r, testutil.JSONRequest(t, "GET", "/api/sessions?status=bogus", nil))
	rec.AssertError(t, http.StatusBadRequest, "invalid_input")
}

func TestActive(t *testing.T) {
	f := testutil.NewFixtures(t)
	sess := f.Session("2021-2025", "CS", models.SessionActive)
	r := newRouter(f)

	rec := serve(r, testutil.JSONRequest(t, "GET", "/api/sessions/active?department=cs", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, sess.ID.Hex())

	rec = serve(r, testutil.JSONRequest(t, "GET", "/api/sessions/active?department=IT", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"session":null`)

	rec = serve(r, testutil.JSONRequest(t, "GET", "/api/sessions/active", nil))
	rec.AssertError(t, http.StatusBadRequest, "invalid_input")
}

func TestActive_GlobalScopeNeedsNoDepartment(t *testing.T) {
	f := testutil.NewFixturesWithScope(t, activation.ScopeGlobal)
	sess := f.Session("2021-2025", "SE", models.SessionActive)
	r := newRouter(f)

	rec := serve(r, testutil.JSONRequest(t, "GET", "/api/sessions/active", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, sess.ID.Hex())
}

func TestPolicy(t *testing.T) {
	f := testutil.NewFixtures(t)
	sess := f.Session("2021-2025", "CS", models.SessionActive)
	st := f.Student("Ali", "21011519-001", sess)
	tok := f.Token(st.ID, models.RoleStudent)
	r := newRouter(f)

	rec := serve(r, testutil.JSONRequest(t, "GET", "/api/session-policy?department=CS&year=2021-2025", nil))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "GET", "/api/session-policy?department=CS&year=2021-2025", nil), tok))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"minCGPA":2.5`)

	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "GET", "/api/session-policy?department=CS", nil), tok))
	body := rec.AssertError(t, http.StatusBadRequest, "invalid_input")
	if body.Message != "Query parameters department and year are required." {
		t.Errorf("message = %q", body.Message)
	}

	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "GET", "/api/session-policy?department=CS&year=21-25", nil), tok))
	rec.AssertError(t, http.StatusBadRequest, "invalid_input")

	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "GET", "/api/session-policy?department=IT&year=2021-2025", nil), tok))
	body = rec.AssertError(t, http.StatusNotFound, "session_not_found")
	if body.Message != "No session found for department IT and year 2021-2025." {
		t.Errorf("message = %q", body.Message)
	}
}

func TestSaveSession(t *testing.T) {
	f := testutil.NewFixtures(t)
	current := f.Session("2021-2025", "CS", models.SessionActive)
	admin := f.Admin("admin@example.com", current)
	st := f.Student("Ali", "21011519-001", current)
	r := newRouter(f)

	rec := serve(r, testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/admins/save-session", savePayload("2022-2026", "draft")), f.Token(st.ID, models.RoleStudent)))
	rec.AssertError(t, http.StatusForbidden, "forbidden")

	adminTok := f.Token(admin.ID, models.RoleAdmin)
	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/admins/save-session", savePayload("2022-2026", "draft")), adminTok))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Session saved successfully.")

	// A second active session in the department is refused.
	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/admins/save-session", savePayload("2022-2026", "active")), adminTok))
	rec.AssertError(t, http.StatusConflict, "activation_conflict")

	// Completing the current one frees the slot.
	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/admins/save-session", savePayload("2021-2025", "completed")), adminTok))
	rec.AssertStatus(t, http.StatusOK)
	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/admins/save-session", savePayload("2022-2026", "active")), adminTok))
	rec.AssertStatus(t, http.StatusOK)

	bad := savePayload("2023-2027", "draft")
	bad["minMembers"] = 5
	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/admins/save-session", bad), adminTok))
	body := rec.AssertError(t, http.StatusBadRequest, "invalid_input")
	if body.Message != "minMembers must not exceed maxMembers." {
		t.Errorf("message = %q", body.Message)
	}
}

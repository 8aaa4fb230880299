package domains_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/intellipmo/intellipmo/internal/app/features/domains"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"github.com/intellipmo/intellipmo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newRouter(f *testutil.Fixtures) chi.Router {
	h := domains.NewHandler(f.DB.Domains(), f.DB.Supervisors(), f.Registry, f.Accounts, zap.NewNop())
	r := chi.NewRouter()
	r.Mount("/api/domains", domains.Routes(h, f.Middleware))
	r.Mount("/api/domains-supervisors", domains.SupervisorRoutes(h, f.Middleware))
	return r
}

func serve(r http.Handler, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateListUpdate(t *testing.T) {
	f := testutil.NewFixtures(t)
	sess := f.Session("2021-2025", "CS", models.SessionActive)
	admin := f.Admin("admin@example.com", sess)
	tok := f.Token(admin.ID, models.RoleAdmin)
	r := newRouter(f)

	rec := serve(r, testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/domains", map[string]any{
		"name": "  Machine Learning ", "description": "<b>Models</b> and data",
	}), tok))
	rec.AssertStatus(t, http.StatusCreated)
	var created struct {
		Domain models.Domain `json:"domain"`
	}
	rec.Decode(t, &created)
	if created.Domain.Name != "Machine Learning" {
		t.Errorf("name = %q", created.Domain.Name)
	}
	if created.Domain.Description != "<b>Models</b> and data" {
		t.Errorf("description = %q, want it stored as typed", created.Domain.Description)
	}

	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/domains", map[string]any{"name": "machine learning"}), tok))
	rec.AssertError(t, http.StatusConflict, "duplicate_domain")

	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/domains", map[string]any{"name": "Networks"}), tok))
	rec.AssertStatus(t, http.StatusCreated)

	rec = serve(r, testutil.JSONRequest(t, "GET", "/api/domains", nil))
	rec.AssertStatus(t, http.StatusOK)
	var list struct {
		Domains []models.Domain `json:"domains"`
	}
	rec.Decode(t, &list)
	if len(list.Domains) != 2 || list.Domains[0].Name != "Machine Learning" {
		t.Errorf("domains = %+v", list.Domains)
	}

	target := "/api/domains/" + created.Domain.ID.Hex()
	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "PUT", target, map[string]any{"name": "Deep Learning"}), tok))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Deep Learning")

	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "PUT", target, map[string]any{"name": "networks"}), tok))
	rec.AssertError(t, http.StatusConflict, "duplicate_domain")

	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "PUT", "/api/domains/"+primitive.NewObjectID().Hex(), map[string]any{"name": "X Y"}), tok))
	rec.AssertError(t, http.StatusNotFound, "domain_not_found")

	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "PUT", "/api/domains/nope", map[string]any{"name": "X Y"}), tok))
	body := rec.AssertError(t, http.StatusBadRequest, "invalid_input")
	if body.Message != "Invalid domain id." {
		t.Errorf("message = %q", body.Message)
	}
}

func TestWritesNeedAdmin(t *testing.T) {
	f := testutil.NewFixtures(t)
	sess := f.Session("2021-2025", "CS", models.SessionActive)
	st := f.Student("Ali", "21011519-001", sess)
	r := newRouter(f)

	rec := serve(r, testutil.JSONRequest(t, "POST", "/api/domains", map[string]any{"name": "AI"}))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/domains", map[string]any{"name": "AI"}), f.Token(st.ID, models.RoleStudent)))
	rec.AssertStatus(t, http.StatusForbidden)

	admin := f.Admin("admin@example.com", sess)
	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/domains", map[string]any{"name": "   "}), f.Token(admin.ID, models.RoleAdmin)))
	body := rec.AssertError(t, http.StatusBadRequest, "invalid_input")
	if body.Message != "Domain name is required." {
		t.Errorf("message = %q", body.Message)
	}
}

func TestCreate_LengthCountsMarkup(t *testing.T) {
	f := testutil.NewFixtures(t)
	sess := f.Session("2021-2025", "CS", models.SessionActive)
	tok := f.Token(f.Admin("admin@example.com", sess).ID, models.RoleAdmin)
	r := newRouter(f)

	// 990 visible characters wrapped in enough tags to pass 1000.
	desc := "<p>" + strings.Repeat("<b>x</b>", 990) + "</p>"
	rec := serve(r, testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/domains", map[string]any{
		"name": "Robotics", "description": desc,
	}), tok))
	body := rec.AssertError(t, http.StatusBadRequest, "invalid_input")
	if body.Message != "Domain description must be at most 1000 characters." {
		t.Errorf("message = %q", body.Message)
	}

	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/domains", map[string]any{
		"name": "Compare x<y with y>z", "description": "&lt;script&gt;",
	}), tok))
	rec.AssertStatus(t, http.StatusCreated)
	var created struct {
		Domain models.Domain `json:"domain"`
	}
	rec.Decode(t, &created)
	if created.Domain.Name != "Compare x<y with y>z" || created.Domain.Description != "&lt;script&gt;" {
		t.Errorf("stored %q / %q, want both as typed", created.Domain.Name, created.Domain.Description)
	}
}

func TestDomainSupervisors(t *testing.T) {
	f := testutil.NewFixtures(t)
	active := f.Session("2021-2025", "CS", models.SessionActive)
	old := f.Session("2017-2021", "CS", models.SessionCompleted)
	ml := f.Domain("Machine Learning")
	nw := f.Domain("Networks")
	f.Supervisor("Zara", "zara@example.com", active, ml)
	f.Supervisor("Bilal", "bilal@example.com", active, nw)
	f.Supervisor("Old Timer", "old@example.com", old, ml)
	st := f.Student("Ali", "21011519-001", active)
	tok := f.Token(st.ID, models.RoleStudent)
	r := newRouter(f)

	rec := serve(r, testutil.WithBearer(testutil.JSONRequest(t, "GET", "/api/domains-supervisors", nil), tok))
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Supervisors []struct {
			Number         int    `json:"number"`
			DomainName     string `json:"domainName"`
			SupervisorName string `json:"supervisorName"`
		} `json:"supervisors"`
	}
	rec.Decode(t, &body)
	if len(body.Supervisors) != 2 {
		t.Fatalf("supervisors = %+v, want the two in the active session", body.Supervisors)
	}
	if body.Supervisors[0].SupervisorName != "Bilal" || body.Supervisors[0].DomainName != "Networks" || body.Supervisors[0].Number != 1 {
		t.Errorf("first row = %+v", body.Supervisors[0])
	}

	rec = serve(r, testutil.WithBearer(testutil.JSONRequest(t, "GET", "/api/domains-supervisors?domain_id="+ml.ID.Hex(), nil), tok))
	rec.Decode(t, &body)
	if len(body.Supervisors) != 1 || body.Supervisors[0].SupervisorName != "Zara" {
		t.Errorf("filtered = %+v", body.Supervisors)
	}
}

func TestDomainSupervisors_NoActiveSession(t *testing.T) {
	f := testutil.NewFixtures(t)
	draft := f.Session("2021-2025", "CS", models.SessionDraft)
	st := f.Student("Ali", "21011519-001", draft)
	r := newRouter(f)

	rec := serve(r, testutil.WithBearer(testutil.JSONRequest(t, "GET", "/api/domains-supervisors", nil), f.Token(st.ID, models.RoleStudent)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"supervisors":[]`)
}

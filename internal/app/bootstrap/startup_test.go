package bootstrap

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/intellipmo/intellipmo/internal/app/accounts"
	"github.com/intellipmo/intellipmo/internal/app/activation"
	healthfeature "github.com/intellipmo/intellipmo/internal/app/features/health"
	"github.com/intellipmo/intellipmo/internal/app/registry"
	groupstore "github.com/intellipmo/intellipmo/internal/app/store/groups"
	countersstore "github.com/intellipmo/intellipmo/internal/app/store/sessioncounters"
	sessionstore "github.com/intellipmo/intellipmo/internal/app/store/sessions"
	studentstore "github.com/intellipmo/intellipmo/internal/app/store/students"
	"github.com/intellipmo/intellipmo/internal/app/system/indexes"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"github.com/intellipmo/intellipmo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:                "mongodb://localhost:27017",
		MongoDatabase:           "IntelliPMO",
		JWTSecret:               strings.Repeat("k", 32),
		JWTIssuer:               "intellipmo",
		TokenTTL:                time.Hour,
		BcryptCost:              4,
		ActivationScope:         activation.ScopeDepartment,
		RegistrationSessionMode: accounts.SessionByYear,
	}
}

func TestValidateAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"empty scope defaults", func(c *AppConfig) { c.ActivationScope = "" }, ""},
		{"global scope", func(c *AppConfig) { c.ActivationScope = activation.ScopeGlobal }, ""},
		{"short secret only warns", func(c *AppConfig) { c.JWTSecret = "short" }, ""},
		{"no database", func(c *AppConfig) { c.MongoDatabase = "" }, "mongo_database"},
		{"no secret", func(c *AppConfig) { c.JWTSecret = "" }, "jwt_secret is required"},
		{"zero ttl", func(c *AppConfig) { c.TokenTTL = 0 }, "token_ttl"},
		{"bcrypt cost", func(c *AppConfig) { c.BcryptCost = 99 }, "bcrypt_cost"},
		{"bad scope", func(c *AppConfig) { c.ActivationScope = "faculty" }, "activation scope"},
		{"bad mode", func(c *AppConfig) { c.RegistrationSessionMode = "name" }, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := validateAppConfig(cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validateAppConfig: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuildServices_RejectsBadEnums(t *testing.T) {
	cfg := validConfig()
	cfg.ActivationScope = "faculty"
	if _, err := buildServices(cfg, nil, testLogger()); err == nil {
		t.Fatal("expected error for unknown activation scope")
	}
}

// activeSession stores sess as active without touching the counters.
func activeSession(t *testing.T, db *mongo.Database, year, dept string) models.Session {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := sessionstore.New(db)
	sess, err := store.UpsertPolicy(ctx, year, dept, models.SessionPolicy{MinCGPA: 2.5, MinMembers: 1, MaxMembers: 3, MaxGroups: 10})
	if err != nil {
		t.Fatalf("UpsertPolicy: %v", err)
	}
	ok, err := store.CompareAndSetStatus(ctx, sess.ID, models.SessionDraft, models.SessionActive)
	if err != nil || !ok {
		t.Fatalf("CompareAndSetStatus = %v, %v", ok, err)
	}
	sess.Status = models.SessionActive
	return sess
}

func TestReconcile_RepairsCounters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	activeSession(t, db, "2021-2025", "CS")
	counters := countersstore.New(db)
	// A stale hold on a scope with no active session.
	if err := counters.Set(ctx, "department:EE", 1); err != nil {
		t.Fatalf("Set: %v", err)
	}

	tracker, err := newTracker(validConfig(), db, testLogger())
	if err != nil {
		t.Fatalf("newTracker: %v", err)
	}
	report, err := reconcile(ctx, tracker, testLogger())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(report.Adjusted) != 2 {
		t.Errorf("Adjusted = %v, want both scopes", report.Adjusted)
	}
	if len(report.Inconsistent) != 0 {
		t.Errorf("Inconsistent = %v", report.Inconsistent)
	}

	list, err := counters.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := map[string]int{}
	for _, c := range list {
		got[c.Key] = c.ActiveSessions
	}
	if got["department:CS"] != 1 || got["department:EE"] != 0 || len(got) != 2 {
		t.Errorf("counters = %v, want CS=1 EE=0", got)
	}

	// A second pass finds nothing to do.
	report, err = reconcile(ctx, tracker, testLogger())
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if len(report.Adjusted) != 0 {
		t.Errorf("second pass Adjusted = %v", report.Adjusted)
	}
}

func TestReconcile_ReportsInconsistentScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	activeSession(t, db, "2021-2025", "CS")
	activeSession(t, db, "2022-2026", "CS")

	tracker, err := newTracker(validConfig(), db, testLogger())
	if err != nil {
		t.Fatalf("newTracker: %v", err)
	}
	report, err := reconcile(ctx, tracker, testLogger())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(report.Inconsistent) != 1 || report.Inconsistent[0] != "department:CS" {
		t.Errorf("Inconsistent = %v, want [department:CS]", report.Inconsistent)
	}
}

func TestSweepDangling_ReleasesMissingGroups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	sess := activeSession(t, db, "2021-2025", "CS")
	students := studentstore.New(db)
	groups := groupstore.New(db)
	newStudent := func(email, rollNo string) models.Student {
		st, err := students.Create(ctx, models.Student{
			Account:    models.Account{FullName: "Student " + rollNo, Email: email, PasswordHash: "x"},
			Department: "CS",
			RollNo:     rollNo,
			CGPA:       3.0,
			SessionID:  &sess.ID,
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return st
	}
	lost, kept, fresh := newStudent("a@uni.edu", "21011519-041"), newStudent("b@uni.edu", "21011519-042"), newStudent("c@uni.edu", "21011519-043")

	// An old reservation with no group, an old one with a stored group, and
	// one still inside the grace period.
	missing := primitive.NewObjectIDFromTimestamp(time.Now().Add(-time.Hour))
	stored := primitive.NewObjectIDFromTimestamp(time.Now().Add(-2 * time.Hour))
	recent := primitive.NewObjectID()
	for _, r := range []struct {
		id, group primitive.ObjectID
	}{{lost.ID, missing}, {kept.ID, stored}, {fresh.ID, recent}} {
		if ok, err := students.ReserveGroup(ctx, r.id, sess.ID, r.group); err != nil || !ok {
			t.Fatalf("ReserveGroup: ok=%v err=%v", ok, err)
		}
	}
	if _, err := groups.Insert(ctx, models.Group{ID: stored, IdeaName: "Kept", SessionID: sess.ID, Members: []primitive.ObjectID{kept.ID}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	tracker, err := newTracker(validConfig(), db, testLogger())
	if err != nil {
		t.Fatalf("newTracker: %v", err)
	}
	coord := newCoordinator(registry.New(sessionstore.New(db), tracker), db, testLogger())
	if n := sweepDangling(ctx, coord, testLogger()); n != 1 {
		t.Errorf("released = %d, want 1", n)
	}

	want := map[primitive.ObjectID]*primitive.ObjectID{lost.ID: nil, kept.ID: &stored, fresh.ID: &recent}
	for id, group := range want {
		st, err := students.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		switch {
		case group == nil && st.GroupID != nil:
			t.Errorf("%s still points at %s", st.RollNo, st.GroupID.Hex())
		case group != nil && (st.GroupID == nil || *st.GroupID != *group):
			t.Errorf("%s group_id = %v, want %s", st.RollNo, st.GroupID, group.Hex())
		}
	}
}

func TestRouter_EndToEnd(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	cfg := validConfig()
	tracker, err := newTracker(cfg, db, testLogger())
	if err != nil {
		t.Fatalf("newTracker: %v", err)
	}
	activeSession(t, db, "2021-2025", "CS")
	if _, err := reconcile(ctx, tracker, testLogger()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	svc, err := buildServices(cfg, db, testLogger())
	if err != nil {
		t.Fatalf("buildServices: %v", err)
	}
	r := newRouter(svc, healthfeature.NewHandler(db.Client(), testLogger()), testLogger())

	serve := func(req *http.Request) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	serve(testutil.JSONRequest(t, "GET", "/api/health", nil)).AssertStatus(t, http.StatusOK)

	rec := serve(testutil.JSONRequest(t, "POST", "/api/admins/register", map[string]any{
		"fullName":    "Ada Admin",
		"department":  "CS",
		"email":       "ada@uni.test",
		"password":    "secret123",
		"session":     "2021-2025",
		"designation": "Coordinator",
	}))
	rec.AssertStatus(t, http.StatusCreated)

	rec = serve(testutil.JSONRequest(t, "POST", "/api/admins/login", map[string]any{
		"email":    "ada@uni.test",
		"password": "secret123",
	}))
	rec.AssertStatus(t, http.StatusOK)
	var login struct {
		Token string `json:"token"`
	}
	rec.Decode(t, &login)
	if login.Token == "" {
		t.Fatal("login returned no token")
	}

	rec = serve(testutil.WithBearer(testutil.JSONRequest(t, "POST", "/api/admins/save-session", map[string]any{
		"year":              "2022-2026",
		"department":        "CS",
		"status":            "active",
		"minCGPA":           2.0,
		"minMembers":        1,
		"maxMembers":        3,
		"minGroups":         0,
		"maxGroups":         10,
		"numEvaluations":    2,
		"defense1Weightage": 50,
		"defense2Weightage": 50,
	}), login.Token))
	rec.AssertError(t, http.StatusConflict, "activation_conflict")

	rec = serve(testutil.JSONRequest(t, "GET", "/api/sessions/active?department=CS", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "2021-2025")

	serve(testutil.WithBearer(testutil.JSONRequest(t, "GET", "/api/me", nil), login.Token)).AssertStatus(t, http.StatusOK)
	serve(testutil.JSONRequest(t, "GET", "/api/groups", nil)).AssertError(t, http.StatusUnauthorized, "unauthenticated")
}

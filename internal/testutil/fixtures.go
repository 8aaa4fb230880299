package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/intellipmo/intellipmo/internal/app/accounts"
	"github.com/intellipmo/intellipmo/internal/app/activation"
	"github.com/intellipmo/intellipmo/internal/app/groupformation"
	"github.com/intellipmo/intellipmo/internal/app/registry"
	"github.com/intellipmo/intellipmo/internal/app/system/auth"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"github.com/intellipmo/intellipmo/internal/testutil/memstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Password is the plain-text password of every account the fixtures create.
const Password = "secret123"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that call a handler without the router.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures wires the real services over an in-memory store and seeds data.
type Fixtures struct {
	t *testing.T

	DB          *memstore.DB
	Tracker     *activation.Tracker
	Registry    *registry.Registry
	Accounts    *accounts.Service
	Coordinator *groupformation.Coordinator
	Tokens      *auth.TokenManager
	Middleware  *auth.Middleware
	Hasher      auth.Hasher
}

// NewFixtures builds a department-scoped fixture set.
func NewFixtures(t *testing.T) *Fixtures {
	return NewFixturesWithScope(t, activation.ScopeDepartment)
}

func NewFixturesWithScope(t *testing.T, scope activation.Scope) *Fixtures {
	t.Helper()
	logger := zap.NewNop()
	db := memstore.New()

	tokens, err := auth.NewTokenManager("fixture-secret", "intellipmo-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	hasher := auth.Hasher{Cost: 4}
	tracker := activation.New(scope, db.Sessions(), db.Counters(), logger)
	reg := registry.New(db.Sessions(), tracker)

	svc := accounts.New(accounts.Deps{
		Sessions:    reg,
		Students:    db.Students(),
		Supervisors: db.Supervisors(),
		Evaluators:  db.Evaluators(),
		Admins:      db.Admins(),
		Domains:     db.Domains(),
		Tokens:      tokens,
		Passwords:   hasher,
		Log:         logger,
	})

	return &Fixtures{
		t:           t,
		DB:          db,
		Tracker:     tracker,
		Registry:    reg,
		Accounts:    svc,
		Coordinator: groupformation.New(reg, db.Students(), db.Supervisors(), db.Groups(), logger),
		Tokens:      tokens,
		Middleware:  auth.NewMiddleware(tokens, logger),
		Hasher:      hasher,
	}
}

// DefaultPolicy allows groups of one to three members.
func DefaultPolicy() models.SessionPolicy {
	return models.SessionPolicy{
		MinCGPA:        2.5,
		MinMembers:     1,
		MaxMembers:     3,
		MinGroups:      0,
		MaxGroups:      50,
		NumEvaluations: 2,
	}
}

// Session stores a session with the given status. Active sessions also take
// their scope's activation slot so the tracker sees a consistent state.
func (f *Fixtures) Session(year, dept string, status models.SessionStatus) models.Session {
	f.t.Helper()
	sess := f.DB.Sessions().Put(models.Session{
		Year:          year,
		Department:    dept,
		Status:        status,
		SessionPolicy: DefaultPolicy(),
	})
	if status == models.SessionActive {
		if err := f.DB.Counters().Set(context.Background(), f.Tracker.Scope().Key(dept), 1); err != nil {
			f.t.Fatalf("seed counter: %v", err)
		}
	}
	return sess
}

func (f *Fixtures) hash() string {
	f.t.Helper()
	h, err := f.Hasher.Hash(Password)
	if err != nil {
		f.t.Fatalf("hash: %v", err)
	}
	return h
}

// Student stores an ungrouped student in sess.
func (f *Fixtures) Student(name, rollNo string, sess models.Session) models.Student {
	f.t.Helper()
	id := sess.ID
	return f.DB.Students().Put(models.Student{
		Account: models.Account{
			FullName:     name,
			Email:        rollNo + "@students.test",
			PasswordHash: f.hash(),
		},
		Department: sess.Department,
		RollNo:     rollNo,
		CGPA:       3.0,
		SessionID:  &id,
	})
}

// Supervisor stores a supervisor enrolled in sess under domain.
func (f *Fixtures) Supervisor(name, email string, sess models.Session, domain models.Domain) models.Supervisor {
	f.t.Helper()
	id := sess.ID
	return f.DB.Supervisors().Put(models.Supervisor{
		Account: models.Account{
			FullName:     name,
			Email:        email,
			PasswordHash: f.hash(),
		},
		DomainID:    domain.ID,
		SessionID:   &id,
		Designation: "Lecturer",
	})
}

// Admin stores an admin of sess's department.
func (f *Fixtures) Admin(email string, sess models.Session) models.Admin {
	f.t.Helper()
	id := sess.ID
	a, err := f.DB.Admins().Create(context.Background(), models.Admin{
		Account: models.Account{
			FullName:     "Test Admin",
			Email:        email,
			PasswordHash: f.hash(),
		},
		Department:  sess.Department,
		SessionID:   &id,
		Designation: "Coordinator",
	})
	if err != nil {
		f.t.Fatalf("seed admin: %v", err)
	}
	return a
}

func (f *Fixtures) Domain(name string) models.Domain {
	f.t.Helper()
	d, err := f.DB.Domains().Create(context.Background(), models.Domain{Name: name})
	if err != nil {
		f.t.Fatalf("seed domain: %v", err)
	}
	return d
}

// Token issues a bearer token for the account.
func (f *Fixtures) Token(id primitive.ObjectID, role models.Role) string {
	f.t.Helper()
	tok, err := f.Tokens.Issue(id, role)
	if err != nil {
		f.t.Fatalf("issue token: %v", err)
	}
	return tok
}

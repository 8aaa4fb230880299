// Package accounts registers, authenticates and loads the four account
// roles. Each role lives in its own collection; callers see them through
// the models.Identity sum type.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/auth"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SessionMode picks how a student names the session they register into.
type SessionMode string

const (
	// SessionByYear takes "session": "2021-2025" and resolves it with the
	// student's department.
	SessionByYear SessionMode = "year"
	// SessionByID takes "session_id" directly.
	SessionByID SessionMode = "id"
)

func ParseSessionMode(s string) (SessionMode, error) {
	switch SessionMode(s) {
	case "", SessionByYear:
		return SessionByYear, nil
	case SessionByID:
		return SessionByID, nil
	}
	return "", fmt.Errorf("registration session mode must be %q or %q, got %q", SessionByYear, SessionByID, s)
}

// Sessions is the part of the session registry registration needs.
type Sessions interface {
	ResolvePolicy(ctx context.Context, year, department string) (models.Session, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Session, error)
}

type StudentStore interface {
	Create(ctx context.Context, st models.Student) (models.Student, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Student, error)
	GetByRollNo(ctx context.Context, rollNo string) (models.Student, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	RollNoExists(ctx context.Context, rollNo string) (bool, error)
}

type SupervisorStore interface {
	Create(ctx context.Context, sup models.Supervisor) (models.Supervisor, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Supervisor, error)
	GetLatestByEmail(ctx context.Context, email string) (models.Supervisor, error)
	EnrolledInSession(ctx context.Context, email string, sessionID primitive.ObjectID) (bool, error)
}

type EvaluatorStore interface {
	Create(ctx context.Context, ev models.Evaluator) (models.Evaluator, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Evaluator, error)
	GetLatestByEmail(ctx context.Context, email string) (models.Evaluator, error)
	EnrolledInSession(ctx context.Context, email string, sessionID primitive.ObjectID) (bool, error)
}

type AdminStore interface {
	Create(ctx context.Context, a models.Admin) (models.Admin, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Admin, error)
	GetByEmail(ctx context.Context, email string) (models.Admin, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type DomainStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Domain, error)
}

type TokenIssuer interface {
	Issue(subject primitive.ObjectID, role models.Role) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(hash, password string) (bool, error)
}

// Deps wires a Service.
type Deps struct {
	Sessions    Sessions
	Students    StudentStore
	Supervisors SupervisorStore
	Evaluators  EvaluatorStore
	Admins      AdminStore
	Domains     DomainStore
	Tokens      TokenIssuer
	Passwords   PasswordHasher
	Mode        SessionMode
	Log         *zap.Logger
}

type Service struct {
	d Deps
}

func New(d Deps) *Service {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Mode == "" {
		d.Mode = SessionByYear
	}
	return &Service{d: d}
}

// Mode reports the configured student session input mode.
func (s *Service) Mode() SessionMode { return s.d.Mode }

// Load returns the stored identity behind a verified actor.
func (s *Service) Load(ctx context.Context, a auth.Actor) (models.Identity, error) {
	var (
		id  models.Identity
		err error
	)
	switch a.Role {
	case models.RoleStudent:
		var st models.Student
		st, err = s.d.Students.GetByID(ctx, a.SubjectID)
		id = models.StudentIdentity(st)
	case models.RoleSupervisor:
		var sup models.Supervisor
		sup, err = s.d.Supervisors.GetByID(ctx, a.SubjectID)
		id = models.SupervisorIdentity(sup)
	case models.RoleEvaluator:
		var ev models.Evaluator
		ev, err = s.d.Evaluators.GetByID(ctx, a.SubjectID)
		id = models.EvaluatorIdentity(ev)
	case models.RoleAdmin:
		var ad models.Admin
		ad, err = s.d.Admins.GetByID(ctx, a.SubjectID)
		id = models.AdminIdentity(ad)
	default:
		return models.Identity{}, apierr.ErrInvalidToken
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Identity{}, apierr.ErrAccountNotFound.WithMessage(string(a.Role) + " not found.")
	}
	if err != nil {
		return models.Identity{}, apierr.Internal(err)
	}
	return id, nil
}

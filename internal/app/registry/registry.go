// Package registry owns session policy records and answers "which session is
// active" for a scope.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/intellipmo/intellipmo/internal/app/activation"
	sessionstore "github.com/intellipmo/intellipmo/internal/app/store/sessions"
	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/inputval"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SessionStore is the session persistence the registry reads and writes.
type SessionStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Session, error)
	GetByYearDept(ctx context.Context, year, department string) (models.Session, error)
	FindActive(ctx context.Context, department string) ([]models.Session, error)
	List(ctx context.Context, status models.SessionStatus) ([]models.Session, error)
	UpsertPolicy(ctx context.Context, year, department string, policy models.SessionPolicy) (models.Session, error)
}

// Transitioner applies status changes under the activation guard.
type Transitioner interface {
	Scope() activation.Scope
	Transition(ctx context.Context, sess models.Session, to models.SessionStatus) error
	Claim(ctx context.Context, department string) (*activation.Slot, error)
	Bind(ctx context.Context, slot *activation.Slot, sess models.Session) error
	Release(ctx context.Context, slot *activation.Slot)
}

type Registry struct {
	sessions SessionStore
	tracker  Transitioner
}

func New(sessions SessionStore, tracker Transitioner) *Registry {
	return &Registry{sessions: sessions, tracker: tracker}
}

// Scope reports how active sessions are counted.
func (r *Registry) Scope() activation.Scope { return r.tracker.Scope() }

// FindActive returns the active session of department's scope, or nil when
// there is none. Storage holding two active sessions in one scope is an
// internal inconsistency and is reported rather than resolved.
func (r *Registry) FindActive(ctx context.Context, department string) (*models.Session, error) {
	found, err := r.sessions.FindActive(ctx, r.tracker.Scope().Department(department))
	if err != nil {
		return nil, apierr.Internal(err)
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return &found[0], nil
	}
	return nil, apierr.ErrActiveInconsistent.Wrap(
		fmt.Errorf("sessions %s and %s are both active", found[0].ID.Hex(), found[1].ID.Hex()))
}

// ScopeFor returns the department that decides id's scope. Supervisors carry
// no department of their own and use their session's.
func (r *Registry) ScopeFor(ctx context.Context, id models.Identity) (string, error) {
	if dept := id.Department(); dept != "" {
		return dept, nil
	}
	ref := id.SessionID()
	if ref == nil {
		return "", nil
	}
	sess, err := r.sessions.GetByID(ctx, *ref)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", apierr.Internal(err)
	}
	return sess.Department, nil
}

// ActiveFor is FindActive for the scope of id.
func (r *Registry) ActiveFor(ctx context.Context, id models.Identity) (*models.Session, error) {
	dept, err := r.ScopeFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.FindActive(ctx, dept)
}

// ResolvePolicy is the exact (year, department) lookup used before a session
// is necessarily active.
func (r *Registry) ResolvePolicy(ctx context.Context, year, department string) (models.Session, error) {
	sess, err := r.sessions.GetByYearDept(ctx, year, department)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Session{}, apierr.ErrSessionNotFound.WithMessage(
			fmt.Sprintf("No session found for department %s and year %s.", department, year))
	}
	if err != nil {
		return models.Session{}, apierr.Internal(err)
	}
	return sess, nil
}

// GetByID loads one session.
func (r *Registry) GetByID(ctx context.Context, id primitive.ObjectID) (models.Session, error) {
	sess, err := r.sessions.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Session{}, apierr.ErrSessionNotFound
	}
	if err != nil {
		return models.Session{}, apierr.Internal(err)
	}
	return sess, nil
}

// List returns sessions sorted by year. An empty status lists all of them.
func (r *Registry) List(ctx context.Context, status string) ([]models.Session, error) {
	var want models.SessionStatus
	if status = strings.TrimSpace(status); status != "" {
		parsed, ok := models.ParseSessionStatus(status)
		if !ok {
			return nil, apierr.ErrInvalidInput.WithMessage("Status must be one of draft, active, completed.")
		}
		want = parsed
	}
	list, err := r.sessions.List(ctx, want)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return list, nil
}

// PolicyInput is the session-policy write request.
type PolicyInput struct {
	Year              string   `json:"year" validate:"required,session_year"`
	Department        string   `json:"department" validate:"required,department"`
	Status            string   `json:"status" validate:"required,oneof=draft active completed inactive"`
	MinCGPA           *float64 `json:"minCGPA" validate:"required,gte=0,lte=4"`
	MinMembers        *int     `json:"minMembers" validate:"required,gte=1"`
	MaxMembers        *int     `json:"maxMembers" validate:"required,gte=1"`
	MinGroups         *int     `json:"minGroups" validate:"required,gte=0"`
	MaxGroups         *int     `json:"maxGroups" validate:"required,gte=0"`
	NumEvaluations    *int     `json:"numEvaluations" validate:"required,gte=0"`
	Defense1Weightage *float64 `json:"defense1Weightage" validate:"required,gte=0,lte=100"`
	Defense2Weightage *float64 `json:"defense2Weightage" validate:"required,gte=0,lte=100"`
}

func (in PolicyInput) validate() error {
	res := inputval.Validate(in)
	if res.HasErrors() {
		return res.Err()
	}
	var msgs []string
	if *in.MinMembers > *in.MaxMembers {
		msgs = append(msgs, "minMembers must not exceed maxMembers.")
	}
	if *in.MinGroups > *in.MaxGroups {
		msgs = append(msgs, "minGroups must not exceed maxGroups.")
	}
	if len(msgs) > 0 {
		return apierr.ErrInvalidInput.WithMessage(msgs[0]).WithFields(msgs)
	}
	return nil
}

func (in PolicyInput) policy() models.SessionPolicy {
	return models.SessionPolicy{
		MinMembers:        *in.MinMembers,
		MaxMembers:        *in.MaxMembers,
		MinGroups:         *in.MinGroups,
		MaxGroups:         *in.MaxGroups,
		MinCGPA:           *in.MinCGPA,
		NumEvaluations:    *in.NumEvaluations,
		Defense1Weightage: *in.Defense1Weightage,
		Defense2Weightage: *in.Defense2Weightage,
	}
}

// UpsertPolicy creates or updates the (year, department) session.
//
// Activating a session that is not active yet claims the scope's slot before
// anything is written. When the slot is held by another session the request
// fails with ErrActivationConflict and storage is left as it was. Other
// status changes are applied after the policy write.
func (r *Registry) UpsertPolicy(ctx context.Context, in PolicyInput) (models.Session, error) {
	in.Year = strings.TrimSpace(in.Year)
	in.Department = strings.ToUpper(strings.TrimSpace(in.Department))
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if err := in.validate(); err != nil {
		return models.Session{}, err
	}
	status, _ := models.ParseSessionStatus(in.Status)

	var slot *activation.Slot
	if status == models.SessionActive {
		existing, err := r.sessions.GetByYearDept(ctx, in.Year, in.Department)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return models.Session{}, apierr.Internal(err)
		}
		if err != nil || existing.Status != models.SessionActive {
			if slot, err = r.tracker.Claim(ctx, in.Department); err != nil {
				return models.Session{}, err
			}
		}
	}

	sess, err := r.sessions.UpsertPolicy(ctx, in.Year, in.Department, in.policy())
	if errors.Is(err, sessionstore.ErrDuplicateSession) {
		// Two first-time upserts for one key raced; the loser retries as an update.
		sess, err = r.sessions.UpsertPolicy(ctx, in.Year, in.Department, in.policy())
	}
	if err != nil {
		r.tracker.Release(ctx, slot)
		return models.Session{}, apierr.Internal(err)
	}

	if slot != nil {
		err = r.tracker.Bind(ctx, slot, sess)
	} else {
		err = r.tracker.Transition(ctx, sess, status)
	}
	if err != nil {
		return models.Session{}, err
	}
	sess.Status = status
	return sess, nil
}

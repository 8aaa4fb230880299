// Package activation keeps at most one session active per scope.
//
// Each scope has a counter document. Activation is a compare-and-increment
// on that counter followed by a compare-and-set of the session status;
// deactivation is the reverse. Both steps are single conditional writes, so
// the guard holds across any number of processes sharing the database.
package activation

import (
	"context"
	"fmt"

	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Scope decides which sessions compete for the single active slot.
type Scope string

const (
	ScopeDepartment Scope = "department"
	ScopeGlobal     Scope = "global"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeDepartment, ScopeGlobal:
		return Scope(s), nil
	case "":
		return ScopeDepartment, nil
	}
	return "", fmt.Errorf("activation scope must be %q or %q, got %q", ScopeDepartment, ScopeGlobal, s)
}

// Key names the counter that guards department's scope.
func (s Scope) Key(department string) string {
	if s == ScopeGlobal {
		return "global"
	}
	return "department:" + department
}

// Department returns the department filter for active-session lookups:
// the department itself, or "" (all departments) under global scope.
func (s Scope) Department(department string) string {
	if s == ScopeGlobal {
		return ""
	}
	return department
}

// SessionStore is the session persistence the tracker needs.
type SessionStore interface {
	CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, from, to models.SessionStatus) (bool, error)
	ListActive(ctx context.Context) ([]models.Session, error)
}

// CounterStore is the per-scope counter persistence.
type CounterStore interface {
	TryAcquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
	List(ctx context.Context) ([]models.SessionCounter, error)
	Set(ctx context.Context, key string, n int) error
}

type Tracker struct {
	scope    Scope
	sessions SessionStore
	counters CounterStore
	log      *zap.Logger
}

func New(scope Scope, sessions SessionStore, counters CounterStore, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{scope: scope, sessions: sessions, counters: counters, log: logger}
}

func (t *Tracker) Scope() Scope { return t.scope }

// Transition moves sess to status to. Activation and deactivation go through
// the counter; every other move is a plain compare-and-set.
func (t *Tracker) Transition(ctx context.Context, sess models.Session, to models.SessionStatus) error {
	switch {
	case sess.Status == to:
		return nil
	case to == models.SessionActive:
		return t.Activate(ctx, sess)
	case sess.Status == models.SessionActive:
		return t.Deactivate(ctx, sess, to)
	}
	ok, err := t.sessions.CompareAndSetStatus(ctx, sess.ID, sess.Status, to)
	if err != nil {
		return apierr.Internal(err)
	}
	if !ok {
		return apierr.ErrSessionStatusChanged
	}
	return nil
}

// Activate claims the scope's slot and marks sess active. It fails with
// ErrActivationConflict when another session already holds the slot.
func (t *Tracker) Activate(ctx context.Context, sess models.Session) error {
	if sess.Status == models.SessionActive {
		return nil
	}
	slot, err := t.Claim(ctx, sess.Department)
	if err != nil {
		return err
	}
	return t.Bind(ctx, slot, sess)
}

// Slot is a claimed activation slot that no session holds yet. It must be
// passed to Bind or given back with Release.
type Slot struct {
	key  string
	done bool
}

// Key is the counter key the slot was taken from.
func (s *Slot) Key() string { return s.key }

// Claim takes department's slot without touching any session, so callers
// can learn about a conflict before they write anything else.
func (t *Tracker) Claim(ctx context.Context, department string) (*Slot, error) {
	key := t.scope.Key(department)
	acquired, err := t.counters.TryAcquire(ctx, key)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if !acquired {
		return nil, apierr.ErrActivationConflict
	}
	return &Slot{key: key}, nil
}

// Bind marks sess active under a claimed slot. The slot is released when the
// status write fails or when sess turns out to be active already.
func (t *Tracker) Bind(ctx context.Context, slot *Slot, sess models.Session) error {
	if slot == nil || slot.done {
		return fmt.Errorf("bind: slot already used")
	}
	if want := t.scope.Key(sess.Department); want != slot.key {
		t.Release(ctx, slot)
		return fmt.Errorf("bind: slot %q does not cover scope %q", slot.key, want)
	}
	if sess.Status == models.SessionActive {
		t.Release(ctx, slot)
		return nil
	}

	ok, err := t.sessions.CompareAndSetStatus(ctx, sess.ID, sess.Status, models.SessionActive)
	if err != nil || !ok {
		t.Release(ctx, slot)
		if err != nil {
			return apierr.Internal(err)
		}
		return apierr.ErrSessionStatusChanged
	}
	slot.done = true

	t.log.Info("session activated",
		zap.String("session_id", sess.ID.Hex()),
		zap.String("year", sess.Year),
		zap.String("department", sess.Department),
		zap.String("scope_key", slot.key))
	return nil
}

// Release gives back a slot that was never bound. Calling it again, or on a
// bound slot, does nothing.
func (t *Tracker) Release(ctx context.Context, slot *Slot) {
	if slot == nil || slot.done {
		return
	}
	slot.done = true
	t.release(ctx, slot.key)
}

// Deactivate moves an active session to status to and frees the slot.
func (t *Tracker) Deactivate(ctx context.Context, sess models.Session, to models.SessionStatus) error {
	if to == models.SessionActive {
		return fmt.Errorf("deactivate: target status must not be %q", to)
	}
	ok, err := t.sessions.CompareAndSetStatus(ctx, sess.ID, models.SessionActive, to)
	if err != nil {
		return apierr.Internal(err)
	}
	if !ok {
		return apierr.ErrSessionStatusChanged
	}

	key := t.scope.Key(sess.Department)
	if err := t.counters.Release(context.WithoutCancel(ctx), key); err != nil {
		// The status already moved; Reconcile repairs the counter on next start.
		t.log.Error("release activation counter failed",
			zap.String("session_id", sess.ID.Hex()),
			zap.String("scope_key", key),
			zap.Error(err))
	}
	t.log.Info("session deactivated",
		zap.String("session_id", sess.ID.Hex()),
		zap.String("status", string(to)),
		zap.String("scope_key", key))
	return nil
}

func (t *Tracker) release(ctx context.Context, key string) {
	if err := t.counters.Release(context.WithoutCancel(ctx), key); err != nil {
		t.log.Error("release activation counter failed", zap.String("scope_key", key), zap.Error(err))
	}
}

// ReconcileReport summarizes a Reconcile run.
type ReconcileReport struct {
	Adjusted     []string // counter keys that were rewritten
	Inconsistent []string // scope keys holding more than one active session
}

// Reconcile rewrites every counter to the number of sessions actually stored
// as active in its scope. It runs at startup, before requests are served.
// Scopes with more than one active session are reported, not repaired.
func (t *Tracker) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	active, err := t.sessions.ListActive(ctx)
	if err != nil {
		return report, err
	}
	want := map[string]int{}
	for _, s := range active {
		want[t.scope.Key(s.Department)]++
	}

	counters, err := t.counters.List(ctx)
	if err != nil {
		return report, err
	}
	have := map[string]int{}
	for _, c := range counters {
		have[c.Key] = c.ActiveSessions
		if _, ok := want[c.Key]; !ok {
			want[c.Key] = 0
		}
	}

	for key, n := range want {
		if n > 1 {
			report.Inconsistent = append(report.Inconsistent, key)
			t.log.Warn("more than one active session in scope", zap.String("scope_key", key), zap.Int("active", n))
		}
		if cur, ok := have[key]; ok && cur == n {
			continue
		}
		if err := t.counters.Set(ctx, key, n); err != nil {
			return report, err
		}
		report.Adjusted = append(report.Adjusted, key)
		t.log.Info("activation counter reconciled",
			zap.String("scope_key", key),
			zap.Int("was", have[key]),
			zap.Int("now", n))
	}
	return report, nil
}

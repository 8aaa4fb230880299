package memstore

import (
	"context"
	"sort"

	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Sessions struct{ db *DB }

func (s *Sessions) GetByID(_ context.Context, id primitive.ObjectID) (models.Session, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sess, ok := s.db.sessions[id]
	if !ok {
		return models.Session{}, mongo.ErrNoDocuments
	}
	return sess, nil
}

func (s *Sessions) GetByYearDept(_ context.Context, year, department string) (models.Session, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, sess := range s.db.sessions {
		if sess.Year == year && sess.Department == department {
			return sess, nil
		}
	}
	return models.Session{}, mongo.ErrNoDocuments
}

func (s *Sessions) FindActive(_ context.Context, department string) ([]models.Session, error) {
	out := s.filter(func(sess models.Session) bool {
		return sess.Status == models.SessionActive && (department == "" || sess.Department == department)
	})
	if len(out) > 2 {
		out = out[:2]
	}
	return out, nil
}

func (s *Sessions) ListActive(_ context.Context) ([]models.Session, error) {
	return s.filter(func(sess models.Session) bool { return sess.Status == models.SessionActive }), nil
}

func (s *Sessions) List(_ context.Context, status models.SessionStatus) ([]models.Session, error) {
	return s.filter(func(sess models.Session) bool { return status == "" || sess.Status == status }), nil
}

func (s *Sessions) filter(keep func(models.Session) bool) []models.Session {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Session
	for _, sess := range s.db.sessions {
		if keep(sess) {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Department < out[j].Department
	})
	return out
}

func (s *Sessions) UpsertPolicy(_ context.Context, year, department string, policy models.SessionPolicy) (models.Session, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for id, sess := range s.db.sessions {
		if sess.Year == year && sess.Department == department {
			sess.SessionPolicy = policy
			sess.UpdatedAt = now()
			s.db.sessions[id] = sess
			return sess, nil
		}
	}
	t := now()
	sess := models.Session{
		ID:            primitive.NewObjectID(),
		Year:          year,
		Department:    department,
		Status:        models.SessionDraft,
		SessionPolicy: policy,
		CreatedAt:     t,
		UpdatedAt:     t,
	}
	s.db.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Sessions) CompareAndSetStatus(_ context.Context, id primitive.ObjectID, from, to models.SessionStatus) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sess, ok := s.db.sessions[id]
	if !ok || sess.Status != from {
		return false, nil
	}
	sess.Status = to
	sess.UpdatedAt = now()
	s.db.sessions[id] = sess
	return true, nil
}

// Put stores sess as is, bypassing every guard. Tests use it to seed state,
// including inconsistent state.
func (s *Sessions) Put(sess models.Session) models.Session {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if sess.ID.IsZero() {
		sess.ID = primitive.NewObjectID()
	}
	s.db.sessions[sess.ID] = sess
	return sess
}

type Counters struct{ db *DB }

func (c *Counters) TryAcquire(_ context.Context, key string) (bool, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	cur := c.db.counters[key]
	if cur.ActiveSessions >= 1 {
		return false, nil
	}
	c.db.counters[key] = models.SessionCounter{Key: key, ActiveSessions: cur.ActiveSessions + 1, UpdatedAt: now()}
	return true, nil
}

func (c *Counters) Release(_ context.Context, key string) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	cur, ok := c.db.counters[key]
	if !ok || cur.ActiveSessions <= 0 {
		return nil
	}
	cur.ActiveSessions--
	cur.UpdatedAt = now()
	c.db.counters[key] = cur
	return nil
}

func (c *Counters) List(_ context.Context) ([]models.SessionCounter, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	out := make([]models.SessionCounter, 0, len(c.db.counters))
	for _, cur := range c.db.counters {
		out = append(out, cur)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (c *Counters) Set(_ context.Context, key string, n int) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	c.db.counters[key] = models.SessionCounter{Key: key, ActiveSessions: n, UpdatedAt: now()}
	return nil
}

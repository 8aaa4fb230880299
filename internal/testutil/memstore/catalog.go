package memstore

import (
	"context"
	"sort"

	"github.com/dalemusser/waffle/pantry/text"
	domainstore "github.com/intellipmo/intellipmo/internal/app/store/domains"
	groupstore "github.com/intellipmo/intellipmo/internal/app/store/groups"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Domains struct{ db *DB }

func (s *Domains) Create(_ context.Context, d models.Domain) (models.Domain, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	d.NameCI = text.Fold(d.Name)
	for _, other := range s.db.domains {
		if other.NameCI == d.NameCI {
			return models.Domain{}, domainstore.ErrDuplicateDomain
		}
	}
	t := now()
	d.ID = primitive.NewObjectID()
	d.CreatedAt, d.UpdatedAt = t, t
	s.db.domains[d.ID] = d
	return d, nil
}

func (s *Domains) GetByID(_ context.Context, id primitive.ObjectID) (models.Domain, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	d, ok := s.db.domains[id]
	if !ok {
		return models.Domain{}, mongo.ErrNoDocuments
	}
	return d, nil
}

func (s *Domains) List(_ context.Context) ([]models.Domain, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.Domain, 0, len(s.db.domains))
	for _, d := range s.db.domains {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameCI < out[j].NameCI })
	return out, nil
}

func (s *Domains) Update(_ context.Context, id primitive.ObjectID, name, description string) (models.Domain, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	d, ok := s.db.domains[id]
	if !ok {
		return models.Domain{}, mongo.ErrNoDocuments
	}
	if name != "" {
		folded := text.Fold(name)
		for otherID, other := range s.db.domains {
			if otherID != id && other.NameCI == folded {
				return models.Domain{}, domainstore.ErrDuplicateDomain
			}
		}
		d.Name, d.NameCI = name, folded
	}
	d.Description = description
	d.UpdatedAt = now()
	s.db.domains[id] = d
	return d, nil
}

func (s *Domains) ExistsByNameCI(_ context.Context, nameCI string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, d := range s.db.domains {
		if d.NameCI == nameCI {
			return true, nil
		}
	}
	return false, nil
}

type Groups struct{ db *DB }

func (s *Groups) Insert(_ context.Context, g models.Group) (models.Group, error) {
	if err := s.db.GroupInsertErr; err != nil {
		return models.Group{}, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, exists := s.db.groups[g.ID]; exists {
		return models.Group{}, groupstore.ErrDuplicateGroupID
	}
	t := now()
	g.CreatedAt, g.UpdatedAt = t, t
	g = cloneGroup(g)
	s.db.groups[g.ID] = g
	return cloneGroup(g), nil
}

func (s *Groups) GetByID(_ context.Context, id primitive.ObjectID) (models.Group, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	g, ok := s.db.groups[id]
	if !ok {
		return models.Group{}, mongo.ErrNoDocuments
	}
	return cloneGroup(g), nil
}

func (s *Groups) GetByMember(_ context.Context, studentID primitive.ObjectID) (models.Group, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, g := range s.db.groups {
		for _, m := range g.Members {
			if m == studentID {
				return cloneGroup(g), nil
			}
		}
	}
	return models.Group{}, mongo.ErrNoDocuments
}

func (s *Groups) ListBySession(_ context.Context, sessionID primitive.ObjectID, supervisorID *primitive.ObjectID) ([]models.Group, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Group
	for _, g := range s.db.groups {
		if g.SessionID != sessionID {
			continue
		}
		if supervisorID != nil && g.Supervisor.ID != *supervisorID {
			continue
		}
		out = append(out, cloneGroup(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type Logins struct{ db *DB }

func (s *Logins) Record(_ context.Context, rec models.LoginRecord) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now()
	}
	s.db.logins = append(s.db.logins, rec)
	return nil
}

// ListRecent returns newest first. Records appended later count as newer
// when timestamps tie.
func (s *Logins) ListRecent(_ context.Context, accountID primitive.ObjectID, role models.Role, limit int64) ([]models.LoginRecord, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.LoginRecord{}
	for i := len(s.db.logins) - 1; i >= 0; i-- {
		rec := s.db.logins[i]
		if rec.AccountID == accountID && rec.Role == role {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

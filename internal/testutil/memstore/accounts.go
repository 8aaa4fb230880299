package memstore

import (
	"bytes"
	"context"
	"sort"

	adminstore "github.com/intellipmo/intellipmo/internal/app/store/admins"
	evaluatorstore "github.com/intellipmo/intellipmo/internal/app/store/evaluators"
	studentstore "github.com/intellipmo/intellipmo/internal/app/store/students"
	supervisorstore "github.com/intellipmo/intellipmo/internal/app/store/supervisors"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Students struct{ db *DB }

func (s *Students) Create(_ context.Context, st models.Student) (models.Student, error) {
	if hook := s.db.BeforeStudentCreate; hook != nil {
		hook()
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, other := range s.db.students {
		if other.Email == st.Email {
			return models.Student{}, studentstore.ErrDuplicateEmail
		}
		if other.RollNo == st.RollNo {
			return models.Student{}, studentstore.ErrDuplicateRollNo
		}
	}
	t := now()
	st.ID = primitive.NewObjectID()
	st.GroupID = nil
	st.CreatedAt, st.UpdatedAt = t, t
	s.db.students[st.ID] = st
	return st, nil
}

// Put stores st as is. Tests use it to seed students, grouped or not.
func (s *Students) Put(st models.Student) models.Student {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if st.ID.IsZero() {
		st.ID = primitive.NewObjectID()
	}
	s.db.students[st.ID] = st
	return st
}

func (s *Students) GetByID(_ context.Context, id primitive.ObjectID) (models.Student, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	st, ok := s.db.students[id]
	if !ok {
		return models.Student{}, mongo.ErrNoDocuments
	}
	return st, nil
}

func (s *Students) GetByRollNo(_ context.Context, rollNo string) (models.Student, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, st := range s.db.students {
		if st.RollNo == rollNo {
			return st, nil
		}
	}
	return models.Student{}, mongo.ErrNoDocuments
}

func (s *Students) EmailExists(_ context.Context, email string) (bool, error) {
	return s.any(func(st models.Student) bool { return st.Email == email }), nil
}

func (s *Students) RollNoExists(_ context.Context, rollNo string) (bool, error) {
	return s.any(func(st models.Student) bool { return st.RollNo == rollNo }), nil
}

func (s *Students) any(match func(models.Student) bool) bool {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, st := range s.db.students {
		if match(st) {
			return true
		}
	}
	return false
}

func (s *Students) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Student, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Student
	for _, id := range ids {
		if st, ok := s.db.students[id]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *Students) ListUngrouped(_ context.Context, sessionID primitive.ObjectID) ([]models.Student, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Student
	for _, st := range s.db.students {
		if sameID(st.SessionID, sessionID) && st.GroupID == nil {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (s *Students) ReserveGroup(_ context.Context, studentID, sessionID, groupID primitive.ObjectID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	st, ok := s.db.students[studentID]
	if !ok || !sameID(st.SessionID, sessionID) || st.GroupID != nil {
		return false, nil
	}
	st.GroupID = idPtr(groupID)
	st.UpdatedAt = now()
	s.db.students[studentID] = st
	return true, nil
}

func (s *Students) ReleaseGroup(_ context.Context, studentIDs []primitive.ObjectID, groupID primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, id := range studentIDs {
		st, ok := s.db.students[id]
		if !ok || !sameID(st.GroupID, groupID) {
			continue
		}
		st.GroupID = nil
		st.UpdatedAt = now()
		s.db.students[id] = st
	}
	return nil
}

func (s *Students) GroupRefs(_ context.Context, cutoff primitive.ObjectID) ([]primitive.ObjectID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	seen := map[primitive.ObjectID]struct{}{}
	var out []primitive.ObjectID
	for _, st := range s.db.students {
		if st.GroupID == nil || bytes.Compare(st.GroupID[:], cutoff[:]) >= 0 {
			continue
		}
		if _, dup := seen[*st.GroupID]; dup {
			continue
		}
		seen[*st.GroupID] = struct{}{}
		out = append(out, *st.GroupID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out, nil
}

func (s *Students) ClearGroupRef(_ context.Context, groupID primitive.ObjectID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for id, st := range s.db.students {
		if !sameID(st.GroupID, groupID) {
			continue
		}
		st.GroupID = nil
		st.UpdatedAt = now()
		s.db.students[id] = st
		n++
	}
	return n, nil
}

type Supervisors struct{ db *DB }

func (s *Supervisors) Create(_ context.Context, sup models.Supervisor) (models.Supervisor, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, other := range s.db.supervisors {
		if other.Email == sup.Email && sameSession(other.SessionID, sup.SessionID) {
			return models.Supervisor{}, supervisorstore.ErrDuplicateEnrolment
		}
	}
	t := now()
	sup.ID = primitive.NewObjectID()
	sup.CreatedAt, sup.UpdatedAt = t, t
	s.db.supervisors[sup.ID] = sup
	return sup, nil
}

// Put stores sup as is.
func (s *Supervisors) Put(sup models.Supervisor) models.Supervisor {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if sup.ID.IsZero() {
		sup.ID = primitive.NewObjectID()
	}
	s.db.supervisors[sup.ID] = sup
	return sup
}

func (s *Supervisors) GetByID(_ context.Context, id primitive.ObjectID) (models.Supervisor, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sup, ok := s.db.supervisors[id]
	if !ok {
		return models.Supervisor{}, mongo.ErrNoDocuments
	}
	return sup, nil
}

func (s *Supervisors) GetLatestByEmail(_ context.Context, email string) (models.Supervisor, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var best *models.Supervisor
	for _, sup := range s.db.supervisors {
		if sup.Email != email {
			continue
		}
		if best == nil || sup.CreatedAt.After(best.CreatedAt) {
			cp := sup
			best = &cp
		}
	}
	if best == nil {
		return models.Supervisor{}, mongo.ErrNoDocuments
	}
	return *best, nil
}

func (s *Supervisors) EnrolledInSession(_ context.Context, email string, sessionID primitive.ObjectID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, sup := range s.db.supervisors {
		if sup.Email == email && sameID(sup.SessionID, sessionID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Supervisors) ListBySession(_ context.Context, sessionID primitive.ObjectID, domainID *primitive.ObjectID) ([]models.Supervisor, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Supervisor
	for _, sup := range s.db.supervisors {
		if !sameID(sup.SessionID, sessionID) {
			continue
		}
		if domainID != nil && sup.DomainID != *domainID {
			continue
		}
		out = append(out, sup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type Evaluators struct{ db *DB }

func (s *Evaluators) Create(_ context.Context, ev models.Evaluator) (models.Evaluator, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, other := range s.db.evaluators {
		if other.Email == ev.Email && sameSession(other.SessionID, ev.SessionID) {
			return models.Evaluator{}, evaluatorstore.ErrDuplicateEnrolment
		}
	}
	t := now()
	ev.ID = primitive.NewObjectID()
	ev.CreatedAt, ev.UpdatedAt = t, t
	s.db.evaluators[ev.ID] = ev
	return ev, nil
}

func (s *Evaluators) GetByID(_ context.Context, id primitive.ObjectID) (models.Evaluator, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ev, ok := s.db.evaluators[id]
	if !ok {
		return models.Evaluator{}, mongo.ErrNoDocuments
	}
	return ev, nil
}

func (s *Evaluators) GetLatestByEmail(_ context.Context, email string) (models.Evaluator, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var best *models.Evaluator
	for _, ev := range s.db.evaluators {
		if ev.Email != email {
			continue
		}
		if best == nil || ev.CreatedAt.After(best.CreatedAt) {
			cp := ev
			best = &cp
		}
	}
	if best == nil {
		return models.Evaluator{}, mongo.ErrNoDocuments
	}
	return *best, nil
}

func (s *Evaluators) EnrolledInSession(_ context.Context, email string, sessionID primitive.ObjectID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, ev := range s.db.evaluators {
		if ev.Email == email && sameID(ev.SessionID, sessionID) {
			return true, nil
		}
	}
	return false, nil
}

type Admins struct{ db *DB }

func (s *Admins) Create(_ context.Context, a models.Admin) (models.Admin, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, other := range s.db.admins {
		if other.Email == a.Email {
			return models.Admin{}, adminstore.ErrDuplicateEmail
		}
	}
	t := now()
	a.ID = primitive.NewObjectID()
	a.CreatedAt, a.UpdatedAt = t, t
	s.db.admins[a.ID] = a
	return a, nil
}

func (s *Admins) GetByID(_ context.Context, id primitive.ObjectID) (models.Admin, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.admins[id]
	if !ok {
		return models.Admin{}, mongo.ErrNoDocuments
	}
	return a, nil
}

func (s *Admins) GetByEmail(_ context.Context, email string) (models.Admin, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.admins {
		if a.Email == email {
			return a, nil
		}
	}
	return models.Admin{}, mongo.ErrNoDocuments
}

func (s *Admins) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.GetByEmail(ctx, email)
	return err == nil, nil
}

func sameSession(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Package memstore is an in-memory stand-in for the Mongo stores.
//
// Every method takes one lock for its whole body, so conditional writes
// (counter acquire, group reservation, unique inserts) are atomic the same
// way single-document writes are atomic in Mongo. Errors match the real
// stores: mongo.ErrNoDocuments for absence and each store's duplicate
// sentinel for unique violations.
package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DB holds every collection.
type DB struct {
	mu sync.Mutex

	sessions    map[primitive.ObjectID]models.Session
	counters    map[string]models.SessionCounter
	students    map[primitive.ObjectID]models.Student
	supervisors map[primitive.ObjectID]models.Supervisor
	evaluators  map[primitive.ObjectID]models.Evaluator
	admins      map[primitive.ObjectID]models.Admin
	domains     map[primitive.ObjectID]models.Domain
	groups      map[primitive.ObjectID]models.Group
	logins      []models.LoginRecord

	// Hooks for fault injection. They run with the lock released.
	BeforeStudentCreate func()
	GroupInsertErr      error
}

func New() *DB {
	return &DB{
		sessions:    map[primitive.ObjectID]models.Session{},
		counters:    map[string]models.SessionCounter{},
		students:    map[primitive.ObjectID]models.Student{},
		supervisors: map[primitive.ObjectID]models.Supervisor{},
		evaluators:  map[primitive.ObjectID]models.Evaluator{},
		admins:      map[primitive.ObjectID]models.Admin{},
		domains:     map[primitive.ObjectID]models.Domain{},
		groups:      map[primitive.ObjectID]models.Group{},
	}
}

func (db *DB) Sessions() *Sessions       { return &Sessions{db} }
func (db *DB) Counters() *Counters       { return &Counters{db} }
func (db *DB) Students() *Students       { return &Students{db} }
func (db *DB) Supervisors() *Supervisors { return &Supervisors{db} }
func (db *DB) Evaluators() *Evaluators   { return &Evaluators{db} }
func (db *DB) Admins() *Admins           { return &Admins{db} }
func (db *DB) Domains() *Domains         { return &Domains{db} }
func (db *DB) Groups() *Groups           { return &Groups{db} }
func (db *DB) Logins() *Logins           { return &Logins{db} }

// AllGroups returns every stored group. Tests use it to check invariants.
func (db *DB) AllGroups() []models.Group {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]models.Group, 0, len(db.groups))
	for _, g := range db.groups {
		out = append(out, cloneGroup(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out
}

// AllStudents returns every stored student.
func (db *DB) AllStudents() []models.Student {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]models.Student, 0, len(db.students))
	for _, s := range db.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out
}

// Counter returns the activation counter stored under key.
func (db *DB) Counter(key string) (models.SessionCounter, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.counters[key]
	return c, ok
}

func now() time.Time { return time.Now().UTC() }

func idPtr(id primitive.ObjectID) *primitive.ObjectID { return &id }

func sameID(p *primitive.ObjectID, id primitive.ObjectID) bool {
	return p != nil && *p == id
}

func cloneGroup(g models.Group) models.Group {
	g.Members = append([]primitive.ObjectID(nil), g.Members...)
	return g
}

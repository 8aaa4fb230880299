// internal/domain/models/session.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Departments a session, student, evaluator or admin may belong to.
var Departments = []string{"IT", "CS", "SE"}

// IsDepartment reports whether d is a known department code.
func IsDepartment(d string) bool {
	for _, known := range Departments {
		if d == known {
			return true
		}
	}
	return false
}

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	SessionDraft     SessionStatus = "draft"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// ParseSessionStatus accepts the three statuses plus "inactive", the older
// name for completed.
func ParseSessionStatus(s string) (SessionStatus, bool) {
	switch s {
	case string(SessionDraft):
		return SessionDraft, true
	case string(SessionActive):
		return SessionActive, true
	case string(SessionCompleted), "inactive":
		return SessionCompleted, true
	}
	return "", false
}

// SessionPolicy holds the numbers that gate registration and group formation.
type SessionPolicy struct {
	MinMembers        int     `bson:"min_members" json:"minMembers"`
	MaxMembers        int     `bson:"max_members" json:"maxMembers"`
	MinGroups         int     `bson:"min_groups" json:"minGroups"`
	MaxGroups         int     `bson:"max_groups" json:"maxGroups"`
	MinCGPA           float64 `bson:"min_cgpa" json:"minCGPA"`
	NumEvaluations    int     `bson:"num_evaluations" json:"numEvaluations"`
	Defense1Weightage float64 `bson:"d1_weightage" json:"defense1Weightage"`
	Defense2Weightage float64 `bson:"d2_weightage" json:"defense2Weightage"`
}

// Session is the policy record for one (year, department) pair.
// At most one exists per pair (unique index).
type Session struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	Year          string             `bson:"year" json:"year"`
	Department    string             `bson:"department" json:"department"`
	Status        SessionStatus      `bson:"status" json:"status"`
	SessionPolicy `bson:",inline"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the session is currently accepting activity.
func (s Session) IsActive() bool { return s.Status == SessionActive }

// SessionCounter is the per-scope activation counter.
type SessionCounter struct {
	Key            string    `bson:"key" json:"key"`
	ActiveSessions int       `bson:"active_sessions" json:"activeSessions"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updatedAt"`
}

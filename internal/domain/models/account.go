// internal/domain/models/account.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role tags which collection an account lives in and which payload an
// Identity carries. Values match the role claim stored in issued tokens.
type Role string

const (
	RoleStudent    Role = "Student"
	RoleSupervisor Role = "Supervisor"
	RoleEvaluator  Role = "Evaluator"
	RoleAdmin      Role = "Admin"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleSupervisor, RoleEvaluator, RoleAdmin:
		return true
	}
	return false
}

// Account is the identity envelope shared by every role.
// PasswordHash is never serialized to JSON.
type Account struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	FullName     string             `bson:"full_name" json:"fullName"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Student is a registered student. GroupID moves from nil to set exactly once.
type Student struct {
	Account    `bson:",inline"`
	Department string              `bson:"department" json:"department"`
	RollNo     string              `bson:"roll_no" json:"rollNo"`
	CGPA       float64             `bson:"cgpa" json:"cgpa"`
	SessionID  *primitive.ObjectID `bson:"session_id" json:"sessionId"`
	GroupID    *primitive.ObjectID `bson:"group_id" json:"groupId"`

	// Reserved for the evaluation workflow.
	ObtainedMarks *float64 `bson:"obtained_marks" json:"obtainedMarks"`
	FinalGrade    *string  `bson:"final_grade" json:"finalGrade"`
}

// Supervisor may be picked as a group supervisor while SessionID matches the
// active session of the relevant scope.
type Supervisor struct {
	Account     `bson:",inline"`
	DomainID    primitive.ObjectID  `bson:"domain_id" json:"domainId"`
	SessionID   *primitive.ObjectID `bson:"session_id" json:"sessionId"`
	Designation string              `bson:"designation" json:"designation"`
}

type Evaluator struct {
	Account     `bson:",inline"`
	Department  string              `bson:"department" json:"department"`
	SessionID   *primitive.ObjectID `bson:"session_id" json:"sessionId"`
	Designation string              `bson:"designation" json:"designation"`
}

type Admin struct {
	Account     `bson:",inline"`
	Department  string              `bson:"department" json:"department"`
	SessionID   *primitive.ObjectID `bson:"session_id" json:"sessionId"`
	Designation string              `bson:"designation" json:"designation"`
}

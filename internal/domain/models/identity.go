// internal/domain/models/identity.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Identity is a loaded account of any role. Exactly one payload pointer is
// set and it always matches Role; use the constructors below to build one.
type Identity struct {
	Role       Role        `json:"role"`
	Student    *Student    `json:"student,omitempty"`
	Supervisor *Supervisor `json:"supervisor,omitempty"`
	Evaluator  *Evaluator  `json:"evaluator,omitempty"`
	Admin      *Admin      `json:"admin,omitempty"`
}

func StudentIdentity(s Student) Identity       { return Identity{Role: RoleStudent, Student: &s} }
func SupervisorIdentity(s Supervisor) Identity { return Identity{Role: RoleSupervisor, Supervisor: &s} }
func EvaluatorIdentity(e Evaluator) Identity   { return Identity{Role: RoleEvaluator, Evaluator: &e} }
func AdminIdentity(a Admin) Identity           { return Identity{Role: RoleAdmin, Admin: &a} }

// Account returns the shared envelope, or the zero Account for an empty Identity.
func (i Identity) Account() Account {
	switch i.Role {
	case RoleStudent:
		if i.Student != nil {
			return i.Student.Account
		}
	case RoleSupervisor:
		if i.Supervisor != nil {
			return i.Supervisor.Account
		}
	case RoleEvaluator:
		if i.Evaluator != nil {
			return i.Evaluator.Account
		}
	case RoleAdmin:
		if i.Admin != nil {
			return i.Admin.Account
		}
	}
	return Account{}
}

// SessionID returns the session reference held by the role payload.
func (i Identity) SessionID() *primitive.ObjectID {
	switch i.Role {
	case RoleStudent:
		if i.Student != nil {
			return i.Student.SessionID
		}
	case RoleSupervisor:
		if i.Supervisor != nil {
			return i.Supervisor.SessionID
		}
	case RoleEvaluator:
		if i.Evaluator != nil {
			return i.Evaluator.SessionID
		}
	case RoleAdmin:
		if i.Admin != nil {
			return i.Admin.SessionID
		}
	}
	return nil
}

// Department returns the department stored on the account. Supervisors do not
// carry one; their department comes from their session.
func (i Identity) Department() string {
	switch {
	case i.Role == RoleStudent && i.Student != nil:
		return i.Student.Department
	case i.Role == RoleEvaluator && i.Evaluator != nil:
		return i.Evaluator.Department
	case i.Role == RoleAdmin && i.Admin != nil:
		return i.Admin.Department
	}
	return ""
}

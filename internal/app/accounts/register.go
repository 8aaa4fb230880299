package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	adminstore "github.com/intellipmo/intellipmo/internal/app/store/admins"
	evaluatorstore "github.com/intellipmo/intellipmo/internal/app/store/evaluators"
	studentstore "github.com/intellipmo/intellipmo/internal/app/store/students"
	supervisorstore "github.com/intellipmo/intellipmo/internal/app/store/supervisors"
	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/inputval"
	"github.com/intellipmo/intellipmo/internal/app/system/normalize"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// StudentRegistration is the student sign-up request. Exactly one of
// Session and SessionID is used, depending on the service's SessionMode.
type StudentRegistration struct {
	FullName   string   `json:"fullName" validate:"required"`
	Department string   `json:"department" validate:"required,department"`
	RollNo     string   `json:"rollNo" validate:"required,roll_no"`
	CGPA       *float64 `json:"cgpa" validate:"required,gte=0,lte=4"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required"`
	Session    string   `json:"session" validate:"omitempty,session_year"`
	SessionID  string   `json:"session_id"`
}

func (in *StudentRegistration) normalize() {
	in.FullName = normalize.Name(in.FullName)
	in.Department = normalize.Department(in.Department)
	in.RollNo = normalize.Text(in.RollNo)
	in.Email = normalize.Email(in.Email)
	in.Session = normalize.Text(in.Session)
	in.SessionID = normalize.Text(in.SessionID)
}

// RegisterStudent creates a student in an active session whose minimum CGPA
// the student meets.
func (s *Service) RegisterStudent(ctx context.Context, in StudentRegistration) (models.Student, error) {
	in.normalize()
	res := inputval.Validate(in)
	switch {
	case s.d.Mode == SessionByYear && in.Session == "":
		res.Errors = append(res.Errors, inputval.FieldError{Field: "session", Message: "Missing or empty field: session."})
	case s.d.Mode == SessionByID && in.SessionID == "":
		res.Errors = append(res.Errors, inputval.FieldError{Field: "session_id", Message: "Missing or empty field: session_id."})
	case s.d.Mode == SessionByID && !primitive.IsValidObjectID(in.SessionID):
		res.Errors = append(res.Errors, inputval.FieldError{Field: "session_id", Message: "Please select a valid session."})
	}
	if err := res.Err(); err != nil {
		return models.Student{}, err
	}

	sess, err := s.studentSession(ctx, in)
	if err != nil {
		return models.Student{}, err
	}
	if !sess.IsActive() {
		return models.Student{}, apierr.ErrSessionNotActive.WithMessage(
			fmt.Sprintf("Session %q not active yet.", sess.Year))
	}
	if *in.CGPA < sess.MinCGPA {
		return models.Student{}, apierr.ErrCGPABelowMinimum.WithMessage(
			fmt.Sprintf("Only students with CGPA from %s to 4 can register to the system.",
				strconv.FormatFloat(sess.MinCGPA, 'f', -1, 64)))
	}

	if taken, err := s.d.Students.EmailExists(ctx, in.Email); err != nil {
		return models.Student{}, apierr.Internal(err)
	} else if taken {
		return models.Student{}, apierr.ErrDuplicateEmail
	}
	if taken, err := s.d.Students.RollNoExists(ctx, in.RollNo); err != nil {
		return models.Student{}, apierr.Internal(err)
	} else if taken {
		return models.Student{}, apierr.ErrDuplicateRollNo
	}

	hash, err := s.d.Passwords.Hash(in.Password)
	if err != nil {
		return models.Student{}, apierr.Internal(err)
	}

	st, err := s.d.Students.Create(ctx, models.Student{
		Account:    models.Account{FullName: in.FullName, Email: in.Email, PasswordHash: hash},
		Department: in.Department,
		RollNo:     in.RollNo,
		CGPA:       *in.CGPA,
		SessionID:  &sess.ID,
	})
	switch {
	case errors.Is(err, studentstore.ErrDuplicateEmail):
		return models.Student{}, apierr.ErrDuplicateEmail
	case errors.Is(err, studentstore.ErrDuplicateRollNo):
		return models.Student{}, apierr.ErrDuplicateRollNo
	case err != nil:
		return models.Student{}, apierr.Internal(err)
	}
	return st, nil
}

func (s *Service) studentSession(ctx context.Context, in StudentRegistration) (models.Session, error) {
	if s.d.Mode == SessionByID {
		id, _ := primitive.ObjectIDFromHex(in.SessionID)
		sess, err := s.d.Sessions.GetByID(ctx, id)
		if err != nil {
			return models.Session{}, err
		}
		if sess.Department != in.Department {
			return models.Session{}, apierr.ErrInvalidInput.WithMessage(
				fmt.Sprintf("Session %q does not belong to department %s.", sess.Year, in.Department))
		}
		return sess, nil
	}
	sess, err := s.d.Sessions.ResolvePolicy(ctx, in.Session, in.Department)
	if errors.Is(err, apierr.ErrSessionNotFound) {
		return models.Session{}, apierr.ErrSessionNotFound.WithMessage(
			fmt.Sprintf("Session %q not found for department %s.", in.Session, in.Department))
	}
	return sess, err
}

// SupervisorRegistration enrols a supervisor into one session under one domain.
type SupervisorRegistration struct {
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	SessionID   string `json:"session_id" validate:"required"`
	Designation string `json:"designation" validate:"required"`
	DomainID    string `json:"domain_id" validate:"required"`
}

func (s *Service) RegisterSupervisor(ctx context.Context, in SupervisorRegistration) (models.Supervisor, error) {
	in.FullName = normalize.Name(in.FullName)
	in.Email = normalize.Email(in.Email)
	in.Designation = normalize.Text(in.Designation)
	in.SessionID = normalize.Text(in.SessionID)
	in.DomainID = normalize.Text(in.DomainID)

	res := inputval.Validate(in)
	sessionID, sessErr := primitive.ObjectIDFromHex(in.SessionID)
	if in.SessionID != "" && sessErr != nil {
		res.Errors = append(res.Errors, inputval.FieldError{Field: "session_id", Message: "Please select a valid session."})
	}
	if in.Designation != "" && len([]rune(in.Designation)) < 2 {
		res.Errors = append(res.Errors, inputval.FieldError{Field: "designation", Message: "Designation must be at least 2 characters."})
	}
	domainID, domErr := primitive.ObjectIDFromHex(in.DomainID)
	if in.DomainID != "" && domErr != nil {
		res.Errors = append(res.Errors, inputval.FieldError{Field: "domain_id", Message: "Invalid domain selected."})
	}
	if err := res.Err(); err != nil {
		return models.Supervisor{}, err
	}

	if _, err := s.d.Domains.GetByID(ctx, domainID); errors.Is(err, mongo.ErrNoDocuments) {
		return models.Supervisor{}, apierr.ErrInvalidDomain
	} else if err != nil {
		return models.Supervisor{}, apierr.Internal(err)
	}
	if _, err := s.d.Sessions.GetByID(ctx, sessionID); errors.Is(err, apierr.ErrSessionNotFound) {
		return models.Supervisor{}, apierr.ErrSessionNotFound.WithMessage("Please select a valid session.")
	} else if err != nil {
		return models.Supervisor{}, err
	}

	if enrolled, err := s.d.Supervisors.EnrolledInSession(ctx, in.Email, sessionID); err != nil {
		return models.Supervisor{}, apierr.Internal(err)
	} else if enrolled {
		return models.Supervisor{}, apierr.ErrDuplicateEnrolment
	}

	hash, err := s.d.Passwords.Hash(in.Password)
	if err != nil {
		return models.Supervisor{}, apierr.Internal(err)
	}
	sup, err := s.d.Supervisors.Create(ctx, models.Supervisor{
		Account:     models.Account{FullName: in.FullName, Email: in.Email, PasswordHash: hash},
		DomainID:    domainID,
		SessionID:   &sessionID,
		Designation: in.Designation,
	})
	if errors.Is(err, supervisorstore.ErrDuplicateEnrolment) {
		return models.Supervisor{}, apierr.ErrDuplicateEnrolment
	}
	if err != nil {
		return models.Supervisor{}, apierr.Internal(err)
	}
	return sup, nil
}

// StaffRegistration is the evaluator and admin sign-up request. The session
// is named by year and resolved with the department.
type StaffRegistration struct {
	FullName    string `json:"fullName" validate:"required"`
	Department  string `json:"department" validate:"required,department"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	Session     string `json:"session" validate:"required,session_year"`
	Designation string `json:"designation" validate:"required"`
}

func (in *StaffRegistration) prepare() error {
	in.FullName = normalize.Name(in.FullName)
	in.Department = normalize.Department(in.Department)
	in.Email = normalize.Email(in.Email)
	in.Session = normalize.Text(in.Session)
	in.Designation = normalize.Text(in.Designation)
	return inputval.Validate(*in).Err()
}

func (s *Service) staffSession(ctx context.Context, in StaffRegistration) (models.Session, error) {
	sess, err := s.d.Sessions.ResolvePolicy(ctx, in.Session, in.Department)
	if errors.Is(err, apierr.ErrSessionNotFound) {
		return models.Session{}, apierr.ErrSessionNotFound.WithMessage(
			fmt.Sprintf("Session %q not found for department %s.", in.Session, in.Department))
	}
	return sess, err
}

func (s *Service) RegisterEvaluator(ctx context.Context, in StaffRegistration) (models.Evaluator, error) {
	if err := in.prepare(); err != nil {
		return models.Evaluator{}, err
	}
	sess, err := s.staffSession(ctx, in)
	if err != nil {
		return models.Evaluator{}, err
	}
	if enrolled, err := s.d.Evaluators.EnrolledInSession(ctx, in.Email, sess.ID); err != nil {
		return models.Evaluator{}, apierr.Internal(err)
	} else if enrolled {
		return models.Evaluator{}, apierr.ErrDuplicateEnrolment
	}

	hash, err := s.d.Passwords.Hash(in.Password)
	if err != nil {
		return models.Evaluator{}, apierr.Internal(err)
	}
	ev, err := s.d.Evaluators.Create(ctx, models.Evaluator{
		Account:     models.Account{FullName: in.FullName, Email: in.Email, PasswordHash: hash},
		Department:  in.Department,
		SessionID:   &sess.ID,
		Designation: in.Designation,
	})
	if errors.Is(err, evaluatorstore.ErrDuplicateEnrolment) {
		return models.Evaluator{}, apierr.ErrDuplicateEnrolment
	}
	if err != nil {
		return models.Evaluator{}, apierr.Internal(err)
	}
	return ev, nil
}

func (s *Service) RegisterAdmin(ctx context.Context, in StaffRegistration) (models.Admin, error) {
	if err := in.prepare(); err != nil {
		return models.Admin{}, err
	}
	sess, err := s.staffSession(ctx, in)
	if err != nil {
		return models.Admin{}, err
	}
	if taken, err := s.d.Admins.EmailExists(ctx, in.Email); err != nil {
		return models.Admin{}, apierr.Internal(err)
	} else if taken {
		return models.Admin{}, apierr.ErrDuplicateEmail
	}

	hash, err := s.d.Passwords.Hash(in.Password)
	if err != nil {
		return models.Admin{}, apierr.Internal(err)
	}
	a, err := s.d.Admins.Create(ctx, models.Admin{
		Account:     models.Account{FullName: in.FullName, Email: in.Email, PasswordHash: hash},
		Department:  in.Department,
		SessionID:   &sess.ID,
		Designation: in.Designation,
	})
	if errors.Is(err, adminstore.ErrDuplicateEmail) {
		return models.Admin{}, apierr.ErrDuplicateEmail
	}
	if err != nil {
		return models.Admin{}, apierr.Internal(err)
	}
	return a, nil
}

package accounts

import (
	"context"
	"errors"

	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/inputval"
	"github.com/intellipmo/intellipmo/internal/app/system/normalize"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	errBadRollNoLogin = apierr.ErrBadCredentials.WithMessage("Invalid roll number or password.")
	errBadEmailLogin  = apierr.ErrBadCredentials.WithMessage("Invalid email or password.")
)

// Login is a successful sign-in.
type Login struct {
	Token    string
	Identity models.Identity
}

type StudentLogin struct {
	RollNo   string `json:"rollNo" validate:"required,roll_no"`
	Password string `json:"password" validate:"required"`
}

type EmailLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginStudent signs a student in by roll number. Unknown roll numbers and
// wrong passwords get the same answer.
func (s *Service) LoginStudent(ctx context.Context, in StudentLogin) (Login, error) {
	in.RollNo = normalize.Text(in.RollNo)
	if err := inputval.Validate(in).Err(); err != nil {
		return Login{}, err
	}
	st, err := s.d.Students.GetByRollNo(ctx, in.RollNo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Login{}, errBadRollNoLogin
	}
	if err != nil {
		return Login{}, apierr.Internal(err)
	}
	return s.finish(st.PasswordHash, in.Password, models.StudentIdentity(st), errBadRollNoLogin)
}

// LoginByEmail signs in a supervisor, evaluator or admin.
func (s *Service) LoginByEmail(ctx context.Context, role models.Role, in EmailLogin) (Login, error) {
	in.Email = normalize.Email(in.Email)
	if err := inputval.Validate(in).Err(); err != nil {
		return Login{}, err
	}

	var (
		id   models.Identity
		hash string
		err  error
	)
	switch role {
	case models.RoleSupervisor:
		var sup models.Supervisor
		sup, err = s.d.Supervisors.GetLatestByEmail(ctx, in.Email)
		id, hash = models.SupervisorIdentity(sup), sup.PasswordHash
	case models.RoleEvaluator:
		var ev models.Evaluator
		ev, err = s.d.Evaluators.GetLatestByEmail(ctx, in.Email)
		id, hash = models.EvaluatorIdentity(ev), ev.PasswordHash
	case models.RoleAdmin:
		var ad models.Admin
		ad, err = s.d.Admins.GetByEmail(ctx, in.Email)
		id, hash = models.AdminIdentity(ad), ad.PasswordHash
	default:
		return Login{}, apierr.ErrAccessDenied
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Login{}, errBadEmailLogin
	}
	if err != nil {
		return Login{}, apierr.Internal(err)
	}
	return s.finish(hash, in.Password, id, errBadEmailLogin)
}

func (s *Service) finish(hash, password string, id models.Identity, bad error) (Login, error) {
	ok, err := s.d.Passwords.Matches(hash, password)
	if err != nil {
		return Login{}, apierr.Internal(err)
	}
	if !ok {
		return Login{}, bad
	}
	acct := id.Account()
	token, err := s.d.Tokens.Issue(acct.ID, id.Role)
	if err != nil {
		return Login{}, apierr.Internal(err)
	}
	s.d.Log.Info("signed in", zap.String("role", string(id.Role)), zap.String("user_id", acct.ID.Hex()))
	return Login{Token: token, Identity: id}, nil
}

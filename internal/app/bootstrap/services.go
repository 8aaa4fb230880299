// internal/app/bootstrap/services.go
package bootstrap

import (
	"fmt"

	"github.com/intellipmo/intellipmo/internal/app/accounts"
	"github.com/intellipmo/intellipmo/internal/app/activation"
	"github.com/intellipmo/intellipmo/internal/app/groupformation"
	"github.com/intellipmo/intellipmo/internal/app/registry"
	adminstore "github.com/intellipmo/intellipmo/internal/app/store/admins"
	domainstore "github.com/intellipmo/intellipmo/internal/app/store/domains"
	evaluatorstore "github.com/intellipmo/intellipmo/internal/app/store/evaluators"
	groupstore "github.com/intellipmo/intellipmo/internal/app/store/groups"
	loginstore "github.com/intellipmo/intellipmo/internal/app/store/logins"
	countersstore "github.com/intellipmo/intellipmo/internal/app/store/sessioncounters"
	sessionstore "github.com/intellipmo/intellipmo/internal/app/store/sessions"
	studentstore "github.com/intellipmo/intellipmo/internal/app/store/students"
	supervisorstore "github.com/intellipmo/intellipmo/internal/app/store/supervisors"
	"github.com/intellipmo/intellipmo/internal/app/system/auth"
	"github.com/intellipmo/intellipmo/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// services is the object graph shared by Startup and BuildHandler.
type services struct {
	Domains     *domainstore.Store
	Supervisors *supervisorstore.Store
	Logins      *loginstore.Store

	Tracker     *activation.Tracker
	Registry    *registry.Registry
	Accounts    *accounts.Service
	Coordinator *groupformation.Coordinator
	Middleware  *auth.Middleware
	Throttle    *ratelimit.LoginThrottle
}

func newTracker(appCfg AppConfig, db *mongo.Database, logger *zap.Logger) (*activation.Tracker, error) {
	scope, err := activation.ParseScope(string(appCfg.ActivationScope))
	if err != nil {
		return nil, err
	}
	return activation.New(scope, sessionstore.New(db), countersstore.New(db), logger), nil
}

func newCoordinator(reg *registry.Registry, db *mongo.Database, logger *zap.Logger) *groupformation.Coordinator {
	return groupformation.New(reg, studentstore.New(db), supervisorstore.New(db), groupstore.New(db), logger)
}

func buildServices(appCfg AppConfig, db *mongo.Database, logger *zap.Logger) (*services, error) {
	mode, err := accounts.ParseSessionMode(string(appCfg.RegistrationSessionMode))
	if err != nil {
		return nil, err
	}
	tracker, err := newTracker(appCfg, db, logger)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	var (
		sessions    = sessionstore.New(db)
		students    = studentstore.New(db)
		supervisors = supervisorstore.New(db)
		domains     = domainstore.New(db)
	)
	reg := registry.New(sessions, tracker)

	return &services{
		Domains:     domains,
		Supervisors: supervisors,
		Logins:      loginstore.New(db),
		Tracker:     tracker,
		Registry:    reg,
		Accounts: accounts.New(accounts.Deps{
			Sessions:    reg,
			Students:    students,
			Supervisors: supervisors,
			Evaluators:  evaluatorstore.New(db),
			Admins:      adminstore.New(db),
			Domains:     domains,
			Tokens:      tokens,
			Passwords:   auth.Hasher{Cost: appCfg.BcryptCost},
			Mode:        mode,
			Log:         logger,
		}),
		Coordinator: newCoordinator(reg, db, logger),
		Middleware:  auth.NewMiddleware(tokens, logger),
		Throttle:    ratelimit.NewLoginThrottle(),
	}, nil
}

// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/intellipmo/intellipmo/internal/app/accounts"
	"github.com/intellipmo/intellipmo/internal/app/activation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// appConfigKeys defines the configuration keys for IntelliPMO.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: INTELLIPMO_MONGO_URI, INTELLIPMO_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "IntelliPMO", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Authentication
	{Name: "jwt_secret", Default: "", Desc: "HMAC secret for signing bearer tokens (required)"},
	{Name: "jwt_issuer", Default: "intellipmo", Desc: "Issuer claim for bearer tokens"},
	{Name: "token_ttl", Default: "168h", Desc: "Bearer token lifetime (e.g., 24h, 168h)"},
	{Name: "bcrypt_cost", Default: bcrypt.DefaultCost, Desc: "bcrypt cost for password hashes"},

	// Sessions and registration
	{Name: "activation_scope", Default: string(activation.ScopeDepartment), Desc: "One active session per 'department' or 'global'"},
	{Name: "registration_session_mode", Default: string(accounts.SessionByYear), Desc: "Students pick their session by 'year' or by 'id'"},

	// Timeouts
	{Name: "timeout_short", Default: "", Desc: "Budget for single lookups (e.g., 5s)"},
	{Name: "timeout_medium", Default: "", Desc: "Budget for lists and single writes (e.g., 10s)"},
	{Name: "timeout_long", Default: "", Desc: "Budget for group formation (e.g., 30s)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, INTELLIPMO_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "INTELLIPMO", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:  appValues.String("jwt_secret"),
		JWTIssuer:  appValues.String("jwt_issuer"),
		TokenTTL:   appValues.Duration("token_ttl", 7*24*time.Hour),
		BcryptCost: appValues.Int("bcrypt_cost"),

		ActivationScope:         activation.Scope(appValues.String("activation_scope")),
		RegistrationSessionMode: accounts.SessionMode(appValues.String("registration_session_mode")),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The enum checks use the same parsers BuildHandler uses.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	return validateAppConfig(appCfg, logger)
}

func validateAppConfig(appCfg AppConfig, logger *zap.Logger) error {
	var errs []error

	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		errs = append(errs, fmt.Errorf("invalid MongoDB URI: %w", err))
	}
	if appCfg.MongoDatabase == "" {
		errs = append(errs, errors.New("mongo_database must not be empty"))
	}

	switch {
	case appCfg.JWTSecret == "":
		errs = append(errs, errors.New("jwt_secret is required"))
	case len(appCfg.JWTSecret) < 32:
		logger.Warn("jwt_secret is shorter than 32 bytes; use a longer secret in production")
	}
	if appCfg.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token_ttl must be positive, got %s", appCfg.TokenTTL))
	}
	if appCfg.BcryptCost < bcrypt.MinCost || appCfg.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt_cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, appCfg.BcryptCost))
	}

	if _, err := activation.ParseScope(string(appCfg.ActivationScope)); err != nil {
		errs = append(errs, err)
	}
	if _, err := accounts.ParseSessionMode(string(appCfg.RegistrationSessionMode)); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

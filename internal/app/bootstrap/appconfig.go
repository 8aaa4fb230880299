// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/intellipmo/intellipmo/internal/app/accounts"
	"github.com/intellipmo/intellipmo/internal/app/activation"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging, CORS and body limits; everything IntelliPMO needs
// beyond that lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens and passwords
	JWTSecret  string        // HMAC key for signing tokens (must be strong in production)
	JWTIssuer  string        // iss claim
	TokenTTL   time.Duration // lifetime of an issued token
	BcryptCost int

	// ActivationScope decides whether one session may be active per
	// department or one for the whole system.
	ActivationScope activation.Scope

	// RegistrationSessionMode decides whether students name their session by
	// year ("2021-2025") or by session_id.
	RegistrationSessionMode accounts.SessionMode

	// Timeout budgets; zero keeps the built-in defaults.
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}

// internal/app/system/auth/tokens.go
package auth

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Actor is the verified identity behind a request.
type Actor struct {
	SubjectID primitive.ObjectID
	Role      models.Role
}

// Claims are the JWT claims issued at login.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwtv5.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for the given account.
func (m *TokenManager) Issue(subject primitive.ObjectID, role models.Role) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: subject.Hex(),
		Role:   string(role),
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates a token and returns the actor it names.
func (m *TokenManager) Verify(token string) (Actor, error) {
	parsed, err := jwtv5.ParseWithClaims(token, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithTimeFunc(m.now), jwtv5.WithIssuer(m.issuer))
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return Actor{}, ErrTokenExpired
		}
		return Actor{}, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Actor{}, ErrTokenInvalid
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return Actor{}, ErrTokenInvalid
	}
	role := models.Role(claims.Role)
	if !role.Valid() {
		return Actor{}, ErrTokenInvalid
	}
	return Actor{SubjectID: id, Role: role}, nil
}

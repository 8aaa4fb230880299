package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/respond"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.uber.org/zap"
)

type ctxKey string

const currentActorKey ctxKey = "currentActor"

// CurrentActor returns the authenticated actor & “found?” flag.
func CurrentActor(r *http.Request) (Actor, bool) {
	a, ok := r.Context().Value(currentActorKey).(Actor)
	return a, ok
}

// WithActor stores a in ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, currentActorKey, a)
}

// Middleware verifies bearer tokens for protected routes.
type Middleware struct {
	Tokens *TokenManager
	Log    *zap.Logger
}

func NewMiddleware(tokens *TokenManager, logger *zap.Logger) *Middleware {
	return &Middleware{Tokens: tokens, Log: logger}
}

// RequireSignedIn reads "Authorization: Bearer <token>", verifies it and puts
// the actor on the request context. Missing or bad tokens get a 401.
func (m *Middleware) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			respond.Error(w, r, m.Log, "authenticate", apierr.ErrUnauthenticated)
			return
		}

		actor, err := m.Tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			if !errors.Is(err, ErrTokenExpired) {
				m.Log.Debug("rejected bearer token", zap.Error(err))
			}
			respond.Error(w, r, m.Log, "authenticate", apierr.ErrInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireRole lets through only actors holding one of the allowed roles.
// It must run after RequireSignedIn.
func RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	set := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := CurrentActor(r)
			if !ok {
				respond.Error(w, r, nil, "authorize", apierr.ErrUnauthenticated)
				return
			}
			if _, has := set[a.Role]; !has {
				respond.Error(w, r, nil, "authorize", apierr.ErrAccessDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

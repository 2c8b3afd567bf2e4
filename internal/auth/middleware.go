package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/isdelr/member-accounts-be/internal/api/respond"
	"github.com/isdelr/member-accounts-be/internal/apperr"
	"github.com/isdelr/member-accounts-be/internal/models"
	"github.com/rs/zerolog/log"
)

// IdentityResolver maps a presented access token to its account.
type IdentityResolver interface {
	GetUserByToken(ctx context.Context, token string) (models.User, error)
}

type contextKey string

// IdentityKey is the context key for the authenticated user.
const IdentityKey = contextKey("identity")

var errNotLoggedIn = apperr.New(apperr.Unauthorized, "Please log in")

// IdentityFromContext returns the user attached by Guard.
func IdentityFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(IdentityKey).(models.User)
	return user, ok
}

// WithIdentity returns a copy of ctx carrying user.
func WithIdentity(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, IdentityKey, user)
}

// TokenFromRequest extracts the access token from the Authorization header.
// Both a bare token and a "Bearer <token>" value are accepted.
func TokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		header = strings.TrimSpace(header[len("Bearer "):])
	}
	return header
}

// Guard creates a middleware that only lets requests through when their
// access token belongs to an existing account.
func Guard(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				respond.Error(w, errNotLoggedIn)
				return
			}

			user, err := resolver.GetUserByToken(r.Context(), token)
			if err != nil {
				if apperr.KindOf(err) == apperr.Internal {
					log.Error().Err(err).Msg("Failed to resolve access token")
					respond.Error(w, err)
					return
				}
				respond.Error(w, errNotLoggedIn)
				return
			}

			log.Debug().Str("user_id", user.ID).Str("username", user.Username).Msg("Authenticated user")
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user)))
		})
	}
}

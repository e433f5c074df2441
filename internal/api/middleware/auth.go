package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type actorKeyType string

const actorKey actorKeyType = "actor"

// Actor is the authenticated identity performing a request. Tokens are
// minted by an upstream identity provider; this service only verifies
// them and reads the subject and permission claims.
type Actor struct {
	Username    string
	Permissions []string
}

// Has reports whether the actor holds the named permission.
func (a Actor) Has(permission string) bool {
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Auth validates a Bearer JWT using the provided HMAC secret and adds
// the actor to the request context.
func Auth(hmacSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimSpace(ah[len("Bearer "):])
			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return hmacSecret, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			actor := Actor{}
			actor.Username, _ = claims["sub"].(string)
			if perms, ok := claims["permissions"].([]any); ok {
				for _, p := range perms {
					if s, ok := p.(string); ok {
						actor.Permissions = append(actor.Permissions, s)
					}
				}
			}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission rejects requests whose actor lacks the permission.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !GetActor(r.Context()).Has(permission) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetActor returns the actor from context; the zero Actor when absent.
func GetActor(ctx context.Context) Actor {
	if v := ctx.Value(actorKey); v != nil {
		if a, ok := v.(Actor); ok {
			return a
		}
	}
	return Actor{}
}

// WithActor returns a context carrying the actor. Used by tests and
// internal callers that bypass HTTP authentication.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

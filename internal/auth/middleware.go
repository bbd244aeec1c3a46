package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/snippets-api/internal/actor"
	"github.com/sakif/snippets-api/internal/model"
)

// TokenCookie is the cookie the login handler stores the JWT in.
const TokenCookie = "token"

// UserLookup loads the account a token was issued for.
// repository.UserRepository satisfies it.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Authenticate identifies the caller and binds them as the actor on the
// request context.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler that wraps it:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... before ...
//	        next.ServeHTTP(w, r)
//	        // ... after ...
//	    })
//	}
//
// No token: the request continues anonymously, with no actor bound. Reads
// work; any mutation further down is refused by the store.
// A token that is invalid, expired, or names a missing or inactive user:
// 401, the request stops here.
// A good token: the user is bound with actor.WithActor and every layer
// below (services, store, audit observer) sees the same actor.
func Authenticate(tokens *TokenService, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := tokens.Validate(raw)
			if err != nil {
				logger.DebugContext(r.Context(), "rejected token", slog.String("error", err.Error()))
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil || !user.IsActive {
				logger.DebugContext(r.Context(), "token for unknown or inactive user", slog.Int64("userID", userID))
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "user inactive or deleted")
				return
			}

			ctx := actor.WithActor(r.Context(), actor.Actor{
				UserID:   user.ID,
				Username: user.Username,
				IsStaff:  user.IsStaff,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth stops anonymous requests with 401. It must run after
// Authenticate.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := actor.FromContext(r.Context()); !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "authentication credentials were not provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff lets only staff users through: 401 for anonymous callers,
// 403 for authenticated non-staff.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := actor.FromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "authentication credentials were not provided")
			return
		}
		if !a.IsStaff {
			writeAuthError(w, http.StatusForbidden, "forbidden", "you do not have permission to perform this action")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken reads the JWT from the Authorization header ("Bearer <jwt>"
// or "Token <jwt>"), falling back to the login cookie.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && (strings.EqualFold(scheme, "Bearer") || strings.EqualFold(scheme, "Token")) {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}

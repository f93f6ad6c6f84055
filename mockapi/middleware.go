package mockapi

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/ats-client/token"
	"github.com/jrsteele09/ats-client/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified access credential's claims
	ContextKeyClaims ContextKey = "claims"
	// ContextKeyUser stores the account the credential belongs to
	ContextKeyUser ContextKey = "user"
)

func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("request_id", r.Header.Get("X-Request-ID")).
			Dur("elapsed", time.Since(start)).
			Msg(fmt.Sprintf("[%-19s] %s %s", colourMethod(r.Method), r.URL.Path, colourStatus(ww.Status())))
	})
}

func (s *Server) RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequireAuth validates the Bearer access credential and admits only the given roles.
// A missing or invalid credential is a 401, which is what makes the client refresh;
// a valid credential with the wrong role is a 403.
func (s *Server) RequireAuth(next http.HandlerFunc, roles ...users.RoleType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		raw, ok := bearer(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Authorization header must contain two space-delimited values")
			return
		}

		claims, err := s.issuer.Verify(raw, token.TypeAccess)
		if err != nil {
			writeTokenError(w, "Given token not valid for any token type")
			return
		}

		// The account may have been deleted or deactivated since the credential was issued
		user, err := s.users.GetByID(claims.UserID)
		if err != nil || !user.IsActive() {
			writeTokenError(w, "User not found")
			return
		}
		if !slices.Contains(roles, user.Role) {
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
		ctx = context.WithValue(ctx, ContextKeyUser, user)
		next(w, r.WithContext(ctx))
	}
}

// bearer extracts the credential from a "Bearer <credential>" Authorization header.
func bearer(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func callerFrom(r *http.Request) *users.User {
	user, _ := r.Context().Value(ContextKeyUser).(*users.User)
	return user
}

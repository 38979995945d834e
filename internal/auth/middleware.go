package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/Shivanand-hulikatti/reunion/pkg/logger"
)

// Authenticate rejects requests without a valid bearer token and stores the
// caller identity in the request context.
func Authenticate(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				deny(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			userID, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.Log.Warn("unauthorized request", logger.String("url", r.RequestURI), logger.Error(err))
				deny(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := WithIdentity(r.Context(), model.Identity{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProfileChecker reports whether an account has completed its profile.
type ProfileChecker interface {
	HasProfile(ctx context.Context, userID string) (bool, error)
}

// RequireProfile lets through only callers with a completed profile.
func RequireProfile(profiles ProfileChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, ok := IdentityFrom(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			done, err := profiles.HasProfile(r.Context(), who.UserID)
			if err != nil {
				logger.Log.Error("profile check failed", logger.String("user_id", who.UserID), logger.Error(err))
				deny(w, http.StatusInternalServerError, "failed to check profile")
				return
			}
			if !done {
				deny(w, http.StatusForbidden, "profile not completed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/premiumgate/premiumgate/internal/auth"
	"github.com/premiumgate/premiumgate/internal/model"
)

const (
	// minAuthDuration is the minimum time to spend on auth to prevent timing attacks.
	minAuthDuration = 200 * time.Millisecond
)

// AdminKeyVerifier verifies presented admin keys.
type AdminKeyVerifier interface {
	Enabled() bool
	Verify(key string) (int, error)
}

// AdminAuthConfig holds configuration for the admin auth middleware.
type AdminAuthConfig struct {
	Logger   *slog.Logger
	Verifier AdminKeyVerifier
	// MinDuration pads every auth decision; zero means minAuthDuration.
	MinDuration time.Duration
}

// AdminAuth returns a middleware that authenticates admin requests against
// the configured Argon2id key hashes. With no hashes configured every request
// is rejected.
func AdminAuth(cfg AdminAuthConfig) func(http.Handler) http.Handler {
	minDuration := cfg.MinDuration
	if minDuration <= 0 {
		minDuration = minAuthDuration
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			pad := func() {
				if elapsed := time.Since(startTime); elapsed < minDuration {
					time.Sleep(minDuration - elapsed)
				}
			}

			fail := func(reason string) {
				cfg.Logger.Warn("admin authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				pad()
				writeAuthError(w)
			}

			if cfg.Verifier == nil || !cfg.Verifier.Enabled() {
				fail("admin_disabled")
				return
			}

			key := extractAdminKey(r)
			if key == "" {
				fail("missing_key")
				return
			}

			idx, err := cfg.Verifier.Verify(key)
			if err != nil {
				fail("invalid_key")
				return
			}

			admin := &model.AdminContext{KeyIndex: idx}
			if parsed, err := auth.ParseAdminKey(key); err == nil {
				admin.KeyPrefix = parsed.Prefix
			}

			cfg.Logger.Info("admin authentication successful",
				slog.Int("key_index", admin.KeyIndex),
				slog.String("key_prefix", admin.KeyPrefix),
				slog.String("ip", r.RemoteAddr),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			pad()
			next.ServeHTTP(w, r.WithContext(auth.ContextWithAdmin(r.Context(), admin)))
		})
	}
}

// extractAdminKey reads "Authorization: Bearer <key>" or "X-Admin-Key: <key>".
func extractAdminKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-Admin-Key"))
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing admin key"}}`))
}

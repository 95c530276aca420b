package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskhub/taskhub/internal/platform/httpx"
	"github.com/taskhub/taskhub/internal/shared"
)

// TokenCookie is the fallback transport when no Authorization header is set.
const TokenCookie = "taskhub_token"

// RequireAuth verifies the bearer token and stores the caller identity in
// the request context. Malformed, tampered, and expired tokens are logged
// with their distinct kind but all collapse to a single 401 outcome.
func RequireAuth(tokens *TokenIssuer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			identity, err := tokens.Verify(raw)
			if err != nil {
				if logger != nil {
					logger.Warn("token rejected", slog.Any("error", err), slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	// Scheme matching is case-insensitive per RFC 7235.
	const scheme = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
		if token := strings.TrimSpace(header[len(scheme):]); token != "" {
			return token
		}
	}
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

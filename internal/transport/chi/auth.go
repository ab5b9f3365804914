package chi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens and
// logs rejected requests. If apiKeys is empty, authentication is disabled
// (pass-through).
func BearerAuthMiddleware(apiKeys []string, logger *zap.Logger) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	reject := func(w http.ResponseWriter, r *http.Request, reason string) {
		logger.Warn("request rejected",
			zap.String("path", r.URL.Path),
			zap.String("ip", r.RemoteAddr),
			zap.String("reason", reason),
		)
		writeError(w, http.StatusUnauthorized, CodeBadRequest, reason)
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				reject(w, r, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				reject(w, r, "authorization header must use Bearer scheme")
				return
			}

			if _, ok := validKeys[auth[len(bearerPrefix):]]; !ok {
				reject(w, r, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

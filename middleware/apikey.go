package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/b0b-collective/provider-hub/utils"
	"go.uber.org/zap"
)

// APIKeyHeader is the header carrying the static gateway key.
const APIKeyHeader = "X-B0B-API-Key"

// RequireAPIKey guards routes with a static API key. When the configured key
// is empty the guard is disabled and all requests pass.
func RequireAPIKey(apiKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			supplied := r.Header.Get(APIKeyHeader)
			if supplied == "" {
				logger.Warn("missing API key",
					zap.String("request_id", GetRequestIDFromContext(r.Context())))
				_ = utils.WriteUnauthorized(w, "API key required")
				return
			}

			if subtle.ConstantTimeCompare([]byte(supplied), []byte(apiKey)) != 1 {
				logger.Warn("invalid API key",
					zap.String("request_id", GetRequestIDFromContext(r.Context())))
				_ = utils.WriteForbidden(w, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/wandering-ai/wecom-agent/pkg/cryptox"
	"github.com/wandering-ai/wecom-agent/pkg/slogx"
)

// APIKeyMiddleware requires "Authorization: Bearer <key>" where the key's
// fingerprint is in keys. The fingerprint is stored in the request context.
func APIKeyMiddleware(keys *cryptox.KeySet) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			fp, ok := keys.Match(raw)
			if !ok {
				slogx.FromContext(ctx).Warn("unknown api key presented")
				writeBearerError(w, "unknown api key")
				return
			}

			// Short prefix is enough to tell keys apart in logs.
			ctx = context.WithValue(ctx, CtxKeyAPIKey, fp)
			ctx = slogx.With(ctx, "api_key", fp[:8])
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc)
}

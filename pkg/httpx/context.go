package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/wandering-ai/wecom-agent/pkg/slogx"
)

type ctxKey string

// CtxKeyAPIKey holds the fingerprint of the relay key that authenticated
// the request.
const CtxKeyAPIKey ctxKey = "api_key_fingerprint"

// APIKeyFromContext returns the authenticated key fingerprint, if any.
func APIKeyFromContext(ctx context.Context) (string, bool) {
	fp, ok := ctx.Value(CtxKeyAPIKey).(string)
	return fp, ok && fp != ""
}

func loggerFrom(r *http.Request) *slog.Logger {
	return slogx.FromContext(r.Context())
}

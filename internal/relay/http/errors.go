package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/wandering-ai/wecom-agent/internal/relay/service"
	"github.com/wandering-ai/wecom-agent/pkg/httpx"
	"github.com/wandering-ai/wecom-agent/pkg/slogx"
	"github.com/wandering-ai/wecom-agent/pkg/wecom"
)

// writeAgentError maps errors from the agent and dispatcher onto HTTP
// statuses. Vendor rejections of a send never reach here; they are recorded
// deliveries.
func writeAgentError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var (
		rateLimited *wecom.RateLimitedError
		vendorErr   *wecom.VendorError
		transport   *wecom.TransportError
	)

	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.As(err, &rateLimited):
		secs := int(math.Ceil(rateLimited.RetryAfter().Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
		httpx.WriteError(w, http.StatusTooManyRequests, "token_rate_limited",
			"Access token was refreshed recently. Please try again later.")

	case errors.Is(err, wecom.ErrUninitialized):
		httpx.WriteError(w, http.StatusServiceUnavailable, "token_unavailable",
			"No access token has been obtained yet")

	case errors.As(err, &vendorErr):
		log.Error("vendor rejected token request", "errcode", vendorErr.Code, "errmsg", vendorErr.Message)
		httpx.WriteError(w, http.StatusBadGateway, "vendor_error", vendorErr.Error())

	case errors.As(err, &transport):
		log.Error("vendor unreachable", "op", transport.Op, "status", transport.StatusCode, "error", transport.Err)
		httpx.WriteError(w, http.StatusBadGateway, "upstream_unavailable", "WeCom API is unreachable")

	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(w, http.StatusGatewayTimeout, "timeout", "Request timed out")

	default:
		log.Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}

package http

import (
	"net/http"

	"github.com/wandering-ai/wecom-agent/internal/relay/service"
	"github.com/wandering-ai/wecom-agent/pkg/slogx"
)

type CredentialHandler struct {
	Agent service.CredentialSource
}

// ServeHTTP forces an access token refresh.
//
//	@Summary		Refresh the access token
//	@Description	Fetches a new access token now. Refused with 429 inside the refresh backoff.
//	@Tags			Credential
//	@Success		204	"Refreshed"
//	@Failure		401	{object}	httpx.ErrorResponse	"Missing or unknown API key"
//	@Failure		429	{object}	httpx.ErrorResponse	"Refreshed too recently"
//	@Failure		502	{object}	httpx.ErrorResponse	"WeCom unreachable or token refused"
//	@Security		BearerAuth
//	@Router			/v1/credential/refresh [post].
func (h *CredentialHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Agent.RefreshCredential(ctx, h.Agent.Backoff()); err != nil {
		writeAgentError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Info("access token refreshed on request",
		"expires_at", h.Agent.Credential().Snapshot().ExpiresAt())
	w.WriteHeader(http.StatusNoContent)
}

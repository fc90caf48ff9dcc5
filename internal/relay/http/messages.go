package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/wandering-ai/wecom-agent/internal/relay/domain"
	"github.com/wandering-ai/wecom-agent/internal/relay/service"
	"github.com/wandering-ai/wecom-agent/internal/relay/store"
	"github.com/wandering-ai/wecom-agent/pkg/httpx"
	"github.com/wandering-ai/wecom-agent/pkg/idx"
	"github.com/wandering-ai/wecom-agent/pkg/slogx"
)

// maxSendBody bounds POST /v1/messages. News and textcard bodies are the
// largest the vendor accepts and stay well under this.
const maxSendBody = 64 << 10

type MessagesHandler struct {
	DispatchService *service.DispatchService
}

// HandleSend sends a message as the relay's agent.
//
//	@Summary		Send a message
//	@Description	Builds an application message and sends it through WeCom, refreshing the access
//	@Description	token when needed. The vendor's verdict is recorded either way: a rejected message
//	@Description	returns 200 with status "rejected", an accepted one returns 202.
//	@Tags			Messages
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SendMessageRequest		true	"Message"
//	@Success		202		{object}	DeliveryResponse		"Accepted (sent or partial)"
//	@Success		200		{object}	DeliveryResponse		"Recorded but rejected by WeCom"
//	@Failure		400		{object}	httpx.ErrorResponse		"Invalid message"
//	@Failure		401		{object}	httpx.ErrorResponse		"Missing or unknown API key"
//	@Failure		429		{object}	httpx.ErrorResponse		"Rate limited"
//	@Failure		502		{object}	httpx.ErrorResponse		"WeCom unreachable or token refused"
//	@Failure		503		{object}	httpx.ErrorResponse		"No access token"
//	@Security		BearerAuth
//	@Router			/v1/messages [post].
func (h *MessagesHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SendMessageRequest
	if err := httpx.DecodeJSON(w, r, maxSendBody, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	apiKey, _ := httpx.APIKeyFromContext(ctx)
	d, err := h.DispatchService.Dispatch(ctx, apiKey, req.toService())
	if err != nil {
		writeAgentError(w, r, err)
		return
	}

	code := http.StatusAccepted
	if d.Status == domain.DeliveryStatusRejected {
		code = http.StatusOK
	}
	httpx.WriteJSON(w, code, toDeliveryResponse(d))
}

// HandleGet returns one delivery.
//
//	@Summary		Get a delivery
//	@Tags			Messages
//	@Produce		json
//	@Param			id	path		string				true	"Delivery ID"
//	@Success		200	{object}	DeliveryResponse
//	@Failure		400	{object}	httpx.ErrorResponse	"Malformed ID"
//	@Failure		401	{object}	httpx.ErrorResponse	"Missing or unknown API key"
//	@Failure		404	{object}	httpx.ErrorResponse	"Not found"
//	@Security		BearerAuth
//	@Router			/v1/messages/{id} [get].
func (h *MessagesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed delivery id")
		return
	}

	d, err := h.DispatchService.GetDelivery(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Delivery not found")
		return
	}
	if err != nil {
		slogx.FromContext(ctx).Error("failed to load delivery", "id", id, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to load delivery")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toDeliveryResponse(d))
}

// HandleList pages through the ledger.
//
//	@Summary		List deliveries
//	@Description	Newest first. Pass next_before from the previous page as before to continue.
//	@Tags			Messages
//	@Produce		json
//	@Param			limit	query		int		false	"Page size (default 50, max 500)"
//	@Param			before	query		string	false	"Return deliveries older than this ID"
//	@Success		200		{object}	ListDeliveriesResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Bad query"
//	@Failure		401		{object}	httpx.ErrorResponse	"Missing or unknown API key"
//	@Security		BearerAuth
//	@Router			/v1/messages [get].
func (h *MessagesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit := store.DefaultListLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > store.MaxListLimit {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
				"limit must be between 1 and "+strconv.Itoa(store.MaxListLimit))
			return
		}
		limit = n
	}

	var before idx.ID
	if s := q.Get("before"); s != "" {
		id, err := idx.Parse(s)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed before cursor")
			return
		}
		before = id
	}

	list, err := h.DispatchService.ListDeliveries(ctx, limit, before)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list deliveries", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to list deliveries")
		return
	}

	resp := ListDeliveriesResponse{Deliveries: make([]DeliveryResponse, len(list))}
	for i, d := range list {
		resp.Deliveries[i] = toDeliveryResponse(d)
	}
	if len(list) == limit {
		resp.NextBefore = list[len(list)-1].ID.String()
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

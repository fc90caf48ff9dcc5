package wecom

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/wandering-ai/wecom-agent/pkg/slogx"
)

// sendState is a step of a single Send call.
type sendState int

const (
	stateCheckFresh sendState = iota
	stateRefresh
	stateSend
	stateRefreshForced
	stateSendRetry
	stateDone
)

func (s sendState) String() string {
	switch s {
	case stateCheckFresh:
		return "check_fresh"
	case stateRefresh:
		return "refresh"
	case stateSend:
		return "send"
	case stateRefreshForced:
		return "refresh_forced"
	case stateSendRetry:
		return "send_retry"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Send posts payload to /message/send.
//
// The token is refreshed first when it is missing, expired, or inside the
// proactive window. If the vendor answers CodeInvalidCredential the token is
// refreshed once more and the POST retried exactly once. Any other errcode is
// returned in the outcome, not as an error. Transport failures end the call.
func (a *Agent) Send(ctx context.Context, payload any) (*SendOutcome, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Op: "encode message", Err: err}
	}

	log := slogx.FromContext(ctx)

	var (
		outcome  *SendOutcome
		used     string
		attempts int
	)

	state := stateCheckFresh
	for state != stateDone {
		switch state {
		case stateCheckFresh:
			state = stateSend
			if a.cache.needsRefresh(a.proactiveWindow) {
				state = stateRefresh
			}

		case stateRefresh:
			if err := a.refreshForSend(ctx, ""); err != nil {
				return nil, err
			}
			state = stateSend

		case stateRefreshForced:
			log.Warn("access token rejected by vendor, forcing refresh", "errcode", outcome.ErrCode)
			if err := a.refreshForSend(ctx, used); err != nil {
				return nil, err
			}
			state = stateSendRetry

		case stateSend, stateSendRetry:
			token, ok := a.cache.Value()
			if !ok {
				return nil, ErrUninitialized
			}

			attempts++
			outcome, err = a.postMessage(ctx, token, body)
			if err != nil {
				return nil, err
			}
			used = token

			if state == stateSend && outcome.ErrCode == CodeInvalidCredential {
				state = stateRefreshForced
			} else {
				state = stateDone
			}
		}
	}

	outcome.Attempts = attempts
	if !outcome.OK() {
		log.Info("message rejected by vendor",
			"errcode", outcome.ErrCode,
			"errmsg", outcome.ErrMsg,
			"attempts", attempts,
		)
	} else {
		log.Debug("message sent", "msgid", outcome.MsgID, "attempts", attempts)
	}

	return outcome, nil
}

// refreshForSend refreshes with the agent's backoff. A rate-limited refresh is
// accepted when another caller has meanwhile installed a usable token that is
// not stale.
func (a *Agent) refreshForSend(ctx context.Context, stale string) error {
	err := a.cache.Refresh(ctx, a.backoff)
	if err == nil || !IsRateLimited(err) {
		return err
	}

	if token, ok := a.cache.usableValue(); ok && token != stale {
		slogx.FromContext(ctx).Debug("refresh rate limited, using token installed by another caller")
		return nil
	}
	return err
}

// postMessage makes one POST /message/send with token.
func (a *Agent) postMessage(ctx context.Context, token string, body []byte) (*SendOutcome, error) {
	const op = "send message"

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
	}

	resp, err := a.doRequest(ctx, http.MethodPost,
		"/message/send?access_token="+url.QueryEscape(token),
		bytes.NewReader(body),
		map[string]string{"Content-Type": "application/json"},
	)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	var outcome SendOutcome
	if err := decodeJSON(op, resp, &outcome); err != nil {
		return nil, err
	}

	return &outcome, nil
}

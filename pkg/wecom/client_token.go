package wecom

import (
	"context"
	"net/http"
	"net/url"
)

// fetchToken calls GET /gettoken. The errcode is left for the cache to judge.
func (a *Agent) fetchToken(ctx context.Context) (*TokenResponse, error) {
	const op = "fetch token"

	q := url.Values{}
	q.Set("corpid", a.corpID)
	q.Set("corpsecret", a.secret)

	resp, err := a.doRequest(ctx, http.MethodGet, "/gettoken?"+q.Encode(), nil, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	var tokenResp TokenResponse
	if err := decodeJSON(op, resp, &tokenResp); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}

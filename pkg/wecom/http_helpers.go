package wecom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// maxResponseBytes bounds how much of a vendor response is read.
const maxResponseBytes = 1 << 20

// secretParams are query parameters that must never appear in errors or logs.
var secretParams = []string{"corpsecret", "access_token"}

// url builds a complete URL by appending the path to the base URL.
func (a *Agent) url(path string) string {
	return a.BaseURL + path
}

// doRequest performs an HTTP request with the agent's HTTP client. Errors
// from the client have credentials stripped from the embedded URL.
func (a *Agent) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", redactErr(err))
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", redactErr(err))
	}

	return resp, nil
}

// decodeJSON reads a 200 response into target. Anything else becomes a
// *TransportError tagged with op.
func decodeJSON(op string, resp *http.Response, target any) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("body: %.200s", bodyBytes),
		}
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

func redactErr(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = redactURL(ue.URL)
	}
	return err
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}

	q := u.Query()
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

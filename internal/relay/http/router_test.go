package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wandering-ai/wecom-agent/internal/relay/publisher"
	"github.com/wandering-ai/wecom-agent/internal/relay/service"
	"github.com/wandering-ai/wecom-agent/internal/relay/store/drivers/sqlite"
	"github.com/wandering-ai/wecom-agent/pkg/cryptox"
	"github.com/wandering-ai/wecom-agent/pkg/httpx"
	"github.com/wandering-ai/wecom-agent/pkg/slogx"
	"github.com/wandering-ai/wecom-agent/pkg/wecom"
)

// vendorStub answers gettoken with tokenBody and message/send with sendBody.
type vendorStub struct {
	tokenBody string
	sendBody  string

	tokenCalls atomic.Int32
	sendCalls  atomic.Int32
}

func (v *vendorStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/cgi-bin/gettoken":
		v.tokenCalls.Add(1)
		_, _ = w.Write([]byte(v.tokenBody))
	case "/cgi-bin/message/send":
		v.sendCalls.Add(1)
		_, _ = w.Write([]byte(v.sendBody))
	default:
		http.NotFound(w, r)
	}
}

type testRelay struct {
	router *Router
	vendor *vendorStub
	agent  *wecom.Agent
	key    string
}

func newTestRelay(t *testing.T, vendor *vendorStub) *testRelay {
	t.Helper()

	if vendor.tokenBody == "" {
		vendor.tokenBody = `{"errcode":0,"errmsg":"ok","access_token":"T1","expires_in":7200}`
	}
	if vendor.sendBody == "" {
		vendor.sendBody = `{"errcode":0,"errmsg":"ok","msgid":"m-1"}`
	}
	srv := httptest.NewServer(vendor)
	t.Cleanup(srv.Close)

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	key, fp, err := cryptox.GenerateAPIKey()
	require.NoError(t, err)

	agent := wecom.NewAgent("corp", "secret", wecom.WithBaseURL(srv.URL+"/cgi-bin"))

	router := NewRouter(cryptox.NewKeySet(fp), "test", st, agent, slogx.Discard())
	router.DispatchService = service.NewDispatchService(agent, st, publisher.NewNopPublisher(), 1000002)
	router.ApplyRoutes()

	return &testRelay{router: router, vendor: vendor, agent: agent, key: key}
}

func (tr *testRelay) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+tr.key)
	}

	rec := httptest.NewRecorder()
	tr.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const textMessage = `{"to_users":["robin","tom"],"msgtype":"text","content":{"content":"deploy finished"}}`

func TestLivez(t *testing.T) {
	tr := newTestRelay(t, &vendorStub{})

	rec := tr.do(t, http.MethodGet, "/livez", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[HealthResponse](t, rec).Status)
	require.NotEmpty(t, rec.Header().Get(slogx.RequestIDHeader))
}

func TestReadyz_RequiresToken(t *testing.T) {
	tr := newTestRelay(t, &vendorStub{})

	rec := tr.do(t, http.MethodGet, "/readyz", "", false)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode[HealthResponse](t, rec)
	require.Equal(t, "degraded", resp.Status)
	require.Equal(t, "ok", resp.Checks.Database)

	rec = tr.do(t, http.MethodPost, "/v1/credential/refresh", "", true)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = tr.do(t, http.MethodGet, "/readyz", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	tr := newTestRelay(t, &vendorStub{})

	for _, path := range []string{"/v1/messages", "/v1/credential/refresh"} {
		rec := tr.do(t, http.MethodPost, path, textMessage, false)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
	req.Header.Set("Authorization", "Bearer wcr_not-a-real-key")
	rec := httptest.NewRecorder()
	tr.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_token", decode[httpx.ErrorResponse](t, rec).Error)

	require.Zero(t, tr.vendor.tokenCalls.Load())
}

func TestSendAndRead(t *testing.T) {
	tr := newTestRelay(t, &vendorStub{})

	rec := tr.do(t, http.MethodPost, "/v1/messages", textMessage, true)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	sent := decode[DeliveryResponse](t, rec)
	require.Equal(t, "sent", sent.Status)
	require.Equal(t, "robin|tom", sent.ToUser)
	require.Equal(t, "m-1", sent.MsgID)
	require.Equal(t, 1, sent.Attempts)
	require.Equal(t, int64(1000002), sent.AgentID)

	rec = tr.do(t, http.MethodGet, "/v1/messages/"+sent.ID, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, sent, decode[DeliveryResponse](t, rec))

	rec = tr.do(t, http.MethodGet, "/v1/messages", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ListDeliveriesResponse](t, rec)
	require.Len(t, list.Deliveries, 1)
	require.Empty(t, list.NextBefore)

	require.Equal(t, int32(1), tr.vendor.tokenCalls.Load())
	require.Equal(t, int32(1), tr.vendor.sendCalls.Load())
}

func TestListPagination(t *testing.T) {
	tr := newTestRelay(t, &vendorStub{})

	for range 3 {
		rec := tr.do(t, http.MethodPost, "/v1/messages", textMessage, true)
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	rec := tr.do(t, http.MethodGet, "/v1/messages?limit=2", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[ListDeliveriesResponse](t, rec)
	require.Len(t, page.Deliveries, 2)
	require.Equal(t, page.Deliveries[1].ID, page.NextBefore)

	rec = tr.do(t, http.MethodGet, "/v1/messages?limit=2&before="+page.NextBefore, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[ListDeliveriesResponse](t, rec)
	require.Len(t, page.Deliveries, 1)
	require.Empty(t, page.NextBefore)
}

func TestSend_RejectedIsRecorded(t *testing.T) {
	tr := newTestRelay(t, &vendorStub{
		sendBody: `{"errcode":81013,"errmsg":"user & party & tag all invalid","invaliduser":"robin|tom"}`,
	})

	rec := tr.do(t, http.MethodPost, "/v1/messages", textMessage, true)
	require.Equal(t, http.StatusOK, rec.Code)

	d := decode[DeliveryResponse](t, rec)
	require.Equal(t, "rejected", d.Status)
	require.Equal(t, int64(81013), d.ErrCode)
	require.Equal(t, "robin|tom", d.InvalidUser)
}

func TestSend_Errors(t *testing.T) {
	tests := []struct {
		name     string
		vendor   *vendorStub
		body     string
		wantCode int
		wantErr  string
	}{
		{
			name:     "malformed json",
			vendor:   &vendorStub{},
			body:     `{"to_users":`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_request",
		},
		{
			name:     "unknown field",
			vendor:   &vendorStub{},
			body:     `{"to_users":["robin"],"msgtype":"text","content":{"content":"hi"},"priority":1}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_request",
		},
		{
			name:     "unknown msgtype",
			vendor:   &vendorStub{},
			body:     `{"to_users":["robin"],"msgtype":"sticker","content":{}}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_request",
		},
		{
			name:     "no recipients",
			vendor:   &vendorStub{},
			body:     `{"msgtype":"text","content":{"content":"hi"}}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_request",
		},
		{
			name:     "token refused",
			vendor:   &vendorStub{tokenBody: `{"errcode":40001,"errmsg":"invalid credential"}`},
			body:     textMessage,
			wantCode: http.StatusBadGateway,
			wantErr:  "vendor_error",
		},
		{
			name:     "vendor down",
			vendor:   &vendorStub{tokenBody: `<html>bad gateway</html>`},
			body:     textMessage,
			wantCode: http.StatusBadGateway,
			wantErr:  "upstream_unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRelay(t, tt.vendor)

			rec := tr.do(t, http.MethodPost, "/v1/messages", tt.body, true)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			require.Equal(t, tt.wantErr, decode[httpx.ErrorResponse](t, rec).Error)
			require.Zero(t, tr.vendor.sendCalls.Load())
			require.NotContains(t, rec.Body.String(), "secret")
		})
	}
}

func TestCredentialRefresh_Backoff(t *testing.T) {
	tr := newTestRelay(t, &vendorStub{})

	rec := tr.do(t, http.MethodPost, "/v1/credential/refresh", "", true)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = tr.do(t, http.MethodPost, "/v1/credential/refresh", "", true)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "token_rate_limited", decode[httpx.ErrorResponse](t, rec).Error)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	require.Equal(t, int32(1), tr.vendor.tokenCalls.Load())
}

func TestGetDelivery_Errors(t *testing.T) {
	tr := newTestRelay(t, &vendorStub{})

	rec := tr.do(t, http.MethodGet, "/v1/messages/not-an-id", "", true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = tr.do(t, http.MethodGet, "/v1/messages/01HZY3G8W1T6Q0W5N3V0J8K2XA", "", true)
	require.Equal(t, http.StatusNotFound, rec.Code)

	for _, q := range []string{"limit=0", "limit=501", "limit=x", "before=nope"} {
		rec = tr.do(t, http.MethodGet, "/v1/messages?"+q, "", true)
		require.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wandering-ai/wecom-agent/internal/relay/publisher"
)

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{Port: 8080})
	require.ErrorContains(t, err, "invalid configuration")
}

func TestNew_WiresRouter(t *testing.T) {
	cfg := Config{
		CorpID:       "ww1234",
		Secret:       "s3cr3t",
		AgentID:      1000002,
		BaseURL:      "http://127.0.0.1:1",
		APIKeys:      []string{testFingerprint},
		DatabaseFile: filepath.Join(t.TempDir(), "relay.db"),
		Port:         8080,
		LogLevel:     "error",
	}

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	require.IsType(t, &publisher.NopPublisher{}, app.publisher)

	rec := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/messages", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

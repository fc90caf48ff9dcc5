package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wandering-ai/wecom-agent/internal/profile"
	"github.com/wandering-ai/wecom-agent/pkg/cryptox"
	"github.com/wandering-ai/wecom-agent/pkg/wecom/message"
)

const testToken = "tok-abcdefghijklmnop"

type stubVendor struct {
	srv *httptest.Server

	mu       sync.Mutex
	secrets  []string
	messages []message.Message
	sendBody string
}

func newStubVendor(t *testing.T) *stubVendor {
	t.Helper()

	v := &stubVendor{sendBody: `{"errcode":0,"errmsg":"ok","msgid":"m-42"}`}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cgi-bin/gettoken", func(w http.ResponseWriter, r *http.Request) {
		v.mu.Lock()
		v.secrets = append(v.secrets, r.URL.Query().Get("corpsecret"))
		v.mu.Unlock()

		if r.URL.Query().Get("corpsecret") != "s3cr3t" {
			_, _ = io.WriteString(w, `{"errcode":40001,"errmsg":"invalid credential"}`)
			return
		}
		_, _ = io.WriteString(w, `{"errcode":0,"errmsg":"ok","access_token":"`+testToken+`","expires_in":7200}`)
	})
	mux.HandleFunc("POST /cgi-bin/message/send", func(w http.ResponseWriter, r *http.Request) {
		var m message.Message
		_ = json.NewDecoder(r.Body).Decode(&m)

		v.mu.Lock()
		v.messages = append(v.messages, m)
		body := v.sendBody
		v.mu.Unlock()

		_, _ = io.WriteString(w, body)
	})
	v.srv = httptest.NewServer(mux)
	t.Cleanup(v.srv.Close)

	return v
}

func (v *stubVendor) baseURL() string { return v.srv.URL + "/cgi-bin" }

// run executes the CLI with a private config dir and clean environment.
func run(t *testing.T, dir, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config-dir", dir}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{profile.EnvCorpID, profile.EnvSecret, profile.EnvAgentID, profile.EnvBaseURL} {
		t.Setenv(k, "")
	}
}

func login(t *testing.T, v *stubVendor, dir string) {
	t.Helper()

	_, _, err := run(t, dir, "ww1234\n1000002\ns3cr3t\n", "login", "--base-url", v.baseURL())
	require.NoError(t, err)
}

func TestLogin_PromptsAndVerifies(t *testing.T) {
	clearEnv(t)
	v := newStubVendor(t)
	dir := t.TempDir()

	out, _, err := run(t, dir, "ww1234\n1000002\ns3cr3t\n", "login", "--base-url", v.baseURL())
	require.NoError(t, err)
	require.Contains(t, out, `Stored profile "default"`)
	require.NotContains(t, out, "s3cr3t")

	mgr, err := profile.NewManager(dir)
	require.NoError(t, err)
	p, err := mgr.Get("")
	require.NoError(t, err)
	require.Equal(t, profile.Profile{CorpID: "ww1234", AgentID: 1000002, Secret: "s3cr3t", BaseURL: v.baseURL()}, p)
}

func TestLogin_BadSecretIsNotStored(t *testing.T) {
	clearEnv(t)
	v := newStubVendor(t)
	dir := t.TempDir()

	_, _, err := run(t, dir, "wrong\n", "login", "--corp-id", "ww1234", "--agent-id", "7", "--base-url", v.baseURL())
	require.ErrorContains(t, err, "verifying credentials")

	mgr, err := profile.NewManager(dir)
	require.NoError(t, err)
	names, err := mgr.List()
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestLogin_NoVerify(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, _, err := run(t, dir, "s3cr3t\n", "login", "-p", "ops", "--corp-id", "ww1", "--agent-id", "3", "--no-verify")
	require.NoError(t, err)

	_, _, err = run(t, dir, "", "login", "--corp-id", "ww1", "--agent-id", "3", "--no-verify")
	require.ErrorContains(t, err, "Secret")
}

func TestSend_Text(t *testing.T) {
	clearEnv(t)
	v := newStubVendor(t)
	dir := t.TempDir()
	login(t, v, dir)

	out, _, err := run(t, dir, "", "send", "--to-user", "robin,tom", "deploy", "finished")
	require.NoError(t, err)
	require.Equal(t, "sent msgid=m-42\n", out)

	require.Len(t, v.messages, 1)
	m := v.messages[0]
	require.Equal(t, "robin|tom", m.ToUser)
	require.Equal(t, message.TypeText, m.MsgType)
	require.Equal(t, int64(1000002), m.AgentID)
	require.Equal(t, "deploy finished", m.Text.Content)
}

func TestSend_MarkdownFromStdin(t *testing.T) {
	clearEnv(t)
	v := newStubVendor(t)
	dir := t.TempDir()
	login(t, v, dir)

	_, _, err := run(t, dir, "# Release\n- shipped\n", "send", "--to-party", "2", "--type", "markdown")
	require.NoError(t, err)

	require.Len(t, v.messages, 1)
	require.Equal(t, "2", v.messages[0].ToParty)
	require.Equal(t, "# Release\n- shipped", v.messages[0].Markdown.Content)
}

func TestSend_PartialAndRejected(t *testing.T) {
	clearEnv(t)
	v := newStubVendor(t)
	dir := t.TempDir()
	login(t, v, dir)

	v.sendBody = `{"errcode":0,"errmsg":"ok","invaliduser":"ghost","msgid":"m-43"}`
	_, stderr, err := run(t, dir, "", "send", "--to-user", "robin,ghost", "hi")
	require.NoError(t, err)
	require.Contains(t, stderr, "rejected users: ghost")

	v.sendBody = `{"errcode":81013,"errmsg":"user & party & tag all invalid"}`
	_, _, err = run(t, dir, "", "send", "--to-user", "ghost", "hi")
	require.ErrorContains(t, err, "errcode=81013")
}

func TestSend_InvalidInput(t *testing.T) {
	clearEnv(t)
	v := newStubVendor(t)
	dir := t.TempDir()
	login(t, v, dir)

	tests := []struct {
		name string
		args []string
	}{
		{"no recipients", []string{"send", "hi"}},
		{"unknown type", []string{"send", "--to-user", "robin", "--type", "sticker", "hi"}},
		{"textcard without url", []string{"send", "--to-user", "robin", "--type", "textcard", "--title", "x", "body"}},
		{"image without media", []string{"send", "--to-user", "robin", "--type", "image"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, dir, "", tt.args...)
			require.Error(t, err)
		})
	}
	require.Empty(t, v.messages)
}

func TestSend_EnvOverridesProfile(t *testing.T) {
	clearEnv(t)
	v := newStubVendor(t)
	dir := t.TempDir()

	t.Setenv(profile.EnvCorpID, "ww1234")
	t.Setenv(profile.EnvSecret, "s3cr3t")
	t.Setenv(profile.EnvAgentID, "9")
	t.Setenv(profile.EnvBaseURL, v.baseURL())

	_, _, err := run(t, dir, "", "send", "--to-user", "robin", "hi")
	require.NoError(t, err)
	require.Equal(t, int64(9), v.messages[0].AgentID)
}

func TestToken_Masked(t *testing.T) {
	clearEnv(t)
	v := newStubVendor(t)
	dir := t.TempDir()
	login(t, v, dir)

	out, _, err := run(t, dir, "", "token")
	require.NoError(t, err)
	require.Contains(t, out, cryptox.MaskToken(testToken))
	require.NotContains(t, out, testToken)

	out, _, err = run(t, dir, "", "token", "--show")
	require.NoError(t, err)
	require.Contains(t, out, testToken)
}

func TestLogout(t *testing.T) {
	clearEnv(t)
	v := newStubVendor(t)
	dir := t.TempDir()
	login(t, v, dir)

	_, _, err := run(t, dir, "", "logout")
	require.NoError(t, err)

	_, _, err = run(t, dir, "", "token")
	require.ErrorIs(t, err, profile.ErrNotFound)

	_, _, err = run(t, dir, "", "logout")
	require.ErrorIs(t, err, profile.ErrNotFound)
}

func TestKeygen(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "", "keygen")
	require.NoError(t, err)

	var key, fp string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		k, v, ok := strings.Cut(line, ":")
		require.True(t, ok)
		switch k {
		case "key":
			key = strings.TrimSpace(v)
		case "fingerprint":
			fp = strings.TrimSpace(v)
		}
	}

	require.True(t, strings.HasPrefix(key, cryptox.APIKeyPrefix))
	require.Equal(t, cryptox.FingerprintToken(key), fp)
}

package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	// Keep the host environment from leaking into Resolve.
	for _, k := range []string{EnvCorpID, EnvSecret, EnvAgentID, EnvBaseURL} {
		t.Setenv(k, "")
	}

	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	return m
}

var testProfile = Profile{CorpID: "ww1234", AgentID: 1000002, Secret: "s3cr3t"}

func TestManager_LoadMissingFile(t *testing.T) {
	m := newTestManager(t)

	f, err := m.Load()
	require.NoError(t, err)
	require.Empty(t, f.Profiles)

	_, err = m.Get("")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestManager_SetWritesOwnerOnlyFile(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, os.WriteFile(m.Path(), []byte("version = 0\n"), 0o644))
	require.NoError(t, m.Set("prod", testProfile))

	info, err := os.Stat(m.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := m.Get("prod")
	require.NoError(t, err)
	require.Equal(t, testProfile, got)

	// Set makes the profile current.
	got, err = m.Get("")
	require.NoError(t, err)
	require.Equal(t, testProfile, got)
}

func TestManager_LoadsHandWrittenFile(t *testing.T) {
	m := newTestManager(t)

	data := `version = 0
current = "ops"

[profiles.ops]
corp_id = "ww9"
agent_id = 42
secret = "abc"
base_url = "https://wecom.internal/cgi-bin"
`
	require.NoError(t, os.WriteFile(m.Path(), []byte(data), 0o600))

	got, err := m.Get("")
	require.NoError(t, err)
	require.Equal(t, Profile{CorpID: "ww9", AgentID: 42, Secret: "abc", BaseURL: "https://wecom.internal/cgi-bin"}, got)
}

func TestManager_Remove(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Set("a", testProfile))
	require.NoError(t, m.Set("b", testProfile))

	names, err := m.List()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, m.Remove(""))
	f, err := m.Load()
	require.NoError(t, err)
	require.Empty(t, f.Current)
	require.Contains(t, f.Profiles, "a")

	require.ErrorIs(t, m.Remove("b"), ErrNotFound)
}

func TestManager_Resolve(t *testing.T) {
	t.Run("stored profile", func(t *testing.T) {
		m := newTestManager(t)
		require.NoError(t, m.Set(DefaultName, testProfile))

		got, err := m.Resolve("")
		require.NoError(t, err)
		require.Equal(t, testProfile, got)
	})

	t.Run("env overrides stored values", func(t *testing.T) {
		m := newTestManager(t)
		require.NoError(t, m.Set(DefaultName, testProfile))
		t.Setenv(EnvSecret, "rotated")
		t.Setenv(EnvAgentID, "7")

		got, err := m.Resolve("")
		require.NoError(t, err)
		require.Equal(t, "rotated", got.Secret)
		require.Equal(t, int64(7), got.AgentID)
		require.Equal(t, "ww1234", got.CorpID)
	})

	t.Run("env alone is enough", func(t *testing.T) {
		m := newTestManager(t)
		t.Setenv(EnvCorpID, "ww5")
		t.Setenv(EnvSecret, "x")

		got, err := m.Resolve("missing")
		require.NoError(t, err)
		require.Equal(t, "ww5", got.CorpID)
	})

	t.Run("missing profile", func(t *testing.T) {
		m := newTestManager(t)

		_, err := m.Resolve("missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("incomplete profile", func(t *testing.T) {
		m := newTestManager(t)
		require.NoError(t, m.Set(DefaultName, Profile{CorpID: "ww1"}))

		_, err := m.Resolve("")
		require.ErrorIs(t, err, ErrIncomplete)
	})

	t.Run("bad agent id", func(t *testing.T) {
		m := newTestManager(t)
		t.Setenv(EnvAgentID, "seven")

		_, err := m.Resolve("")
		require.ErrorContains(t, err, EnvAgentID)
	})
}

func TestNewManager_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".wecom")

	m, err := NewManager(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "profiles.toml"), m.Path())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

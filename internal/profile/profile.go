// Package profile stores WeCom application credentials for the wecom CLI in
// a TOML file readable only by its owner.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/BurntSushi/toml"
)

const (
	profilesFile = "profiles.toml"
	dirName      = ".wecom"

	currentVersion = 0

	// DefaultName is used when no profile is named on the command line.
	DefaultName = "default"
)

// Environment variables that override the stored profile.
const (
	EnvCorpID  = "WECOM_CORP_ID"
	EnvSecret  = "WECOM_SECRET"
	EnvAgentID = "WECOM_AGENT_ID"
	EnvBaseURL = "WECOM_BASE_URL"
)

var (
	ErrNotFound   = errors.New("profile not found")
	ErrIncomplete = errors.New("profile is incomplete")
)

// Manager reads and writes profiles.toml.
type Manager struct {
	targetPath string
}

// NewManager uses dir when non-empty, otherwise ~/.wecom. The directory is
// created with 0700 permissions if missing.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home dir: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating profile dir: %w", err)
	}

	return &Manager{targetPath: filepath.Join(dir, profilesFile)}, nil
}

// Path returns the resolved profiles file.
func (m *Manager) Path() string {
	return m.targetPath
}

// Load reads the profiles file. A missing file yields an empty File.
func (m *Manager) Load() (*File, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &File{Version: currentVersion, Profiles: make(map[string]Profile)}, nil
		}
		return nil, fmt.Errorf("reading profiles: %w", err)
	}

	f := &File{}
	if err := toml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing profiles: %w", err)
	}
	if f.Profiles == nil {
		f.Profiles = make(map[string]Profile)
	}

	return f, nil
}

// Save writes f with 0600 permissions.
func (m *Manager) Save(f *File) error {
	if f == nil {
		return errors.New("cannot save nil profiles")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return fmt.Errorf("encoding profiles: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing profiles: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(m.targetPath, 0o600); err != nil {
		return fmt.Errorf("securing profiles: %w", err)
	}

	return nil
}

// Set stores p under name and makes it the current profile.
func (m *Manager) Set(name string, p Profile) error {
	if name == "" {
		name = DefaultName
	}

	f, err := m.Load()
	if err != nil {
		return err
	}

	f.Profiles[name] = p
	f.Current = name

	return m.Save(f)
}

// Get returns the named profile, or the current one when name is empty.
func (m *Manager) Get(name string) (Profile, error) {
	f, err := m.Load()
	if err != nil {
		return Profile{}, err
	}

	name = f.resolveName(name)
	p, ok := f.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	return p, nil
}

// Remove deletes the named profile. Removing the current profile clears it.
func (m *Manager) Remove(name string) error {
	f, err := m.Load()
	if err != nil {
		return err
	}

	name = f.resolveName(name)
	if _, ok := f.Profiles[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	delete(f.Profiles, name)
	if f.Current == name {
		f.Current = ""
	}

	return m.Save(f)
}

// List returns stored profile names, sorted.
func (m *Manager) List() ([]string, error) {
	f, err := m.Load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(f.Profiles))
	for name := range f.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// Resolve loads the named profile and applies environment overrides. A
// profile that does not exist on disk is fine as long as the environment
// supplies the corp id and secret.
func (m *Manager) Resolve(name string) (Profile, error) {
	p, err := m.Get(name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}

	p, envErr := applyEnv(p)
	if envErr != nil {
		return Profile{}, envErr
	}

	if p.CorpID == "" || p.Secret == "" {
		if err != nil {
			return Profile{}, err
		}
		return Profile{}, fmt.Errorf("%w: corp id and secret are required", ErrIncomplete)
	}

	return p, nil
}

func (f *File) resolveName(name string) string {
	switch {
	case name != "":
		return name
	case f.Current != "":
		return f.Current
	default:
		return DefaultName
	}
}

func applyEnv(p Profile) (Profile, error) {
	if v := os.Getenv(EnvCorpID); v != "" {
		p.CorpID = v
	}
	if v := os.Getenv(EnvSecret); v != "" {
		p.Secret = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		p.BaseURL = v
	}
	if v := os.Getenv(EnvAgentID); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Profile{}, fmt.Errorf("%s: %w", EnvAgentID, err)
		}
		p.AgentID = id
	}
	return p, nil
}

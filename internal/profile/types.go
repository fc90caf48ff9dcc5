package profile

// File is the on-disk layout of profiles.toml.
type File struct {
	Version  int                `toml:"version"`
	Current  string             `toml:"current,omitempty"`
	Profiles map[string]Profile `toml:"profiles"`
}

// Profile is one WeCom application the CLI can act as.
type Profile struct {
	CorpID  string `toml:"corp_id"`
	AgentID int64  `toml:"agent_id"`
	Secret  string `toml:"secret"`
	BaseURL string `toml:"base_url,omitempty"`
}

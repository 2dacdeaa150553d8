package config

// Config is the root configuration for irccord.
type Config struct {
	Discord DiscordConfig `yaml:"discord,omitempty"`
	Bridge  BridgeConfig  `yaml:"bridge,omitempty"`
	Console ConsoleConfig `yaml:"console,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Journal JournalConfig `yaml:"journal,omitempty"`
}

// DiscordConfig holds the remote session settings.
type DiscordConfig struct {
	Token         string `yaml:"token,omitempty"` // bot token, "Bot " prefix optional
	StatelessMode bool   `yaml:"statelessMode,omitempty"`
}

// BridgeConfig controls the connection facade.
type BridgeConfig struct {
	Nick           string   `yaml:"nick,omitempty"` // reported before the session is ready
	Persist        *bool    `yaml:"persist,omitempty"`
	ReconnectDelay int      `yaml:"reconnectDelay,omitempty"` // seconds
	Caps           []string `yaml:"caps,omitempty"`
	LegacyTrailing bool     `yaml:"legacyTrailing,omitempty"`
}

// ConsoleConfig controls the stdio client.
type ConsoleConfig struct {
	Style string `yaml:"style,omitempty"` // "raw" | "pretty"
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// JournalConfig controls the relay journal.
type JournalConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// PersistEnabled reports whether the bridge reconnects after a drop.
func (c BridgeConfig) PersistEnabled() bool {
	return c.Persist == nil || *c.Persist
}

// IsEnabled reports whether the journal is recorded.
func (c JournalConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

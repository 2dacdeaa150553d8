package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// DefaultNick is reported as the current nick until the session is ready.
const DefaultNick = "irccord"

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Bridge: BridgeConfig{
			Nick:           DefaultNick,
			ReconnectDelay: 5,
		},
		Console: ConsoleConfig{
			Style: "raw",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}

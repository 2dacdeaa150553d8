package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// knownCaps are the capabilities the bridge can negotiate.
var knownCaps = []string{"account-tag", "message-tags", "server-time", "echo-message"}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Discord validation
	token := strings.TrimSpace(cfg.Discord.Token)
	switch {
	case token == "":
		issues = append(issues, ValidationIssue{
			Path:    "discord.token",
			Message: "token is required",
		})
	case envVarPattern.MatchString(token):
		issues = append(issues, ValidationIssue{
			Path:    "discord.token",
			Message: fmt.Sprintf("unexpanded environment reference %q", token),
		})
	}

	// Bridge validation
	if cfg.Bridge.ReconnectDelay < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "bridge.reconnectDelay",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Bridge.ReconnectDelay),
		})
	}
	for i, c := range cfg.Bridge.Caps {
		if !slices.Contains(knownCaps, c) {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("bridge.caps[%d]", i),
				Message: fmt.Sprintf("must be one of %v, got %q", knownCaps, c),
			})
		}
	}

	// Console validation
	validConsoleStyles := []string{"raw", "pretty"}
	if cfg.Console.Style != "" && !slices.Contains(validConsoleStyles, cfg.Console.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "console.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Console.Style),
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validLogStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validLogStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}

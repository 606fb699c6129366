// Package config handles YAML configuration loading, environment variable
// expansion, and bot token resolution for aoe2bot.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// TokenEnv is the environment variable holding the bot token. It takes
// precedence over every other token source.
const TokenEnv = "TGB_TOKEN"

// ErrNoToken is returned when no bot token could be resolved from the
// environment, the env file, or the configuration file.
var ErrNoToken = fmt.Errorf("config: no bot token (set %s, %s in the env file, or token: in the config)", TokenEnv, TokenEnv)

// Config is the top-level configuration structure.
type Config struct {
	// Token is the Telegram bot token. The TGB_TOKEN environment variable
	// and the env file both take precedence over this field.
	Token string `yaml:"token"`

	// DataDir holds the extracted audio library and the file-id cache.
	// Defaults to $XDG_DATA_HOME/aoe2bot or ~/.local/share/aoe2bot.
	DataDir string `yaml:"data_dir"`

	// Archives are the zip archives fetched and extracted on first run.
	Archives []Archive `yaml:"archives"`

	// Listen is the optional bind address for the health/metrics endpoint.
	// Empty disables the HTTP sidecar.
	Listen string `yaml:"listen"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`
}

// Archive identifies one downloadable zip archive of audio files.
type Archive struct {
	URL string `yaml:"url"`
}

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads a YAML configuration file, expands environment variables,
// parses it, resolves the bot token, and applies defaults. An empty path
// means "no config file": defaults plus environment only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		expanded, err := expandEnv(raw)
		if err != nil {
			return nil, fmt.Errorf("config: expanding variables in %s: %w", path, err)
		}
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	cfg.Token = resolveToken(cfg.Token)
	cfg.defaults()
	return &cfg, nil
}

// Validate checks that the configuration is complete enough to start.
func Validate(cfg *Config) error {
	var errs []error
	if cfg.Token == "" {
		errs = append(errs, ErrNoToken)
	}
	for i, a := range cfg.Archives {
		if a.URL == "" {
			errs = append(errs, fmt.Errorf("config: archives[%d]: url is required", i))
		}
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ResolvePath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/aoe2bot/aoe2bot.yaml →
// ~/.config/aoe2bot/aoe2bot.yaml → ./aoe2bot.yaml.
// A missing config file is not an error: the empty string is returned.
func ResolvePath() string {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "aoe2bot", "aoe2bot.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "aoe2bot", "aoe2bot.yaml"))
	}

	candidates = append(candidates, "aoe2bot.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// DefaultDataDir returns the default location of the audio library and
// file-id cache.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok {
		return filepath.Join(dir, "aoe2bot")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "aoe2bot")
}

// ParseLevel converts a config log level string into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown log_level %q", s)
	}
}

func (c *Config) defaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// resolveToken applies the token precedence chain: environment variable,
// then the env file, then the config file value.
func resolveToken(fromConfig string) string {
	if tok := os.Getenv(TokenEnv); tok != "" {
		return tok
	}
	if tok := tokenFromEnvFile(envFilePath()); tok != "" {
		return tok
	}
	return fromConfig
}

// envFilePath returns the location of the legacy env file.
func envFilePath() string {
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		return filepath.Join(xdg, "aoe2bot", "env")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "aoe2bot", "env")
}

// tokenFromEnvFile reads TGB_TOKEN from a KEY=VALUE env file.
// A missing or malformed file yields the empty string.
func tokenFromEnvFile(path string) string {
	if path == "" {
		return ""
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if value, ok := strings.CutPrefix(line, TokenEnv+"="); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in raw YAML bytes.
// Returns an error listing all unresolved variables.
func expandEnv(raw []byte) ([]byte, error) {
	var errs []error

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])
		hasDefault := len(subs) > 2 && subs[2] != nil
		defaultVal := ""
		if hasDefault {
			defaultVal = string(subs[2])
		}

		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		if hasDefault {
			return []byte(defaultVal)
		}

		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return result, errors.Join(errs...)
}

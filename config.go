// Package ashell holds the configuration shared by the ashell packages.
// The configuration is a TOML file in the config directory; every field has
// an embedded default and some can be overridden from the environment.
package ashell

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	defaults "github.com/Paranoid-AF/ashell/default"
)

// Config represents the user's ashell configuration.
type Config struct {
	Version    int              `toml:"version"`
	Prompt     PromptConfig     `toml:"prompt"`
	History    HistoryConfig    `toml:"history"`
	Completion CompletionConfig `toml:"completion"`
	Log        LogConfig        `toml:"log"`

	// undecoded lists keys in the file that match no field.
	undecoded []string
}

// PromptConfig holds prompt settings.
type PromptConfig struct {
	Text string `toml:"text"`
}

// HistoryConfig holds history persistence settings.
type HistoryConfig struct {
	File       string `toml:"file"`
	MaxLoad    int    `toml:"max_load"`
	SaveOnExit *bool  `toml:"save_on_exit"`
}

// CompletionConfig holds tab completion settings.
type CompletionConfig struct {
	PathCacheTTLSeconds int `toml:"path_cache_ttl_seconds"`
}

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// ConfigDir returns the config directory path.
// Resolution order: $ASHELL_CONFIG_DIR > $XDG_CONFIG_HOME/ashell > ~/.config/ashell
func ConfigDir() string {
	if dir := os.Getenv("ASHELL_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "ashell")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ashell-config")
	}
	return filepath.Join(home, ".config", "ashell")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultConfig returns the default configuration from the embedded default_config.toml.
func DefaultConfig() *Config {
	var cfg Config
	if _, err := toml.Decode(defaults.DefaultConfigTOML, &cfg); err != nil {
		panic("ashell: invalid embedded default_config.toml: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads the config at ConfigPath, or the defaults if it does not exist.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(ConfigPath())
}

// LoadConfigFile loads the config at path, filling unset fields from the
// defaults. A missing file yields the defaults.
func LoadConfigFile(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		cfg.undecoded = append(cfg.undecoded, key.String())
	}

	// Apply defaults for missing fields
	def := DefaultConfig()
	if cfg.Version == 0 {
		cfg.Version = def.Version
	}
	if !md.IsDefined("prompt", "text") {
		cfg.Prompt.Text = def.Prompt.Text
	}
	if !md.IsDefined("history", "max_load") {
		cfg.History.MaxLoad = def.History.MaxLoad
	}
	if cfg.History.SaveOnExit == nil {
		cfg.History.SaveOnExit = def.History.SaveOnExit
	}
	if cfg.Completion.PathCacheTTLSeconds == 0 {
		cfg.Completion.PathCacheTTLSeconds = def.Completion.PathCacheTTLSeconds
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}

	return &cfg, nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	if _, ok := parseLevel(cfg.Log.Level); !ok {
		warnings = append(warnings, fmt.Sprintf("unknown log level %q; using warn", cfg.Log.Level))
	}
	if cfg.Completion.PathCacheTTLSeconds < 0 {
		warnings = append(warnings, "completion.path_cache_ttl_seconds is negative; using the default")
	}
	if cfg.History.MaxLoad < 0 {
		warnings = append(warnings, "history.max_load is negative; loading the whole file")
	}
	for _, key := range cfg.undecoded {
		warnings = append(warnings, fmt.Sprintf("unknown config key %q", key))
	}
	return warnings
}

// ResolvePrompt returns the prompt text.
// Priority: $ASHELL_PROMPT env > config value.
func ResolvePrompt(cfg *Config) string {
	if p := os.Getenv("ASHELL_PROMPT"); p != "" {
		return p
	}
	if cfg != nil {
		return cfg.Prompt.Text
	}
	return "$ "
}

// ResolveHistoryFile returns the history file path, or "" when history is
// not persisted.
// Priority: $HISTFILE env > config value.
func ResolveHistoryFile(cfg *Config) string {
	if path := os.Getenv("HISTFILE"); path != "" {
		return path
	}
	if cfg != nil {
		return expandHome(cfg.History.File)
	}
	return ""
}

// ResolveLogFile returns the diagnostic log path, or "" to log to stderr.
// Priority: $ASHELL_LOG_FILE env > config value.
func ResolveLogFile(cfg *Config) string {
	if path := os.Getenv("ASHELL_LOG_FILE"); path != "" {
		return path
	}
	if cfg != nil {
		return expandHome(cfg.Log.File)
	}
	return ""
}

// SaveHistoryOnExit returns whether the history file is rewritten on exit.
func SaveHistoryOnExit(cfg *Config) bool {
	if cfg == nil || cfg.History.SaveOnExit == nil {
		return true // default true
	}
	return *cfg.History.SaveOnExit
}

// PathCacheTTL returns how long search path listings are cached.
func PathCacheTTL(cfg *Config) time.Duration {
	if cfg == nil || cfg.Completion.PathCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(cfg.Completion.PathCacheTTLSeconds) * time.Second
}

// LogLevel returns the configured slog level, Warn when unset or unknown.
func LogLevel(cfg *Config) slog.Level {
	if cfg == nil {
		return slog.LevelWarn
	}
	level, ok := parseLevel(cfg.Log.Level)
	if !ok {
		return slog.LevelWarn
	}
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "", "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelWarn, false
}

// expandHome resolves a leading "~/" against the home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

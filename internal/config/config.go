// Package config loads settings from defaults, an optional YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata" // Learner time zones resolve without a system zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable, e.g. KNOLSTUDY_LOG_LEVEL.
const EnvPrefix = "KNOLSTUDY_"

// Config holds all settings for the process.
type Config struct {
	DB       string        `koanf:"db" validate:"required"`
	Addr     string        `koanf:"addr" validate:"required,hostname_port"`
	Learner  string        `koanf:"learner" validate:"required"`
	Timezone string        `koanf:"timezone" validate:"required"`
	ReposDir string        `koanf:"repos_dir" validate:"required"`
	Log      LogConfig     `koanf:"log"`
	Session  SessionConfig `koanf:"session"`
	Import   ImportConfig  `koanf:"import"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// SessionConfig holds study session settings.
type SessionConfig struct {
	HistoryWindow int `koanf:"history_window" validate:"min=1,max=100"`
}

// ImportConfig names a deck source to import at start-up.
type ImportConfig struct {
	Path string `koanf:"path"`
	Deck string `koanf:"deck" validate:"required_with=Path"`
	Sync bool   `koanf:"sync"`
}

var defaults = map[string]any{
	"db":                     "knolstudy.db",
	"addr":                   "localhost:8080",
	"learner":                "default",
	"timezone":               "Local",
	"repos_dir":              "repos",
	"log.level":              "info",
	"session.history_window": 5,
}

// Flags declares the command-line flags understood by Load.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("knolstudy", pflag.ContinueOnError)
	f.String("config", "", "Path to a YAML configuration file")
	f.String("db", "knolstudy.db", "Path to the SQLite database file")
	f.String("addr", "localhost:8080", "HTTP listen address")
	f.String("learner", "default", "Learner whose decks are served")
	f.String("timezone", "Local", "IANA time zone that decides where study days begin")
	f.String("repos_dir", "repos", "Directory for git deck checkouts")
	f.String("log.level", "info", "Log level: debug, info, warn or error")
	f.Int("session.history_window", 5, "Recent sessions used to size new sessions")
	f.String("import.path", "", "Directory or git URL of deck files to import")
	f.String("import.deck", "", "Name of the deck that receives imported cards")
	f.Bool("import.sync", false, "Re-import all registered deck sources at start-up")
	return f
}

// Load parses args and merges every configuration layer.
func Load(args []string) (*Config, error) {
	f := Flags()
	if err := f.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			slog.Warn("Config file not found, continuing without it", "path", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to read flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps KNOLSTUDY_SESSION_HISTORY_WINDOW to session.history_window.
// The first underscore after the prefix separates the section.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, ok := strings.Cut(s, "_")
	if ok && (section == "log" || section == "session" || section == "import") {
		return section + "." + rest
	}
	return s
}

// Validate checks field constraints and that the time zone exists.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SlogLevel maps the configured level onto slog.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

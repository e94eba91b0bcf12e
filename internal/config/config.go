// Package config loads style tokens and runtime settings.
//
// Values are layered in priority order:
//  1. Defaults
//  2. Config file ($XDG_CONFIG_HOME/pls/config.toml)
//  3. Environment variables (PLS_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"
)

// Style holds the color tokens used by the table and banner. Each token is
// a hex color ("#bb93f2") or an ANSI 256 color index ("170").
type Style struct {
	PendingMessage string `toml:"pending_message"`
	TableHeader    string `toml:"table_header"`
	TaskDone       string `toml:"task_done"`
	TaskPending    string `toml:"task_pending"`
	HeaderGreeting string `toml:"header_greeting"`
	Quote          string `toml:"quote"`
	Author         string `toml:"author"`
}

// DefaultStyle returns the built-in palette.
func DefaultStyle() Style {
	return Style{
		PendingMessage: "#61E294",
		TableHeader:    "#d77dd8",
		TaskDone:       "#a0a0a0",
		TaskPending:    "#bb93f2",
		HeaderGreeting: "#FFBF00",
		Quote:          "#a0a0a0",
		Author:         "#a0a0a0",
	}
}

// Config is the process-wide configuration, read once at start.
type Config struct {
	DBPath   string `toml:"db"`
	LogLevel string `toml:"log_level"`
	User     string `toml:"user"`
	Style    Style  `toml:"style"`
}

// LookupFunc reads a single environment variable.
type LookupFunc func(key string) string

var styleEnv = []struct {
	key   string
	field func(*Style) *string
}{
	{"PLS_MSG_PENDING_STYLE", func(s *Style) *string { return &s.PendingMessage }},
	{"PLS_TABLE_HEADER_STYLE", func(s *Style) *string { return &s.TableHeader }},
	{"PLS_TASK_DONE_STYLE", func(s *Style) *string { return &s.TaskDone }},
	{"PLS_TASK_PENDING_STYLE", func(s *Style) *string { return &s.TaskPending }},
	{"PLS_HEADER_GREETINGS_STYLE", func(s *Style) *string { return &s.HeaderGreeting }},
	{"PLS_QUOTE_STYLE", func(s *Style) *string { return &s.Quote }},
	{"PLS_AUTHOR_STYLE", func(s *Style) *string { return &s.Author }},
}

func setDefaults(cfg *Config) {
	cfg.LogLevel = "warn"
	cfg.Style = DefaultStyle()
}

// Load builds the configuration. configFile may be empty, in which case the
// default location is tried; a missing default file is not an error.
func Load(lookup LookupFunc, configFile string) (*Config, error) {
	if lookup == nil {
		lookup = os.Getenv
	}
	cfg := &Config{}
	setDefaults(cfg)

	explicit := configFile != ""
	if !explicit {
		configFile = defaultConfigFile(lookup)
	}
	if configFile != "" {
		if err := loadConfigFile(cfg, configFile, explicit); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configFile, err)
		}
	}

	loadFromEnv(cfg, lookup)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(cfg *Config, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return err
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func loadFromEnv(cfg *Config, lookup LookupFunc) {
	for _, e := range styleEnv {
		if v := lookup(e.key); v != "" {
			*e.field(&cfg.Style) = v
		}
	}
	if v := lookup("PLS_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := lookup("PLS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := lookup("PLS_USER"); v != "" {
		cfg.User = v
	}
	if cfg.User == "" {
		cfg.User = lookup("USER")
	}
}

func defaultConfigFile(lookup LookupFunc) string {
	dir := lookup("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pls", "config.toml")
}

// Validate checks every color token and the log level.
func (c *Config) Validate() error {
	tokens := map[string]string{
		"style.pending_message": c.Style.PendingMessage,
		"style.table_header":    c.Style.TableHeader,
		"style.task_done":       c.Style.TaskDone,
		"style.task_pending":    c.Style.TaskPending,
		"style.header_greeting": c.Style.HeaderGreeting,
		"style.quote":           c.Style.Quote,
		"style.author":          c.Style.Author,
	}
	for name, v := range tokens {
		if err := validateColor(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func validateColor(v string) error {
	if strings.HasPrefix(v, "#") {
		if _, err := colorful.Hex(v); err != nil {
			return fmt.Errorf("invalid hex color %q", v)
		}
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 255 {
		return fmt.Errorf("invalid color %q: want #rrggbb or 0-255", v)
	}
	return nil
}

// Package config holds the settings shared by the preloaded library and the
// launcher that injects it.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by the library at load time.
const (
	EnvLogLevel  = "LNM_LOG_LEVEL"
	EnvLogFormat = "LNM_LOG_FORMAT"
	EnvLogFile   = "LNM_LOG_FILE"
	EnvPreload   = "LD_PRELOAD"
)

// Log levels and formats.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"

	FormatJSON    = "json"
	FormatConsole = "console"
)

// DefaultLibrary is the file name of the preloaded shared object.
const DefaultLibrary = "liblnm.so"

// Config is the monitor configuration.
type Config struct {
	// Library is the path to the shared object the launcher preloads.
	Library string `yaml:"library"`

	// LogLevel is "debug" or "info". Anything else means "info".
	LogLevel string `yaml:"log_level"`

	// LogFormat is "json" or "console". Anything else means "json".
	LogFormat string `yaml:"log_format"`

	// LogFile is where log lines go. Empty means stderr.
	LogFile string `yaml:"log_file"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Library:   DefaultLibrary,
		LogLevel:  LevelInfo,
		LogFormat: FormatJSON,
	}
}

// FromEnv builds a Config from the LNM_* variables using getenv.
// Pass os.Getenv in production.
func FromEnv(getenv func(string) string) Config {
	cfg := Default()
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
	cfg.LogFile = getenv(EnvLogFile)
	return cfg.Normalize()
}

// Load reads a YAML configuration file. Missing keys keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg.Normalize(), nil
}

// Normalize lowercases the level and format and maps unknown values to
// their defaults.
func (c Config) Normalize() Config {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel != LevelDebug {
		c.LogLevel = LevelInfo
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat != FormatConsole {
		c.LogFormat = FormatJSON
	}
	if c.Library == "" {
		c.Library = DefaultLibrary
	}
	return c
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool {
	return c.LogLevel == LevelDebug
}

// Environ returns base with LD_PRELOAD and the LNM_* variables set for a
// child process. An existing LD_PRELOAD is kept and the library is appended.
func (c Config) Environ(base []string) []string {
	out := make([]string, 0, len(base)+4)
	preload := c.Library
	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		switch key {
		case EnvPreload:
			if value != "" {
				preload = value + ":" + c.Library
			}
			continue
		case EnvLogLevel, EnvLogFormat, EnvLogFile:
			continue
		}
		out = append(out, kv)
	}
	out = append(out,
		EnvPreload+"="+preload,
		EnvLogLevel+"="+c.LogLevel,
		EnvLogFormat+"="+c.LogFormat,
	)
	if c.LogFile != "" {
		out = append(out, EnvLogFile+"="+c.LogFile)
	}
	return out
}

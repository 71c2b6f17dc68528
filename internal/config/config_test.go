package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv(envMap(nil))

	assert.Equal(t, LevelInfo, cfg.LogLevel)
	assert.Equal(t, FormatJSON, cfg.LogFormat)
	assert.Equal(t, "", cfg.LogFile)
	assert.False(t, cfg.Debug())
}

func TestFromEnvDebug(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{
		EnvLogLevel:  "DEBUG",
		EnvLogFormat: "Console",
		EnvLogFile:   "/tmp/lnm.log",
	}))

	assert.True(t, cfg.Debug())
	assert.Equal(t, FormatConsole, cfg.LogFormat)
	assert.Equal(t, "/tmp/lnm.log", cfg.LogFile)
}

func TestFromEnvUnknownLevel(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{EnvLogLevel: "trace"}))
	assert.Equal(t, LevelInfo, cfg.LogLevel)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lnm.yaml")
	data := "library: /opt/liblnm.so\nlog_level: debug\nlog_file: /tmp/out.log\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/liblnm.so", cfg.Library)
	assert.True(t, cfg.Debug())
	assert.Equal(t, FormatJSON, cfg.LogFormat)
	assert.Equal(t, "/tmp/out.log", cfg.LogFile)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lnm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [1, 2"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnviron(t *testing.T) {
	cfg := Config{Library: "/opt/liblnm.so", LogLevel: LevelDebug, LogFormat: FormatJSON}
	env := cfg.Environ([]string{"PATH=/bin", "LNM_LOG_LEVEL=info", "HOME=/root"})

	assert.Equal(t, []string{
		"PATH=/bin",
		"HOME=/root",
		"LD_PRELOAD=/opt/liblnm.so",
		"LNM_LOG_LEVEL=debug",
		"LNM_LOG_FORMAT=json",
	}, env)
}

func TestEnvironAppendsPreload(t *testing.T) {
	cfg := Config{Library: "/opt/liblnm.so", LogLevel: LevelInfo, LogFormat: FormatJSON, LogFile: "/tmp/x"}
	env := cfg.Environ([]string{"LD_PRELOAD=/usr/lib/libfoo.so"})

	assert.Contains(t, env, "LD_PRELOAD=/usr/lib/libfoo.so:/opt/liblnm.so")
	assert.Contains(t, env, "LNM_LOG_FILE=/tmp/x")
}

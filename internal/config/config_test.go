package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/easyaudit/internal/config"
)

const sampleYAML = `
version: v1
engine:
  event_workers: 4
events:
  - security.interactive_login
  - security.authentication.failure
resolvers:
  security.interactive_login: user
sinks:
  - type: stdout
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Engine.EventWorkers)
	assert.Equal(t, 1000, cfg.Engine.QueueDepth)
	assert.Equal(t, 5000, cfg.Engine.EventTimeoutMs)
	assert.Equal(t, config.ResolverDefault, cfg.DefaultResolver)
	assert.Equal(t, []config.SinkConf{{Type: config.SinkStdout}}, cfg.Sinks)
	assert.False(t, cfg.AuditsAll())
	require.NoError(t, config.Validate(cfg))

	empty, err := config.Parse([]byte("version: v1\n"))
	require.NoError(t, err)
	assert.True(t, empty.AuditsAll())
	assert.Equal(t, []config.SinkConf{{Type: config.SinkLog}}, empty.Sinks)
}

func TestValidate(t *testing.T) {
	valid := func() *config.AuditConfig {
		cfg := &config.AuditConfig{Version: "v1", Events: []string{"a"}}
		config.ApplyDefaults(cfg)
		return cfg
	}

	cases := []struct {
		name    string
		mutate  func(*config.AuditConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*config.AuditConfig) {}},
		{name: "missing version", mutate: func(c *config.AuditConfig) { c.Version = "" }, wantErr: "version is required"},
		{name: "empty event", mutate: func(c *config.AuditConfig) { c.Events = append(c.Events, " ") }, wantErr: "events[1]: name is required"},
		{name: "duplicate event", mutate: func(c *config.AuditConfig) { c.Events = append(c.Events, "a") }, wantErr: `duplicate event "a"`},
		{name: "unknown default", mutate: func(c *config.AuditConfig) { c.DefaultResolver = "doctrine" }, wantErr: "default_resolver: unknown kind"},
		{name: "unknown resolver", mutate: func(c *config.AuditConfig) { c.Resolvers = map[string]string{"a": "x"} }, wantErr: `resolvers[a]: unknown kind "x"`},
		{name: "unknown sink", mutate: func(c *config.AuditConfig) { c.Sinks = []config.SinkConf{{Type: "kafka"}} }, wantErr: `sinks[0]: unknown type "kafka"`},
		{name: "file without path", mutate: func(c *config.AuditConfig) { c.Sinks = []config.SinkConf{{Type: config.SinkFile}} }, wantErr: "path is required"},
		{name: "negative engine", mutate: func(c *config.AuditConfig) { c.Engine.QueueDepth = -1 }, wantErr: "must not be negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := config.Validate(cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
			assert.True(t, errors.Is(err, config.ErrInvalid))
		})
	}
}

func TestLoaderReload(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	l, err := config.NewLoader(path)
	require.NoError(t, err)
	assert.Equal(t, path, l.Path())
	assert.Len(t, l.Config().Events, 2)

	var seen []*config.AuditConfig
	l.OnChange(func(c *config.AuditConfig) { seen = append(seen, c) })

	require.NoError(t, os.WriteFile(path, []byte("version: v2\n"), 0o644))
	cfg, err := l.Reload()
	require.NoError(t, err)
	assert.Equal(t, "v2", cfg.Version)
	assert.Same(t, cfg, l.Config())
	require.Len(t, seen, 1)
	assert.Same(t, cfg, seen[0])

	require.NoError(t, os.WriteFile(path, []byte("version: [unterminated\n"), 0o644))
	_, err = l.Reload()
	assert.ErrorContains(t, err, "parse config")
	assert.Equal(t, "v2", l.Config().Version, "failed reload keeps the previous config")

	require.NoError(t, os.WriteFile(path, []byte("version: v3\ndefault_resolver: doctrine\n"), 0o644))
	_, err = l.Reload()
	assert.True(t, errors.Is(err, config.ErrInvalid), "got %v", err)
	assert.Equal(t, "v2", l.Config().Version, "invalid config is never stored")
	assert.Len(t, seen, 1, "invalid config is never handed to callbacks")
}

func TestLoaderRejectsInvalidInitialConfig(t *testing.T) {
	path := writeConfig(t, "events: [a]\n")
	_, err := config.NewLoader(path)
	assert.True(t, errors.Is(err, config.ErrInvalid), "got %v", err)
}

func TestLoaderMissingFile(t *testing.T) {
	_, err := config.NewLoader(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoaderWatch(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	l, err := config.NewLoader(path)
	require.NoError(t, err)

	changed := make(chan *config.AuditConfig, 4)
	l.OnChange(func(c *config.AuditConfig) { changed <- c })

	stop, err := l.Watch()
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte("version: v3\nevents: [x]\n"), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changed:
			if c.Version == "v3" {
				assert.Equal(t, []string{"x"}, c.Events)
				return
			}
		case <-deadline:
			t.Fatal("config change was not picked up")
		}
	}
}

func TestParseEnv(t *testing.T) {
	t.Setenv("EASYAUDIT_ADDR", ":9999")
	t.Setenv("EASYAUDIT_JWT_SECRET", "s3cret")

	var env config.ServerEnv
	require.NoError(t, config.ParseEnv(&env))
	assert.Equal(t, ":9999", env.Addr)
	assert.Equal(t, "s3cret", env.JWTSecret)
	assert.Equal(t, "configs/audit.yaml", env.ConfigPath)
	assert.True(t, strings.EqualFold(env.LogLevel, "info"))
}

package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "socialgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("serve", nil, env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendMongo, cfg.Store.Backend)
}

func TestLayering(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
  timeout: 3s
  corsOrigins: ["https://file.example"]
mongo:
  uri: mongodb://file:27017
store:
  backend: memory
log:
  level: debug
`)

	cfg, err := Load("serve", []string{"-config", path}, env(nil))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.Timeout)
	assert.Equal(t, []string{"https://file.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "mongodb://file:27017", cfg.Mongo.URI)
	assert.Equal(t, "socialgraph", cfg.Mongo.Database)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)

	cfg, err = Load("serve", []string{"-config", path, "-server.addr", ":9100", "-server.cors-origin", "https://flag.example"},
		env(map[string]string{
			"SOCIALGRAPH_SERVER_ADDR":         ":9050",
			"SOCIALGRAPH_MONGO_URI":           "mongodb://env:27017",
			"SOCIALGRAPH_SERVER_CORS_ORIGINS": "https://a.example, https://b.example",
		}))
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr, "flag beats env")
	assert.Equal(t, "mongodb://env:27017", cfg.Mongo.URI, "env beats file")
	assert.Equal(t, []string{"https://flag.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvListReplacesFile(t *testing.T) {
	path := writeFile(t, "server:\n  corsOrigins: [\"https://file.example\"]\n")
	cfg, err := Load("serve", []string{"-config", path}, env(map[string]string{
		"SOCIALGRAPH_SERVER_CORS_ORIGINS": "https://a.example,https://b.example",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]struct {
		args []string
		env  map[string]string
	}{
		"unknown flag":    {args: []string{"-nope"}},
		"bad env value":   {env: map[string]string{"SOCIALGRAPH_SERVER_TIMEOUT": "soon"}},
		"missing file":    {args: []string{"-config", "/does/not/exist.yaml"}},
		"unknown backend": {args: []string{"-store.backend", "redis"}},
		"bad cost":        {args: []string{"-password.bcrypt-cost", "99"}},
		"bad level":       {args: []string{"-log.level", "loud"}},
		"bad format":      {args: []string{"-log.format", "xml"}},
		"empty uri":       {args: []string{"-mongo.uri", ""}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load("serve", tc.args, env(tc.env))
			assert.Error(t, err)
		})
	}
}

func TestUnknownFileKeyRejected(t *testing.T) {
	path := writeFile(t, "server:\n  adr: \":1\"\n")
	_, err := Load("serve", []string{"-config", path}, env(nil))
	assert.Error(t, err)
}

func TestMemoryBackendIgnoresMongo(t *testing.T) {
	cfg, err := Load("serve", []string{"-store.backend", "memory", "-mongo.uri", ""}, env(nil))
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
}

func TestEveryFlagHasEnvVariable(t *testing.T) {
	mapped := map[string]bool{}
	for _, e := range envFlags {
		mapped[e.flag] = true
	}
	var path string
	Default().FlagSet("serve", &path).VisitAll(func(f *flag.Flag) {
		if f.Name != "config" {
			assert.True(t, mapped[f.Name], "no environment variable for -%s", f.Name)
		}
	})
}

func TestPrettyFromEnv(t *testing.T) {
	cfg, err := Load("serve", nil, env(map[string]string{"SOCIALGRAPH_SERVER_PRETTY": "true"}))
	require.NoError(t, err)
	assert.True(t, cfg.Server.Pretty)
}

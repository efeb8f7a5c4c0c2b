package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/socialgraph/internal/config"
)

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, cmdHelp([]string{"serve"}, &out))
	assert.Contains(t, out.String(), "serve FLAGS")

	out.Reset()
	require.NoError(t, cmdHelp(nil, &out))
	assert.Contains(t, out.String(), "print-schema")

	assert.Error(t, cmdHelp([]string{"nope"}, &out))
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	assert.Error(t, run([]string{"frobnicate"}))
	assert.Error(t, run(nil))
}

func TestPrintSchema(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, cmdPrintSchema(nil, &out))
	sdl := out.String()
	assert.True(t, strings.HasPrefix(sdl, "type Query"), sdl)
	assert.Contains(t, sdl, "createUser(")
	assert.NotContains(t, sdl, "__Schema")

	out.Reset()
	require.NoError(t, cmdPrintSchema([]string{"-introspection"}, &out))
	assert.Contains(t, out.String(), "type __Schema")

	path := filepath.Join(t.TempDir(), "schema.graphql")
	require.NoError(t, cmdPrintSchema([]string{"-out", path}, &out))
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sdl, string(written))
}

func newTestApp(t *testing.T, args ...string) *httptest.Server {
	t.Helper()
	args = append([]string{"-store.backend", "memory", "-password.bcrypt-cost", "4"}, args...)
	cfg, err := config.Load("serve", args, func(string) (string, bool) { return "", false })
	require.NoError(t, err)
	a, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	srv := httptest.NewServer(a.handler)
	t.Cleanup(func() {
		srv.Close()
		a.close(context.Background())
	})
	return srv
}

func graphql(t *testing.T, srv *httptest.Server, query string) map[string]any {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"query": query})
	resp, err := http.Post(srv.URL+"/graphql", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestServeMemoryBackend(t *testing.T) {
	srv := newTestApp(t)

	created := graphql(t, srv, `mutation { createUser(name: "ann", password: "pw", email: "ann@example.com") { id name } }`)
	require.Nil(t, created["errors"])
	user := created["data"].(map[string]any)["createUser"].(map[string]any)
	assert.Equal(t, "ann", user["name"])

	dup := graphql(t, srv, `mutation { createUser(name: "bob", password: "pw", email: "ann@example.com") { id } }`)
	assert.Nil(t, dup["data"])
	assert.NotNil(t, dup["errors"])

	listed := graphql(t, srv, `{ users { email } }`)
	assert.Equal(t, map[string]any{"users": []any{map[string]any{"email": "ann@example.com"}}}, listed["data"])

	intro := graphql(t, srv, `{ __type(name: "User") { fields { name } } }`)
	require.Nil(t, intro["errors"])

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	metrics, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(metrics), `socialgraph_store_operations_total{collection="users",operation="insert_one"} 1`)
	assert.Contains(t, string(metrics), `socialgraph_graphql_operations_total{type="mutation"} 2`)
	assert.Contains(t, string(metrics), `socialgraph_graphql_errors_total{code="CONFLICT",type="mutation"} 1`)
}

func TestServeWithoutIntrospectionOrMetrics(t *testing.T) {
	srv := newTestApp(t, "-server.introspection=false", "-metrics=false")

	res := graphql(t, srv, `{ __schema { queryType { name } } }`)
	assert.NotNil(t, res["errors"])

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

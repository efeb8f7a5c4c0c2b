package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventbus "github.com/hanpama/socialgraph/internal/eventbus"
	events "github.com/hanpama/socialgraph/internal/events"
	reqid "github.com/hanpama/socialgraph/internal/reqid"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json")
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown", "k", 1)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "socialgraph", line["service"])

	buf.Reset()
	logger, err = New(&buf, "debug", "text")
	require.NoError(t, err)
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")

	_, err = New(&buf, "info", "xml")
	assert.Error(t, err)
}

func TestAttachLogsRequestsAndStoreFailures(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json")
	require.NoError(t, err)
	bus := eventbus.New()
	defer Attach(bus, logger)()

	ctx, _ := reqid.NewContext(context.Background(), "r-7")
	eventbus.Emit(bus, ctx, events.StoreFinish{Collection: "users", Operation: "find_by_id"})
	eventbus.Emit(bus, ctx, events.StoreFinish{Collection: "users", Operation: "insert_one", Err: errors.New("dup")})
	req := httptest.NewRequest("POST", "/graphql", nil)
	eventbus.Emit(bus, ctx, events.HTTPFinish{Request: req, Status: 200, Duration: time.Millisecond})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var store, http map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &store))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &http))
	assert.Equal(t, "ERROR", store["level"])
	assert.Equal(t, "insert_one", store["operation"])
	assert.Equal(t, "dup", store["error"])
	assert.Equal(t, "r-7", store["request_id"])
	assert.Equal(t, "http request", http["msg"])
	assert.Equal(t, "/graphql", http["path"])
	assert.Equal(t, float64(200), http["status"])
	assert.Equal(t, "r-7", http["request_id"])
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	eventbus "github.com/hanpama/socialgraph/internal/eventbus"
	events "github.com/hanpama/socialgraph/internal/events"
	executor "github.com/hanpama/socialgraph/internal/executor"
	reqid "github.com/hanpama/socialgraph/internal/reqid"
	schema "github.com/hanpama/socialgraph/internal/schema"
)

// helloRuntime answers Query.hello and records the request id it saw.
type helloRuntime struct {
	seenID string
}

func (r *helloRuntime) Resolve(ctx context.Context, objectType, field string, _ any, args map[string]any) (any, error) {
	r.seenID, _ = reqid.FromContext(ctx)
	if objectType == "Query" && field == "hello" {
		if name, ok := args["name"].(string); ok {
			return "hello " + name, nil
		}
		return "world", nil
	}
	return nil, nil
}

func (r *helloRuntime) SerializeLeafValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

func newTestHandler(t *testing.T, rt executor.Runtime, opts ...Option) *Handler {
	t.Helper()
	sch, err := schema.BuildFromSDL("test.graphql", `type Query { hello(name: String): String }`)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return New(rt, sch, opts...)
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestPostQuery(t *testing.T) {
	h := newTestHandler(t, &helloRuntime{})
	w := post(h, `{"query":"query($n: String) { hello(name: $n) }","variables":{"n":"bob"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var res struct {
		Data map[string]any `json:"data"`
	}
	decode(t, w, &res)
	if res.Data["hello"] != "hello bob" {
		t.Fatalf("unexpected data: %v", res.Data)
	}
}

func TestGetQuery(t *testing.T) {
	h := newTestHandler(t, &helloRuntime{})
	req := httptest.NewRequest("GET", "/?query=%7B+hello+%7D", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"hello":"world"`) {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestGraphiQLPage(t *testing.T) {
	h := newTestHandler(t, &helloRuntime{})
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("content type %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "graphiql") {
		t.Fatalf("page not served")
	}

	off := newTestHandler(t, &helloRuntime{}, WithGraphiQL(false))
	w = httptest.NewRecorder()
	off.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 with GraphiQL disabled, got %d", w.Code)
	}
}

func TestBatch(t *testing.T) {
	h := newTestHandler(t, &helloRuntime{})
	w := post(h, `[{"query":"{ hello }"},{"query":"{ nope }"}]`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var res []executor.ExecutionResult
	decode(t, w, &res)
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
	if len(res[0].Errors) != 0 || len(res[1].Errors) == 0 {
		t.Fatalf("unexpected results: %+v", res)
	}

	w = post(h, `[]`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty batch status %d", w.Code)
	}
}

func TestBadRequests(t *testing.T) {
	h := newTestHandler(t, &helloRuntime{})
	cases := []struct {
		name   string
		method string
		ctype  string
		body   string
		status int
	}{
		{"invalid json", "POST", "application/json", `{`, http.StatusBadRequest},
		{"missing query", "POST", "application/json", `{"query":""}`, http.StatusBadRequest},
		{"content type", "POST", "text/plain", `{"query":"{ hello }"}`, http.StatusUnsupportedMediaType},
		{"method", "PUT", "application/json", `{"query":"{ hello }"}`, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", tc.ctype)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, w.Code)
			}
			var res executor.ExecutionResult
			decode(t, w, &res)
			if len(res.Errors) != 1 {
				t.Fatalf("expected one error, got %+v", res)
			}
		})
	}
}

func TestCORSAndPreflight(t *testing.T) {
	h := newTestHandler(t, &helloRuntime{}, WithCORS("*"))

	// simple request
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}

	// preflight
	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	if pw.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", pw.Code)
	}
	if pw.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight missing CORS header")
	}
	if pw.Header().Get("Access-Control-Allow-Headers") != "X-Test" {
		t.Fatalf("preflight missing allow headers")
	}
}

func TestCORSOriginList(t *testing.T) {
	h := newTestHandler(t, &helloRuntime{}, WithCORS("http://a.example"))
	for origin, want := range map[string]string{
		"http://a.example": "http://a.example",
		"http://b.example": "",
	} {
		req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Fatalf("origin %s: got %q want %q", origin, got, want)
		}
	}
}

func TestMaxBodyBytes(t *testing.T) {
	h := newTestHandler(t, &helloRuntime{}, WithMaxBodyBytes(10))
	w := post(h, `{"query":"1234567890"}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	rt := &helloRuntime{}
	h := newTestHandler(t, rt)

	w := post(h, `{"query":"{ hello }"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if rt.seenID == "" {
		t.Fatalf("missing request id in context")
	}
	if got := w.Header().Get(reqid.Header); got != rt.seenID {
		t.Fatalf("response header %q, resolver saw %q", got, rt.seenID)
	}

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(reqid.Header, "caller-42")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if rt.seenID != "caller-42" || w.Header().Get(reqid.Header) != "caller-42" {
		t.Fatalf("caller id not kept: ctx %q header %q", rt.seenID, w.Header().Get(reqid.Header))
	}
}

func TestHealth(t *testing.T) {
	ok := Health(func(context.Context) error { return nil })
	w := httptest.NewRecorder()
	ok.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}

	down := Health(func(context.Context) error { return errors.New("no primary") })
	w = httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "no primary") {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

type codedErr struct{ code string }

func (e codedErr) Error() string              { return "failed: " + e.code }
func (e codedErr) Extensions() map[string]any { return map[string]any{"code": e.code} }

// failingRuntime fails every field with a coded error.
type failingRuntime struct{}

func (failingRuntime) Resolve(context.Context, string, string, any, map[string]any) (any, error) {
	return nil, codedErr{code: "NOT_FOUND"}
}

func (failingRuntime) SerializeLeafValue(_ context.Context, _ string, v any) (any, error) {
	return v, nil
}

func TestPublishesOperationEvents(t *testing.T) {
	bus := eventbus.New()
	eventbus.Use(bus)
	defer eventbus.Use(nil)

	var finished []events.GraphQLFinish
	var statuses []int
	eventbus.On(bus, func(_ context.Context, e events.GraphQLFinish) { finished = append(finished, e) })
	eventbus.On(bus, func(_ context.Context, e events.HTTPFinish) { statuses = append(statuses, e.Status) })

	h := newTestHandler(t, failingRuntime{})
	w := post(h, `{"query":"query Q { hello }","operationName":"Q"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if len(finished) != 1 {
		t.Fatalf("expected one GraphQLFinish, got %d", len(finished))
	}
	got := finished[0]
	if got.OperationName != "Q" || got.OperationType != "query" {
		t.Fatalf("unexpected operation: %+v", got)
	}
	if len(got.Errors) != 1 || len(got.ErrorCodes) != 1 || got.ErrorCodes[0] != "NOT_FOUND" {
		t.Fatalf("unexpected errors: %+v", got)
	}
	if len(statuses) != 1 || statuses[0] != http.StatusOK {
		t.Fatalf("unexpected HTTP events: %v", statuses)
	}
}

func TestGraphQLContentType(t *testing.T) {
	h := newTestHandler(t, &helloRuntime{})
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{ hello(name: "ann") }`))
	req.Header.Set("Content-Type", "application/graphql; charset=utf-8")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"hello":"hello ann"`) {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestMutationOverGetRejected(t *testing.T) {
	sch, err := schema.BuildFromSDL("test.graphql", `
type Query { hello(name: String): String }
type Mutation { hello(name: String): String }`)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	h := New(&helloRuntime{}, sch)
	req := httptest.NewRequest("GET", "/?query=mutation+%7B+hello+%7D", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", w.Code)
	}

	w = post(h, `{"query":"mutation { hello }"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST mutation status %d", w.Code)
	}
}

func TestCORSExposesRequestID(t *testing.T) {
	h := newTestHandler(t, &helloRuntime{}, WithCORS("http://a.example"))
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://a.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != reqid.Header {
		t.Fatalf("expose headers %q", got)
	}
	if w.Header().Get("Vary") != "Origin" {
		t.Fatalf("missing Vary header")
	}

	plain := newTestHandler(t, &helloRuntime{})
	w = httptest.NewRecorder()
	plain.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("CORS header set without configured origins")
	}
}

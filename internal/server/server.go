// Package server exposes an executor over HTTP.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	eventbus "github.com/hanpama/socialgraph/internal/eventbus"
	events "github.com/hanpama/socialgraph/internal/events"
	executor "github.com/hanpama/socialgraph/internal/executor"
	language "github.com/hanpama/socialgraph/internal/language"
	reqid "github.com/hanpama/socialgraph/internal/reqid"
	schema "github.com/hanpama/socialgraph/internal/schema"
)

//go:embed graphiql.html
var graphiqlPage []byte

// Handler serves one GraphQL endpoint. Every response carries the request id
// in the X-Request-Id header.
type Handler struct {
	exec *executor.Executor
	opt  Options
	cors *corsPolicy
}

type Options struct {
	// Timeout applies when the incoming request context has no deadline.
	// 0 means none.
	Timeout time.Duration

	// Pretty indents JSON responses.
	Pretty bool

	// MaxBodyBytes limits the request body. 0 means unlimited.
	MaxBodyBytes int64

	// AllowedOrigins enables CORS for the listed origins; "*" allows any.
	AllowedOrigins []string

	// GraphiQL serves the in-browser IDE to GET requests that accept HTML.
	GraphiQL bool
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option { return func(o *Options) { o.AllowedOrigins = origins } }
func WithGraphiQL(enable bool) Option { return func(o *Options) { o.GraphiQL = enable } }

// New returns a handler executing against runtime and schema. Defaults: 10s
// timeout, GraphiQL on, CORS off.
func New(runtime executor.Runtime, schema *schema.Schema, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second, GraphiQL: true}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{
		exec: executor.NewExecutor(runtime, schema),
		opt:  op,
		cors: newCORSPolicy(op.AllowedOrigins),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.NewContext(ctx, r.Header.Get(reqid.Header))
	w.Header().Set(reqid.Header, rid)
	h.cors.apply(w, r)

	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	fail := func(code int, msg string) {
		status = code
		writeJSON(w, status, errorResult(msg), h.opt.Pretty)
	}

	switch r.Method {
	case http.MethodOptions:
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	case http.MethodGet:
		if h.opt.GraphiQL && r.URL.Query().Get("query") == "" && acceptsHTML(r.Header.Get("Accept")) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write(graphiqlPage)
			return
		}
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		fail(http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	reqs, batched, rerr := parseRequest(r, h.opt.MaxBodyBytes)
	if rerr != nil {
		fail(rerr.status, rerr.message)
		return
	}

	results := make([]*executor.ExecutionResult, len(reqs))
	for i, req := range reqs {
		res, rerr := h.executeOne(ctx, req, r.Method == http.MethodPost)
		if rerr != nil {
			fail(rerr.status, rerr.message)
			return
		}
		results[i] = res
	}
	if batched {
		writeJSON(w, status, results, h.opt.Pretty)
		return
	}
	writeJSON(w, status, results[0], h.opt.Pretty)
}

// executeOne parses, executes and reports one operation. Mutations are
// refused unless allowMutation is set.
func (h *Handler) executeOne(ctx context.Context, req request, allowMutation bool) (*executor.ExecutionResult, *requestError) {
	start := time.Now()
	doc, perrs := h.exec.Parse(req.Query)
	opType := operationType(doc, req.OperationName)
	if opType == string(language.Mutation) && !allowMutation {
		return nil, &requestError{status: http.StatusMethodNotAllowed, message: "mutations require POST"}
	}
	eventbus.Publish(ctx, events.GraphQLStart{OperationName: req.OperationName, OperationType: opType})

	result := &executor.ExecutionResult{Errors: perrs}
	if len(perrs) == 0 {
		result = h.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables)
	}

	errs := make([]error, len(result.Errors))
	var codes []string
	for i, ge := range result.Errors {
		errs[i] = ge
		if code, ok := ge.Extensions["code"]; ok {
			codes = append(codes, fmt.Sprint(code))
		}
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errs,
		ErrorCodes:    codes,
		Duration:      time.Since(start),
	})
	return result, nil
}

// operationType names the operation that name selects in doc, or "" when
// doc is nil or the selection is ambiguous.
func operationType(doc *language.QueryDocument, name string) string {
	if doc == nil {
		return ""
	}
	if name == "" {
		if len(doc.Operations) == 1 {
			return string(doc.Operations[0].Operation)
		}
		return ""
	}
	if op := doc.Operations.ForName(name); op != nil {
		return string(op.Operation)
	}
	return ""
}

// Health reports readiness: 200 when ping succeeds, 503 otherwise. A nil ping
// always succeeds.
func Health(ping func(context.Context) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()}, false)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, false)
	})
}

func errorResult(msg string) *executor.ExecutionResult {
	return &executor.ExecutionResult{Errors: []executor.GraphQLError{{Message: msg}}}
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func acceptsHTML(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mt := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if mt == "text/html" || mt == "*/*" {
			return true
		}
	}
	return false
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
)

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// requestError rejects a request before execution.
type requestError struct {
	status  int
	message string
}

func badRequest(msg string) *requestError {
	return &requestError{status: http.StatusBadRequest, message: msg}
}

// parseRequest reads one operation from a GET query string, or one or more
// from a POST body. batched reports a JSON array body.
func parseRequest(r *http.Request, maxBody int64) (reqs []request, batched bool, rerr *requestError) {
	if r.Method == http.MethodGet {
		req, rerr := parseQueryString(r)
		if rerr != nil {
			return nil, false, rerr
		}
		return []request{req}, false, nil
	}

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, false, badRequest("invalid Content-Type")
		}
		mediaType = mt
	}
	if mediaType != "application/json" && mediaType != "application/graphql" {
		return nil, false, &requestError{status: http.StatusUnsupportedMediaType, message: "unsupported Content-Type " + mediaType}
	}

	body, rerr := readBody(r, maxBody)
	if rerr != nil {
		return nil, false, rerr
	}

	if mediaType == "application/graphql" {
		q := strings.TrimSpace(string(body))
		if q == "" {
			return nil, false, badRequest("missing 'query'")
		}
		return []request{{Query: q, OperationName: r.URL.Query().Get("operationName")}}, false, nil
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(body, &reqs); err != nil {
			return nil, false, badRequest("invalid JSON")
		}
		if len(reqs) == 0 {
			return nil, false, badRequest("empty batch")
		}
		for _, req := range reqs {
			if req.Query == "" {
				return nil, false, badRequest("missing 'query' in batch")
			}
		}
		return reqs, true, nil
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, false, badRequest("invalid JSON")
	}
	if req.Query == "" {
		return nil, false, badRequest("missing 'query'")
	}
	return []request{req}, false, nil
}

func parseQueryString(r *http.Request) (request, *requestError) {
	q := r.URL.Query()
	req := request{Query: q.Get("query"), OperationName: q.Get("operationName")}
	if req.Query == "" {
		return request{}, badRequest("missing 'query'")
	}
	if v := q.Get("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
			return request{}, badRequest("invalid 'variables' JSON")
		}
	}
	return req, nil
}

func readBody(r *http.Request, maxBody int64) ([]byte, *requestError) {
	defer r.Body.Close()
	var src io.Reader = r.Body
	if maxBody > 0 {
		src = http.MaxBytesReader(nil, r.Body, maxBody)
	}
	body, err := io.ReadAll(src)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, message: "body too large"}
		}
		return nil, badRequest("failed to read body")
	}
	return body, nil
}

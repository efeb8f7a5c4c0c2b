package server

import (
	"net/http"
	"strconv"
)

// corsPolicy answers cross-origin requests from a fixed origin list. A nil
// policy disables CORS.
type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
	maxAge    string
}

func newCORSPolicy(origins []string) *corsPolicy {
	if len(origins) == 0 {
		return nil
	}
	p := &corsPolicy{origins: make(map[string]struct{}, len(origins)), maxAge: strconv.Itoa(600)}
	for _, o := range origins {
		if o == "*" {
			p.anyOrigin = true
		}
		p.origins[o] = struct{}{}
	}
	return p
}

func (p *corsPolicy) apply(w http.ResponseWriter, r *http.Request) {
	if p == nil {
		return
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	hdr := w.Header()
	if p.anyOrigin {
		hdr.Set("Access-Control-Allow-Origin", "*")
	} else if _, ok := p.origins[origin]; ok {
		hdr.Set("Access-Control-Allow-Origin", origin)
		hdr.Add("Vary", "Origin")
	} else {
		return
	}
	hdr.Set("Access-Control-Expose-Headers", "X-Request-Id")
	if r.Method != http.MethodOptions {
		return
	}
	hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
		hdr.Set("Access-Control-Allow-Headers", req)
	}
	hdr.Set("Access-Control-Max-Age", p.maxAge)
}

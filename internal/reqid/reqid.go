// Package reqid carries a per-request identifier on context.Context.
package reqid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header used to accept and echo request ids.
const Header = "X-Request-Id"

type key struct{}

// ids pairs the echoed request id with a token generated for this request
// only. Clients choose the id, so two requests may share it.
type ids struct {
	id    string
	token string
}

// NewContext returns a copy of parent carrying id. An empty id is replaced by
// a freshly generated one. The stored id is returned.
func NewContext(parent context.Context, id string) (context.Context, string) {
	token := uuid.NewString()
	if id == "" {
		id = token
	}
	return context.WithValue(parent, key{}, ids{id: id, token: token}), id
}

// FromContext extracts the request id from ctx.
func FromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(key{}).(ids)
	return v.id, ok
}

// Token returns the server-generated token of the request in ctx. Unlike the
// request id it is unique per NewContext call.
func Token(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(key{}).(ids)
	return v.token, ok
}

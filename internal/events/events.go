// Package events defines the values published on the eventbus around each
// HTTP request, GraphQL operation and document store call. Subscribers find
// the request id with reqid.FromContext.
package events

import (
	"net/http"
	"time"
)

type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is published once the response has been written.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// GraphQLStart is published after parsing, before execution. OperationType
// is empty when the document could not be parsed.
type GraphQLStart struct {
	OperationName string
	OperationType string
}

// GraphQLFinish carries the errors of the result. ErrorCodes holds the
// "code" extension of each error that has one, in order.
type GraphQLFinish struct {
	OperationName string
	OperationType string
	Errors        []error
	ErrorCodes    []string
	Duration      time.Duration
}

// StoreStart is published before a document store operation.
type StoreStart struct {
	Collection string
	Operation  string
}

// StoreFinish is published after a document store operation returns.
// Err is nil for successful calls, including lookups that matched nothing.
type StoreFinish struct {
	Collection string
	Operation  string
	Err        error
	Duration   time.Duration
}

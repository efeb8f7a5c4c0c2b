// Package executor implements a serial, depth-first GraphQL executor with a
// single runtime hook for field resolution and one for leaf serialization.
//
// # Execution Model
//
// Fields are executed in document order. Each field is resolved through
// Runtime.Resolve and its value completed immediately, descending into object
// selections before moving on to the next sibling. There is no batching and no
// intra-request parallelism: a request is a single logical sequence of runtime
// calls, which is also the order mutations require.
//
// # Value Completion
//
//   - Non-Null: complete the inner type; a null result records a located error
//     (unless one was already recorded deeper) and propagates null upwards.
//   - Null: nil and typed-nil results produce GraphQL null.
//   - List: any slice is accepted; elements are completed with index paths.
//   - Leaf (Scalar/Enum): Runtime.SerializeLeafValue produces a JSON-safe value.
//   - Object: sub-selections are collected (fragments, @skip, @include) and
//     executed with the resolved value as their source.
//
// A null caused by an error travels up to the nearest nullable field or list
// element. If it reaches the root, data is null.
//
// # Errors
//
// Resolver errors become located GraphQL errors. An error implementing
//
//	interface{ Extensions() map[string]any }
//
// contributes its extensions (for example an error code). An error
// implementing
//
//	interface{ AbortsRequest() bool }
//
// that reports true stops the operation: no further fields are resolved, data
// is null and that error is the only one returned.
//
// # Documents
//
// Execute parses the request and, when the schema carries its gqlparser
// source, validates it before execution. ExecuteRequest runs an already
// parsed document.
package executor

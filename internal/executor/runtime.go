package executor

import (
	"context"
)

// Runtime is the host integration surface used by the Executor.
//
//   - objectType is the GraphQL type name of the parent ("Query" for root
//     fields), field the field name on that type.
//   - source is the value the runtime returned for the parent object, nil at
//     the root.
//   - args holds coerced argument values; implementations must not mutate it.
//
// Implementations should be safe for concurrent use: one Runtime serves every
// request, while a single request calls it sequentially.
type Runtime interface {
	// Resolve returns the raw value of a field. Return (nil, nil) for a
	// GraphQL null. Lists may be any slice type.
	Resolve(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// SerializeLeafValue converts a scalar or enum value to a JSON-safe Go
	// value.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// ResolverFunc resolves a single field.
type ResolverFunc func(ctx context.Context, source any, args map[string]any) (any, error)

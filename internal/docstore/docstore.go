// Package docstore is the document store collaborator: typed collections of
// BSON documents keyed by ObjectID.
//
// Two backends share the same document semantics. Mongo talks to a MongoDB
// server through the official driver; Memory keeps BSON-encoded documents in
// process and is used by tests and the "memory" store backend. Instrument
// wraps either one and publishes events.StoreStart/StoreFinish for every call.
//
// Lookups that match nothing are not errors: FindByID, FindOneBy,
// FindOneAndSet and FindOneAndDelete return (nil, nil).
package docstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/hanpama/socialgraph/internal/ref"
)

// Collection is one entity-kind collection. T is the document struct; it must
// map its identifier to "_id" with omitempty so the store can assign it.
type Collection[T any] interface {
	// Name returns the collection name.
	Name() string
	// FindAll returns every document in natural order.
	FindAll(ctx context.Context) ([]*T, error)
	FindByID(ctx context.Context, id ref.ID) (*T, error)
	// FindByIDs returns the documents whose id is in ids, in natural order.
	// Ids with no document are skipped.
	FindByIDs(ctx context.Context, ids []ref.ID) ([]*T, error)
	// FindOneBy returns the first document whose field equals value.
	FindOneBy(ctx context.Context, field string, value any) (*T, error)
	// InsertOne stores doc and returns the identifier assigned to it.
	InsertOne(ctx context.Context, doc *T) (ref.ID, error)
	// FindOneAndSet overwrites the given fields and returns the document as it
	// was before the update.
	FindOneAndSet(ctx context.Context, id ref.ID, set bson.M) (*T, error)
	// FindOneAndDelete removes the document and returns it.
	FindOneAndDelete(ctx context.Context, id ref.ID) (*T, error)
	// Push appends value to the array field. It reports whether a document
	// matched.
	Push(ctx context.Context, id ref.ID, field string, value any) (bool, error)
	// Pull removes every element equal to value from the array field. It
	// reports whether a document matched.
	Pull(ctx context.Context, id ref.ID, field string, value any) (bool, error)
}

package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/hanpama/socialgraph/internal/eventbus"
	"github.com/hanpama/socialgraph/internal/events"
	"github.com/hanpama/socialgraph/internal/ref"
)

// Instrumented publishes a StoreStart/StoreFinish pair around every call of
// the wrapped collection.
type Instrumented[T any] struct {
	next Collection[T]
}

func Instrument[T any](next Collection[T]) *Instrumented[T] {
	return &Instrumented[T]{next: next}
}

func (c *Instrumented[T]) Name() string { return c.next.Name() }

func (c *Instrumented[T]) FindAll(ctx context.Context) (docs []*T, err error) {
	defer c.observe(ctx, "find_all")(&err)
	return c.next.FindAll(ctx)
}

func (c *Instrumented[T]) FindByID(ctx context.Context, id ref.ID) (doc *T, err error) {
	defer c.observe(ctx, "find_by_id")(&err)
	return c.next.FindByID(ctx, id)
}

func (c *Instrumented[T]) FindByIDs(ctx context.Context, ids []ref.ID) (docs []*T, err error) {
	defer c.observe(ctx, "find_by_ids")(&err)
	return c.next.FindByIDs(ctx, ids)
}

func (c *Instrumented[T]) FindOneBy(ctx context.Context, field string, value any) (doc *T, err error) {
	defer c.observe(ctx, "find_one_by")(&err)
	return c.next.FindOneBy(ctx, field, value)
}

func (c *Instrumented[T]) InsertOne(ctx context.Context, doc *T) (id ref.ID, err error) {
	defer c.observe(ctx, "insert_one")(&err)
	return c.next.InsertOne(ctx, doc)
}

func (c *Instrumented[T]) FindOneAndSet(ctx context.Context, id ref.ID, set bson.M) (doc *T, err error) {
	defer c.observe(ctx, "find_one_and_set")(&err)
	return c.next.FindOneAndSet(ctx, id, set)
}

func (c *Instrumented[T]) FindOneAndDelete(ctx context.Context, id ref.ID) (doc *T, err error) {
	defer c.observe(ctx, "find_one_and_delete")(&err)
	return c.next.FindOneAndDelete(ctx, id)
}

func (c *Instrumented[T]) Push(ctx context.Context, id ref.ID, field string, value any) (matched bool, err error) {
	defer c.observe(ctx, "push")(&err)
	return c.next.Push(ctx, id, field, value)
}

func (c *Instrumented[T]) Pull(ctx context.Context, id ref.ID, field string, value any) (matched bool, err error) {
	defer c.observe(ctx, "pull")(&err)
	return c.next.Pull(ctx, id, field, value)
}

func (c *Instrumented[T]) observe(ctx context.Context, op string) func(*error) {
	name := c.next.Name()
	start := time.Now()
	eventbus.Publish(ctx, events.StoreStart{Collection: name, Operation: op})
	return func(errp *error) {
		eventbus.Publish(ctx, events.StoreFinish{
			Collection: name,
			Operation:  op,
			Err:        *errp,
			Duration:   time.Since(start),
		})
	}
}

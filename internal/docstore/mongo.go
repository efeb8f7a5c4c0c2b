package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hanpama/socialgraph/internal/ref"
)

// Connect dials uri and pings the primary. The returned client must be
// disconnected by the caller.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri)
	if timeout > 0 {
		opts.SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping %s: %w", uri, err)
	}
	return client, nil
}

// Mongo is a Collection backed by a MongoDB collection.
type Mongo[T any] struct {
	coll *mongo.Collection
}

func NewMongo[T any](db *mongo.Database, name string) *Mongo[T] {
	return &Mongo[T]{coll: db.Collection(name)}
}

// EnsureIndex creates a non-unique ascending index on field.
func (m *Mongo[T]) EnsureIndex(ctx context.Context, field string) error {
	_, err := m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}})
	if err != nil {
		return fmt.Errorf("%s: index %s: %w", m.Name(), field, err)
	}
	return nil
}

func (m *Mongo[T]) Name() string { return m.coll.Name() }

func (m *Mongo[T]) FindAll(ctx context.Context) ([]*T, error) {
	return m.find(ctx, bson.D{})
}

func (m *Mongo[T]) FindByID(ctx context.Context, id ref.ID) (*T, error) {
	return m.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (m *Mongo[T]) FindByIDs(ctx context.Context, ids []ref.ID) ([]*T, error) {
	return m.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
}

func (m *Mongo[T]) FindOneBy(ctx context.Context, field string, value any) (*T, error) {
	return m.findOne(ctx, bson.D{{Key: field, Value: value}})
}

func (m *Mongo[T]) InsertOne(ctx context.Context, doc *T) (ref.ID, error) {
	res, err := m.coll.InsertOne(ctx, doc)
	if err != nil {
		return ref.Nil, fmt.Errorf("%s: insert: %w", m.Name(), err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return ref.Nil, fmt.Errorf("%s: insert: unexpected id type %T", m.Name(), res.InsertedID)
	}
	return id, nil
}

func (m *Mongo[T]) FindOneAndSet(ctx context.Context, id ref.ID, set bson.M) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	res := m.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}}, opts)
	return m.decodeSingle(res, "find one and set")
}

func (m *Mongo[T]) FindOneAndDelete(ctx context.Context, id ref.ID) (*T, error) {
	res := m.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}})
	return m.decodeSingle(res, "find one and delete")
}

func (m *Mongo[T]) Push(ctx context.Context, id ref.ID, field string, value any) (bool, error) {
	return m.updateOne(ctx, id, "$push", field, value)
}

func (m *Mongo[T]) Pull(ctx context.Context, id ref.ID, field string, value any) (bool, error) {
	return m.updateOne(ctx, id, "$pull", field, value)
}

func (m *Mongo[T]) updateOne(ctx context.Context, id ref.ID, op, field string, value any) (bool, error) {
	update := bson.D{{Key: op, Value: bson.D{{Key: field, Value: value}}}}
	res, err := m.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return false, fmt.Errorf("%s: %s %s: %w", m.Name(), op, field, err)
	}
	return res.MatchedCount > 0, nil
}

func (m *Mongo[T]) find(ctx context.Context, filter bson.D) ([]*T, error) {
	cur, err := m.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", m.Name(), err)
	}
	defer cur.Close(ctx)

	out := []*T{}
	for cur.Next(ctx) {
		doc := new(T)
		if err := cur.Decode(doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", m.Name(), err)
		}
		out = append(out, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", m.Name(), err)
	}
	return out, nil
}

func (m *Mongo[T]) findOne(ctx context.Context, filter bson.D) (*T, error) {
	return m.decodeSingle(m.coll.FindOne(ctx, filter), "find one")
}

func (m *Mongo[T]) decodeSingle(res *mongo.SingleResult, op string) (*T, error) {
	doc := new(T)
	if err := res.Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %s: %w", m.Name(), op, err)
	}
	return doc, nil
}

package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hanpama/socialgraph/internal/ref"
)

// Memory is an in-process Collection. Documents are stored BSON encoded so
// callers never share memory with the store, and field operators see the same
// shapes a MongoDB server would.
type Memory[T any] struct {
	name string

	mu    sync.RWMutex
	order []ref.ID // insertion order
	docs  map[ref.ID]bson.Raw
}

func NewMemory[T any](name string) *Memory[T] {
	return &Memory[T]{name: name, docs: make(map[ref.ID]bson.Raw)}
}

func (m *Memory[T]) Name() string { return m.name }

func (m *Memory[T]) FindAll(ctx context.Context) ([]*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*T, 0, len(m.order))
	for _, id := range m.order {
		doc, err := m.decode(m.docs[id])
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (m *Memory[T]) FindByID(ctx context.Context, id ref.ID) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	return m.decode(raw)
}

func (m *Memory[T]) FindByIDs(ctx context.Context, ids []ref.ID) ([]*T, error) {
	want := make(map[ref.ID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*T{}
	for _, id := range m.order {
		if _, ok := want[id]; !ok {
			continue
		}
		doc, err := m.decode(m.docs[id])
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (m *Memory[T]) FindOneBy(ctx context.Context, field string, value any) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order {
		fields, err := m.fields(m.docs[id])
		if err != nil {
			return nil, err
		}
		if reflect.DeepEqual(fields[field], value) {
			return m.decode(m.docs[id])
		}
	}
	return nil, nil
}

func (m *Memory[T]) InsertOne(ctx context.Context, doc *T) (ref.ID, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return ref.Nil, fmt.Errorf("%s: insert: %w", m.name, err)
	}
	fields, err := m.fields(raw)
	if err != nil {
		return ref.Nil, err
	}
	id, ok := fields["_id"].(primitive.ObjectID)
	if !ok || id.IsZero() {
		id = ref.New()
		fields["_id"] = id
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[id]; exists {
		return ref.Nil, fmt.Errorf("%s: insert: duplicate _id %s", m.name, id.Hex())
	}
	if err := m.put(id, fields); err != nil {
		return ref.Nil, err
	}
	m.order = append(m.order, id)
	return id, nil
}

func (m *Memory[T]) FindOneAndSet(ctx context.Context, id ref.ID, set bson.M) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	before, err := m.decode(raw)
	if err != nil {
		return nil, err
	}
	fields, err := m.fields(raw)
	if err != nil {
		return nil, err
	}
	for k, v := range set {
		if k == "_id" {
			return nil, fmt.Errorf("%s: set: _id is immutable", m.name)
		}
		fields[k] = v
	}
	if err := m.put(id, fields); err != nil {
		return nil, err
	}
	return before, nil
}

func (m *Memory[T]) FindOneAndDelete(ctx context.Context, id ref.ID) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	doc, err := m.decode(raw)
	if err != nil {
		return nil, err
	}
	delete(m.docs, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return doc, nil
}

func (m *Memory[T]) Push(ctx context.Context, id ref.ID, field string, value any) (bool, error) {
	return m.updateArray(id, field, func(arr bson.A) bson.A {
		return append(arr, value)
	})
}

func (m *Memory[T]) Pull(ctx context.Context, id ref.ID, field string, value any) (bool, error) {
	return m.updateArray(id, field, func(arr bson.A) bson.A {
		kept := bson.A{}
		for _, v := range arr {
			if !reflect.DeepEqual(v, value) {
				kept = append(kept, v)
			}
		}
		return kept
	})
}

func (m *Memory[T]) updateArray(id ref.ID, field string, fn func(bson.A) bson.A) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.docs[id]
	if !ok {
		return false, nil
	}
	fields, err := m.fields(raw)
	if err != nil {
		return false, err
	}
	var arr bson.A
	switch v := fields[field].(type) {
	case nil:
	case bson.A:
		arr = v
	default:
		return false, fmt.Errorf("%s: field %s is %T, not an array", m.name, field, v)
	}
	fields[field] = fn(arr)
	return true, m.put(id, fields)
}

func (m *Memory[T]) put(id ref.ID, fields bson.M) error {
	raw, err := bson.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%s: encode %s: %w", m.name, id.Hex(), err)
	}
	m.docs[id] = raw
	return nil
}

func (m *Memory[T]) fields(raw bson.Raw) (bson.M, error) {
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", m.name, err)
	}
	return fields, nil
}

func (m *Memory[T]) decode(raw bson.Raw) (*T, error) {
	doc := new(T)
	if err := bson.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", m.name, err)
	}
	return doc, nil
}

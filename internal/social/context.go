package social

import (
	"context"
	"io"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hanpama/socialgraph/internal/docstore"
	"github.com/hanpama/socialgraph/internal/password"
)

// Deps is the per-call bundle of store handles passed to every resolver and
// mutation handler. It does not own the collections.
type Deps struct {
	Users    docstore.Collection[User]
	Posts    docstore.Collection[Post]
	Comments docstore.Collection[Comment]
	Hasher   password.Hasher
	Logger   *slog.Logger
}

// NewMemoryDeps returns Deps over fresh in-memory collections.
func NewMemoryDeps(hasher password.Hasher, logger *slog.Logger) *Deps {
	return &Deps{
		Users:    docstore.NewMemory[User](UsersCollection),
		Posts:    docstore.NewMemory[Post](PostsCollection),
		Comments: docstore.NewMemory[Comment](CommentsCollection),
		Hasher:   hasher,
		Logger:   logger,
	}
}

// NewMongoDeps returns Deps over the collections of db and makes sure the
// email lookup is indexed.
func NewMongoDeps(ctx context.Context, db *mongo.Database, hasher password.Hasher, logger *slog.Logger) (*Deps, error) {
	users := docstore.NewMongo[User](db, UsersCollection)
	if err := users.EnsureIndex(ctx, "email"); err != nil {
		return nil, err
	}
	return &Deps{
		Users:    users,
		Posts:    docstore.NewMongo[Post](db, PostsCollection),
		Comments: docstore.NewMongo[Comment](db, CommentsCollection),
		Hasher:   hasher,
		Logger:   logger,
	}, nil
}

// Instrumented returns a copy of d whose collections publish store events.
func (d *Deps) Instrumented() *Deps {
	out := *d
	out.Users = docstore.Instrument(d.Users)
	out.Posts = docstore.Instrument(d.Posts)
	out.Comments = docstore.Instrument(d.Comments)
	return &out
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d.Logger
}

package social

import (
	"context"

	"github.com/hanpama/socialgraph/internal/apperr"
	"github.com/hanpama/socialgraph/internal/docstore"
	"github.com/hanpama/socialgraph/internal/ref"
)

// findOne hydrates a single reference. A reference with no document yields
// nil without error.
func findOne[T any](ctx context.Context, c docstore.Collection[T], id ref.ID) (*T, error) {
	if id.IsZero() {
		return nil, nil
	}
	doc, err := c.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("find "+c.Name(), err)
	}
	return doc, nil
}

// findMany hydrates a reference list in the store's natural order. Stale ids
// are absent from the result.
func findMany[T any](ctx context.Context, c docstore.Collection[T], ids []ref.ID) ([]*T, error) {
	if len(ids) == 0 {
		return []*T{}, nil
	}
	docs, err := c.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("find "+c.Name(), err)
	}
	return docs, nil
}

func findAll[T any](ctx context.Context, c docstore.Collection[T]) ([]*T, error) {
	docs, err := c.FindAll(ctx)
	if err != nil {
		return nil, apperr.Internal("list "+c.Name(), err)
	}
	return docs, nil
}

func findByExternalID[T any](ctx context.Context, c docstore.Collection[T], id string) (*T, error) {
	oid, err := ref.Parse(id)
	if err != nil {
		return nil, err
	}
	return findOne(ctx, c, oid)
}

func UserPosts(ctx context.Context, d *Deps, u *User) ([]*Post, error) {
	return findMany(ctx, d.Posts, u.Posts)
}

func UserComments(ctx context.Context, d *Deps, u *User) ([]*Comment, error) {
	return findMany(ctx, d.Comments, u.Comments)
}

func UserLikedPosts(ctx context.Context, d *Deps, u *User) ([]*Post, error) {
	return findMany(ctx, d.Posts, u.LikedPosts)
}

func PostAuthor(ctx context.Context, d *Deps, p *Post) (*User, error) {
	return findOne(ctx, d.Users, p.Author)
}

func PostComments(ctx context.Context, d *Deps, p *Post) ([]*Comment, error) {
	return findMany(ctx, d.Comments, p.Comments)
}

// PostLikes returns the users who liked p. A user who liked several times
// appears once, since the lookup is by membership.
func PostLikes(ctx context.Context, d *Deps, p *Post) ([]*User, error) {
	return findMany(ctx, d.Users, p.Likes)
}

func CommentAuthor(ctx context.Context, d *Deps, c *Comment) (*User, error) {
	return findOne(ctx, d.Users, c.Author)
}

func CommentPost(ctx context.Context, d *Deps, c *Comment) (*Post, error) {
	return findOne(ctx, d.Posts, c.Post)
}

func Users(ctx context.Context, d *Deps) ([]*User, error) { return findAll(ctx, d.Users) }

func Posts(ctx context.Context, d *Deps) ([]*Post, error) { return findAll(ctx, d.Posts) }

func Comments(ctx context.Context, d *Deps) ([]*Comment, error) { return findAll(ctx, d.Comments) }

func UserByID(ctx context.Context, d *Deps, id string) (*User, error) {
	return findByExternalID(ctx, d.Users, id)
}

func PostByID(ctx context.Context, d *Deps, id string) (*Post, error) {
	return findByExternalID(ctx, d.Posts, id)
}

func CommentByID(ctx context.Context, d *Deps, id string) (*Comment, error) {
	return findByExternalID(ctx, d.Comments, id)
}

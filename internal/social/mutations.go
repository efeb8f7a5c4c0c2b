package social

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/hanpama/socialgraph/internal/apperr"
	"github.com/hanpama/socialgraph/internal/docstore"
	"github.com/hanpama/socialgraph/internal/ref"
)

// Every handler validates its preconditions before performing at most one
// write. The check and the write are separate store calls; a concurrent
// delete in between is not detected.

type CreateUserInput struct {
	Name     string
	Password string
	Email    string
}

// UpdateUserInput holds the attributes to overwrite. Nil fields are left
// untouched.
type UpdateUserInput struct {
	ID       string
	Name     *string
	Password *string
	Email    *string
}

// CreateUser registers a user. The email must not be registered yet.
func CreateUser(ctx context.Context, d *Deps, in CreateUserInput) (*User, error) {
	existing, err := d.Users.FindOneBy(ctx, "email", in.Email)
	if err != nil {
		return nil, apperr.Internal("find user by email", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("email %s is already registered", in.Email)
	}
	digest, err := d.Hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal("create user", err)
	}

	u := &User{
		Name:       in.Name,
		Email:      in.Email,
		Password:   digest,
		Posts:      []ref.ID{},
		Comments:   []ref.ID{},
		LikedPosts: []ref.ID{},
	}
	id, err := d.Users.InsertOne(ctx, u)
	if err != nil {
		return nil, apperr.Internal("create user", err)
	}
	u.ID = id
	d.logger().DebugContext(ctx, "user created", "user", id.Hex())
	return u, nil
}

// UpdateUser overwrites the provided attributes and returns the user as it
// was before. Email uniqueness is not re-checked.
func UpdateUser(ctx context.Context, d *Deps, in UpdateUserInput) (*User, error) {
	id, err := ref.Parse(in.ID)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Email != nil {
		set["email"] = *in.Email
	}
	if in.Password != nil {
		digest, err := d.Hasher.Hash(*in.Password)
		if err != nil {
			return nil, apperr.Internal("update user", err)
		}
		set["password"] = digest
	}
	return setFields(ctx, d, d.Users, "user", id, set)
}

func DeleteUser(ctx context.Context, d *Deps, id string) error {
	return deleteDoc(ctx, d, d.Users, "user", id)
}

// CreatePost stores a post by an existing user. The post is not added to the
// user's post list.
func CreatePost(ctx context.Context, d *Deps, userID, content string) (*Post, error) {
	author, err := mustFind(ctx, d.Users, "user", userID)
	if err != nil {
		return nil, err
	}
	p := &Post{
		Content:  content,
		Author:   author.ID,
		Comments: []ref.ID{},
		Likes:    []ref.ID{},
	}
	id, err := d.Posts.InsertOne(ctx, p)
	if err != nil {
		return nil, apperr.Internal("create post", err)
	}
	p.ID = id
	d.logger().DebugContext(ctx, "post created", "post", id.Hex(), "author", author.ID.Hex())
	return p, nil
}

func UpdatePost(ctx context.Context, d *Deps, id string, content *string) (*Post, error) {
	oid, err := ref.Parse(id)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	if content != nil {
		set["content"] = *content
	}
	return setFields(ctx, d, d.Posts, "post", oid, set)
}

func DeletePost(ctx context.Context, d *Deps, id string) error {
	return deleteDoc(ctx, d, d.Posts, "post", id)
}

// AddLikeToPost appends userID to the post's likes, even when already
// present, and returns the post as it was before.
func AddLikeToPost(ctx context.Context, d *Deps, postID, userID string) (*Post, error) {
	post, user, err := likeTargets(ctx, d, postID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := d.Posts.Push(ctx, post.ID, "likes", user.ID); err != nil {
		return nil, apperr.Internal("like post", err)
	}
	d.logger().DebugContext(ctx, "post liked", "post", post.ID.Hex(), "user", user.ID.Hex())
	return post, nil
}

// RemoveLikeFromPost removes every like of userID from the post and returns
// the post as it was before. The user's likedPosts list is not touched.
func RemoveLikeFromPost(ctx context.Context, d *Deps, postID, userID string) (*Post, error) {
	post, user, err := likeTargets(ctx, d, postID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := d.Posts.Pull(ctx, post.ID, "likes", user.ID); err != nil {
		return nil, apperr.Internal("unlike post", err)
	}
	d.logger().DebugContext(ctx, "post unliked", "post", post.ID.Hex(), "user", user.ID.Hex())
	return post, nil
}

// CreateComment stores a comment by an existing user on an existing post.
// Neither parent's comment list is updated.
func CreateComment(ctx context.Context, d *Deps, userID, postID, text string) (*Comment, error) {
	author, err := mustFind(ctx, d.Users, "user", userID)
	if err != nil {
		return nil, err
	}
	post, err := mustFind(ctx, d.Posts, "post", postID)
	if err != nil {
		return nil, err
	}
	c := &Comment{Text: text, Author: author.ID, Post: post.ID}
	id, err := d.Comments.InsertOne(ctx, c)
	if err != nil {
		return nil, apperr.Internal("create comment", err)
	}
	c.ID = id
	d.logger().DebugContext(ctx, "comment created", "comment", id.Hex(), "post", post.ID.Hex())
	return c, nil
}

func UpdateComment(ctx context.Context, d *Deps, id string, text *string) (*Comment, error) {
	oid, err := ref.Parse(id)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	if text != nil {
		set["text"] = *text
	}
	return setFields(ctx, d, d.Comments, "comment", oid, set)
}

func DeleteComment(ctx context.Context, d *Deps, id string) error {
	return deleteDoc(ctx, d, d.Comments, "comment", id)
}

// likeTargets parses both ids before looking anything up, then requires the
// post and the user to exist.
func likeTargets(ctx context.Context, d *Deps, postID, userID string) (*Post, *User, error) {
	if _, err := ref.Parse(postID); err != nil {
		return nil, nil, err
	}
	if _, err := ref.Parse(userID); err != nil {
		return nil, nil, err
	}
	post, err := mustFind(ctx, d.Posts, "post", postID)
	if err != nil {
		return nil, nil, err
	}
	user, err := mustFind(ctx, d.Users, "user", userID)
	if err != nil {
		return nil, nil, err
	}
	return post, user, nil
}

// mustFind looks up an external id and fails with NotFound naming kind.
func mustFind[T any](ctx context.Context, c docstore.Collection[T], kind, id string) (*T, error) {
	doc, err := findByExternalID(ctx, c, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperr.NotFound(kind, id)
	}
	return doc, nil
}

// setFields applies set and returns the pre-image. An empty set writes
// nothing and returns the current document.
func setFields[T any](ctx context.Context, d *Deps, c docstore.Collection[T], kind string, id ref.ID, set bson.M) (*T, error) {
	var (
		before *T
		err    error
	)
	if len(set) == 0 {
		before, err = c.FindByID(ctx, id)
	} else {
		before, err = c.FindOneAndSet(ctx, id, set)
	}
	if err != nil {
		return nil, apperr.Internal("update "+kind, err)
	}
	if before == nil {
		return nil, apperr.NotFound(kind, id.Hex())
	}
	d.logger().DebugContext(ctx, kind+" updated", kind, id.Hex(), "fields", len(set))
	return before, nil
}

func deleteDoc[T any](ctx context.Context, d *Deps, c docstore.Collection[T], kind, id string) error {
	oid, err := ref.Parse(id)
	if err != nil {
		return err
	}
	deleted, err := c.FindOneAndDelete(ctx, oid)
	if err != nil {
		return apperr.Internal("delete "+kind, err)
	}
	if deleted == nil {
		return apperr.NotFound(kind, id)
	}
	d.logger().DebugContext(ctx, kind+" deleted", kind, id)
	return nil
}

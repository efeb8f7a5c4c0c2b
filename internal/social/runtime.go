package social

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/hanpama/socialgraph/internal/executor"
	"github.com/hanpama/socialgraph/internal/ref"
	"github.com/hanpama/socialgraph/internal/schema"
)

//go:embed schema.graphql
var sdl string

// SDL returns the GraphQL schema source served by Runtime.
func SDL() string { return sdl }

// Schema builds the executable schema from SDL.
func Schema() (*schema.Schema, error) {
	return schema.BuildFromSDL("schema.graphql", sdl)
}

// Runtime binds the query and mutation surface to the resolvers and handlers
// of this package. It holds one Deps and passes it to every call.
type Runtime struct {
	deps      *Deps
	resolvers map[string]executor.ResolverFunc
}

var _ executor.Runtime = (*Runtime)(nil)

func NewRuntime(deps *Deps) *Runtime {
	r := &Runtime{deps: deps}
	r.resolvers = r.bind()
	return r
}

func (r *Runtime) Resolve(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	fn, ok := r.resolvers[objectType+"."+field]
	if !ok {
		return nil, fmt.Errorf("no resolver for %s.%s", objectType, field)
	}
	return fn(ctx, source, args)
}

func (r *Runtime) SerializeLeafValue(_ context.Context, typeName string, value any) (any, error) {
	switch v := value.(type) {
	case ref.ID:
		return ref.String(v), nil
	case string, bool, int, int32, int64, float64:
		return v, nil
	default:
		return nil, fmt.Errorf("cannot serialize %T as %s", value, typeName)
	}
}

func (r *Runtime) bind() map[string]executor.ResolverFunc {
	d := r.deps
	return map[string]executor.ResolverFunc{
		// Query
		"Query.users": func(ctx context.Context, _ any, _ map[string]any) (any, error) {
			return Users(ctx, d)
		},
		"Query.user": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return UserByID(ctx, d, str(args, "id"))
		},
		"Query.posts": func(ctx context.Context, _ any, _ map[string]any) (any, error) {
			return Posts(ctx, d)
		},
		"Query.post": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return PostByID(ctx, d, str(args, "id"))
		},
		"Query.comments": func(ctx context.Context, _ any, _ map[string]any) (any, error) {
			return Comments(ctx, d)
		},
		"Query.comment": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return CommentByID(ctx, d, str(args, "id"))
		},

		// User
		"User.id":    userField(func(u *User) any { return u.ID }),
		"User.name":  userField(func(u *User) any { return u.Name }),
		"User.email": userField(func(u *User) any { return u.Email }),
		"User.posts": func(ctx context.Context, src any, _ map[string]any) (any, error) {
			return UserPosts(ctx, d, src.(*User))
		},
		"User.comments": func(ctx context.Context, src any, _ map[string]any) (any, error) {
			return UserComments(ctx, d, src.(*User))
		},
		"User.likedPosts": func(ctx context.Context, src any, _ map[string]any) (any, error) {
			return UserLikedPosts(ctx, d, src.(*User))
		},

		// Post
		"Post.id":      postField(func(p *Post) any { return p.ID }),
		"Post.content": postField(func(p *Post) any { return p.Content }),
		"Post.author": func(ctx context.Context, src any, _ map[string]any) (any, error) {
			return PostAuthor(ctx, d, src.(*Post))
		},
		"Post.comments": func(ctx context.Context, src any, _ map[string]any) (any, error) {
			return PostComments(ctx, d, src.(*Post))
		},
		"Post.likes": func(ctx context.Context, src any, _ map[string]any) (any, error) {
			return PostLikes(ctx, d, src.(*Post))
		},

		// Comment
		"Comment.id":   commentField(func(c *Comment) any { return c.ID }),
		"Comment.text": commentField(func(c *Comment) any { return c.Text }),
		"Comment.author": func(ctx context.Context, src any, _ map[string]any) (any, error) {
			return CommentAuthor(ctx, d, src.(*Comment))
		},
		"Comment.post": func(ctx context.Context, src any, _ map[string]any) (any, error) {
			return CommentPost(ctx, d, src.(*Comment))
		},

		// Mutation
		"Mutation.createUser": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return CreateUser(ctx, d, CreateUserInput{
				Name:     str(args, "name"),
				Password: str(args, "password"),
				Email:    str(args, "email"),
			})
		},
		"Mutation.updateUser": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return UpdateUser(ctx, d, UpdateUserInput{
				ID:       str(args, "id"),
				Name:     optStr(args, "name"),
				Password: optStr(args, "password"),
				Email:    optStr(args, "email"),
			})
		},
		"Mutation.deleteUser": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return nil, DeleteUser(ctx, d, str(args, "id"))
		},
		"Mutation.createPost": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return CreatePost(ctx, d, str(args, "userId"), str(args, "content"))
		},
		"Mutation.updatePost": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return UpdatePost(ctx, d, str(args, "id"), optStr(args, "content"))
		},
		"Mutation.deletePost": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return nil, DeletePost(ctx, d, str(args, "id"))
		},
		"Mutation.addLikeToPost": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return AddLikeToPost(ctx, d, str(args, "postId"), str(args, "userId"))
		},
		"Mutation.removeLikeFromPost": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return RemoveLikeFromPost(ctx, d, str(args, "postId"), str(args, "userId"))
		},
		"Mutation.createComment": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return CreateComment(ctx, d, str(args, "userId"), str(args, "postId"), str(args, "text"))
		},
		"Mutation.updateComment": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return UpdateComment(ctx, d, str(args, "id"), optStr(args, "text"))
		},
		"Mutation.deleteComment": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return nil, DeleteComment(ctx, d, str(args, "id"))
		},
	}
}

func userField(get func(*User) any) executor.ResolverFunc {
	return func(_ context.Context, src any, _ map[string]any) (any, error) { return get(src.(*User)), nil }
}

func postField(get func(*Post) any) executor.ResolverFunc {
	return func(_ context.Context, src any, _ map[string]any) (any, error) { return get(src.(*Post)), nil }
}

func commentField(get func(*Comment) any) executor.ResolverFunc {
	return func(_ context.Context, src any, _ map[string]any) (any, error) { return get(src.(*Comment)), nil }
}

func str(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

// optStr returns nil for an absent or null argument.
func optStr(args map[string]any, name string) *string {
	s, ok := args[name].(string)
	if !ok {
		return nil
	}
	return &s
}

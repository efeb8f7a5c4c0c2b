package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const blogSDL = `
type Query {
  post(id: ID!): Post
  posts(limit: Int = 10): [Post!]!
}

type Mutation {
  createPost(content: String!): Post!
}

"""A published post."""
type Post {
  id: ID!
  content: String!
  tags: [String!]
}
`

func TestBuildFromSDL(t *testing.T) {
	s, err := BuildFromSDL("blog.graphql", blogSDL)
	require.NoError(t, err)
	require.NotNil(t, s.Source)

	require.Equal(t, "Query", s.QueryType)
	require.Equal(t, "Mutation", s.MutationType)

	post := s.Types["Post"]
	require.NotNil(t, post)
	require.Equal(t, TypeKindObject, post.Kind)
	require.Equal(t, "A published post.", post.Description)

	tags := post.Field("tags")
	require.NotNil(t, tags)
	if diff := cmp.Diff(ListType(NonNullType(NamedType("String"))), tags.Type); diff != "" {
		t.Fatalf("tags type mismatch (-want +got):\n%s", diff)
	}

	posts := s.GetQueryType().Field("posts")
	require.Equal(t, "[Post!]!", posts.Type.String())
	require.Equal(t, int64(10), posts.Argument("limit").DefaultValue)

	for name := range s.Types {
		require.NotContains(t, name, "__", "introspection types must not leak into the model")
	}
}

func TestBuildFromSDLRejectsAbstractTypes(t *testing.T) {
	_, err := BuildFromSDL("bad.graphql", `
type Query { node: Node }
interface Node { id: ID! }
`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "interface")
}

func TestTypeRefHelpers(t *testing.T) {
	ref := NonNullType(ListType(NamedType("User")))
	require.True(t, ref.IsNonNull())
	require.True(t, ref.IsList())
	require.Equal(t, "User", ref.NamedType())
	require.False(t, ref.Unwrap().IsNonNull())
	require.True(t, ref.Unwrap().IsList())
}

func TestRender(t *testing.T) {
	s, err := BuildFromSDL("blog.graphql", blogSDL)
	require.NoError(t, err)

	want := `type Query {
  post(id: ID!): Post
  posts(limit: Int = 10): [Post!]!
}

type Mutation {
  createPost(content: String!): Post!
}

"""A published post."""
type Post {
  id: ID!
  content: String!
  tags: [String!]
}
`
	if diff := cmp.Diff(want, Render(s)); diff != "" {
		t.Fatalf("Render mismatch (-want +got):\n%s", diff)
	}
}

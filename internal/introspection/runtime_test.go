package introspection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/socialgraph/internal/executor"
	schema "github.com/hanpama/socialgraph/internal/schema"
)

// echoRuntime answers Query.hello and passes leaves through.
type echoRuntime struct{}

func (echoRuntime) Resolve(_ context.Context, objectType, field string, _ any, _ map[string]any) (any, error) {
	if objectType == "Query" && field == "hello" {
		return "world", nil
	}
	return nil, nil
}

func (echoRuntime) SerializeLeafValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

const sdl = `
"""Entry point."""
type Query {
  hello: String
  old: String @deprecated(reason: "use hello")
  item(id: ID!, limit: Int = 10): Item
}

type Item { tags: [String!]! }
`

func newExecutor(t *testing.T) *executor.Executor {
	t.Helper()
	sch, err := schema.BuildFromSDL("test.graphql", sdl)
	require.NoError(t, err)
	w, err := Wrap(echoRuntime{}, sch)
	require.NoError(t, err)
	return executor.NewExecutor(w.Runtime, w.Schema)
}

func TestSchemaRootTypes(t *testing.T) {
	ex := newExecutor(t)
	res := ex.Execute(context.Background(), `{ __schema { queryType { name description } mutationType { name } } hello }`, "", nil)
	require.Empty(t, res.Errors)
	want := map[string]any{
		"__schema": map[string]any{
			"queryType":    map[string]any{"name": "Query", "description": "Entry point."},
			"mutationType": nil,
		},
		"hello": "world",
	}
	assert.Equal(t, want, res.Data)
}

func TestTypeFieldsAndWrappers(t *testing.T) {
	ex := newExecutor(t)
	res := ex.Execute(context.Background(), `{
  __type(name: "Item") {
    kind
    fields { name type { kind ofType { kind ofType { kind ofType { kind name } } } } }
  }
}`, "", nil)
	require.Empty(t, res.Errors)
	want := map[string]any{"__type": map[string]any{
		"kind": "OBJECT",
		"fields": []any{map[string]any{
			"name": "tags",
			"type": map[string]any{
				"kind": "NON_NULL",
				"ofType": map[string]any{
					"kind": "LIST",
					"ofType": map[string]any{
						"kind":   "NON_NULL",
						"ofType": map[string]any{"kind": "SCALAR", "name": "String"},
					},
				},
			},
		}},
	}}
	assert.Equal(t, want, res.Data)
}

func TestDeprecationAndArguments(t *testing.T) {
	ex := newExecutor(t)
	res := ex.Execute(context.Background(), `{
  __type(name: "Query") {
    visible: fields { name }
    all: fields(includeDeprecated: true) { name isDeprecated deprecationReason args { name defaultValue } }
  }
}`, "", nil)
	require.Empty(t, res.Errors)
	typ := res.Data.(map[string]any)["__type"].(map[string]any)
	assert.Equal(t, []any{
		map[string]any{"name": "hello"},
		map[string]any{"name": "item"},
	}, typ["visible"])

	all := typ["all"].([]any)
	require.Len(t, all, 3)
	old := all[1].(map[string]any)
	assert.Equal(t, "old", old["name"])
	assert.Equal(t, true, old["isDeprecated"])
	assert.Equal(t, "use hello", old["deprecationReason"])
	item := all[2].(map[string]any)
	assert.Equal(t, []any{
		map[string]any{"name": "id", "defaultValue": nil},
		map[string]any{"name": "limit", "defaultValue": "10"},
	}, item["args"])
}

func TestUnknownTypeIsNull(t *testing.T) {
	ex := newExecutor(t)
	res := ex.Execute(context.Background(), `{ __type(name: "Nope") { name } }`, "", nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{"__type": nil}, res.Data)
}

func TestDirectivesListed(t *testing.T) {
	ex := newExecutor(t)
	res := ex.Execute(context.Background(), `{ __schema { directives { name } } }`, "", nil)
	require.Empty(t, res.Errors)
	dirs := res.Data.(map[string]any)["__schema"].(map[string]any)["directives"].([]any)
	var names []string
	for _, d := range dirs {
		names = append(names, d.(map[string]any)["name"].(string))
	}
	assert.Contains(t, names, "skip")
	assert.Contains(t, names, "include")
	assert.Contains(t, names, "deprecated")
}

func TestWrapRequiresSource(t *testing.T) {
	s := schema.NewSchema("").SetQueryType("Query")
	s.AddType(schema.NewObject("Query", schema.NewField("hello", schema.NamedType("String"))))
	_, err := Wrap(echoRuntime{}, s)
	assert.Error(t, err)
}

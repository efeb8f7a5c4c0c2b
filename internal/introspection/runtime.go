// Package introspection answers __schema and __type queries from the
// gqlparser schema an executable schema was built from.
package introspection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	executor "github.com/hanpama/socialgraph/internal/executor"
	schema "github.com/hanpama/socialgraph/internal/schema"
)

// IntrospectionWrapper holds both the runtime and extended schema
type IntrospectionWrapper struct {
	Runtime executor.Runtime
	Schema  *schema.Schema
}

// Wrap returns a Runtime that handles GraphQL introspection fields and
// delegates everything else to base. The returned schema is a copy of sch
// extended with the introspection types and the __schema and __type root
// fields. sch must have been built from SDL.
func Wrap(base executor.Runtime, sch *schema.Schema) (*IntrospectionWrapper, error) {
	if sch.Source == nil {
		return nil, fmt.Errorf("introspection needs a schema built from SDL")
	}
	extended, err := extendSchema(sch)
	if err != nil {
		return nil, err
	}
	return &IntrospectionWrapper{
		Runtime: &runtime{base: base, src: sch.Source, queryType: sch.QueryType},
		Schema:  extended,
	}, nil
}

func extendSchema(sch *schema.Schema) (*schema.Schema, error) {
	out := *sch
	out.Types = make(map[string]*schema.Type, len(sch.Types)+8)
	for name, t := range sch.Types {
		out.Types[name] = t
	}
	for name, def := range sch.Source.Types {
		if !strings.HasPrefix(name, "__") {
			continue
		}
		t, err := schema.BuildType(def)
		if err != nil {
			return nil, err
		}
		out.Types[name] = t
	}
	if q := sch.Types[sch.QueryType]; q != nil {
		root := *q
		root.Fields = append(append([]*schema.Field{}, q.Fields...),
			schema.NewField("__schema", schema.NonNullType(schema.NamedType("__Schema"))),
			schema.NewField("__type", schema.NamedType("__Type"),
				schema.NewArgument("name", schema.NonNullType(schema.NamedType("String")))),
		)
		out.Types[root.Name] = &root
	}
	return &out, nil
}

type runtime struct {
	base      executor.Runtime
	src       *ast.Schema
	queryType string
}

// typeNode is a __Type value: either a named definition or a wrapper.
type typeNode struct {
	def  *ast.Definition
	kind string // NON_NULL or LIST for wrappers
	of   *typeNode
}

// inputValue is an __InputValue: a field argument, directive argument or
// input object field.
type inputValue struct {
	name, description string
	typ               *ast.Type
	defaultValue      *ast.Value
	directives        ast.DirectiveList
}

func (r *runtime) Resolve(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	switch objectType {
	case "__Schema":
		return r.resolveSchema(field), nil
	case "__Type":
		return r.resolveType(source.(*typeNode), field, args), nil
	case "__Field":
		return r.resolveField(source.(*ast.FieldDefinition), field, args), nil
	case "__InputValue":
		return r.resolveInputValue(source.(*inputValue), field), nil
	case "__EnumValue":
		ev := source.(*ast.EnumValueDefinition)
		switch field {
		case "name":
			return ev.Name, nil
		case "description":
			return optional(ev.Description), nil
		}
		return deprecation(ev.Directives, field), nil
	case "__Directive":
		return r.resolveDirective(source.(*ast.DirectiveDefinition), field, args), nil
	}
	if objectType == r.queryType {
		switch field {
		case "__schema":
			return r.src, nil
		case "__type":
			name, _ := args["name"].(string)
			if def := r.src.Types[name]; def != nil {
				return &typeNode{def: def}, nil
			}
			return nil, nil
		}
	}
	return r.base.Resolve(ctx, objectType, field, source, args)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typ string, value any) (any, error) {
	switch typ {
	case "__TypeKind", "__DirectiveLocation":
		return value, nil
	}
	return r.base.SerializeLeafValue(ctx, typ, value)
}

func (r *runtime) resolveSchema(field string) any {
	switch field {
	case "types":
		names := make([]string, 0, len(r.src.Types))
		for name := range r.src.Types {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]*typeNode, len(names))
		for i, name := range names {
			out[i] = &typeNode{def: r.src.Types[name]}
		}
		return out
	case "queryType":
		return r.named(r.src.Query)
	case "mutationType":
		return r.named(r.src.Mutation)
	case "subscriptionType":
		return r.named(r.src.Subscription)
	case "directives":
		names := make([]string, 0, len(r.src.Directives))
		for name := range r.src.Directives {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]*ast.DirectiveDefinition, len(names))
		for i, name := range names {
			out[i] = r.src.Directives[name]
		}
		return out
	}
	return nil
}

func (r *runtime) named(def *ast.Definition) *typeNode {
	if def == nil {
		return nil
	}
	return &typeNode{def: def}
}

func (r *runtime) typeOf(t *ast.Type) *typeNode {
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		return &typeNode{kind: "NON_NULL", of: r.typeOf(&inner)}
	}
	if t.Elem != nil {
		return &typeNode{kind: "LIST", of: r.typeOf(t.Elem)}
	}
	return r.named(r.src.Types[t.NamedType])
}

func (r *runtime) resolveType(t *typeNode, field string, args map[string]any) any {
	if t.def == nil {
		switch field {
		case "kind":
			return t.kind
		case "ofType":
			return t.of
		case "isOneOf":
			return false
		}
		return nil
	}

	def := t.def
	includeDeprecated, _ := args["includeDeprecated"].(bool)
	switch field {
	case "kind":
		return string(def.Kind)
	case "name":
		return def.Name
	case "description":
		return optional(def.Description)
	case "specifiedByURL":
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil {
				return arg.Value.Raw
			}
		}
		return nil
	case "isOneOf":
		return def.Kind == ast.InputObject && def.Directives.ForName("oneOf") != nil
	case "fields":
		if def.Kind != ast.Object && def.Kind != ast.Interface {
			return nil
		}
		out := []*ast.FieldDefinition{}
		for _, f := range def.Fields {
			if strings.HasPrefix(f.Name, "__") || (!includeDeprecated && isDeprecated(f.Directives)) {
				continue
			}
			out = append(out, f)
		}
		return out
	case "interfaces":
		if def.Kind != ast.Object && def.Kind != ast.Interface {
			return nil
		}
		out := []*typeNode{}
		for _, name := range def.Interfaces {
			if n := r.named(r.src.Types[name]); n != nil {
				out = append(out, n)
			}
		}
		return out
	case "possibleTypes":
		if def.Kind != ast.Interface && def.Kind != ast.Union {
			return nil
		}
		out := []*typeNode{}
		for _, pt := range r.src.GetPossibleTypes(def) {
			out = append(out, &typeNode{def: pt})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].def.Name < out[j].def.Name })
		return out
	case "enumValues":
		if def.Kind != ast.Enum {
			return nil
		}
		out := []*ast.EnumValueDefinition{}
		for _, ev := range def.EnumValues {
			if !includeDeprecated && isDeprecated(ev.Directives) {
				continue
			}
			out = append(out, ev)
		}
		return out
	case "inputFields":
		if def.Kind != ast.InputObject {
			return nil
		}
		out := []*inputValue{}
		for _, f := range def.Fields {
			if !includeDeprecated && isDeprecated(f.Directives) {
				continue
			}
			out = append(out, &inputValue{f.Name, f.Description, f.Type, f.DefaultValue, f.Directives})
		}
		return out
	}
	return nil
}

func (r *runtime) resolveField(f *ast.FieldDefinition, field string, args map[string]any) any {
	switch field {
	case "name":
		return f.Name
	case "description":
		return optional(f.Description)
	case "args":
		return argumentValues(f.Arguments, args)
	case "type":
		return r.typeOf(f.Type)
	}
	return deprecation(f.Directives, field)
}

func (r *runtime) resolveInputValue(v *inputValue, field string) any {
	switch field {
	case "name":
		return v.name
	case "description":
		return optional(v.description)
	case "type":
		return r.typeOf(v.typ)
	case "defaultValue":
		if v.defaultValue == nil {
			return nil
		}
		return v.defaultValue.String()
	}
	return deprecation(v.directives, field)
}

func (r *runtime) resolveDirective(d *ast.DirectiveDefinition, field string, args map[string]any) any {
	switch field {
	case "name":
		return d.Name
	case "description":
		return optional(d.Description)
	case "locations":
		out := make([]string, len(d.Locations))
		for i, l := range d.Locations {
			out[i] = string(l)
		}
		return out
	case "args":
		return argumentValues(d.Arguments, args)
	case "isRepeatable":
		return d.IsRepeatable
	}
	return nil
}

func argumentValues(defs ast.ArgumentDefinitionList, args map[string]any) []*inputValue {
	includeDeprecated, _ := args["includeDeprecated"].(bool)
	out := []*inputValue{}
	for _, a := range defs {
		if !includeDeprecated && isDeprecated(a.Directives) {
			continue
		}
		out = append(out, &inputValue{a.Name, a.Description, a.Type, a.DefaultValue, a.Directives})
	}
	return out
}

func isDeprecated(dirs ast.DirectiveList) bool { return dirs.ForName("deprecated") != nil }

// deprecation resolves isDeprecated and deprecationReason.
func deprecation(dirs ast.DirectiveList, field string) any {
	d := dirs.ForName("deprecated")
	switch field {
	case "isDeprecated":
		return d != nil
	case "deprecationReason":
		if d == nil {
			return nil
		}
		if arg := d.Arguments.ForName("reason"); arg != nil {
			return arg.Value.Raw
		}
		return "No longer supported"
	}
	return nil
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

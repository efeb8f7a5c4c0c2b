package schema

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/socialgraph/internal/language"
)

// BuildFromSDL validates sdl and returns the executable schema. Introspection
// types from the gqlparser prelude are left out; interfaces and unions are
// rejected because the executor does not resolve abstract types.
func BuildFromSDL(name, sdl string) (*Schema, error) {
	src, err := language.LoadSchema(name, sdl)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", name, err)
	}
	s := NewSchema("")
	s.Source = src
	if src.Query != nil {
		s.SetQueryType(src.Query.Name)
	}
	if src.Mutation != nil {
		s.SetMutationType(src.Mutation.Name)
	}
	for typeName, def := range src.Types {
		if strings.HasPrefix(typeName, "__") || def.BuiltIn {
			continue
		}
		t, err := BuildType(def)
		if err != nil {
			return nil, err
		}
		s.AddType(t)
	}
	return s, nil
}

// BuildType converts one gqlparser definition. Fields whose names start with
// "__" are dropped.
func BuildType(def *ast.Definition) (*Type, error) {
	t := &Type{Name: def.Name, Description: def.Description}
	switch def.Kind {
	case ast.Object:
		t.Kind = TypeKindObject
		for _, fd := range def.Fields {
			if strings.HasPrefix(fd.Name, "__") {
				continue
			}
			t.Fields = append(t.Fields, buildField(fd))
		}
	case ast.Scalar:
		t.Kind = TypeKindScalar
	case ast.Enum:
		t.Kind = TypeKindEnum
		for _, v := range def.EnumValues {
			t.EnumValues = append(t.EnumValues, v.Name)
		}
	case ast.InputObject:
		t.Kind = TypeKindInputObject
		for _, fd := range def.Fields {
			t.InputFields = append(t.InputFields, buildInputValue(fd.Name, fd.Description, fd.Type, fd.DefaultValue))
		}
	default:
		return nil, fmt.Errorf("type %s: %s types are not supported", def.Name, strings.ToLower(string(def.Kind)))
	}
	return t, nil
}

func buildField(fd *ast.FieldDefinition) *Field {
	f := &Field{Name: fd.Name, Description: fd.Description, Type: buildTypeRef(fd.Type)}
	for _, a := range fd.Arguments {
		f.Arguments = append(f.Arguments, buildInputValue(a.Name, a.Description, a.Type, a.DefaultValue))
	}
	return f
}

func buildInputValue(name, desc string, typ *ast.Type, def *ast.Value) *InputValue {
	in := &InputValue{Name: name, Description: desc, Type: buildTypeRef(typ)}
	if def != nil {
		v, err := def.Value(nil)
		if err == nil {
			in.DefaultValue = v
		}
	}
	return in
}

func buildTypeRef(t *ast.Type) *TypeRef {
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(buildTypeRef(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		return NonNullType(ref)
	}
	return ref
}

// Package schema holds the executable GraphQL schema model consumed by the
// executor, built from SDL with gqlparser.
package schema

import (
	language "github.com/hanpama/socialgraph/internal/language"
)

// Schema is the executable view of a GraphQL schema.
type Schema struct {
	QueryType    string
	MutationType string
	Types        map[string]*Type
	Description  string

	// Source is the validated gqlparser schema the model was built from. It is
	// used to validate incoming documents and is nil for hand-built schemas.
	Source *language.SchemaDefinition `json:"-"`
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// Type is a named GraphQL type.
type Type struct {
	Name        string
	Kind        TypeKind
	Description string
	Fields      []*Field      // OBJECT
	EnumValues  []string      // ENUM
	InputFields []*InputValue // INPUT_OBJECT
}

// Field returns the field named name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field is a field of an object type.
type Field struct {
	Name        string
	Description string
	Type        *TypeRef
	Arguments   []*InputValue
}

// Argument returns the argument named name, or nil.
func (f *Field) Argument(name string) *InputValue {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef is a possibly wrapped reference to a named type.
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // LIST and NON_NULL
	Named  string   // NAMED
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

func (t *TypeRef) IsNonNull() bool { return t != nil && t.Kind == TypeRefKindNonNull }

// IsList reports whether t is a list, possibly wrapped by Non-Null.
func (t *TypeRef) IsList() bool {
	if t == nil {
		return false
	}
	if t.Kind == TypeRefKindNonNull {
		return t.OfType.IsList()
	}
	return t.Kind == TypeRefKindList
}

// Unwrap removes one layer of Non-Null or List wrapping.
func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

// NamedType returns the innermost type name.
func (t *TypeRef) NamedType() string {
	for cur := t; cur != nil; cur = cur.OfType {
		if cur.Kind == TypeRefKindNamed {
			return cur.Named
		}
	}
	return ""
}

func (t *TypeRef) String() string {
	switch t.Kind {
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	default:
		return t.Named
	}
}

// InputValue is a field argument or an input object field.
type InputValue struct {
	Name         string
	Description  string
	Type         *TypeRef
	DefaultValue any
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// NewSchema returns an empty schema with the built-in scalars registered.
func NewSchema(description string) *Schema {
	s := &Schema{Types: make(map[string]*Type), Description: description}
	for _, name := range builtinScalars {
		s.AddType(&Type{Name: name, Kind: TypeKindScalar})
	}
	return s
}

func (s *Schema) SetQueryType(name string) *Schema    { s.QueryType = name; return s }
func (s *Schema) SetMutationType(name string) *Schema { s.MutationType = name; return s }
func (s *Schema) AddType(t *Type) *Schema             { s.Types[t.Name] = t; return s }

// NewObject returns an object type with the given fields.
func NewObject(name string, fields ...*Field) *Type {
	return &Type{Name: name, Kind: TypeKindObject, Fields: fields}
}

// NewField returns a field without arguments.
func NewField(name string, typ *TypeRef, args ...*InputValue) *Field {
	return &Field{Name: name, Type: typ, Arguments: args}
}

// NewArgument returns an argument without a default value.
func NewArgument(name string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Type: typ}
}

var builtinScalars = []string{"String", "Int", "Float", "Boolean", "ID"}

// IsBuiltin reports whether name is one of the specified scalars.
func IsBuiltin(name string) bool {
	for _, b := range builtinScalars {
		if b == name {
			return true
		}
	}
	return false
}

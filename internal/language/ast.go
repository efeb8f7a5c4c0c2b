package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Documents and schema.
type (
	QueryDocument       = ast.QueryDocument
	OperationDefinition = ast.OperationDefinition
	SchemaDefinition    = ast.Schema
	Type                = ast.Type
)

// Selections.
type (
	SelectionSet   = ast.SelectionSet
	Field          = ast.Field
	InlineFragment = ast.InlineFragment
	FragmentSpread = ast.FragmentSpread
	Directive      = ast.Directive
	DirectiveList  = ast.DirectiveList
	ArgumentList   = ast.ArgumentList
	Value          = ast.Value
)

type (
	Error     = gqlerror.Error
	ErrorList = gqlerror.List
)

type Operation = ast.Operation

const (
	Query    Operation = ast.Query
	Mutation Operation = ast.Mutation
)

type ValueKind = ast.ValueKind

// Literal and variable value kinds the executor coerces.
const (
	Variable     ValueKind = ast.Variable
	IntValue     ValueKind = ast.IntValue
	FloatValue   ValueKind = ast.FloatValue
	StringValue  ValueKind = ast.StringValue
	BlockValue   ValueKind = ast.BlockValue
	BooleanValue ValueKind = ast.BooleanValue
	EnumValue    ValueKind = ast.EnumValue
	ListValue    ValueKind = ast.ListValue
	ObjectValue  ValueKind = ast.ObjectValue
)

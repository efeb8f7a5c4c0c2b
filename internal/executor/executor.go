package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	language "github.com/hanpama/socialgraph/internal/language"
	schema "github.com/hanpama/socialgraph/internal/schema"
)

type Path []PathElement

type PathElement any

// executionState holds the state of one operation.
type executionState struct {
	ctx            context.Context
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	errors         []GraphQLError
	// aborted is set by an error that stops the whole operation
	aborted *GraphQLError
}

type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// Schema returns the schema e executes against.
func (e *Executor) Schema() *schema.Schema { return e.schema }

// Execute parses query, validates it when the schema carries its source, and
// executes the selected operation.
func (e *Executor) Execute(ctx context.Context, query, operationName string, variableValues map[string]any) *ExecutionResult {
	doc, errs := e.Parse(query)
	if len(errs) > 0 {
		return &ExecutionResult{Errors: errs}
	}
	return e.ExecuteRequest(ctx, doc, operationName, variableValues)
}

// Parse parses and, when possible, validates query.
func (e *Executor) Parse(query string) (*language.QueryDocument, []GraphQLError) {
	if e.schema.Source != nil {
		doc, errs := language.LoadQuery(e.schema.Source, query)
		if len(errs) > 0 {
			out := make([]GraphQLError, len(errs))
			for i, ge := range errs {
				out[i] = fromGQLError(ge)
			}
			return nil, out
		}
		return doc, nil
	}
	doc, err := language.ParseQuery(query)
	if err != nil {
		var ge *language.Error
		if errors.As(err, &ge) {
			return nil, []GraphQLError{fromGQLError(ge)}
		}
		return nil, []GraphQLError{{Message: err.Error()}}
	}
	return doc, nil
}

// ExecuteRequest executes an already parsed document.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
) *ExecutionResult {
	operation := getOperation(document, operationName)
	if operation == nil {
		if operationName == "" {
			return &ExecutionResult{Errors: []GraphQLError{{Message: "operation name is required when the document defines several operations"}}}
		}
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("operation %q not found", operationName)}}}
	}

	coerced, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	default:
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("unsupported operation type: %s", operation.Operation)}}}
	}
	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("schema does not support %s operations", operation.Operation)}}}
	}

	state := &executionState{
		ctx:            ctx,
		runtime:        e.runtime,
		schema:         e.schema,
		document:       document,
		variableValues: coerced,
		errors:         []GraphQLError{},
	}

	data, failed := state.executeSelectionSet(rootType, operation.SelectionSet, nil, Path{})
	if state.aborted != nil {
		return &ExecutionResult{Data: nil, Errors: []GraphQLError{*state.aborted}}
	}
	if failed {
		return &ExecutionResult{Data: nil, Errors: state.errors}
	}
	return &ExecutionResult{Data: data, Errors: state.errors}
}

// executeSelectionSet executes the fields of one object in order. failed
// reports that a Non-Null field of this object is null because of an error,
// which nulls the object itself.
func (s *executionState) executeSelectionSet(objectType *schema.Type, selectionSet language.SelectionSet, source any, path Path) (result map[string]any, failed bool) {
	grouped := collectFields(s, objectType, selectionSet)
	result = make(map[string]any, len(grouped.fields))
	for _, cf := range grouped.fields {
		if s.aborted != nil {
			return nil, true
		}
		fieldPath := appendPath(path, cf.ResponseName)
		value, fieldFailed := s.executeField(objectType, source, cf.Fields, fieldPath)
		if fieldFailed {
			if def := objectType.Field(cf.Fields[0].Name); def != nil && def.Type.IsNonNull() {
				return nil, true
			}
			value = nil
		}
		result[cf.ResponseName] = value
	}
	return result, false
}

func (s *executionState) executeField(objectType *schema.Type, source any, fields []*language.Field, path Path) (any, bool) {
	field := fields[0]
	if field.Name == "__typename" {
		return objectType.Name, false
	}

	fieldDef := objectType.Field(field.Name)
	if fieldDef == nil {
		s.addError(fmt.Sprintf("Cannot query field %q on type %q", field.Name, objectType.Name), path, field)
		return nil, true
	}

	args, err := coerceArgumentValues(s.schema, fieldDef, field.Arguments, s.variableValues)
	if err != nil {
		s.addError(err.Error(), path, field)
		return nil, true
	}

	resolved, err := s.runtime.Resolve(s.ctx, objectType.Name, field.Name, source, args)
	if err != nil {
		s.fieldError(err, path, field)
		return nil, true
	}
	return s.completeValue(fieldDef.Type, fields, resolved, path)
}

// completeValue shapes result according to fieldType. failed reports a null
// caused by an error; callers absorb it at nullable positions.
func (s *executionState) completeValue(fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) (any, bool) {
	if fieldType.IsNonNull() {
		completed, failed := s.completeValue(fieldType.OfType, fields, result, path)
		if failed {
			return nil, true
		}
		if completed == nil {
			s.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), path, fields[0])
			return nil, true
		}
		return completed, false
	}

	if isNullish(result) {
		return nil, false
	}

	if fieldType.Kind == schema.TypeRefKindList {
		return s.completeListValue(fieldType, fields, result, path)
	}

	namedType := fieldType.NamedType()
	typeObj := s.schema.Types[namedType]
	if typeObj == nil {
		s.addError(fmt.Sprintf("Unknown type: %s", namedType), path, fields[0])
		return nil, true
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := s.runtime.SerializeLeafValue(s.ctx, namedType, result)
		if err != nil {
			s.fieldError(err, path, fields[0])
			return nil, true
		}
		return serialized, false
	case schema.TypeKindObject:
		sub, failed := s.executeSelectionSet(typeObj, mergeSelectionSets(fields), result, path)
		if failed {
			return nil, true
		}
		return sub, false
	default:
		s.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), path, fields[0])
		return nil, true
	}
}

func (s *executionState) completeListValue(listType *schema.TypeRef, fields []*language.Field, result any, path Path) (any, bool) {
	rv := reflect.ValueOf(result)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		s.addError(fmt.Sprintf("Expected list value, got %T", result), path, fields[0])
		return nil, true
	}

	inner := listType.OfType
	completed := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		if s.aborted != nil {
			return nil, true
		}
		v, failed := s.completeValue(inner, fields, rv.Index(i).Interface(), appendPath(path, i))
		if failed {
			if inner.IsNonNull() {
				return nil, true
			}
			v = nil
		}
		completed[i] = v
	}
	return completed, false
}

// fieldError records err for the field at path, or aborts the operation when
// err demands it.
func (s *executionState) fieldError(err error, path Path, field *language.Field) {
	ge := GraphQLError{Message: err.Error(), Path: path, Locations: fieldLocations(field)}
	var ext interface{ Extensions() map[string]any }
	if errors.As(err, &ext) {
		ge.Extensions = ext.Extensions()
	}
	var ab interface{ AbortsRequest() bool }
	if errors.As(err, &ab) && ab.AbortsRequest() {
		s.aborted = &ge
		return
	}
	s.errors = append(s.errors, ge)
}

func (s *executionState) addError(message string, path Path, field *language.Field) {
	s.errors = append(s.errors, GraphQLError{Message: message, Path: path, Locations: fieldLocations(field)})
}

func fieldLocations(field *language.Field) []Location {
	if field == nil || field.Position == nil {
		return nil
	}
	return []Location{{Line: field.Position.Line, Column: field.Position.Column}}
}

func fromGQLError(e *language.Error) GraphQLError {
	ge := GraphQLError{Message: e.Message, Extensions: e.Extensions}
	for _, l := range e.Locations {
		ge.Locations = append(ge.Locations, Location{Line: l.Line, Column: l.Column})
	}
	return ge
}

func pathToString(path Path) string {
	result := ""
	for i, elem := range path {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				result += "."
			}
			result += v
		case int:
			result += fmt.Sprintf("[%d]", v)
		}
	}
	return result
}

func appendPath(path Path, elem PathElement) Path {
	newPath := make(Path, len(path)+1)
	copy(newPath, path)
	newPath[len(path)] = elem
	return newPath
}

// getOperation selects the operation by name, or the only one when name is empty.
func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0]
		}
		return nil
	}
	return document.Operations.ForName(operationName)
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	var ref *schema.TypeRef
	if t.Elem != nil {
		ref = schema.ListType(typeRefFromAST(t.Elem))
	} else {
		ref = schema.NamedType(t.NamedType)
	}
	if t.NonNull {
		return schema.NonNullType(ref)
	}
	return ref
}

// mergeSelectionSets merges selection sets from multiple fields
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

package executor

import (
	"fmt"
	"math"
	"strconv"

	language "github.com/hanpama/socialgraph/internal/language"
	schema "github.com/hanpama/socialgraph/internal/schema"
)

// coerceVariableValues coerces the provided variables against the operation's
// variable definitions.
func coerceVariableValues(
	s *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any, len(operation.VariableDefinitions))
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			switch {
			case varDef.DefaultValue != nil:
				val = astValueToGo(varDef.DefaultValue)
			case t.NonNull:
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t.String())
			default:
				continue
			}
		}
		cv, err := coerceValue(s, val, typeRefFromAST(t))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, t.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues coerces the arguments of one field selection. Unknown
// arguments are ignored; missing arguments take their default value.
func coerceArgumentValues(s *schema.Schema, fieldDef *schema.Field, arguments language.ArgumentList, variableValues map[string]any) (map[string]any, error) {
	coerced := make(map[string]any, len(fieldDef.Arguments))
	for _, argDef := range fieldDef.Arguments {
		arg := arguments.ForName(argDef.Name)
		var (
			val     any
			present bool
		)
		if arg != nil {
			if arg.Value.Kind == language.Variable {
				val, present = variableValues[arg.Value.Raw]
			} else {
				val, present = valueFromAST(arg.Value, variableValues), true
			}
		}
		if !present {
			if argDef.DefaultValue != nil {
				val, present = argDef.DefaultValue, true
			} else if argDef.Type.IsNonNull() {
				return nil, fmt.Errorf("argument %q of required type %s was not provided", argDef.Name, argDef.Type)
			} else {
				continue
			}
		}
		cv, err := coerceValue(s, val, argDef.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %q of type %s cannot be coerced: %v", argDef.Name, argDef.Type, err)
		}
		coerced[argDef.Name] = cv
	}
	return coerced, nil
}

// valueFromAST converts an AST value to a Go value, substituting variables.
func valueFromAST(value *language.Value, variableValues map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.Variable:
		return variableValues[value.Raw]
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = valueFromAST(c.Value, variableValues)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = valueFromAST(f.Value, variableValues)
		}
		return m
	default:
		return astValueToGo(value)
	}
}

// astValueToGo converts a constant AST value to a Go value.
func astValueToGo(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue, language.EnumValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = astValueToGo(f.Value)
		}
		return m
	default:
		return nil
	}
}

// coerceValue coerces value to targetType. Custom scalars pass through
// unchanged.
func coerceValue(s *schema.Schema, value any, targetType *schema.TypeRef) (any, error) {
	if targetType.IsNonNull() {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceValue(s, value, targetType.OfType)
	}
	if value == nil {
		return nil, nil
	}
	if targetType.Kind == schema.TypeRefKindList {
		items, ok := value.([]any)
		if !ok {
			// a single value becomes a list of one
			item, err := coerceValue(s, value, targetType.OfType)
			if err != nil {
				return nil, err
			}
			return []any{item}, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			cv, err := coerceValue(s, item, targetType.OfType)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	}

	name := targetType.NamedType()
	switch name {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	}

	typ := s.Types[name]
	if typ == nil {
		return value, nil
	}
	switch typ.Kind {
	case schema.TypeKindEnum:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("enum %s expects a string, got %T", name, value)
		}
		for _, ev := range typ.EnumValues {
			if ev == str {
				return str, nil
			}
		}
		return nil, fmt.Errorf("%q is not a value of enum %s", str, name)
	case schema.TypeKindInputObject:
		fields, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("input %s expects an object, got %T", name, value)
		}
		out := make(map[string]any, len(typ.InputFields))
		for _, f := range typ.InputFields {
			v, present := fields[f.Name]
			if !present {
				if f.DefaultValue != nil {
					v, present = f.DefaultValue, true
				} else if f.Type.IsNonNull() {
					return nil, fmt.Errorf("field %s.%s of required type %s was not provided", name, f.Name, f.Type)
				}
			}
			if !present {
				continue
			}
			cv, err := coerceValue(s, v, f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %s.%s: %v", name, f.Name, err)
			}
			out[f.Name] = cv
		}
		return out, nil
	default:
		return value, nil
	}
}

func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to String", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}

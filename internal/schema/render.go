package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL from the Schema. Root operation types come first, then
// the remaining types sorted by name. Built-in scalars are omitted.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder

	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		if IsBuiltin(name) || name == s.QueryType || name == s.MutationType {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, root := range []string{s.MutationType, s.QueryType} {
		if root != "" && s.Types[root] != nil {
			names = append([]string{root}, names...)
		}
	}

	for _, name := range names {
		typ := s.Types[name]
		renderDescription(&b, typ.Description, "")
		switch typ.Kind {
		case TypeKindScalar:
			fmt.Fprintf(&b, "scalar %s\n\n", typ.Name)
		case TypeKindEnum:
			fmt.Fprintf(&b, "enum %s {\n", typ.Name)
			for _, v := range typ.EnumValues {
				fmt.Fprintf(&b, "  %s\n", v)
			}
			b.WriteString("}\n\n")
		case TypeKindInputObject:
			fmt.Fprintf(&b, "input %s {\n", typ.Name)
			for _, in := range typ.InputFields {
				renderDescription(&b, in.Description, "  ")
				fmt.Fprintf(&b, "  %s\n", renderInputValue(in))
			}
			b.WriteString("}\n\n")
		case TypeKindObject:
			fmt.Fprintf(&b, "type %s {\n", typ.Name)
			for _, f := range typ.Fields {
				renderField(&b, f)
			}
			b.WriteString("}\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderDescription(b *strings.Builder, desc, indent string) {
	if desc == "" {
		return
	}
	b.WriteString(indent)
	b.WriteString(`"""`)
	b.WriteString(strings.ReplaceAll(desc, `"""`, `\"""`))
	b.WriteString(`"""`)
	b.WriteString("\n")
}

func renderField(b *strings.Builder, f *Field) {
	renderDescription(b, f.Description, "  ")
	b.WriteString("  ")
	b.WriteString(f.Name)
	if len(f.Arguments) > 0 {
		args := make([]string, len(f.Arguments))
		for i, a := range f.Arguments {
			args[i] = renderInputValue(a)
		}
		b.WriteString("(" + strings.Join(args, ", ") + ")")
	}
	b.WriteString(": ")
	b.WriteString(f.Type.String())
	b.WriteString("\n")
}

func renderInputValue(in *InputValue) string {
	out := in.Name + ": " + in.Type.String()
	if in.DefaultValue != nil {
		out += " = " + renderValue(in.DefaultValue)
	}
	return out
}

func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = renderValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + renderValue(v[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}

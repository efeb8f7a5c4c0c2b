package executor

import (
	language "github.com/hanpama/socialgraph/internal/language"
	schema "github.com/hanpama/socialgraph/internal/schema"
)

// collectedFieldMap preserves field order from the original query
type collectedFieldMap struct {
	fields []collectedField
	index  map[string]int
}

type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{index: make(map[string]int)}
}

func (cfm *collectedFieldMap) add(responseName string, field *language.Field) {
	if idx, ok := cfm.index[responseName]; ok {
		cfm.fields[idx].Fields = append(cfm.fields[idx].Fields, field)
		return
	}
	cfm.index[responseName] = len(cfm.fields)
	cfm.fields = append(cfm.fields, collectedField{ResponseName: responseName, Fields: []*language.Field{field}})
}

// collectFields groups the selections applying to objectType by response name.
func collectFields(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet) *collectedFieldMap {
	grouped := newCollectedFieldMap()
	collectInto(state, objectType, selectionSet, grouped, make(map[string]bool))
	return grouped
}

func collectInto(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, grouped *collectedFieldMap, visited map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldInclude(state, sel.Directives) {
				continue
			}
			name := sel.Alias
			if name == "" {
				name = sel.Name
			}
			grouped.add(name, sel)

		case *language.InlineFragment:
			if !shouldInclude(state, sel.Directives) {
				continue
			}
			if sel.TypeCondition != "" && sel.TypeCondition != objectType.Name {
				continue
			}
			collectInto(state, objectType, sel.SelectionSet, grouped, visited)

		case *language.FragmentSpread:
			if !shouldInclude(state, sel.Directives) || visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true
			def := state.document.Fragments.ForName(sel.Name)
			if def == nil {
				continue
			}
			if def.TypeCondition != "" && def.TypeCondition != objectType.Name {
				continue
			}
			collectInto(state, objectType, def.SelectionSet, grouped, visited)
		}
	}
}

// shouldInclude evaluates @skip and @include.
func shouldInclude(state *executionState, directives language.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil {
		if v, ok := directiveIf(state, d); ok && v {
			return false
		}
	}
	if d := directives.ForName("include"); d != nil {
		if v, ok := directiveIf(state, d); ok && !v {
			return false
		}
	}
	return true
}

func directiveIf(state *executionState, d *language.Directive) (bool, bool) {
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false, false
	}
	b, ok := valueFromAST(arg.Value, state.variableValues).(bool)
	return b, ok
}

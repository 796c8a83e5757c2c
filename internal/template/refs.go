package template

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lex00/strapi-aws-go/internal/graph"
	"github.com/lex00/strapi-aws-go/intrinsics"
)

// Reference is one use of another logical ID inside a property tree.
type Reference struct {
	Target string
	Kind   graph.EdgeKind
	Field  string
}

var subVariable = regexp.MustCompile(`\$\{([^}!][^}]*)\}`)

// References walks a normalized property tree and returns every logical ID
// it refers to, sorted and without pseudo-parameters.
func References(v any) []Reference {
	seen := make(map[Reference]bool)
	walk(v, func(r Reference) {
		if intrinsics.IsPseudo(r.Target) {
			return
		}
		seen[r] = true
	})

	out := make([]Reference, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Field < out[j].Field
	})
	return out
}

func walk(v any, visit func(Reference)) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 1 {
			if target, ok := val["Ref"].(string); ok {
				visit(Reference{Target: target, Kind: graph.EdgeRef})
				return
			}
			if args, ok := val["Fn::GetAtt"].([]any); ok && len(args) == 2 {
				target, _ := args[0].(string)
				field, _ := args[1].(string)
				visit(Reference{Target: target, Kind: graph.EdgeGetAtt, Field: field})
				return
			}
			if sub, ok := val["Fn::Sub"]; ok {
				walkSub(sub, visit)
				return
			}
		}
		for _, child := range val {
			walk(child, visit)
		}
	case []any:
		for _, child := range val {
			walk(child, visit)
		}
	}
}

// walkSub handles both Fn::Sub forms: a bare string, or [string, variables].
func walkSub(sub any, visit func(Reference)) {
	var body string
	locals := map[string]bool{}
	switch s := sub.(type) {
	case string:
		body = s
	case []any:
		if len(s) > 0 {
			body, _ = s[0].(string)
		}
		if len(s) > 1 {
			if vars, ok := s[1].(map[string]any); ok {
				for name, value := range vars {
					locals[name] = true
					walk(value, visit)
				}
			}
		}
	}

	for _, m := range subVariable.FindAllStringSubmatch(body, -1) {
		name := m[1]
		if locals[name] {
			continue
		}
		if target, field, ok := strings.Cut(name, "."); ok {
			visit(Reference{Target: target, Kind: graph.EdgeGetAtt, Field: field})
			continue
		}
		visit(Reference{Target: name, Kind: graph.EdgeRef})
	}
}

// Target resolves a single Ref or GetAtt value to its logical ID.
func Target(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return "", false
	}
	if target, ok := m["Ref"].(string); ok {
		return target, true
	}
	if args, ok := m["Fn::GetAtt"].([]any); ok && len(args) == 2 {
		target, ok := args[0].(string)
		return target, ok
	}
	return "", false
}

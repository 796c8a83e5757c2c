package lint

import (
	"sort"
	"strconv"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/template"
)

// Property accessors over decoded templates. JSON decodes numbers as
// float64, YAML as int.

func obj(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func str(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func num(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

func path(v any, keys ...string) any {
	for _, k := range keys {
		v = obj(v)[k]
	}
	return v
}

// resources returns the IDs of type typ, sorted.
func resources(t *wetwire.Template, typ string) []string {
	var ids []string
	for id, r := range t.Resources {
		if r.Type == typ {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// targets returns every logical ID referenced inside v.
func targets(v any) map[string]bool {
	out := map[string]bool{}
	for _, ref := range template.References(v) {
		out[ref.Target] = true
	}
	return out
}

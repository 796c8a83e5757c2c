// Package differ compares CloudFormation templates resource by resource,
// either two local templates or a synthesized template against the one a
// stack was deployed with.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/strapi-aws-go"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder compares arrays as multisets.
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    wetwire.TemplateDiff
	Summary wetwire.DiffSummary
	// Parameters and Outputs list template-level changes, e.g.
	// "Outputs.WebUrl added".
	Parameters []string
	Outputs    []string
}

// Empty reports whether the templates are equivalent.
func (r *Result) Empty() bool {
	return r.Summary.Total == 0 && len(r.Parameters) == 0 && len(r.Outputs) == 0
}

// Compare compares two templates. A nil before stands for a stack that has
// not been deployed: every resource of after is added.
func Compare(before, after *wetwire.Template, opts Options) (*Result, error) {
	if before == nil {
		before = &wetwire.Template{}
	}
	if after == nil {
		after = &wetwire.Template{}
	}
	b, err := normalize(before)
	if err != nil {
		return nil, err
	}
	a, err := normalize(after)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for name, def := range a.Resources {
		if _, exists := b.Resources[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, wetwire.DiffEntry{Resource: name, Type: def.Type})
		}
	}
	for name, def := range b.Resources {
		if _, exists := a.Resources[name]; !exists {
			result.Diff.Removed = append(result.Diff.Removed, wetwire.DiffEntry{Resource: name, Type: def.Type})
		}
	}
	for name, def1 := range b.Resources {
		if def2, exists := a.Resources[name]; exists {
			if changes := compareResources(def1, def2, opts); len(changes) > 0 {
				result.Diff.Modified = append(result.Diff.Modified, wetwire.DiffEntry{
					Resource: name,
					Type:     def1.Type,
					Changes:  changes,
				})
			}
		}
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Parameters = compareProperties("Parameters", toMap(b.Parameters), toMap(a.Parameters), opts)
	result.Outputs = compareProperties("Outputs", toMap(b.Outputs), toMap(a.Outputs), opts)

	result.Summary = wetwire.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified
	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}
	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}
	return Compare(t1, t2, opts)
}

// LoadTemplate loads a template from a JSON or YAML file.
func LoadTemplate(path string) (*wetwire.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTemplate(data)
}

// ParseTemplate parses a JSON or YAML template body, as stored by
// CloudFormation.
func ParseTemplate(data []byte) (*wetwire.Template, error) {
	var template wetwire.Template
	if err := json.Unmarshal(data, &template); err != nil {
		if err := yaml.Unmarshal(data, &template); err != nil {
			return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
		}
	}
	return &template, nil
}

// normalize round-trips t through JSON so YAML and JSON sources compare
// equal: numbers become float64 and maps map[string]any.
func normalize(t *wetwire.Template) (*wetwire.Template, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var out wetwire.Template
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func toMap[V any](m map[string]V) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		data, _ := json.Marshal(v)
		var decoded any
		_ = json.Unmarshal(data, &decoded)
		out[k] = decoded
	}
	return out
}

func compareResources(def1, def2 wetwire.ResourceDef, opts Options) []string {
	var changes []string
	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}
	changes = append(changes, compareProperties("", def1.Properties, def2.Properties, opts)...)
	if !equalStringSlices(def1.DependsOn, def2.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}
	if def1.DeletionPolicy != def2.DeletionPolicy {
		changes = append(changes, fmt.Sprintf("DeletionPolicy changed: %q → %q", def1.DeletionPolicy, def2.DeletionPolicy))
	}
	return changes
}

// compareProperties compares maps recursively, naming nested changes by
// their dotted path.
func compareProperties(prefix string, props1, props2 map[string]any, opts Options) []string {
	var changes []string
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}

	for key, val2 := range props2 {
		val1, exists := props1[key]
		if !exists {
			changes = append(changes, join(key)+" added")
			continue
		}
		m1, ok1 := val1.(map[string]any)
		m2, ok2 := val2.(map[string]any)
		if ok1 && ok2 && !isIntrinsic(m1) && !isIntrinsic(m2) {
			changes = append(changes, compareProperties(join(key), m1, m2, opts)...)
			continue
		}
		if !deepEqual(val1, val2, opts) {
			changes = append(changes, join(key)+" modified")
		}
	}
	for key := range props1 {
		if _, exists := props2[key]; !exists {
			changes = append(changes, join(key)+" removed")
		}
	}

	sort.Strings(changes)
	return changes
}

// isIntrinsic reports whether m is a single-key intrinsic such as Ref or
// Fn::GetAtt, which is compared as a whole.
func isIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || len(k) > 4 && k[:4] == "Fn::"
	}
	return false
}

func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts arrays by their JSON encoding, recursively.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = normalizeValue(item)
		}
		sort.SliceStable(result, func(i, j int) bool {
			a, _ := json.Marshal(result[i])
			b, _ := json.Marshal(result[j])
			return string(a) < string(b)
		})
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortEntries(entries []wetwire.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}

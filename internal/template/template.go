// Package template builds CloudFormation templates from a provisioning
// context and derives the typed dependency graph from the references each
// resource makes.
package template

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/graph"
	"github.com/lex00/strapi-aws-go/internal/serialize"
	"github.com/lex00/strapi-aws-go/internal/stack"
)

// ErrDanglingReference is returned when a property references a logical ID
// the stack never declared.
var ErrDanglingReference = errors.New("reference to undeclared logical ID")

// Builder constructs the CloudFormation template of one stack.
type Builder struct {
	stack *stack.Stack
	props map[string]map[string]any
}

// NewBuilder creates a template builder for s.
func NewBuilder(s *stack.Stack) *Builder {
	return &Builder{stack: s}
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*wetwire.Template, error) {
	g, err := b.Graph()
	if err != nil {
		return nil, err
	}
	// Resolving an order rejects cycles before anything is written.
	if _, err := g.Order(); err != nil {
		return nil, fmt.Errorf("%s: %w", b.stack.Name, err)
	}

	template := &wetwire.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              b.stack.Description,
		Resources:                make(map[string]wetwire.ResourceDef),
	}

	if params := b.stack.Parameters(); len(params) > 0 {
		template.Parameters = make(map[string]wetwire.Parameter, len(params))
		for _, p := range params {
			template.Parameters[p.ID] = p.Def
		}
	}

	for _, n := range b.stack.Nodes() {
		template.Resources[n.ID] = wetwire.ResourceDef{
			Type:                n.Resource.ResourceType(),
			Properties:          b.props[n.ID],
			DependsOn:           n.DependsOnIDs(),
			DeletionPolicy:      n.DeletionPolicy(),
			UpdateReplacePolicy: n.DeletionPolicy(),
		}
	}

	if outputs := b.stack.Outputs(); len(outputs) > 0 {
		template.Outputs = make(map[string]wetwire.Output, len(outputs))
		for _, o := range outputs {
			value, err := normalizeValue(o.Def.Value)
			if err != nil {
				return nil, fmt.Errorf("serializing output %s: %w", o.ID, err)
			}
			if err := b.checkRefs("output "+o.ID, value); err != nil {
				return nil, err
			}
			out := o.Def
			out.Value = value
			template.Outputs[o.ID] = out
		}
	}

	return template, nil
}

// Graph returns the provisioning graph of the stack: one node per resource
// and parameter, one edge per reference or explicit dependency.
func (b *Builder) Graph() (*graph.Graph, error) {
	if err := b.stack.Err(); err != nil {
		return nil, err
	}
	if err := b.serializeAll(); err != nil {
		return nil, err
	}

	g := graph.New()
	for _, p := range b.stack.Parameters() {
		if err := g.AddNode(graph.Node{ID: p.ID, Type: p.Def.Type, Kind: graph.KindParameter, Stack: b.stack.Name}); err != nil {
			return nil, err
		}
	}
	for _, n := range b.stack.Nodes() {
		if err := g.AddNode(graph.Node{ID: n.ID, Type: n.Resource.ResourceType(), Kind: graph.KindResource, Stack: b.stack.Name}); err != nil {
			return nil, err
		}
	}

	var errs *multierror.Error
	for _, n := range b.stack.Nodes() {
		for _, ref := range References(b.props[n.ID]) {
			if _, ok := g.Node(ref.Target); !ok {
				errs = multierror.Append(errs, fmt.Errorf("%w: %s references %s", ErrDanglingReference, n.ID, ref.Target))
				continue
			}
			if err := g.AddEdge(graph.Edge{From: ref.Target, To: n.ID, Kind: ref.Kind, Field: ref.Field}); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		for _, dep := range n.DependsOnIDs() {
			if err := g.AddEdge(graph.Edge{From: dep, To: n.ID, Kind: graph.EdgeDependsOn}); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%w: %s depends on %s", ErrDanglingReference, n.ID, dep))
			}
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return g, nil
}

func (b *Builder) serializeAll() error {
	if b.props != nil {
		return nil
	}
	props := make(map[string]map[string]any, len(b.stack.Nodes()))
	for _, n := range b.stack.Nodes() {
		p, err := serialize.Resource(n.Resource)
		if err != nil {
			return fmt.Errorf("serializing %s: %w", n.ID, err)
		}
		p, err = serialize.Normalize(p)
		if err != nil {
			return fmt.Errorf("serializing %s: %w", n.ID, err)
		}
		if len(p) == 0 {
			p = nil
		}
		props[n.ID] = p
	}
	b.props = props
	return nil
}

func (b *Builder) checkRefs(where string, v any) error {
	var errs *multierror.Error
	for _, ref := range References(v) {
		_, isNode := b.stack.Lookup(ref.Target)
		_, isParam := b.stack.Parameter(ref.Target)
		if !isNode && !isParam {
			errs = multierror.Append(errs, fmt.Errorf("%w: %s references %s", ErrDanglingReference, where, ref.Target))
		}
	}
	return errs.ErrorOrNil()
}

func normalizeValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToJSON serializes the template to JSON.
func ToJSON(t *wetwire.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *wetwire.Template) ([]byte, error) {
	return yaml.Marshal(t)
}

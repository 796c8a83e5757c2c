// Package stack provides the provisioning context components declare their
// resources into. A Stack is one CloudFormation stack pinned to an account
// and region; it owns logical IDs, parameters and outputs.
package stack

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/hashicorp/go-multierror"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/intrinsics"
)

var (
	ErrDuplicateID = errors.New("duplicate logical ID")
	ErrInvalidID   = errors.New("invalid logical ID")
)

var logicalID = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{0,254}$`)

// Env pins a stack to an account and region.
type Env struct {
	Account string
	Region  string
}

func (e Env) String() string {
	account := e.Account
	if account == "" {
		account = "unknown-account"
	}
	return account + "/" + e.Region
}

// DeletionPolicy values.
const (
	Delete   = "Delete"
	Retain   = "Retain"
	Snapshot = "Snapshot"
)

// Node is a declared resource.
type Node struct {
	ID       string
	Resource wetwire.Resource

	dependsOn      []string
	deletionPolicy string
}

// Ref returns {"Ref": id}.
func (n *Node) Ref() intrinsics.Ref {
	return intrinsics.Ref{LogicalName: n.ID}
}

// GetAtt returns {"Fn::GetAtt": [id, attr]}.
func (n *Node) GetAtt(attr string) wetwire.AttrRef {
	return wetwire.AttrRef{Resource: n.ID, Attribute: attr}
}

// DependsOn adds explicit ordering constraints.
func (n *Node) DependsOn(others ...*Node) *Node {
	for _, o := range others {
		n.dependsOn = append(n.dependsOn, o.ID)
	}
	return n
}

// SetDeletionPolicy sets both DeletionPolicy and UpdateReplacePolicy.
func (n *Node) SetDeletionPolicy(policy string) *Node {
	n.deletionPolicy = policy
	return n
}

// DependsOnIDs returns the explicit dependencies, sorted.
func (n *Node) DependsOnIDs() []string {
	out := append([]string(nil), n.dependsOn...)
	sort.Strings(out)
	return out
}

// DeletionPolicy returns the configured policy, empty for the default.
func (n *Node) DeletionPolicy() string {
	return n.deletionPolicy
}

// Param is a declared template parameter.
type Param struct {
	ID  string
	Def wetwire.Parameter
}

// Ref returns {"Ref": id}.
func (p *Param) Ref() intrinsics.Ref {
	return intrinsics.Ref{LogicalName: p.ID}
}

// Output is a declared stack output.
type Output struct {
	ID  string
	Def wetwire.Output
}

// Stack is one provisioning context.
type Stack struct {
	Name        string
	Env         Env
	Description string

	nodes   []*Node
	params  []*Param
	outputs []*Output
	ids     map[string]bool
	errs    *multierror.Error
}

// New creates an empty stack.
func New(name string, env Env) *Stack {
	return &Stack{
		Name: name,
		Env:  env,
		ids:  make(map[string]bool),
	}
}

func (s *Stack) claim(id string) {
	if !logicalID.MatchString(id) {
		s.errs = multierror.Append(s.errs, fmt.Errorf("%w: %q in %s", ErrInvalidID, id, s.Name))
		return
	}
	if s.ids[id] {
		s.errs = multierror.Append(s.errs, fmt.Errorf("%w: %s in %s", ErrDuplicateID, id, s.Name))
		return
	}
	s.ids[id] = true
}

// Add declares a resource. Declaration errors are collected and reported
// by Err.
func (s *Stack) Add(id string, r wetwire.Resource) *Node {
	s.claim(id)
	n := &Node{ID: id, Resource: r}
	s.nodes = append(s.nodes, n)
	return n
}

// AddParameter declares a template parameter.
func (s *Stack) AddParameter(id string, def wetwire.Parameter) *Param {
	s.claim(id)
	if def.Type == "" {
		def.Type = "String"
	}
	p := &Param{ID: id, Def: def}
	s.params = append(s.params, p)
	return p
}

// AddOutput declares a stack output.
func (s *Stack) AddOutput(id, description string, value any) *Output {
	for _, o := range s.outputs {
		if o.ID == id {
			s.errs = multierror.Append(s.errs, fmt.Errorf("%w: output %s in %s", ErrDuplicateID, id, s.Name))
		}
	}
	o := &Output{ID: id, Def: wetwire.Output{Description: description, Value: value}}
	s.outputs = append(s.outputs, o)
	return o
}

// Errorf records a declaration error raised by a component.
func (s *Stack) Errorf(format string, args ...any) {
	s.errs = multierror.Append(s.errs, fmt.Errorf(format, args...))
}

// Err returns every declaration error collected so far, or nil.
func (s *Stack) Err() error {
	return s.errs.ErrorOrNil()
}

// Nodes returns resources in declaration order.
func (s *Stack) Nodes() []*Node {
	return s.nodes
}

// Lookup returns the resource with the given logical ID.
func (s *Stack) Lookup(id string) (*Node, bool) {
	for _, n := range s.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Parameters returns parameters in declaration order.
func (s *Stack) Parameters() []*Param {
	return s.params
}

// Parameter returns the parameter with the given ID.
func (s *Stack) Parameter(id string) (*Param, bool) {
	for _, p := range s.params {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Outputs returns outputs in declaration order.
func (s *Stack) Outputs() []*Output {
	return s.outputs
}

// Package graph holds the provisioning DAG: resources, parameters and stacks
// joined by typed edges, with deterministic create and teardown orders.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NodeKind distinguishes what a node provisions.
type NodeKind string

const (
	KindResource  NodeKind = "resource"
	KindParameter NodeKind = "parameter"
	KindStack     NodeKind = "stack"
)

// EdgeKind says how a consumer uses its producer.
type EdgeKind string

const (
	// EdgeRef is {"Ref": producer}.
	EdgeRef EdgeKind = "Ref"
	// EdgeGetAtt is {"Fn::GetAtt": [producer, field]} or ${producer.field} in Fn::Sub.
	EdgeGetAtt EdgeKind = "GetAtt"
	// EdgeDependsOn is an explicit ordering constraint with no data flow.
	EdgeDependsOn EdgeKind = "DependsOn"
	// EdgeCrossStack passes a producer stack output into a consumer stack parameter.
	EdgeCrossStack EdgeKind = "CrossStack"
)

var (
	ErrDuplicateNode = errors.New("duplicate node")
	ErrUnknownNode   = errors.New("unknown node")
)

// Node is one vertex of the graph.
type Node struct {
	ID    string
	Type  string
	Kind  NodeKind
	Stack string
}

// Edge points from the producer to the consumer that needs Field of it.
type Edge struct {
	From  string
	To    string
	Kind  EdgeKind
	Field string
}

// CycleError reports a dependency cycle, first node repeated at the end.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "circular dependency detected"
	}
	return "circular dependency detected: " + strings.Join(e.Path, " → ")
}

// Graph is a directed acyclic provisioning graph. The zero value is not
// usable; call New.
type Graph struct {
	nodes map[string]Node
	edges []Edge
	seen  map[Edge]bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		seen:  make(map[Edge]bool),
	}
}

// AddNode registers a vertex.
func (g *Graph) AddNode(n Node) error {
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	if n.Kind == "" {
		n.Kind = KindResource
	}
	g.nodes[n.ID] = n
	return nil
}

// AddEdge records that To consumes From. Both nodes must exist. Repeated
// edges are ignored.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return fmt.Errorf("%w: %s (referenced by %s)", ErrUnknownNode, e.From, e.To)
	}
	if _, ok := g.nodes[e.To]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, e.To)
	}
	if g.seen[e] {
		return nil
	}
	g.seen[e] = true
	g.edges = append(g.edges, e)
	return nil
}

// Node returns the vertex with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all vertices sorted by ID.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns all edges sorted by consumer, then producer, then field.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.To != b.To {
			return a.To < b.To
		}
		if a.From != b.From {
			return a.From < b.From
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Field < b.Field
	})
	return out
}

// Producers returns the distinct IDs id depends on, sorted.
func (g *Graph) Producers(id string) []string {
	set := make(map[string]bool)
	for _, e := range g.edges {
		if e.To == id {
			set[e.From] = true
		}
	}
	return sortedKeys(set)
}

// Consumers returns the distinct IDs that depend on id, sorted.
func (g *Graph) Consumers(id string) []string {
	set := make(map[string]bool)
	for _, e := range g.edges {
		if e.From == id {
			set[e.To] = true
		}
	}
	return sortedKeys(set)
}

// Order returns every node after all of its producers. Ties are broken
// lexically so the result is deterministic.
func (g *Graph) Order() ([]string, error) {
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}
	var order []string
	for _, level := range levels {
		order = append(order, level...)
	}
	return order, nil
}

// TeardownOrder is Order reversed: consumers go before their producers.
func (g *Graph) TeardownOrder() ([]string, error) {
	order, err := g.Order()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// Levels groups nodes into batches. Nodes in one batch have no dependency
// on each other and only depend on earlier batches, so a batch can be
// provisioned in parallel.
func (g *Graph) Levels() ([][]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	adjacent := make(map[string][]string, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = 0
	}
	for _, e := range g.dedupedPairs() {
		adjacent[e[0]] = append(adjacent[e[0]], e[1])
		inDegree[e[1]]++
	}

	var current []string
	for id, degree := range inDegree {
		if degree == 0 {
			current = append(current, id)
		}
	}
	sort.Strings(current)

	var levels [][]string
	visited := 0
	for len(current) > 0 {
		levels = append(levels, current)
		visited += len(current)
		var next []string
		for _, id := range current {
			for _, consumer := range adjacent[id] {
				inDegree[consumer]--
				if inDegree[consumer] == 0 {
					next = append(next, consumer)
				}
			}
		}
		sort.Strings(next)
		current = next
	}

	if visited != len(g.nodes) {
		return nil, g.detectCycle()
	}
	return levels, nil
}

// dedupedPairs collapses edges of different kinds between the same nodes.
func (g *Graph) dedupedPairs() [][2]string {
	seen := make(map[[2]string]bool)
	var pairs [][2]string
	for _, e := range g.edges {
		p := [2]string{e.From, e.To}
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// detectCycle finds one cycle by depth-first search over producers.
func (g *Graph) detectCycle() error {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		visited[id] = true
		onPath[id] = true
		stack = append(stack, id)
		for _, producer := range g.Producers(id) {
			if onPath[producer] {
				for i, s := range stack {
					if s == producer {
						cycle = append(append([]string{}, stack[i:]...), producer)
						break
					}
				}
				return true
			}
			if !visited[producer] && visit(producer) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		onPath[id] = false
		return false
	}

	for _, n := range g.Nodes() {
		if !visited[n.ID] && visit(n.ID) {
			break
		}
	}
	return &CycleError{Path: cycle}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

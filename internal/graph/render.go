package graph

import (
	"io"
	"strings"

	"github.com/emicklei/dot"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator renders a provisioning graph.
type Generator struct {
	// IncludeParameters includes parameter nodes and their edges.
	IncludeParameters bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by AWS service.
	ClusterByType bool

	// ClusterByStack groups nodes by provisioning context. Takes precedence
	// over ClusterByType.
	ClusterByStack bool
}

// Generate renders g and writes it to w.
func (gen *Generator) Generate(g *Graph, w io.Writer) error {
	graph := gen.buildGraph(g)

	format := gen.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (gen *Generator) GenerateString(g *Graph) (string, error) {
	var sb strings.Builder
	if err := gen.Generate(g, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (gen *Generator) buildGraph(g *Graph) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	clusters := make(map[string]*dot.Graph)
	nodes := make(map[string]dot.Node)
	for _, n := range g.Nodes() {
		if n.Kind == KindParameter && !gen.IncludeParameters {
			continue
		}
		parent := graph
		if key, label := gen.clusterOf(n); key != "" {
			sub, ok := clusters[key]
			if !ok {
				sub = graph.Subgraph("cluster_"+key, dot.ClusterOption{})
				sub.Attr("label", label)
				sub.Attr("style", "rounded")
				sub.Attr("bgcolor", "lightyellow")
				clusters[key] = sub
			}
			parent = sub
		}

		node := parent.Node(n.ID)
		switch n.Kind {
		case KindParameter:
			node.Attr("shape", "ellipse")
			node.Attr("style", "dashed")
			node.Label(displayName(n.ID))
		case KindStack:
			node.Attr("shape", "folder")
			node.Label(displayName(n.ID))
		default:
			node.Label(displayName(n.ID) + "\\n[" + n.Type + "]")
		}
		nodes[n.ID] = node
	}

	// Edges run consumer -> producer, the way references read in the template.
	for _, e := range g.Edges() {
		from, ok := nodes[e.To]
		if !ok {
			continue
		}
		to, ok := nodes[e.From]
		if !ok {
			continue
		}
		edge := graph.Edge(from, to)
		switch e.Kind {
		case EdgeGetAtt:
			edge.Attr("color", "blue")
			if e.Field != "" {
				edge.Label(e.Field)
			}
		case EdgeDependsOn:
			edge.Attr("style", "dashed")
		case EdgeCrossStack:
			edge.Attr("color", "red")
			edge.Attr("penwidth", "2")
			edge.Label(e.Field)
		}
	}

	return graph
}

func (gen *Generator) clusterOf(n Node) (key, label string) {
	switch {
	case gen.ClusterByStack && n.Stack != "":
		return n.Stack, n.Stack
	case gen.ClusterByType && n.Kind == KindResource:
		service := Service(n.Type)
		return service, service
	}
	return "", ""
}

// Service extracts the service from a CloudFormation type.
// e.g., "AWS::S3::Bucket" -> "S3"
func Service(cfnType string) string {
	parts := strings.Split(cfnType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

// displayName strips the stack qualifier from assembly-wide IDs.
func displayName(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

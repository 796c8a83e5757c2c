package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/strapi-aws-go/internal/graph"
)

type graphOptions struct {
	format            string
	stack             string
	includeParameters bool
	clusterByType     bool
}

func newGraphCmd(o *rootOptions) *cobra.Command {
	var opts graphOptions

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid graph of the provisioning graph. Without --stack the
whole application is drawn, one cluster per stack, with cross-stack
references in red.

The output can be rendered with Graphviz:
    strapi-aws graph | dot -Tpng -o deps.png

Examples:
    strapi-aws graph
    strapi-aws graph --stack StrapiStack -c   # one stack, cluster by service
    strapi-aws graph -p -f mermaid            # include parameters, mermaid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd.OutOrStdout(), o, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().StringVarP(&opts.stack, "stack", "s", "", "Draw a single stack")
	cmd.Flags().BoolVarP(&opts.includeParameters, "include-parameters", "p", false, "Include parameter nodes in the graph")
	cmd.Flags().BoolVarP(&opts.clusterByType, "cluster", "c", false, "Cluster resources by AWS service type")

	return cmd
}

func runGraph(w io.Writer, o *rootOptions, opts graphOptions) error {
	var format graph.Format
	switch opts.format {
	case "dot":
		format = graph.FormatDOT
	case "mermaid":
		format = graph.FormatMermaid
	default:
		return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", opts.format)
	}

	_, a, err := o.synthesize()
	if err != nil {
		return err
	}

	gen := &graph.Generator{
		Format:            format,
		IncludeParameters: opts.includeParameters,
		ClusterByType:     opts.clusterByType,
	}

	var g *graph.Graph
	if opts.stack != "" {
		art, ok := a.Stack(opts.stack)
		if !ok {
			return fmt.Errorf("unknown stack %q (have %v)", opts.stack, a.Order())
		}
		g = art.Graph
	} else {
		g, err = a.Graph()
		if err != nil {
			return err
		}
		gen.ClusterByStack = true
	}

	return gen.Generate(g, w)
}

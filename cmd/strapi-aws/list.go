package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/deploy"
)

func newListCmd(o *rootOptions) *cobra.Command {
	var (
		outputFormat string
		status       bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List synthesized resources or deployed stack status",
		Long: `List shows every resource of every stack. With --status it asks
CloudFormation for the state of each stack instead.

Examples:
    strapi-aws list
    strapi-aws list --format json
    strapi-aws list --status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status {
				return runStatus(cmd.Context(), cmd.OutOrStdout(), o, outputFormat)
			}
			return runList(cmd.OutOrStdout(), o, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&status, "status", false, "Show deployed stack status")

	return cmd
}

func runList(w io.Writer, o *rootOptions, format string) error {
	_, a, err := o.synthesize()
	if err != nil {
		return err
	}

	result := wetwire.ListResult{Resources: []wetwire.ListResource{}}
	for _, art := range a.Stacks {
		for name, res := range art.Template.Resources {
			result.Resources = append(result.Resources, wetwire.ListResource{
				Stack: art.Stack.Name,
				Name:  name,
				Type:  res.Type,
			})
		}
	}
	// Stacks stay in deploy order; resources sort by name within a stack.
	sort.SliceStable(result.Resources, func(i, j int) bool {
		ri, rj := result.Resources[i], result.Resources[j]
		if ri.Stack != rj.Stack {
			return indexOf(a.Order(), ri.Stack) < indexOf(a.Order(), rj.Stack)
		}
		return ri.Name < rj.Name
	})

	switch format {
	case "json":
		return writeJSON(w, result)
	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources found.")
			return nil
		}
		fmt.Fprintf(w, "Resources (%d):\n\n", len(result.Resources))
		stack := ""
		for _, res := range result.Resources {
			if res.Stack != stack {
				stack = res.Stack
				fmt.Fprintf(w, "%s\n", stack)
			}
			fmt.Fprintf(w, "  %s: %s\n", res.Name, res.Type)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func runStatus(ctx context.Context, w io.Writer, o *rootOptions, format string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, a, err := o.synthesize()
	if err != nil {
		return err
	}

	d := deploy.New(nil, deploy.Options{Clients: deploy.AWSClients(o.profile)})
	stacks, err := d.Status(ctx, a)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return writeJSON(w, stacks)
	case "text":
		for _, s := range stacks {
			fmt.Fprintf(w, "%-16s %-24s %-12s %s\n", s.Stack, s.DeployName, s.Region, s.Status)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return len(list)
}

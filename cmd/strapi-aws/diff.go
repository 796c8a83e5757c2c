package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/app"
	"github.com/lex00/strapi-aws-go/internal/deploy"
	"github.com/lex00/strapi-aws-go/internal/differ"
)

type diffOptions struct {
	format      string
	ignoreOrder bool
	deployed    bool
}

func newDiffCmd(o *rootOptions) *cobra.Command {
	var opts diffOptions

	cmd := &cobra.Command{
		Use:   "diff [template1 template2]",
		Short: "Compare templates",
		Long: `Diff compares two template files, or with --deployed every synthesized
stack against the template CloudFormation last deployed.

Examples:
    strapi-aws diff old/StrapiStack.template.json cdk.out/StrapiStack.template.json
    strapi-aws diff --deployed
    strapi-aws diff --deployed --format json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.deployed {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.deployed {
				return runDiffDeployed(cmd.Context(), cmd.OutOrStdout(), o, opts)
			}
			return runDiff(cmd.OutOrStdout(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&opts.ignoreOrder, "ignore-order", false, "Ignore array ordering")
	cmd.Flags().BoolVar(&opts.deployed, "deployed", false, "Compare against the deployed stacks")

	return cmd
}

func runDiff(w io.Writer, file1, file2 string, opts diffOptions) error {
	result, err := differ.CompareFiles(file1, file2, differ.Options{IgnoreOrder: opts.ignoreOrder})
	if err != nil {
		return err
	}
	return outputDiff(w, []stackDiff{{result: result}}, opts.format)
}

func runDiffDeployed(ctx context.Context, w io.Writer, o *rootOptions, opts diffOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, a, err := o.synthesize()
	if err != nil {
		return err
	}
	d := deploy.New(nil, deploy.Options{Clients: deploy.AWSClients(o.profile)})
	diffs, err := diffDeployed(ctx, d, a, opts.ignoreOrder)
	if err != nil {
		return err
	}
	return outputDiff(w, diffs, opts.format)
}

type stackDiff struct {
	stack  string
	result *differ.Result
}

// diffDeployed compares each stack with its deployed template; a stack that
// was never deployed shows every resource as added.
func diffDeployed(ctx context.Context, d *deploy.Deployer, a *app.Assembly, ignoreOrder bool) ([]stackDiff, error) {
	var out []stackDiff
	for _, art := range a.Stacks {
		body, err := d.CurrentTemplate(ctx, art)
		if err != nil {
			return nil, err
		}
		var before *wetwire.Template
		if body != nil {
			if before, err = differ.ParseTemplate(body); err != nil {
				return nil, fmt.Errorf("%s: %w", art.DeployName, err)
			}
		}
		result, err := differ.Compare(before, art.Template, differ.Options{IgnoreOrder: ignoreOrder})
		if err != nil {
			return nil, err
		}
		out = append(out, stackDiff{stack: art.Stack.Name, result: result})
	}
	return out, nil
}

func outputDiff(w io.Writer, diffs []stackDiff, format string) error {
	switch format {
	case "json":
		out := make([]wetwire.DiffResult, 0, len(diffs))
		for _, d := range diffs {
			out = append(out, wetwire.DiffResult{
				Success: true,
				Stack:   d.stack,
				Diff:    d.result.Diff,
				Summary: d.result.Summary,
			})
		}
		if len(out) == 1 && out[0].Stack == "" {
			return writeJSON(w, out[0])
		}
		return writeJSON(w, out)

	case "text":
		for _, d := range diffs {
			if d.stack != "" {
				fmt.Fprintf(w, "Stack %s\n", d.stack)
			}
			outputDiffText(w, d.result)
		}
		return nil

	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func outputDiffText(w io.Writer, r *differ.Result) {
	if r.Empty() {
		fmt.Fprintln(w, "No differences found.")
		return
	}
	for _, e := range r.Diff.Added {
		fmt.Fprintf(w, "  + %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range r.Diff.Removed {
		fmt.Fprintf(w, "  - %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range r.Diff.Modified {
		fmt.Fprintf(w, "  ~ %s (%s)\n", e.Resource, e.Type)
		for _, c := range e.Changes {
			fmt.Fprintf(w, "      %s\n", c)
		}
	}
	for _, c := range r.Parameters {
		fmt.Fprintf(w, "  ~ %s\n", c)
	}
	for _, c := range r.Outputs {
		fmt.Fprintf(w, "  ~ %s\n", c)
	}
	fmt.Fprintf(w, "Summary: %d added, %d removed, %d modified\n",
		r.Summary.Added, r.Summary.Removed, r.Summary.Modified)
}

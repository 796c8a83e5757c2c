package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/validation"
)

// newValidateCmd creates the "validate" subcommand for checking templates
// with cfn-lint.
func newValidateCmd(o *rootOptions) *cobra.Command {
	var (
		outputFormat string
		dir          string
		offline      bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate templates with cfn-lint",
		Long: `Validate runs cfn-lint over every template, in parallel. Without --dir the
templates are synthesized first. With --offline the synthesized templates are
checked against the built-in resource schemas instead, without cfn-lint.

Examples:
    strapi-aws validate
    strapi-aws validate --offline
    strapi-aws validate --dir cdk.out --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd.OutOrStdout(), o, validateOptions{dir: dir, format: outputFormat, offline: offline})
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&dir, "dir", "", "Validate templates previously written by synth -o")
	cmd.Flags().BoolVar(&offline, "offline", false, "Check against built-in resource schemas only")

	return cmd
}

type validateOptions struct {
	dir     string
	format  string
	offline bool
}

func runValidate(ctx context.Context, w io.Writer, o *rootOptions, opts validateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.offline && opts.dir != "" {
		return fmt.Errorf("--offline checks synthesized templates and cannot be combined with --dir")
	}

	var (
		result    *validation.Result
		resources int
		err       error
	)
	if opts.dir != "" {
		result, err = validation.ValidateDir(ctx, opts.dir)
	} else {
		_, a, synthErr := o.synthesize()
		if synthErr != nil {
			return fmt.Errorf("validation failed: %w", synthErr)
		}
		for _, art := range a.Stacks {
			resources += len(art.Template.Resources)
		}
		if opts.offline {
			result = validation.CheckAssemblySchema(a)
		} else {
			result, err = validation.ValidateAssembly(ctx, a)
		}
	}
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := wetwire.ValidateResult{Success: result.Passed, Resources: resources}
	for _, t := range result.Templates {
		for _, e := range t.Errors {
			out.Errors = append(out.Errors, t.Template+": "+e)
		}
		for _, e := range t.Warnings {
			out.Warnings = append(out.Warnings, t.Template+": "+e)
		}
	}

	switch opts.format {
	case "json":
		if err := writeJSON(w, out); err != nil {
			return err
		}
	case "text":
		for _, t := range result.Templates {
			status := "ok"
			if !t.Passed {
				status = "FAILED"
			}
			fmt.Fprintf(w, "%s: %s (%d issues)\n", t.Template, status, t.TotalIssues())
		}
		for _, e := range out.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", e)
		}
		for _, e := range out.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", e)
		}
	default:
		return fmt.Errorf("unknown format: %s", opts.format)
	}

	if !out.Success {
		return fmt.Errorf("validation failed: %d errors", len(out.Errors))
	}
	return nil
}

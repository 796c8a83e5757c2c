package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/config"
	"github.com/lex00/strapi-aws-go/internal/lint"
)

type lintOptions struct {
	format string
	dir    string
	rules  string
	maxTTL int
}

func newLintCmd(o *rootOptions) *cobra.Command {
	var opts lintOptions

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check the synthesized stacks against deployment policy",
		Long: `Lint checks synthesized templates for policy violations. It exits with
status 2 when any error-severity issue is found.

Rules:
    SAW001: Admin allow rule must be evaluated before the deny rule
    SAW002: Database and service must not be placed in public subnets
    SAW003: No literal secrets in task environment or database credentials
    SAW004: Record set TTL must not exceed the maximum
    SAW005: CDN behaviors must be unique, cached and HTTPS only
    SAW006: Exactly one role may write the upload bucket
    SAW007: The CDN certificate must come from us-east-1

Examples:
    strapi-aws lint
    strapi-aws lint --dir cdk.out
    strapi-aws lint --rules SAW001,SAW007 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := runLint(cmd.OutOrStdout(), o, opts)
			if err != nil {
				return err
			}
			if !ok {
				os.Exit(2) // Exit code 2 for issues found
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Lint templates previously written by synth -o")
	cmd.Flags().StringVar(&opts.rules, "rules", "", "Comma-separated rule IDs to run (default: all)")
	cmd.Flags().IntVar(&opts.maxTTL, "max-ttl", 300, "Maximum record set TTL in seconds")

	return cmd
}

// runLint reports whether the target is free of errors.
func runLint(w io.Writer, o *rootOptions, opts lintOptions) (bool, error) {
	var target *lint.Target
	if opts.dir != "" {
		t, err := lint.LoadDir(opts.dir)
		if err != nil {
			return false, err
		}
		target = t
	} else {
		_, a, err := o.synthesize()
		if err != nil {
			return false, err
		}
		target = lint.FromAssembly(a)
	}

	result := lint.Lint(target, lint.Options{
		EnabledRules: config.SplitList(opts.rules),
		MaxTTL:       opts.maxTTL,
	})
	return result.Success, outputLintResult(w, result, opts.format)
}

func outputLintResult(w io.Writer, result lint.Result, format string) error {
	switch format {
	case "json":
		out := wetwire.LintResult{Success: result.Success}
		for _, i := range result.Issues {
			out.Issues = append(out.Issues, wetwire.LintIssue{
				Stack:    i.Stack,
				Resource: i.Resource,
				Severity: string(i.Severity),
				Message:  i.Message,
				Rule:     i.Rule,
			})
		}
		return writeJSON(w, out)

	case "text":
		if len(result.Issues) == 0 {
			fmt.Fprintln(w, "No issues found.")
			return nil
		}
		for _, issue := range result.Issues {
			fmt.Fprintln(w, issue)
			if issue.Suggestion != "" {
				fmt.Fprintf(w, "    %s\n", issue.Suggestion)
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

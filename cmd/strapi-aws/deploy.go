package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/route53"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/app"
	"github.com/lex00/strapi-aws-go/internal/deploy"
	"github.com/lex00/strapi-aws-go/internal/lint"
	"github.com/lex00/strapi-aws-go/internal/lookup"
)

type deployOptions struct {
	format      string
	timeout     time.Duration
	skipLint    bool
	contextFile string
	tags        []string
}

func newDeployCmd(o *rootOptions) *cobra.Command {
	var opts deployOptions

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create or update every stack",
		Long: `Deploy synthesizes the application, checks it with lint, and creates or
updates each stack through a change set, in dependency order. Outputs of a
stack are passed to the stacks that reference them. The first failure stops
the run and prints the reasons CloudFormation reported.

The hosted zone ID is looked up in Route 53 unless configured, and cached in
strapi-aws.context.yaml.

Examples:
    strapi-aws deploy
    strapi-aws deploy --tag team=web --tag env=prod
    strapi-aws deploy --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd.Context(), cmd.OutOrStdout(), o, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Hour, "Maximum wait per stack")
	cmd.Flags().BoolVar(&opts.skipLint, "skip-lint", false, "Deploy even when lint reports errors")
	cmd.Flags().StringVar(&opts.contextFile, "context-file", lookup.ContextFile, "Lookup cache")
	cmd.Flags().StringArrayVar(&opts.tags, "tag", nil, "Stack tag as key=value (repeatable)")

	return cmd
}

func runDeploy(ctx context.Context, w io.Writer, o *rootOptions, opts deployOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, a, err := o.synthesize()
	if err != nil {
		return err
	}

	if !opts.skipLint {
		if err := lint.Lint(lint.FromAssembly(a), lint.Options{}).Err(); err != nil {
			return fmt.Errorf("lint failed, use --skip-lint to deploy anyway: %w", err)
		}
	}

	tags, err := parseTags(opts.tags)
	if err != nil {
		return err
	}

	params, err := zoneParameters(ctx, o, a, cfg.Region, opts.contextFile)
	if err != nil {
		return err
	}

	d := deploy.New(nil, deploy.Options{
		Clients: deploy.AWSClients(o.profile),
		Timeout: opts.timeout,
		Tags:    tags,
		Log:     log.WithField("application", a.Application),
	})
	res, err := d.Deploy(ctx, a, params)
	out := deployResult(res, err)
	if werr := outputDeploy(w, out, opts.format); werr != nil {
		return werr
	}
	return err
}

// zoneParameters resolves the hosted zone when synthesis left it as a
// parameter, and passes it to every stack declaring one.
func zoneParameters(ctx context.Context, o *rootOptions, a *app.Assembly, region, contextFile string) (map[string]map[string]string, error) {
	params := map[string]map[string]string{}
	if a.ZoneLookup == "" {
		return params, nil
	}

	awsCfg, err := deploy.LoadAWSConfig(ctx, region, o.profile)
	if err != nil {
		return nil, err
	}
	cache := lookup.NewCache(contextFile, lookup.NewRoute53(route53.NewFromConfig(awsCfg)))
	zone, err := cache.HostedZone(ctx, a.ZoneLookup)
	if err != nil {
		return nil, err
	}
	log.WithField("zone", zone.Name).Infof("using hosted zone %s", zone.ID)

	for _, art := range a.Stacks {
		if _, ok := art.Stack.Parameter(app.HostedZoneParameter); ok {
			params[art.Stack.Name] = map[string]string{app.HostedZoneParameter: zone.ID}
		}
	}
	return params, nil
}

func parseTags(raw []string) (map[string]string, error) {
	tags := make(map[string]string, len(raw))
	for _, t := range raw {
		k, v, ok := strings.Cut(t, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid tag %q, want key=value", t)
		}
		tags[k] = v
	}
	return tags, nil
}

func deployResult(res *deploy.Result, err error) wetwire.DeployResult {
	out := wetwire.DeployResult{Success: err == nil}
	if err != nil {
		out.Errors = errorList(err)
	}
	if res == nil {
		return out
	}
	for _, s := range res.Stacks {
		out.Stacks = append(out.Stacks, wetwire.StackStatus{
			Name:    s.DeployName,
			Region:  s.Region,
			Status:  s.Status,
			Changed: !s.Unchanged,
		})
	}
	out.Outputs = res.Outputs
	out.WebURL = res.WebURL
	return out
}

func outputDeploy(w io.Writer, out wetwire.DeployResult, format string) error {
	switch format {
	case "json":
		return writeJSON(w, out)
	case "text":
		for _, s := range out.Stacks {
			change := "changed"
			if !s.Changed {
				change = "no changes"
			}
			fmt.Fprintf(w, "%s (%s): %s, %s\n", s.Name, s.Region, s.Status, change)
		}
		for _, r := range out.Retained {
			fmt.Fprintf(w, "retained: %s\n", r)
		}
		for _, e := range out.Errors {
			fmt.Fprintf(w, "ERROR: %s\n", e)
		}
		if out.WebURL != "" {
			fmt.Fprintf(w, "\n%s\n", out.WebURL)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func newDestroyCmd(o *rootOptions) *cobra.Command {
	var (
		format  string
		yes     bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete every stack",
		Long: `Destroy deletes the stacks in reverse dependency order. Resources with a
Retain deletion policy, such as the upload bucket, are kept and listed.

Examples:
    strapi-aws destroy --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := o.synthesize()
			if err != nil {
				return err
			}
			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Would delete, in order: %v\nRe-run with --yes to proceed.\n", deployNames(a, a.TeardownOrder()))
				return nil
			}
			d := deploy.New(nil, deploy.Options{
				Clients: deploy.AWSClients(o.profile),
				Timeout: timeout,
				Log:     log.WithField("application", a.Application),
			})
			res, err := d.Destroy(cmd.Context(), a)
			out := destroyResult(res, err)
			if werr := outputDeploy(cmd.OutOrStdout(), out, format); werr != nil {
				return werr
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Hour, "Maximum wait per stack")

	return cmd
}

func deployNames(a *app.Assembly, stacks []string) []string {
	out := make([]string, 0, len(stacks))
	for _, name := range stacks {
		if art, ok := a.Stack(name); ok {
			out = append(out, art.DeployName)
		}
	}
	return out
}

func destroyResult(res *deploy.DestroyResult, err error) wetwire.DeployResult {
	out := wetwire.DeployResult{Success: err == nil}
	if err != nil {
		out.Errors = errorList(err)
	}
	if res == nil {
		return out
	}
	for _, name := range res.Deleted {
		out.Stacks = append(out.Stacks, wetwire.StackStatus{Name: name, Status: "DELETE_COMPLETE", Changed: true})
	}
	for _, name := range res.Absent {
		out.Stacks = append(out.Stacks, wetwire.StackStatus{Name: name, Status: "ABSENT"})
	}
	for stack, resources := range res.Retained {
		for _, r := range resources {
			out.Retained = append(out.Retained, stack+"/"+r)
		}
	}
	sort.Strings(out.Retained)
	return out
}

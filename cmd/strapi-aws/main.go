// Command strapi-aws synthesizes and deploys the CloudFormation stacks that
// host a Strapi CMS on AWS.
//
// Usage:
//
//	strapi-aws init --application-name blog --hosted-zone example.com
//	strapi-aws synth -o cdk.out       Write templates and manifest
//	strapi-aws lint                   Check stack policies
//	strapi-aws deploy                 Create or update every stack
//	strapi-aws destroy --yes          Delete every stack
//	strapi-aws version                Show version
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lex00/strapi-aws-go/internal/app"
	"github.com/lex00/strapi-aws-go/internal/config"
)

// rootOptions are shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
	profile    string
	flags      *config.Flags
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "strapi-aws",
		Short: "Deploy Strapi on AWS with CloudFormation",
		Long: `strapi-aws composes the AWS infrastructure a Strapi CMS runs on: a VPC,
an Aurora PostgreSQL cluster, a Fargate service behind a load balancer whose
/admin path is restricted to an IP allow-list, an S3 upload bucket, a
CloudFront distribution and its certificate, and the DNS record.

Settings come from strapi-aws.yaml, overridden by flags:

    strapi-aws synth --application-name blog --hosted-zone example.com`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(o.logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			log.SetOutput(os.Stderr)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.configPath, "config", config.DefaultFile, "Configuration file")
	pf.StringVar(&o.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pf.StringVar(&o.profile, "profile", "", "AWS shared config profile")
	o.flags = config.RegisterFlags(pf)

	rootCmd.AddCommand(
		newSynthCmd(o),
		newGraphCmd(o),
		newLintCmd(o),
		newValidateCmd(o),
		newDiffCmd(o),
		newDeployCmd(o),
		newDestroyCmd(o),
		newWatchCmd(o),
		newListCmd(o),
		newEnvCmd(o),
		newInitCmd(o),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig reads the configuration file and applies the flag overrides.
// A missing default file is not an error, so every value can come from
// flags.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || o.configPath != config.DefaultFile {
			return nil, err
		}
		log.Debugf("%s not found, using defaults", o.configPath)
		cfg = config.Default()
	}
	o.flags.Apply(cfg)
	return cfg, nil
}

// synthesize loads the configuration and synthesizes the assembly.
func (o *rootOptions) synthesize() (*config.Config, *app.Assembly, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	a, err := app.Synthesize(cfg)
	if err != nil {
		return cfg, nil, err
	}
	log.WithField("stacks", a.Order()).Debug("synthesized")
	return cfg, a, nil
}

// errorList flattens aggregated errors for the JSON envelopes.
func errorList(err error) []string {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		out := make([]string, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "strapi-aws %s\n", getVersion())
		},
	}
}

package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lex00/strapi-aws-go/internal/config"
)

func newInitCmd(o *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a strapi-aws.yaml with the defaults",
		Long: `Init writes a configuration file holding every default. Values given with
the override flags are written too.

Examples:
    strapi-aws init --application-name blog --hosted-zone example.com --admin-ips 203.0.113.5
    strapi-aws init --config staging.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout(), o, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}

func runInit(w io.Writer, o *rootOptions, force bool) error {
	if _, err := os.Stat(o.configPath); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", o.configPath)
	}

	cfg := defaultsFor(o)
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(o.configPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", o.configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Warn("edit the file before synthesizing")
	}
	fmt.Fprintf(w, "Wrote %s\n", o.configPath)
	return nil
}

func defaultsFor(o *rootOptions) *config.Config {
	cfg := config.Default()
	o.flags.Apply(cfg)
	return cfg
}

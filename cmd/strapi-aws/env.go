package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/strapi-aws-go/internal/cmsenv"
)

func newEnvCmd(o *rootOptions) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Show the environment the CMS container reads",
		Long: `Env lists the variables the provisioned container receives, and whether
each is passed in plain text or from the secret store. With --local it
prints a .env file for running the CMS against a local database instead.

Examples:
    strapi-aws env
    strapi-aws env --local > ../cms/.env`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd.OutOrStdout(), local)
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Print the local development .env")

	return cmd
}

func runEnv(w io.Writer, local bool) error {
	if local {
		_, err := io.WriteString(w, cmsenv.DotEnv(cmsenv.LocalDefaults()))
		return err
	}
	contract := cmsenv.CloudContract()
	for _, name := range contract.Plain {
		fmt.Fprintf(w, "%-20s plain\n", name)
	}
	for _, name := range contract.Secret {
		fmt.Fprintf(w, "%-20s secret\n", name)
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	wetwire "github.com/lex00/strapi-aws-go"
)

func newSynthCmd(o *rootOptions) *cobra.Command {
	var (
		outputDir    string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize the CloudFormation templates",
		Long: `Synth builds one template per stack. With -o it writes the templates and a
manifest.json describing deploy order, parameters and the container image;
without it, it prints a JSON envelope holding every template.

Examples:
    strapi-aws synth
    strapi-aws synth -o cdk.out
    strapi-aws synth -o cdk.out --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(cmd.OutOrStdout(), o, outputDir, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: print the envelope)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Template format: json or yaml")

	return cmd
}

func runSynth(w io.Writer, o *rootOptions, outputDir, format string) error {
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format: %s", format)
	}

	_, a, err := o.synthesize()
	if err != nil {
		if outputDir == "" {
			_ = writeJSON(w, wetwire.SynthResult{Success: false, Errors: errorList(err)})
		}
		return fmt.Errorf("synthesis failed: %w", err)
	}

	if outputDir == "" {
		return writeJSON(w, wetwire.SynthResult{
			Success: true,
			Stacks:  a.Order(),
			Output:  a.Templates(),
		})
	}

	files, err := a.Write(outputDir, format)
	if err != nil {
		return err
	}
	for _, f := range files {
		log.WithField("file", f).Info("wrote")
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

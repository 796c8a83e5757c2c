package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lex00/strapi-aws-go/internal/lint"
)

type watchOptions struct {
	lintOnly     bool
	debounce     time.Duration
	outputDir    string
	outputFormat string
}

// newWatchCmd creates the "watch" subcommand for re-synthesizing on
// configuration changes.
func newWatchCmd(o *rootOptions) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-synthesize when the configuration changes",
		Long: `Watch monitors the configuration file and, on each change:
- synthesizes and lints the application
- writes the templates to -o (unless --lint-only) when lint passes
- debounces rapid changes to avoid excessive rebuilds

Examples:
    strapi-aws watch -o cdk.out
    strapi-aws watch --lint-only
    strapi-aws watch -o cdk.out --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), o, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.lintOnly, "lint-only", false, "Only run lint, skip writing templates")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "cdk.out", "Output directory")
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", "json", "Template format: json or yaml")

	return cmd
}

func runWatch(ctx context.Context, o *rootOptions, opts watchOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Editors replace files on save, so the directory is watched.
	path, err := filepath.Abs(o.configPath)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	log.WithField("file", path).Info("watching")

	rebuild(o, opts)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isConfigEvent(event, path) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			log.Info("change detected, rebuilding")
			rebuild(o, opts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watch error")

		case <-ctx.Done():
			log.Info("stopping watch")
			return nil
		}
	}
}

func isConfigEvent(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// rebuild reports whether synthesis and lint both passed.
func rebuild(o *rootOptions, opts watchOptions) bool {
	_, a, err := o.synthesize()
	if err != nil {
		for _, e := range errorList(err) {
			log.Error(e)
		}
		return false
	}

	result := lint.Lint(lint.FromAssembly(a), lint.Options{})
	for _, issue := range result.Issues {
		log.Warn(issue.String())
	}
	if !result.Success {
		log.Error("lint failed, skipping write")
		return false
	}
	log.Info("lint passed")

	if opts.lintOnly {
		return true
	}
	files, err := a.Write(opts.outputDir, opts.outputFormat)
	if err != nil {
		log.WithError(err).Error("write failed")
		return false
	}
	log.Infof("wrote %d files to %s", len(files), opts.outputDir)
	return true
}

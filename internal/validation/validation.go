// Package validation runs cfn-lint-go over synthesized templates, or checks
// them offline against the schemas of the resource types the stacks declare.
package validation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"
	"golang.org/x/sync/errgroup"

	"github.com/lex00/strapi-aws-go/internal/app"
)

// CfnLintResult contains the result of running cfn-lint on one template.
type CfnLintResult struct {
	Template      string   `json:"template"`
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// Result aggregates the results of several templates.
type Result struct {
	Passed    bool            `json:"passed"`
	Templates []CfnLintResult `json:"templates"`
}

// RunCfnLint runs cfn-lint-go on the given template file. Problems with the
// file itself are reported as errors in the result.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	result := &CfnLintResult{
		Template:      templatePath,
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}
	if _, err := os.Stat(templatePath); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Template file not found: %s", templatePath))
		return result, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Linter error: %v", err))
		return result, nil
	}

	for _, match := range matches {
		formatted := formatMatch(match)
		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Warnings are acceptable.
	result.Passed = len(result.Errors) == 0
	return result, nil
}

func formatMatch(match lint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// ValidateFiles lints every template concurrently. Results keep the order
// of paths.
func ValidateFiles(ctx context.Context, paths []string) (*Result, error) {
	results := make([]CfnLintResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := RunCfnLint(p)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			results[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Passed: true, Templates: results}
	for _, r := range results {
		if !r.Passed {
			res.Passed = false
		}
	}
	return res, nil
}

// ValidateDir lints every template written into dir.
func ValidateDir(ctx context.Context, dir string) (*Result, error) {
	var paths []string
	for _, pattern := range []string{"*.template.json", "*.template.yaml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no templates in %s", dir)
	}
	sort.Strings(paths)
	return ValidateFiles(ctx, paths)
}

// ValidateAssembly writes a to a scratch directory and lints the result.
func ValidateAssembly(ctx context.Context, a *app.Assembly) (*Result, error) {
	dir, err := os.MkdirTemp("", "strapi-aws-validate-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if _, err := a.Write(dir, "yaml"); err != nil {
		return nil, err
	}
	return ValidateDir(ctx, dir)
}

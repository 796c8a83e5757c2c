// Package lint checks synthesized templates against the deployment's
// security and ordering policies.
//
// Rules:
//
//	SAW001: Admin allow rule precedes the deny rule and is source-restricted
//	SAW002: Database and service stay out of public subnets
//	SAW003: No literal secrets in task environment or database credentials
//	SAW004: Record set TTLs stay at or under five minutes
//	SAW005: CDN behaviors are unique, cached by policy and HTTPS-only
//	SAW006: Bucket write access is granted to exactly one role
//	SAW007: The CloudFront certificate comes from a us-east-1 stack
package lint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/app"
)

// Severity of an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one finding.
type Issue struct {
	Rule       string   `json:"rule"`
	Severity   Severity `json:"severity"`
	Stack      string   `json:"stack,omitempty"`
	Resource   string   `json:"resource,omitempty"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

func (i Issue) String() string {
	where := i.Stack
	if i.Resource != "" {
		where += "/" + i.Resource
	}
	return fmt.Sprintf("%s [%s] %s: %s", i.Rule, i.Severity, where, i.Message)
}

// Rule checks a whole target.
type Rule interface {
	ID() string
	Description() string
	Check(t *Target) []Issue
}

// Stack is one template under check.
type Stack struct {
	Name     string
	Region   string
	Template *wetwire.Template
}

// Target is the set of templates linted together, with the references that
// pass values between them.
type Target struct {
	Stacks     []Stack
	References []app.Reference
}

// FromAssembly lints a freshly synthesized assembly.
func FromAssembly(a *app.Assembly) *Target {
	t := &Target{References: a.References}
	for _, art := range a.Stacks {
		t.Stacks = append(t.Stacks, Stack{Name: art.Stack.Name, Region: art.Stack.Env.Region, Template: art.Template})
	}
	return t
}

// LoadDir reads an assembly written by app.Assembly.Write.
func LoadDir(dir string) (*Target, error) {
	data, err := os.ReadFile(filepath.Join(dir, app.ManifestFile))
	if err != nil {
		return nil, err
	}
	var m app.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	t := &Target{References: m.References}
	for _, name := range m.Order {
		ms := m.Stacks[name]
		tmpl, err := LoadTemplate(filepath.Join(dir, ms.TemplateFile))
		if err != nil {
			return nil, err
		}
		t.Stacks = append(t.Stacks, Stack{Name: name, Region: ms.Region, Template: tmpl})
	}
	return t, nil
}

// LoadTemplate reads a JSON or YAML template.
func LoadTemplate(path string) (*wetwire.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tmpl wetwire.Template
	if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(data, &tmpl)
	} else {
		err = json.Unmarshal(data, &tmpl)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &tmpl, nil
}

// Result contains the outcome of linting.
type Result struct {
	Success bool
	Issues  []Issue
}

// Err aggregates the error-severity issues, nil when there are none.
func (r Result) Err() error {
	var errs *multierror.Error
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errs = multierror.Append(errs, fmt.Errorf("%s", i))
		}
	}
	return errs.ErrorOrNil()
}

// Options configures the linter.
type Options struct {
	// Rules to enable. If empty, all rules are enabled.
	EnabledRules []string
	// MaxTTL in seconds for SAW004.
	MaxTTL int
}

// Lint runs the enabled rules over t. Success is false when any issue is an
// error.
func Lint(t *Target, opts Options) Result {
	var issues []Issue
	for _, rule := range getRules(opts) {
		issues = append(issues, rule.Check(t)...)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Rule != issues[j].Rule {
			return issues[i].Rule < issues[j].Rule
		}
		if issues[i].Stack != issues[j].Stack {
			return issues[i].Stack < issues[j].Stack
		}
		return issues[i].Resource < issues[j].Resource
	})

	success := true
	for _, i := range issues {
		if i.Severity == SeverityError {
			success = false
		}
	}
	return Result{Success: success, Issues: issues}
}

// AllRules returns all available lint rules.
func AllRules() []Rule {
	return []Rule{
		AdminAccessOrder{},
		PrivatePlacement{},
		LiteralSecrets{},
		RecordTTL{MaxTTL: 300},
		CDNBehaviors{},
		SingleBucketWriter{},
		GlobalCertificate{},
	}
}

func getRules(opts Options) []Rule {
	all := AllRules()
	if opts.MaxTTL > 0 {
		for i, r := range all {
			if _, ok := r.(RecordTTL); ok {
				all[i] = RecordTTL{MaxTTL: opts.MaxTTL}
			}
		}
	}
	if len(opts.EnabledRules) == 0 {
		return all
	}

	enabled := make(map[string]bool)
	for _, id := range opts.EnabledRules {
		enabled[strings.ToUpper(id)] = true
	}
	var filtered []Rule
	for _, r := range all {
		if enabled[r.ID()] {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Package deploy applies a synthesized assembly through CloudFormation
// change sets, one stack at a time in dependency order, and tears it down
// in reverse.
package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/lex00/strapi-aws-go/internal/app"
)

var (
	ErrMissingParameter = errors.New("missing parameter value")
	ErrStackBusy        = errors.New("stack operation in progress")
	errPending          = errors.New("operation in progress")
)

// noChanges matches the reasons CloudFormation gives for an empty change set.
var noChanges = []string{"didn't contain changes", "No updates are to be performed"}

// StackError is a failed stack operation with the reasons CloudFormation
// reported for the failed resources.
type StackError struct {
	Stack   string
	Status  string
	Reasons []string
}

func (e *StackError) Error() string {
	msg := fmt.Sprintf("stack %s: %s", e.Stack, e.Status)
	if len(e.Reasons) > 0 {
		msg += ": " + strings.Join(e.Reasons, "; ")
	}
	return msg
}

// Options configure a Deployer.
type Options struct {
	// Clients overrides the client per region.
	Clients ClientFactory
	// PollInterval is the first wait between status checks.
	PollInterval time.Duration
	// Timeout bounds each wait.
	Timeout time.Duration
	Tags    map[string]string
	Log     *log.Entry
}

// Deployer drives CloudFormation.
type Deployer struct {
	clients ClientFactory
	opts    Options
	log     *log.Entry
}

// New returns a Deployer using api for every region unless opts.Clients is set.
func New(api CloudFormationAPI, opts Options) *Deployer {
	clients := opts.Clients
	if clients == nil {
		clients = Static(api)
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Hour
	}
	l := opts.Log
	if l == nil {
		l = log.WithField("component", "deploy")
	}
	return &Deployer{clients: clients, opts: opts, log: l}
}

// StackResult is the outcome of one stack.
type StackResult struct {
	Stack      string            `json:"stack"`
	DeployName string            `json:"stackName"`
	Region     string            `json:"region"`
	Status     string            `json:"status"`
	Unchanged  bool              `json:"unchanged,omitempty"`
	Outputs    map[string]string `json:"outputs,omitempty"`
}

// Result is the outcome of Deploy.
type Result struct {
	Stacks []StackResult `json:"stacks"`
	// Outputs by stack logical name.
	Outputs map[string]map[string]string `json:"outputs"`
	WebURL  string                       `json:"webUrl,omitempty"`
}

// Deploy creates or updates every stack in order. params adds parameter
// values per stack on top of the assembly's own; cross-stack references are
// filled from the producer's outputs. Missing values are reported before any
// stack is touched. The first failure stops the run.
func (d *Deployer) Deploy(ctx context.Context, a *app.Assembly, params map[string]map[string]string) (*Result, error) {
	res := &Result{Outputs: map[string]map[string]string{}}
	if err := checkParameters(a, params); err != nil {
		return res, err
	}
	for _, art := range a.Stacks {
		values, err := d.parameters(a, art, params, res.Outputs)
		if err != nil {
			return res, err
		}
		sr, err := d.deployStack(ctx, art, values)
		if sr != nil {
			res.Stacks = append(res.Stacks, *sr)
			res.Outputs[art.Stack.Name] = sr.Outputs
		}
		if err != nil {
			return res, err
		}
	}
	if url := res.Outputs[app.StrapiStack][app.WebURLOutput]; url != "" {
		res.WebURL = "https://" + url
	}
	return res, nil
}

// checkParameters reports every stack that lacks a value for a required
// parameter. Parameters filled by a cross-stack reference count as present.
func checkParameters(a *app.Assembly, extra map[string]map[string]string) error {
	var problems []string
	for _, art := range a.Stacks {
		values := staticValues(a, art, extra)
		for _, ref := range a.References {
			if ref.Consumer == art.Stack.Name {
				values[ref.Parameter] = ""
			}
		}
		if missing := missingParameters(art, values); len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("%s needs %s", art.Stack.Name, strings.Join(missing, ", ")))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(problems, "; "))
	}
	return nil
}

func staticValues(a *app.Assembly, art *app.Artifact, extra map[string]map[string]string) map[string]string {
	name := art.Stack.Name
	values := map[string]string{}
	for k, v := range a.Parameters[name] {
		values[k] = v
	}
	for k, v := range extra[name] {
		values[k] = v
	}
	return values
}

func missingParameters(art *app.Artifact, values map[string]string) []string {
	var missing []string
	for id, p := range art.Template.Parameters {
		if _, ok := values[id]; !ok && p.Default == nil {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}

func (d *Deployer) parameters(a *app.Assembly, art *app.Artifact, extra map[string]map[string]string, outputs map[string]map[string]string) (map[string]string, error) {
	name := art.Stack.Name
	values := staticValues(a, art, extra)
	for _, ref := range a.References {
		if ref.Consumer != name {
			continue
		}
		v, ok := outputs[ref.Producer][ref.Output]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s needs output %s of %s, which it did not report", ErrMissingParameter, name, ref.Parameter, ref.Output, ref.Producer)
		}
		values[ref.Parameter] = v
	}
	if missing := missingParameters(art, values); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s needs %s", ErrMissingParameter, name, strings.Join(missing, ", "))
	}
	return values, nil
}

func (d *Deployer) deployStack(ctx context.Context, art *app.Artifact, values map[string]string) (*StackResult, error) {
	l := d.log.WithField("stack", art.DeployName)
	api, err := d.clients(ctx, art.Stack.Env.Region)
	if err != nil {
		return nil, fmt.Errorf("client for %s: %w", art.Stack.Env.Region, err)
	}

	current, err := describe(ctx, api, art.DeployName)
	if err != nil {
		return nil, err
	}
	changeSetType := types.ChangeSetTypeUpdate
	switch {
	case current == nil || current.StackStatus == types.StackStatusReviewInProgress:
		changeSetType = types.ChangeSetTypeCreate
	case current.StackStatus == types.StackStatusRollbackComplete:
		return nil, &StackError{Stack: art.DeployName, Status: string(current.StackStatus), Reasons: []string{"a failed creation must be destroyed before deploying again"}}
	case inProgress(current.StackStatus):
		return nil, fmt.Errorf("%w: %s is %s", ErrStackBusy, art.DeployName, current.StackStatus)
	}

	body, err := json.Marshal(art.Template)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	changeSet := "strapi-aws-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	l.WithField("type", changeSetType).Info("creating change set")
	if _, err := api.CreateChangeSet(ctx, &cloudformation.CreateChangeSetInput{
		StackName:     aws.String(art.DeployName),
		ChangeSetName: aws.String(changeSet),
		ChangeSetType: changeSetType,
		TemplateBody:  aws.String(string(body)),
		Parameters:    cfnParameters(values),
		Capabilities:  []types.Capability{types.CapabilityCapabilityIam, types.CapabilityCapabilityNamedIam},
		ClientToken:   aws.String(uuid.NewString()),
		Tags:          d.tags(art),
	}); err != nil {
		return nil, fmt.Errorf("creating change set for %s: %w", art.DeployName, err)
	}

	empty, err := d.waitChangeSet(ctx, api, art.DeployName, changeSet)
	if err != nil {
		return nil, err
	}
	if empty {
		l.Info("no changes")
		if _, err := api.DeleteChangeSet(ctx, &cloudformation.DeleteChangeSetInput{
			StackName:     aws.String(art.DeployName),
			ChangeSetName: aws.String(changeSet),
		}); err != nil {
			l.WithError(err).Warn("deleting empty change set")
		}
		return d.result(ctx, api, art, true)
	}

	l.Info("executing change set")
	if _, err := api.ExecuteChangeSet(ctx, &cloudformation.ExecuteChangeSetInput{
		StackName:          aws.String(art.DeployName),
		ChangeSetName:      aws.String(changeSet),
		ClientRequestToken: aws.String(uuid.NewString()),
	}); err != nil {
		return nil, fmt.Errorf("executing change set for %s: %w", art.DeployName, err)
	}

	if _, err := d.waitStack(ctx, api, art.DeployName, started, false); err != nil {
		return nil, err
	}
	return d.result(ctx, api, art, false)
}

func (d *Deployer) result(ctx context.Context, api CloudFormationAPI, art *app.Artifact, unchanged bool) (*StackResult, error) {
	st, err := describe(ctx, api, art.DeployName)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, &StackError{Stack: art.DeployName, Status: "MISSING"}
	}
	out := map[string]string{}
	for _, o := range st.Outputs {
		out[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	return &StackResult{
		Stack:      art.Stack.Name,
		DeployName: art.DeployName,
		Region:     art.Stack.Env.Region,
		Status:     string(st.StackStatus),
		Unchanged:  unchanged,
		Outputs:    out,
	}, nil
}

func (d *Deployer) tags(art *app.Artifact) []types.Tag {
	tags := []types.Tag{{Key: aws.String("strapi-aws:stack"), Value: aws.String(art.Stack.Name)}}
	keys := make([]string, 0, len(d.opts.Tags))
	for k := range d.opts.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tags = append(tags, types.Tag{Key: aws.String(k), Value: aws.String(d.opts.Tags[k])})
	}
	return tags
}

func cfnParameters(values map[string]string) []types.Parameter {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]types.Parameter, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Parameter{ParameterKey: aws.String(k), ParameterValue: aws.String(values[k])})
	}
	return out
}

// DestroyResult is the outcome of Destroy.
type DestroyResult struct {
	Deleted []string `json:"deleted"`
	Absent  []string `json:"absent,omitempty"`
	// Retained lists resources kept by their deletion policy, per stack.
	Retained map[string][]string `json:"retained,omitempty"`
}

// Destroy deletes every stack in reverse dependency order. Stacks that do
// not exist count as deleted.
func (d *Deployer) Destroy(ctx context.Context, a *app.Assembly) (*DestroyResult, error) {
	res := &DestroyResult{Retained: map[string][]string{}}
	for i := len(a.Stacks) - 1; i >= 0; i-- {
		art := a.Stacks[i]
		l := d.log.WithField("stack", art.DeployName)
		api, err := d.clients(ctx, art.Stack.Env.Region)
		if err != nil {
			return res, fmt.Errorf("client for %s: %w", art.Stack.Env.Region, err)
		}

		current, err := describe(ctx, api, art.DeployName)
		if err != nil {
			return res, err
		}
		if current == nil || current.StackStatus == types.StackStatusDeleteComplete {
			l.Info("already absent")
			res.Absent = append(res.Absent, art.DeployName)
			continue
		}

		started := time.Now()
		l.Info("deleting stack")
		if _, err := api.DeleteStack(ctx, &cloudformation.DeleteStackInput{
			StackName:          aws.String(art.DeployName),
			ClientRequestToken: aws.String(uuid.NewString()),
		}); err != nil {
			return res, fmt.Errorf("deleting %s: %w", art.DeployName, err)
		}
		if _, err := d.waitStack(ctx, api, art.DeployName, started, true); err != nil {
			return res, err
		}
		res.Deleted = append(res.Deleted, art.DeployName)
		if kept := retained(art); len(kept) > 0 {
			l.WithField("resources", kept).Warn("retained by deletion policy")
			res.Retained[art.DeployName] = kept
		}
	}
	return res, nil
}

func retained(art *app.Artifact) []string {
	var out []string
	for id, r := range art.Template.Resources {
		if r.DeletionPolicy == "Retain" {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// CurrentTemplate returns the deployed template body of a stack, nil when
// the stack does not exist.
func (d *Deployer) CurrentTemplate(ctx context.Context, art *app.Artifact) ([]byte, error) {
	api, err := d.clients(ctx, art.Stack.Env.Region)
	if err != nil {
		return nil, err
	}
	out, err := api.GetTemplate(ctx, &cloudformation.GetTemplateInput{
		StackName:     aws.String(art.DeployName),
		TemplateStage: types.TemplateStageOriginal,
	})
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching template of %s: %w", art.DeployName, err)
	}
	return []byte(aws.ToString(out.TemplateBody)), nil
}

// Status describes every stack of the assembly; missing stacks are omitted.
func (d *Deployer) Status(ctx context.Context, a *app.Assembly) ([]StackResult, error) {
	var out []StackResult
	for _, art := range a.Stacks {
		api, err := d.clients(ctx, art.Stack.Env.Region)
		if err != nil {
			return nil, err
		}
		st, err := describe(ctx, api, art.DeployName)
		if err != nil {
			return nil, err
		}
		if st == nil {
			continue
		}
		sr, err := d.result(ctx, api, art, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *sr)
	}
	return out, nil
}

func describe(ctx context.Context, api CloudFormationAPI, name string) (*types.Stack, error) {
	out, err := api.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(name)})
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("describing %s: %w", name, err)
	}
	if len(out.Stacks) == 0 {
		return nil, nil
	}
	return &out.Stacks[0], nil
}

func inProgress(s types.StackStatus) bool {
	return strings.HasSuffix(string(s), "_IN_PROGRESS")
}

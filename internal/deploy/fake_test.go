package deploy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
)

type fakeStack struct {
	status  types.StackStatus
	body    string
	params  map[string]string
	outputs map[string]string
	events  []types.StackEvent
}

type fakeChangeSet struct {
	stack   string
	kind    types.ChangeSetType
	body    string
	params  map[string]string
	status  types.ChangeSetStatus
	reason  string
	polls   int
	created time.Time
}

// fakeCloudFormation is an in-memory CloudFormation. Change sets complete
// after one poll; executed stacks complete immediately unless listed in
// failOn.
type fakeCloudFormation struct {
	mu         sync.Mutex
	stacks     map[string]*fakeStack
	changeSets map[string]*fakeChangeSet
	// outputs are attached to a stack when it completes.
	outputs map[string]map[string]string
	// failOn maps a stack to the failing resource and its reason.
	failOn map[string][2]string
	calls  []string
	tokens map[string]bool
	// describeErrs are returned by DescribeStacks, one per call, before it
	// answers normally.
	describeErrs []error
	describes    int
	csDescribes  int
}

func newFakeCloudFormation() *fakeCloudFormation {
	return &fakeCloudFormation{
		stacks:     map[string]*fakeStack{},
		changeSets: map[string]*fakeChangeSet{},
		outputs:    map[string]map[string]string{},
		failOn:     map[string][2]string{},
		tokens:     map[string]bool{},
	}
}

func notFound(name string) error {
	return &smithy.GenericAPIError{Code: "ValidationError", Message: fmt.Sprintf("Stack with id %s does not exist", name)}
}

func (f *fakeCloudFormation) record(call, stack string) {
	f.calls = append(f.calls, call+":"+stack)
}

func (f *fakeCloudFormation) DescribeStacks(_ context.Context, in *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.describes++
	if len(f.describeErrs) > 0 {
		err := f.describeErrs[0]
		f.describeErrs = f.describeErrs[1:]
		return nil, err
	}
	name := aws.ToString(in.StackName)
	st, ok := f.stacks[name]
	if !ok || st.status == types.StackStatusDeleteComplete {
		return nil, notFound(name)
	}
	out := types.Stack{StackName: in.StackName, StackStatus: st.status}
	for k, v := range st.outputs {
		out.Outputs = append(out.Outputs, types.Output{OutputKey: aws.String(k), OutputValue: aws.String(v)})
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []types.Stack{out}}, nil
}

func (f *fakeCloudFormation) DescribeStackEvents(_ context.Context, in *cloudformation.DescribeStackEventsInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStackEventsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.StackName)
	st, ok := f.stacks[name]
	if !ok {
		return nil, notFound(name)
	}
	return &cloudformation.DescribeStackEventsOutput{StackEvents: st.events}, nil
}

func (f *fakeCloudFormation) CreateChangeSet(_ context.Context, in *cloudformation.CreateChangeSetInput, _ ...func(*cloudformation.Options)) (*cloudformation.CreateChangeSetOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.StackName)
	f.record("CreateChangeSet", name)

	token := aws.ToString(in.ClientToken)
	if token == "" || f.tokens[token] {
		return nil, &smithy.GenericAPIError{Code: "ValidationError", Message: "client token reused"}
	}
	f.tokens[token] = true

	params := map[string]string{}
	for _, p := range in.Parameters {
		params[aws.ToString(p.ParameterKey)] = aws.ToString(p.ParameterValue)
	}
	cs := &fakeChangeSet{
		stack:   name,
		kind:    in.ChangeSetType,
		body:    aws.ToString(in.TemplateBody),
		params:  params,
		status:  types.ChangeSetStatusCreatePending,
		created: time.Now(),
	}
	if st, ok := f.stacks[name]; ok && in.ChangeSetType == types.ChangeSetTypeUpdate && st.body == cs.body && equalParams(st.params, params) {
		cs.reason = "The submitted information didn't contain changes. Submit different information to create a change set."
	}
	if in.ChangeSetType == types.ChangeSetTypeCreate {
		f.stacks[name] = &fakeStack{status: types.StackStatusReviewInProgress}
	}
	f.changeSets[aws.ToString(in.ChangeSetName)] = cs
	return &cloudformation.CreateChangeSetOutput{Id: in.ChangeSetName, StackId: in.StackName}, nil
}

func equalParams(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func (f *fakeCloudFormation) DescribeChangeSet(_ context.Context, in *cloudformation.DescribeChangeSetInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeChangeSetOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.csDescribes++
	cs, ok := f.changeSets[aws.ToString(in.ChangeSetName)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "ChangeSetNotFound", Message: "change set not found"}
	}
	cs.polls++
	if cs.polls > 1 {
		cs.status = types.ChangeSetStatusCreateComplete
		if cs.reason != "" {
			cs.status = types.ChangeSetStatusFailed
		}
	}
	return &cloudformation.DescribeChangeSetOutput{Status: cs.status, StatusReason: aws.String(cs.reason)}, nil
}

func (f *fakeCloudFormation) ExecuteChangeSet(_ context.Context, in *cloudformation.ExecuteChangeSetInput, _ ...func(*cloudformation.Options)) (*cloudformation.ExecuteChangeSetOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs, ok := f.changeSets[aws.ToString(in.ChangeSetName)]
	if !ok || cs.status != types.ChangeSetStatusCreateComplete {
		return nil, &smithy.GenericAPIError{Code: "InvalidChangeSetStatus", Message: "change set not executable"}
	}
	f.record("ExecuteChangeSet", cs.stack)
	delete(f.changeSets, aws.ToString(in.ChangeSetName))

	st := f.stacks[cs.stack]
	if fail, ok := f.failOn[cs.stack]; ok {
		st.status = types.StackStatusRollbackComplete
		if cs.kind == types.ChangeSetTypeUpdate {
			st.status = types.StackStatusUpdateRollbackComplete
		}
		now := time.Now()
		st.events = append(st.events,
			types.StackEvent{LogicalResourceId: aws.String(fail[0]), ResourceStatus: types.ResourceStatusCreateFailed, ResourceStatusReason: aws.String(fail[1]), Timestamp: aws.Time(now)},
			types.StackEvent{LogicalResourceId: aws.String("Other"), ResourceStatus: types.ResourceStatusCreateFailed, ResourceStatusReason: aws.String("Resource creation cancelled"), Timestamp: aws.Time(now)},
		)
		return &cloudformation.ExecuteChangeSetOutput{}, nil
	}

	st.status = types.StackStatusCreateComplete
	if cs.kind == types.ChangeSetTypeUpdate {
		st.status = types.StackStatusUpdateComplete
	}
	st.body = cs.body
	st.params = cs.params
	st.outputs = f.outputs[cs.stack]
	return &cloudformation.ExecuteChangeSetOutput{}, nil
}

func (f *fakeCloudFormation) DeleteChangeSet(_ context.Context, in *cloudformation.DeleteChangeSetInput, _ ...func(*cloudformation.Options)) (*cloudformation.DeleteChangeSetOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.changeSets, aws.ToString(in.ChangeSetName))
	return &cloudformation.DeleteChangeSetOutput{}, nil
}

func (f *fakeCloudFormation) DeleteStack(_ context.Context, in *cloudformation.DeleteStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.StackName)
	f.record("DeleteStack", name)
	delete(f.stacks, name)
	return &cloudformation.DeleteStackOutput{}, nil
}

func (f *fakeCloudFormation) GetTemplate(_ context.Context, in *cloudformation.GetTemplateInput, _ ...func(*cloudformation.Options)) (*cloudformation.GetTemplateOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.StackName)
	st, ok := f.stacks[name]
	if !ok {
		return nil, notFound(name)
	}
	return &cloudformation.GetTemplateOutput{TemplateBody: aws.String(st.body)}, nil
}

package deploy

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/strapi-aws-go/internal/app"
	"github.com/lex00/strapi-aws-go/internal/compute"
	"github.com/lex00/strapi-aws-go/internal/config"
)

func assembly(t *testing.T) *app.Assembly {
	t.Helper()
	cfg := config.Default()
	cfg.ApplicationName = "blog"
	cfg.HostedZoneDomainName = "example.com"
	cfg.AuthorizedIPsForAdminAccess = []string{"203.0.113.5"}
	cfg.Region = "eu-west-1"
	cfg.HostedZoneID = "Z0123456789ABC"
	cfg.Image.URI = "123456789012.dkr.ecr.eu-west-1.amazonaws.com/blog:1"
	a, err := app.Synthesize(cfg)
	require.NoError(t, err)
	return a
}

func deployer(api CloudFormationAPI) *Deployer {
	return New(api, Options{PollInterval: time.Millisecond, Timeout: 5 * time.Second})
}

const certArn = "arn:aws:acm:us-east-1:123456789012:certificate/abc"

func TestDeploy_Order(t *testing.T) {
	api := newFakeCloudFormation()
	api.outputs["blog-CertificateStack"] = map[string]string{app.CertificateArnOutput: certArn}
	api.outputs["blog-StrapiStack"] = map[string]string{app.WebURLOutput: "d111111abcdef8.cloudfront.net"}

	res, err := deployer(api).Deploy(context.Background(), assembly(t), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CreateChangeSet:blog-CertificateStack",
		"ExecuteChangeSet:blog-CertificateStack",
		"CreateChangeSet:blog-StrapiStack",
		"ExecuteChangeSet:blog-StrapiStack",
	}, api.calls)
	require.Len(t, res.Stacks, 2)
	assert.Equal(t, string(types.StackStatusCreateComplete), res.Stacks[1].Status)
	assert.Equal(t, "https://d111111abcdef8.cloudfront.net", res.WebURL)

	params := api.stacks["blog-StrapiStack"].params
	assert.Equal(t, certArn, params[app.GlobalCertificateArn])
	assert.Equal(t, "123456789012.dkr.ecr.eu-west-1.amazonaws.com/blog:1", params[compute.ImageParameter])
}

func TestDeploy_UnchangedStacksAreSkipped(t *testing.T) {
	api := newFakeCloudFormation()
	api.outputs["blog-CertificateStack"] = map[string]string{app.CertificateArnOutput: certArn}
	a := assembly(t)
	d := deployer(api)

	_, err := d.Deploy(context.Background(), a, nil)
	require.NoError(t, err)
	api.calls = nil

	res, err := d.Deploy(context.Background(), a, nil)
	require.NoError(t, err)
	for _, s := range res.Stacks {
		assert.True(t, s.Unchanged, s.Stack)
	}
	assert.Equal(t, []string{
		"CreateChangeSet:blog-CertificateStack",
		"CreateChangeSet:blog-StrapiStack",
	}, api.calls)
	assert.Empty(t, api.changeSets)
}

func TestDeploy_FailureStopsBeforeConsumer(t *testing.T) {
	api := newFakeCloudFormation()
	api.failOn["blog-CertificateStack"] = [2]string{"Certificate", "DNS validation timed out"}

	res, err := deployer(api).Deploy(context.Background(), assembly(t), nil)
	require.Error(t, err)

	var se *StackError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "blog-CertificateStack", se.Stack)
	assert.Equal(t, string(types.StackStatusRollbackComplete), se.Status)
	assert.Equal(t, []string{"Certificate: DNS validation timed out"}, se.Reasons)

	assert.Empty(t, res.Stacks)
	assert.NotContains(t, api.calls, "CreateChangeSet:blog-StrapiStack")

	// No retry: a second run refuses until the stack is destroyed.
	_, err = deployer(api).Deploy(context.Background(), assembly(t), nil)
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Reasons[0], "destroyed")
}

func TestDeploy_MissingCrossStackOutput(t *testing.T) {
	api := newFakeCloudFormation()
	_, err := deployer(api).Deploy(context.Background(), assembly(t), nil)
	assert.ErrorIs(t, err, ErrMissingParameter)
	assert.NotContains(t, api.calls, "CreateChangeSet:blog-StrapiStack")
}

func TestDeploy_MissingParameter(t *testing.T) {
	cfg := config.Default()
	cfg.ApplicationName = "blog"
	cfg.HostedZoneDomainName = "example.com"
	cfg.AuthorizedIPsForAdminAccess = []string{"203.0.113.5"}
	a, err := app.Synthesize(cfg)
	require.NoError(t, err)

	api := newFakeCloudFormation()
	_, err = deployer(api).Deploy(context.Background(), a, nil)
	require.ErrorIs(t, err, ErrMissingParameter)
	assert.Contains(t, err.Error(), app.HostedZoneParameter)
	assert.Empty(t, api.calls)

	api.outputs["blog-CertificateStack"] = map[string]string{app.CertificateArnOutput: certArn}
	_, err = deployer(api).Deploy(context.Background(), a, map[string]map[string]string{
		app.CertificateStack: {app.HostedZoneParameter: "Z1"},
		app.StrapiStack:      {app.HostedZoneParameter: "Z1", compute.ImageParameter: "nginx:latest"},
	})
	require.NoError(t, err)
}

func TestDeploy_MissingImageCreatesNothing(t *testing.T) {
	cfg := config.Default()
	cfg.ApplicationName = "blog"
	cfg.HostedZoneDomainName = "example.com"
	cfg.AuthorizedIPsForAdminAccess = []string{"203.0.113.5"}
	cfg.HostedZoneID = "Z0123456789ABC"
	a, err := app.Synthesize(cfg)
	require.NoError(t, err)

	api := newFakeCloudFormation()
	api.outputs["blog-CertificateStack"] = map[string]string{app.CertificateArnOutput: certArn}
	_, err = deployer(api).Deploy(context.Background(), a, nil)
	require.ErrorIs(t, err, ErrMissingParameter)
	assert.Contains(t, err.Error(), "StrapiStack needs "+compute.ImageParameter)
	assert.NotContains(t, err.Error(), app.GlobalCertificateArn)
	assert.Empty(t, api.calls)
	assert.Empty(t, api.stacks)
}

func TestWaitStack_PermanentErrorStopsPolling(t *testing.T) {
	api := newFakeCloudFormation()
	api.describeErrs = []error{&smithy.GenericAPIError{Code: "AccessDenied", Message: "not authorized to describe stacks", Fault: smithy.FaultClient}}

	_, err := New(api, Options{PollInterval: time.Millisecond, Timeout: time.Hour}).
		waitStack(context.Background(), api, "blog-StrapiStack", time.Now(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
	assert.Equal(t, 1, api.describes)
}

func TestWaitStack_RetriesThrottling(t *testing.T) {
	api := newFakeCloudFormation()
	api.stacks["blog-StrapiStack"] = &fakeStack{status: types.StackStatusCreateComplete}
	api.describeErrs = []error{
		&smithy.GenericAPIError{Code: "Throttling", Message: "Rate exceeded"},
		&smithy.GenericAPIError{Code: "InternalFailure", Message: "try again", Fault: smithy.FaultServer},
	}

	status, err := deployer(api).waitStack(context.Background(), api, "blog-StrapiStack", time.Now(), false)
	require.NoError(t, err)
	assert.Equal(t, types.StackStatusCreateComplete, status)
	assert.Equal(t, 3, api.describes)
}

func TestWaitChangeSet_NotFoundStopsPolling(t *testing.T) {
	api := newFakeCloudFormation()
	_, err := New(api, Options{PollInterval: time.Millisecond, Timeout: time.Hour}).
		waitChangeSet(context.Background(), api, "blog-StrapiStack", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ChangeSetNotFound")
	assert.Equal(t, 1, api.csDescribes)
}

func TestTransient(t *testing.T) {
	assert.True(t, transient(&smithy.GenericAPIError{Code: "ThrottlingException"}))
	assert.True(t, transient(&smithy.GenericAPIError{Code: "ServiceUnavailable", Fault: smithy.FaultServer}))
	assert.True(t, transient(fmt.Errorf("describing x: %w", &smithy.GenericAPIError{Code: "RequestTimeout"})))
	assert.False(t, transient(&smithy.GenericAPIError{Code: "AccessDenied", Fault: smithy.FaultClient}))
	assert.False(t, transient(context.Canceled))
	assert.False(t, transient(errors.New("boom")))
}

func TestDestroy(t *testing.T) {
	api := newFakeCloudFormation()
	api.outputs["blog-CertificateStack"] = map[string]string{app.CertificateArnOutput: certArn}
	a := assembly(t)
	d := deployer(api)
	_, err := d.Deploy(context.Background(), a, nil)
	require.NoError(t, err)
	api.calls = nil

	res, err := d.Destroy(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, []string{"DeleteStack:blog-StrapiStack", "DeleteStack:blog-CertificateStack"}, api.calls)
	assert.Equal(t, []string{"blog-StrapiStack", "blog-CertificateStack"}, res.Deleted)
	assert.Equal(t, []string{"UploadsBucket"}, res.Retained["blog-StrapiStack"])

	res, err = d.Destroy(context.Background(), a)
	require.NoError(t, err)
	assert.Empty(t, res.Deleted)
	assert.Len(t, res.Absent, 2)
}

func TestCurrentTemplate(t *testing.T) {
	api := newFakeCloudFormation()
	a := assembly(t)
	d := deployer(api)
	art, _ := a.Stack(app.CertificateStack)

	body, err := d.CurrentTemplate(context.Background(), art)
	require.NoError(t, err)
	assert.Nil(t, body)

	api.outputs["blog-CertificateStack"] = map[string]string{app.CertificateArnOutput: certArn}
	_, err = d.Deploy(context.Background(), a, nil)
	require.NoError(t, err)

	body, err = d.CurrentTemplate(context.Background(), art)
	require.NoError(t, err)
	assert.Contains(t, string(body), "AWS::CertificateManager::Certificate")

	status, err := d.Status(context.Background(), a)
	require.NoError(t, err)
	assert.Len(t, status, 2)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(notFound("x")))
	assert.False(t, IsNotFound(errors.New("Stack with id x does not exist")))
	assert.False(t, IsNotFound(nil))
}

func TestStackError(t *testing.T) {
	err := &StackError{Stack: "blog-StrapiStack", Status: "ROLLBACK_COMPLETE", Reasons: []string{"Database: quota exceeded"}}
	assert.Equal(t, "stack blog-StrapiStack: ROLLBACK_COMPLETE: Database: quota exceeded", err.Error())
}

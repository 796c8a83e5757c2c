package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/app"
	"github.com/lex00/strapi-aws-go/internal/config"
	"github.com/lex00/strapi-aws-go/internal/deploy"
)

func TestRunList(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runList(&out, testOptions(t, testConfigYAML), "json"))

	var result wetwire.ListResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	require.NotEmpty(t, result.Resources)
	// Deploy order: the certificate stack comes first.
	assert.Equal(t, app.CertificateStack, result.Resources[0].Stack)
	assert.Equal(t, app.StrapiStack, result.Resources[len(result.Resources)-1].Stack)

	out.Reset()
	require.NoError(t, runList(&out, testOptions(t, testConfigYAML), "text"))
	assert.Contains(t, out.String(), "Distribution: AWS::CloudFront::Distribution")
}

func TestRunGraph(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runGraph(&out, testOptions(t, testConfigYAML), graphOptions{format: "dot"}))
	assert.Contains(t, out.String(), "cluster_"+app.StrapiStack)

	out.Reset()
	require.NoError(t, runGraph(&out, testOptions(t, testConfigYAML), graphOptions{format: "mermaid", stack: app.CertificateStack}))
	assert.Contains(t, out.String(), "Certificate")

	assert.Error(t, runGraph(&out, testOptions(t, testConfigYAML), graphOptions{format: "dot", stack: "Nope"}))
	assert.Error(t, runGraph(&out, testOptions(t, testConfigYAML), graphOptions{format: "png"}))
}

func TestRunEnv(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runEnv(&out, false))
	assert.Contains(t, out.String(), "DATABASE_HOST")
	assert.Regexp(t, `DATABASE_PASSWORD\s+secret`, out.String())

	out.Reset()
	require.NoError(t, runEnv(&out, true))
	assert.Contains(t, out.String(), "DATABASE_HOST=127.0.0.1")
}

func TestRunInit(t *testing.T) {
	o := testOptions(t, "", "--application-name", "blog", "--hosted-zone", "example.com", "--admin-ips", "203.0.113.5")
	require.NoError(t, os.Remove(o.configPath))

	var out bytes.Buffer
	require.NoError(t, runInit(&out, o, false))
	assert.Contains(t, out.String(), "Wrote")

	cfg, err := config.Load(o.configPath)
	require.NoError(t, err)
	assert.Equal(t, "blog", cfg.ApplicationName)
	assert.Equal(t, config.AddressList{"203.0.113.5"}, cfg.AuthorizedIPsForAdminAccess)
	assert.Equal(t, 512, cfg.Service.Memory)

	assert.Error(t, runInit(&out, o, false))
	assert.NoError(t, runInit(&out, o, true))
}

func TestParseTags(t *testing.T) {
	tags, err := parseTags([]string{"team=web", "env=prod=blue"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"team": "web", "env": "prod=blue"}, tags)

	_, err = parseTags([]string{"=web"})
	assert.Error(t, err)
	_, err = parseTags([]string{"team"})
	assert.Error(t, err)
}

func TestDeployResult(t *testing.T) {
	res := &deploy.Result{
		Stacks: []deploy.StackResult{
			{Stack: app.CertificateStack, DeployName: "blog-CertificateStack", Region: "us-east-1", Status: "CREATE_COMPLETE"},
			{Stack: app.StrapiStack, DeployName: "blog-StrapiStack", Region: "eu-west-1", Status: "UPDATE_COMPLETE", Unchanged: true},
		},
		WebURL: "https://blog.example.com",
	}
	out := deployResult(res, nil)
	assert.True(t, out.Success)
	require.Len(t, out.Stacks, 2)
	assert.True(t, out.Stacks[0].Changed)
	assert.False(t, out.Stacks[1].Changed)
	assert.Equal(t, "https://blog.example.com", out.WebURL)

	failed := deployResult(nil, errors.New("stack blog-StrapiStack: ROLLBACK_COMPLETE"))
	assert.False(t, failed.Success)
	assert.Equal(t, []string{"stack blog-StrapiStack: ROLLBACK_COMPLETE"}, failed.Errors)
}

func TestDestroyResult(t *testing.T) {
	out := destroyResult(&deploy.DestroyResult{
		Deleted:  []string{"blog-StrapiStack"},
		Absent:   []string{"blog-CertificateStack"},
		Retained: map[string][]string{"blog-StrapiStack": {"UploadsBucket"}},
	}, nil)
	assert.True(t, out.Success)
	assert.Len(t, out.Stacks, 2)
	assert.Equal(t, []string{"blog-StrapiStack/UploadsBucket"}, out.Retained)

	var buf bytes.Buffer
	require.NoError(t, outputDeploy(&buf, out, "text"))
	assert.Contains(t, buf.String(), "retained: blog-StrapiStack/UploadsBucket")
}

func TestRunValidate_Offline(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runValidate(nil, &out, testOptions(t, testConfigYAML), validateOptions{format: "json", offline: true}))

	var result wetwire.ValidateResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Positive(t, result.Resources)

	assert.Error(t, runValidate(nil, &out, testOptions(t, testConfigYAML), validateOptions{format: "json", offline: true, dir: "cdk.out"}))
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/internal/template"
	"github.com/lex00/strapi-aws-go/resources/cloudfront"
	"github.com/lex00/strapi-aws-go/resources/iam"
)

func TestNew(t *testing.T) {
	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
	New(s, "UploadsBucket")

	tmpl, err := template.NewBuilder(s).Build()
	require.NoError(t, err)

	bucket := tmpl.Resources["UploadsBucket"]
	assert.Equal(t, stack.Retain, bucket.DeletionPolicy)
	assert.Equal(t, stack.Retain, bucket.UpdateReplacePolicy)

	block := bucket.Properties["PublicAccessBlockConfiguration"].(map[string]any)
	for _, key := range []string{"BlockPublicAcls", "BlockPublicPolicy", "IgnorePublicAcls", "RestrictPublicBuckets"} {
		assert.Equal(t, true, block[key], key)
	}
}

func TestGrantReadWrite_SingleGrantee(t *testing.T) {
	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
	b := New(s, "UploadsBucket")
	task := s.Add("TaskRole", &iam.Role{})
	other := s.Add("OtherRole", &iam.Role{})

	stmts, err := b.GrantReadWrite(task)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0].Action, "s3:PutObject*")
	assert.Len(t, stmts[0].Resource, 2)

	_, err = b.GrantReadWrite(task)
	assert.NoError(t, err)

	_, err = b.GrantReadWrite(other)
	assert.ErrorIs(t, err, ErrGranteeBound)
	assert.Same(t, task, b.Grantee())
}

func TestAllowDistributionRead(t *testing.T) {
	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
	b := New(s, "UploadsBucket")
	dist := s.Add("Distribution", &cloudfront.Distribution{
		DistributionConfig: &cloudfront.Distribution_DistributionConfig{
			Origins: []cloudfront.Distribution_Origin{{Id: "uploads", DomainName: b.RegionalDomainName()}},
		},
	})
	b.AllowDistributionRead(s, dist)

	g, err := template.NewBuilder(s).Graph()
	require.NoError(t, err)
	assert.Equal(t, []string{"Distribution", "UploadsBucket"}, g.Producers("UploadsBucketPolicy"))

	tmpl, err := template.NewBuilder(s).Build()
	require.NoError(t, err)
	doc := tmpl.Resources["UploadsBucketPolicy"].Properties["PolicyDocument"].(map[string]any)
	stmts := doc["Statement"].([]any)
	require.Len(t, stmts, 2)
	allow := stmts[0].(map[string]any)
	assert.Equal(t, map[string]any{"Service": "cloudfront.amazonaws.com"}, allow["Principal"])
	assert.Contains(t, allow["Condition"], "StringEquals")
}

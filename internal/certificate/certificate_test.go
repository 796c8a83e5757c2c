package certificate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/internal/template"
)

func TestNew(t *testing.T) {
	s := stack.New("CertificateStack", stack.Env{Region: CloudFrontRegion})
	c := New(s, "Certificate", Options{DomainName: "blog.example.com", HostedZoneID: "Z123"})

	tmpl, err := template.NewBuilder(s).Build()
	require.NoError(t, err)

	res := tmpl.Resources["Certificate"]
	assert.Equal(t, "AWS::CertificateManager::Certificate", res.Type)
	assert.Equal(t, "DNS", res.Properties["ValidationMethod"])
	assert.Equal(t, "blog.example.com", res.Properties["DomainName"])
	assert.Equal(t, CloudFrontRegion, c.Region)
	assert.Equal(t, "Certificate", c.Arn().LogicalName)
}

func TestNew_RequiresDomain(t *testing.T) {
	s := stack.New("CertificateStack", stack.Env{Region: CloudFrontRegion})
	New(s, "Certificate", Options{})
	assert.Error(t, s.Err())
}

func TestRequireRegion(t *testing.T) {
	assert.NoError(t, RequireRegion(stack.New("CertificateStack", stack.Env{Region: "us-east-1"}), CloudFrontRegion))

	err := RequireRegion(stack.New("CertificateStack", stack.Env{Region: "eu-west-1"}), CloudFrontRegion)
	assert.ErrorIs(t, err, ErrRegionMismatch)
	assert.Contains(t, err.Error(), "eu-west-1")
}

package dns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/internal/template"
	"github.com/lex00/strapi-aws-go/resources/cloudfront"
)

func TestAlias_CloudFront(t *testing.T) {
	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
	dist := s.Add("Distribution", &cloudfront.Distribution{})

	r, err := Alias(s, "WebRecord", Options{
		Zone:       "Z0123456789",
		RecordName: "blog.example.com",
		Target:     dist.GetAtt("DomainName"),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, r.TTL)
	require.Len(t, r.Nodes, 2)

	tmpl, err := template.NewBuilder(s).Build()
	require.NoError(t, err)

	for _, id := range []string{"WebRecordA", "WebRecordAAAA"} {
		rec := tmpl.Resources[id]
		assert.Equal(t, "AWS::Route53::RecordSet", rec.Type)
		assert.NotContains(t, rec.Properties, "TTL")
		alias := rec.Properties["AliasTarget"].(map[string]any)
		assert.Equal(t, CloudFrontHostedZoneID, alias["HostedZoneId"])
		assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"Distribution", "DomainName"}}, alias["DNSName"])
	}
	assert.Equal(t, "AAAA", tmpl.Resources["WebRecordAAAA"].Properties["Type"])
}

func TestAlias_SingleType(t *testing.T) {
	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
	_, err := Alias(s, "LoadBalancerRecord", Options{
		Zone:       "Z0123456789",
		RecordName: "alb.blog.example.com",
		Target:     "alb-123.eu-west-1.elb.amazonaws.com",
		TargetZone: "Z32O12XQLNTSW2",
		Types:      []string{"A"},
	})
	require.NoError(t, err)

	_, ok := s.Lookup("LoadBalancerRecord")
	assert.True(t, ok)
}

func TestAlias_TTLTooLong(t *testing.T) {
	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
	_, err := Alias(s, "WebRecord", Options{RecordName: "blog.example.com", TTL: 10 * time.Minute})
	assert.ErrorIs(t, err, ErrTTLTooLong)

	_, err = Alias(s, "WebRecord", Options{RecordName: "blog.example.com", TTL: MaxTTL})
	assert.NoError(t, err)
}

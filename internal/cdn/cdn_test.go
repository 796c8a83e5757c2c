package cdn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/routing"
	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/internal/storage"
	"github.com/lex00/strapi-aws-go/internal/template"
	"github.com/lex00/strapi-aws-go/intrinsics"
)

func build(t *testing.T) (*Distribution, *wetwire.Template) {
	t.Helper()
	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
	cert := s.AddParameter("GlobalCertificateArn", wetwire.Parameter{})
	d, err := New(s, "Distribution", Options{
		LoadBalancerDomain: "alb.blog.example.com",
		Bucket:             storage.New(s, "UploadsBucket"),
		DomainName:         "blog.example.com",
		CertificateArn:     cert.Ref(),
	})
	require.NoError(t, err)
	tmpl, err := template.NewBuilder(s).Build()
	require.NoError(t, err)
	return d, tmpl
}

func TestNew_Config(t *testing.T) {
	_, tmpl := build(t)

	config := tmpl.Resources["Distribution"].Properties["DistributionConfig"].(map[string]any)
	assert.Equal(t, PriceClass, config["PriceClass"])
	assert.Equal(t, "http2", config["HttpVersion"])
	assert.Equal(t, "index.html", config["DefaultRootObject"])
	assert.Equal(t, true, config["IPV6Enabled"])
	assert.Equal(t, []any{"blog.example.com"}, config["Aliases"])

	cert := config["ViewerCertificate"].(map[string]any)
	assert.Equal(t, "sni-only", cert["SslSupportMethod"])
	assert.Equal(t, map[string]any{"Ref": "GlobalCertificateArn"}, cert["AcmCertificateArn"])

	def := config["DefaultCacheBehavior"].(map[string]any)
	assert.Equal(t, "alb", def["TargetOriginId"])
	assert.Equal(t, routing.UseOriginCacheControlHeadersQueryStrings.ID, def["CachePolicyId"])
	assert.Equal(t, routing.AllViewer.ID, def["OriginRequestPolicyId"])
	assert.Equal(t, []any{"GET", "HEAD"}, def["AllowedMethods"])

	behaviors := config["CacheBehaviors"].([]any)
	require.Len(t, behaviors, 2)
	patterns := map[string]map[string]any{}
	for _, b := range behaviors {
		m := b.(map[string]any)
		patterns[m["PathPattern"].(string)] = m
		assert.Equal(t, "redirect-to-https", m["ViewerProtocolPolicy"])
	}
	assert.Equal(t, routing.CachingDisabled.ID, patterns["/admin/*"]["CachePolicyId"])
	assert.Equal(t, routing.AllViewerAndCloudFrontHeaders.ID, patterns["/admin/*"]["OriginRequestPolicyId"])
	assert.Equal(t, "uploads", patterns["/uploads/*"]["TargetOriginId"])
	assert.Equal(t, routing.CachingOptimized.ID, patterns["/uploads/*"]["CachePolicyId"])
	assert.Equal(t, routing.CORSS3Origin.ID, patterns["/uploads/*"]["OriginRequestPolicyId"])
}

func TestNew_UploadOrigin(t *testing.T) {
	_, tmpl := build(t)

	config := tmpl.Resources["Distribution"].Properties["DistributionConfig"].(map[string]any)
	origins := config["Origins"].([]any)
	require.Len(t, origins, 2)

	uploads := origins[1].(map[string]any)
	assert.Equal(t, "uploads", uploads["Id"])
	assert.Equal(t, map[string]any{"OriginAccessIdentity": ""}, uploads["S3OriginConfig"])
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"DistributionOriginAccessControl", "Id"}}, uploads["OriginAccessControlId"])

	assert.Contains(t, tmpl.Resources, "UploadsBucketPolicy")
}

func TestRoute(t *testing.T) {
	d, _ := build(t)

	assert.Equal(t, routing.OriginUploads, d.Route("/uploads/logo.png").Origin)
	assert.Equal(t, routing.CachingDisabled, d.Route("/admin/login").CachePolicy)
	assert.Equal(t, routing.OriginLoadBalancer, d.Route("/api/articles").Origin)
	assert.Equal(t, intrinsics.Ref{LogicalName: "Distribution"}, d.ID())
}

func TestNew_Errors(t *testing.T) {
	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
	_, err := New(s, "Distribution", Options{DomainName: "blog.example.com"})
	assert.Error(t, err)

	table, err := routing.NewBehaviorTable(routing.Behavior{
		Origin:         "elsewhere",
		CachePolicy:    routing.CachingDisabled,
		ViewerProtocol: routing.RedirectToHTTPS,
	})
	require.NoError(t, err)
	_, err = New(s, "Distribution", Options{
		LoadBalancerDomain: "alb.blog.example.com",
		Bucket:             storage.New(s, "UploadsBucket"),
		DomainName:         "blog.example.com",
		CertificateArn:     "arn:aws:acm:us-east-1:123456789012:certificate/abc",
		Behaviors:          table,
	})
	assert.ErrorIs(t, err, ErrUnknownOrigin)
}

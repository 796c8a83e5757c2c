// Package cdn declares the CloudFront distribution in front of the load
// balancer and the upload bucket.
package cdn

import (
	"errors"
	"fmt"

	"github.com/lex00/strapi-aws-go/internal/routing"
	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/internal/storage"
	"github.com/lex00/strapi-aws-go/intrinsics"
	"github.com/lex00/strapi-aws-go/resources/cloudfront"
)

const (
	PriceClass             = "PriceClass_100"
	HTTPVersion            = "http2"
	DefaultRootObject      = "index.html"
	MinimumProtocolVersion = "TLSv1.2_2021"
)

var ErrUnknownOrigin = errors.New("behavior routes to an unknown origin")

// Options are the distribution inputs.
type Options struct {
	LoadBalancerDomain string
	Bucket             *storage.Bucket
	DomainName         string
	CertificateArn     any
	// Behaviors defaults to routing.StrapiBehaviors.
	Behaviors *routing.BehaviorTable
}

// Distribution is the declared CDN.
type Distribution struct {
	Node          *stack.Node
	AccessControl *stack.Node
	BucketPolicy  *stack.Node
	Behaviors     *routing.BehaviorTable
}

// New declares the distribution, its origin access control and the bucket
// policy admitting it.
func New(s *stack.Stack, id string, opts Options) (*Distribution, error) {
	if opts.Bucket == nil || opts.LoadBalancerDomain == "" || opts.DomainName == "" || opts.CertificateArn == nil {
		return nil, fmt.Errorf("cdn %s: load balancer domain, bucket, domain name and certificate are required", id)
	}
	if opts.Behaviors == nil {
		table, err := routing.StrapiBehaviors()
		if err != nil {
			return nil, fmt.Errorf("cdn %s: %w", id, err)
		}
		opts.Behaviors = table
	}

	d := &Distribution{Behaviors: opts.Behaviors}
	d.AccessControl = s.Add(id+"OriginAccessControl", &cloudfront.OriginAccessControl{
		OriginAccessControlConfig: &cloudfront.OriginAccessControl_Config{
			Name:                          intrinsics.Sub{String: "${AWS::StackName}-" + id},
			Description:                   "Upload bucket access for " + opts.DomainName,
			OriginAccessControlOriginType: "s3",
			SigningBehavior:               "always",
			SigningProtocol:               "sigv4",
		},
	})

	origins := map[routing.Origin]cloudfront.Distribution_Origin{
		routing.OriginLoadBalancer: {
			Id:         string(routing.OriginLoadBalancer),
			DomainName: opts.LoadBalancerDomain,
			CustomOriginConfig: &cloudfront.Distribution_CustomOriginConfig{
				OriginProtocolPolicy: "https-only",
				HTTPSPort:            443,
				OriginSSLProtocols:   []string{"TLSv1.2"},
			},
		},
		routing.OriginUploads: {
			Id:                    string(routing.OriginUploads),
			DomainName:            opts.Bucket.RegionalDomainName(),
			S3OriginConfig:        &cloudfront.Distribution_S3OriginConfig{},
			OriginAccessControlId: d.AccessControl.GetAtt("Id"),
		},
	}

	def := opts.Behaviors.Default
	if _, ok := origins[def.Origin]; !ok {
		return nil, fmt.Errorf("%w: default -> %s", ErrUnknownOrigin, def.Origin)
	}
	config := &cloudfront.Distribution_DistributionConfig{
		Aliases:           []any{opts.DomainName},
		Comment:           opts.DomainName,
		DefaultRootObject: DefaultRootObject,
		Enabled:           true,
		HttpVersion:       HTTPVersion,
		IPV6Enabled:       true,
		PriceClass:        PriceClass,
		DefaultCacheBehavior: &cloudfront.Distribution_DefaultCacheBehavior{
			TargetOriginId:        string(def.Origin),
			ViewerProtocolPolicy:  def.ViewerProtocol,
			CachePolicyId:         def.CachePolicy.ID,
			OriginRequestPolicyId: def.OriginRequestPolicy.ID,
			AllowedMethods:        def.AllowedMethods,
			CachedMethods:         routing.MethodsGetHead,
			Compress:              true,
		},
		ViewerCertificate: &cloudfront.Distribution_ViewerCertificate{
			AcmCertificateArn:      opts.CertificateArn,
			SslSupportMethod:       "sni-only",
			MinimumProtocolVersion: MinimumProtocolVersion,
		},
	}

	used := map[routing.Origin]bool{def.Origin: true}
	for _, b := range opts.Behaviors.Behaviors() {
		if _, ok := origins[b.Origin]; !ok {
			return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownOrigin, b.PathPattern, b.Origin)
		}
		used[b.Origin] = true
		config.CacheBehaviors = append(config.CacheBehaviors, cloudfront.Distribution_CacheBehavior{
			PathPattern:           b.PathPattern,
			TargetOriginId:        string(b.Origin),
			ViewerProtocolPolicy:  b.ViewerProtocol,
			CachePolicyId:         b.CachePolicy.ID,
			OriginRequestPolicyId: b.OriginRequestPolicy.ID,
			AllowedMethods:        b.AllowedMethods,
			CachedMethods:         routing.MethodsGetHead,
			Compress:              true,
		})
	}
	for _, name := range []routing.Origin{routing.OriginLoadBalancer, routing.OriginUploads} {
		if used[name] {
			config.Origins = append(config.Origins, origins[name])
		}
	}

	d.Node = s.Add(id, &cloudfront.Distribution{DistributionConfig: config})
	if used[routing.OriginUploads] {
		d.BucketPolicy = opts.Bucket.AllowDistributionRead(s, d.Node)
	}
	return d, nil
}

// Route returns the behavior CloudFront applies to path.
func (d *Distribution) Route(path string) routing.Behavior {
	return d.Behaviors.Route(path)
}

// DomainName is the distribution's cloudfront.net name.
func (d *Distribution) DomainName() any {
	return d.Node.GetAtt("DomainName")
}

// ID is the distribution ID.
func (d *Distribution) ID() intrinsics.Ref {
	return d.Node.Ref()
}

// Package app composes the two provisioning contexts of a Strapi deployment:
// the certificate stack pinned to us-east-1 for CloudFront, and the
// application stack in the configured region.
package app

import (
	"fmt"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/cdn"
	"github.com/lex00/strapi-aws-go/internal/certificate"
	"github.com/lex00/strapi-aws-go/internal/compute"
	"github.com/lex00/strapi-aws-go/internal/config"
	"github.com/lex00/strapi-aws-go/internal/database"
	"github.com/lex00/strapi-aws-go/internal/dns"
	"github.com/lex00/strapi-aws-go/internal/network"
	"github.com/lex00/strapi-aws-go/internal/secrets"
	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/internal/storage"
)

// Stack and interface names.
const (
	CertificateStack = "CertificateStack"
	StrapiStack      = "StrapiStack"

	CertificateArnOutput = "CertificateArn"
	GlobalCertificateArn = "GlobalCertificateArn"
	HostedZoneParameter  = "HostedZoneId"

	WebURLOutput          = "WebUrl"
	DistributionIDOutput  = "DistributionId"
	LoadBalancerDNSOutput = "LoadBalancerDNS"
	UploadsBucketOutput   = "UploadsBucket"
)

// Components exposes the declared application components.
type Components struct {
	Network     *network.Topology
	Database    *database.Cluster
	Secret      *secrets.Binding
	Bucket      *storage.Bucket
	Service     *compute.Service
	CDN         *cdn.Distribution
	WebRecord   *dns.Record
	Certificate *certificate.Certificate
	GlobalCert  *certificate.Certificate
}

// Synthesize validates cfg and declares both stacks.
func Synthesize(cfg *config.Config) (*Assembly, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	allow, err := cfg.AdminAllowList()
	if err != nil {
		return nil, err
	}

	a := &Assembly{
		Application: cfg.ApplicationName,
		Parameters:  map[string]map[string]string{},
		Image: ImageAsset{
			URI:        cfg.Image.URI,
			Directory:  cfg.Image.Directory,
			Dockerfile: cfg.Image.Dockerfile,
			Platform:   cfg.Image.Platform,
			BuildArgs:  cfg.Image.BuildArgs,
		},
	}
	c := &Components{}
	a.Components = c

	// CloudFront only accepts certificates issued in us-east-1.
	certStack := stack.New(CertificateStack, stack.Env{Account: cfg.Account, Region: certificate.CloudFrontRegion})
	certStack.Description = "Public certificate for " + cfg.DomainName()
	if err := certificate.RequireRegion(certStack, certificate.CloudFrontRegion); err != nil {
		return nil, err
	}
	c.GlobalCert = certificate.New(certStack, "Certificate", certificate.Options{
		DomainName:   cfg.DomainName(),
		HostedZoneID: hostedZone(a, certStack, cfg),
	})
	certStack.AddOutput(CertificateArnOutput, "Certificate for the CloudFront distribution", c.GlobalCert.Arn())

	strapi := stack.New(StrapiStack, stack.Env{Account: cfg.Account, Region: cfg.Region})
	strapi.Description = "Strapi CMS for " + cfg.DomainName()
	zone := hostedZone(a, strapi, cfg)
	globalCert := strapi.AddParameter(GlobalCertificateArn, wetwire.Parameter{
		Description: "ARN of the us-east-1 certificate for " + cfg.DomainName(),
	})

	if c.Network, err = network.New(strapi, "Vpc", network.Options{
		CIDR:        cfg.VPC.CIDR,
		MaxAZs:      cfg.VPC.MaxAZs,
		NATGateways: cfg.VPC.NATGateways,
	}); err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}
	c.Secret = secrets.NewStrapiSecret(strapi, "StrapiSecret", cfg.ApplicationName)
	if c.Database, err = database.New(strapi, "Database", database.Options{
		Network:      c.Network,
		DatabaseName: cfg.DatabaseName(),
	}); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	c.Certificate = certificate.New(strapi, "LoadBalancerCertificate", certificate.Options{
		DomainName:   cfg.ALBDomainName(),
		HostedZoneID: zone,
	})
	c.Bucket = storage.New(strapi, "UploadsBucket")

	if c.Service, err = compute.New(strapi, "Web", compute.Options{
		AppName:            cfg.ApplicationName,
		Network:            c.Network,
		Database:           c.Database,
		StrapiSecret:       c.Secret,
		Bucket:             c.Bucket,
		Certificate:        c.Certificate,
		HostedZoneID:       zone,
		DomainName:         cfg.DomainName(),
		LoadBalancerDomain: cfg.ALBDomainName(),
		AdminAllowList:     allow,
		Cpu:                cfg.Service.Cpu,
		Memory:             cfg.Service.Memory,
		DesiredCount:       cfg.Service.DesiredCount,
	}); err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	if cfg.Image.URI != "" {
		a.setParameter(StrapiStack, compute.ImageParameter, cfg.Image.URI)
	}

	if c.CDN, err = cdn.New(strapi, "Distribution", cdn.Options{
		LoadBalancerDomain: cfg.ALBDomainName(),
		Bucket:             c.Bucket,
		DomainName:         cfg.DomainName(),
		CertificateArn:     globalCert.Ref(),
	}); err != nil {
		return nil, fmt.Errorf("cdn: %w", err)
	}
	if c.WebRecord, err = dns.Alias(strapi, "WebRecord", dns.Options{
		Zone:       zone,
		RecordName: cfg.DomainName(),
		Target:     c.CDN.DomainName(),
	}); err != nil {
		return nil, fmt.Errorf("dns: %w", err)
	}

	strapi.AddOutput(WebURLOutput, "Distribution domain name", c.CDN.DomainName())
	strapi.AddOutput(DistributionIDOutput, "Distribution ID", c.CDN.ID())
	strapi.AddOutput(LoadBalancerDNSOutput, "Load balancer DNS name", c.Service.LoadBalancer.GetAtt("DNSName"))
	strapi.AddOutput(UploadsBucketOutput, "Upload bucket name", c.Bucket.Name())

	a.References = []Reference{{
		Producer:  CertificateStack,
		Output:    CertificateArnOutput,
		Consumer:  StrapiStack,
		Parameter: GlobalCertificateArn,
	}}

	if err := a.build(cfg, certStack, strapi); err != nil {
		return nil, err
	}
	return a, nil
}

// hostedZone returns the zone ID literal when configured, otherwise a
// parameter resolved at deploy time.
func hostedZone(a *Assembly, s *stack.Stack, cfg *config.Config) any {
	if cfg.HostedZoneID != "" {
		return cfg.HostedZoneID
	}
	a.ZoneLookup = cfg.HostedZoneDomainName
	return s.AddParameter(HostedZoneParameter, wetwire.Parameter{
		Type:        "AWS::Route53::HostedZone::Id",
		Description: "Hosted zone of " + cfg.HostedZoneDomainName,
	}).Ref()
}

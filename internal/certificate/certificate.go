// Package certificate declares DNS-validated ACM certificates.
package certificate

import (
	"errors"
	"fmt"

	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/intrinsics"
	"github.com/lex00/strapi-aws-go/resources/certificatemanager"
)

// ErrRegionMismatch is returned when a certificate is declared in a region
// its consumer cannot use.
var ErrRegionMismatch = errors.New("certificate region mismatch")

// CloudFrontRegion is the only region CloudFront accepts certificates from.
const CloudFrontRegion = "us-east-1"

// Options describe the certificate.
type Options struct {
	DomainName   string
	HostedZoneID any
}

// Certificate is a declared certificate.
type Certificate struct {
	Node       *stack.Node
	DomainName string
	Region     string
}

// New declares a certificate validated through records in the hosted zone.
func New(s *stack.Stack, id string, opts Options) *Certificate {
	if opts.DomainName == "" {
		s.Errorf("certificate %s: domain name is required", id)
	}
	n := s.Add(id, &certificatemanager.Certificate{
		DomainName:       opts.DomainName,
		ValidationMethod: "DNS",
		DomainValidationOptions: []certificatemanager.Certificate_DomainValidationOption{{
			DomainName:   opts.DomainName,
			HostedZoneId: opts.HostedZoneID,
		}},
		Tags: []intrinsics.Tag{{Key: "Name", Value: s.Name + "/" + id}},
	})
	return &Certificate{Node: n, DomainName: opts.DomainName, Region: s.Env.Region}
}

// Arn is the certificate ARN.
func (c *Certificate) Arn() intrinsics.Ref {
	return c.Node.Ref()
}

// RequireRegion checks that s is pinned to region.
func RequireRegion(s *stack.Stack, region string) error {
	if s.Env.Region != region {
		return fmt.Errorf("%w: %s is in %q, certificates for this consumer must be issued in %q",
			ErrRegionMismatch, s.Name, s.Env.Region, region)
	}
	return nil
}

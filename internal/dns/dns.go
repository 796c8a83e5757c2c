// Package dns declares Route 53 alias records.
package dns

import (
	"errors"
	"fmt"
	"time"

	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/resources/route53"
)

// ErrTTLTooLong is returned for record lifetimes above MaxTTL.
var ErrTTLTooLong = errors.New("record TTL too long")

const (
	// CloudFrontHostedZoneID is the fixed zone of every CloudFront domain.
	CloudFrontHostedZoneID = "Z2FDTNDATAQYW2"

	DefaultTTL = time.Minute
	MaxTTL     = 5 * time.Minute
)

// Options describe an alias.
type Options struct {
	// Zone is the hosted zone ID the records go into.
	Zone any
	// RecordName is the fully qualified record name.
	RecordName string
	// Target is the DNS name aliased to.
	Target any
	// TargetZone is the hosted zone of the target. Defaults to CloudFront.
	TargetZone any
	TTL        time.Duration
	// Types defaults to A and AAAA.
	Types []string
}

// Record is a declared alias.
type Record struct {
	Name  string
	TTL   time.Duration
	Nodes map[string]*stack.Node
}

// Alias declares one alias record per type. Alias records take their
// lifetime from the target; the TTL is kept on the Record for checks.
func Alias(s *stack.Stack, id string, opts Options) (*Record, error) {
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.TTL > MaxTTL {
		return nil, fmt.Errorf("%w: %s is %s, at most %s", ErrTTLTooLong, opts.RecordName, opts.TTL, MaxTTL)
	}
	if opts.TargetZone == nil {
		opts.TargetZone = CloudFrontHostedZoneID
	}
	if len(opts.Types) == 0 {
		opts.Types = []string{"A", "AAAA"}
	}

	r := &Record{Name: opts.RecordName, TTL: opts.TTL, Nodes: make(map[string]*stack.Node)}
	for _, typ := range opts.Types {
		suffix := ""
		if len(opts.Types) > 1 {
			suffix = typ
		}
		r.Nodes[typ] = s.Add(id+suffix, &route53.RecordSet{
			HostedZoneId: opts.Zone,
			Name:         opts.RecordName,
			Type:         typ,
			AliasTarget: &route53.RecordSet_AliasTarget{
				DNSName:      opts.Target,
				HostedZoneId: opts.TargetZone,
			},
		})
	}
	return r, nil
}

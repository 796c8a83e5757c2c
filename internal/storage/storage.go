// Package storage declares the upload bucket. The bucket is private; the
// task role is its single writer and the CDN reads objects through an origin
// access control.
package storage

import (
	"errors"
	"fmt"

	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/intrinsics"
	"github.com/lex00/strapi-aws-go/resources/s3"
)

// ErrGranteeBound is returned when a second identity asks for write access.
var ErrGranteeBound = errors.New("bucket already has a read/write grantee")

// ReadWriteActions are granted to the bucket's single writer.
var ReadWriteActions = []string{
	"s3:GetObject*",
	"s3:GetBucket*",
	"s3:List*",
	"s3:DeleteObject*",
	"s3:PutObject*",
	"s3:Abort*",
}

// Bucket is the declared upload bucket.
type Bucket struct {
	Node *stack.Node

	grantee *stack.Node
	policy  *stack.Node
}

// New declares a private, encrypted bucket retained on stack deletion.
func New(s *stack.Stack, id string) *Bucket {
	n := s.Add(id, &s3.Bucket{
		BucketEncryption: &s3.Bucket_BucketEncryption{
			ServerSideEncryptionConfiguration: []s3.Bucket_ServerSideEncryptionRule{{
				ServerSideEncryptionByDefault: &s3.Bucket_ServerSideEncryptionByDefault{SSEAlgorithm: "AES256"},
			}},
		},
		PublicAccessBlockConfiguration: &s3.Bucket_PublicAccessBlockConfiguration{
			BlockPublicAcls:       true,
			BlockPublicPolicy:     true,
			IgnorePublicAcls:      true,
			RestrictPublicBuckets: true,
		},
		OwnershipControls: &s3.Bucket_OwnershipControls{
			Rules: []s3.Bucket_OwnershipControlsRule{{ObjectOwnership: "BucketOwnerEnforced"}},
		},
	}).SetDeletionPolicy(stack.Retain)
	return &Bucket{Node: n}
}

// Name is the bucket name.
func (b *Bucket) Name() intrinsics.Ref {
	return b.Node.Ref()
}

// Arn is the bucket ARN.
func (b *Bucket) Arn() any {
	return b.Node.GetAtt("Arn")
}

// ObjectsArn matches every object in the bucket.
func (b *Bucket) ObjectsArn() any {
	return intrinsics.Join{Delimiter: "", Values: []any{b.Arn(), "/*"}}
}

// RegionalDomainName is the origin domain for the CDN.
func (b *Bucket) RegionalDomainName() any {
	return b.Node.GetAtt("RegionalDomainName")
}

// GrantReadWrite binds role as the bucket's writer and returns the
// statements to attach to it. Granting the same role twice is a no-op.
func (b *Bucket) GrantReadWrite(role *stack.Node) ([]intrinsics.PolicyStatement, error) {
	if b.grantee != nil && b.grantee.ID != role.ID {
		return nil, fmt.Errorf("%w: %s holds it, %s asked", ErrGranteeBound, b.grantee.ID, role.ID)
	}
	b.grantee = role
	return []intrinsics.PolicyStatement{
		intrinsics.Allow(ReadWriteActions, b.Arn(), b.ObjectsArn()),
	}, nil
}

// Grantee is the bound writer, nil until GrantReadWrite.
func (b *Bucket) Grantee() *stack.Node {
	return b.grantee
}

// AllowDistributionRead declares the bucket policy letting one CloudFront
// distribution read objects, and denying non-TLS access for everyone.
func (b *Bucket) AllowDistributionRead(s *stack.Stack, distribution *stack.Node) *stack.Node {
	sourceArn := intrinsics.Sub{
		String: "arn:${AWS::Partition}:cloudfront::${AWS::AccountId}:distribution/${" + distribution.ID + "}",
	}
	b.policy = s.Add(b.Node.ID+"Policy", &s3.BucketPolicy{
		Bucket: b.Node.Ref(),
		PolicyDocument: intrinsics.NewPolicyDocument(
			intrinsics.PolicyStatement{
				Sid:       "AllowCloudFrontRead",
				Effect:    "Allow",
				Principal: intrinsics.ServicePrincipal{"cloudfront.amazonaws.com"},
				Action:    "s3:GetObject",
				Resource:  b.ObjectsArn(),
				Condition: intrinsics.Json{
					intrinsics.StringEquals: intrinsics.Json{"AWS:SourceArn": sourceArn},
				},
			},
			intrinsics.PolicyStatement{
				Sid:       "DenyInsecureTransport",
				Effect:    "Deny",
				Principal: intrinsics.AWSPrincipal{"*"},
				Action:    "s3:*",
				Resource:  intrinsics.Any(b.Arn(), b.ObjectsArn()),
				Condition: intrinsics.Json{
					intrinsics.Bool: intrinsics.Json{"aws:SecureTransport": "false"},
				},
			},
		),
	})
	return b.policy
}

// Package s3 provides the AWS::S3 resource types for the upload bucket.
package s3

import "github.com/lex00/strapi-aws-go/intrinsics"

// Bucket is AWS::S3::Bucket. Attributes: Arn, RegionalDomainName.
type Bucket struct {
	BucketName                     any                                    `json:"BucketName,omitempty"`
	BucketEncryption               *Bucket_BucketEncryption               `json:"BucketEncryption,omitempty"`
	PublicAccessBlockConfiguration *Bucket_PublicAccessBlockConfiguration `json:"PublicAccessBlockConfiguration,omitempty"`
	OwnershipControls              *Bucket_OwnershipControls              `json:"OwnershipControls,omitempty"`
	Tags                           []intrinsics.Tag                       `json:"Tags,omitempty"`
}

func (Bucket) ResourceType() string { return "AWS::S3::Bucket" }

type Bucket_BucketEncryption struct {
	ServerSideEncryptionConfiguration []Bucket_ServerSideEncryptionRule `json:"ServerSideEncryptionConfiguration,omitempty"`
}

type Bucket_ServerSideEncryptionRule struct {
	ServerSideEncryptionByDefault *Bucket_ServerSideEncryptionByDefault `json:"ServerSideEncryptionByDefault,omitempty"`
}

type Bucket_ServerSideEncryptionByDefault struct {
	SSEAlgorithm string `json:"SSEAlgorithm,omitempty"`
}

type Bucket_PublicAccessBlockConfiguration struct {
	BlockPublicAcls       bool `json:"BlockPublicAcls,omitempty"`
	BlockPublicPolicy     bool `json:"BlockPublicPolicy,omitempty"`
	IgnorePublicAcls      bool `json:"IgnorePublicAcls,omitempty"`
	RestrictPublicBuckets bool `json:"RestrictPublicBuckets,omitempty"`
}

type Bucket_OwnershipControls struct {
	Rules []Bucket_OwnershipControlsRule `json:"Rules,omitempty"`
}

type Bucket_OwnershipControlsRule struct {
	ObjectOwnership string `json:"ObjectOwnership,omitempty"`
}

// BucketPolicy is AWS::S3::BucketPolicy.
type BucketPolicy struct {
	Bucket         any `json:"Bucket,omitempty"`
	PolicyDocument any `json:"PolicyDocument,omitempty"`
}

func (BucketPolicy) ResourceType() string { return "AWS::S3::BucketPolicy" }

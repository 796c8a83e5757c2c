// Package cloudfront provides the AWS::CloudFront resource types for the
// edge distribution.
package cloudfront

import "github.com/lex00/strapi-aws-go/intrinsics"

// Distribution is AWS::CloudFront::Distribution. Attributes: DomainName, Id.
type Distribution struct {
	DistributionConfig *Distribution_DistributionConfig `json:"DistributionConfig,omitempty"`
	Tags               []intrinsics.Tag                 `json:"Tags,omitempty"`
}

func (Distribution) ResourceType() string { return "AWS::CloudFront::Distribution" }

type Distribution_DistributionConfig struct {
	Aliases              []any                              `json:"Aliases,omitempty"`
	Comment              string                             `json:"Comment,omitempty"`
	DefaultRootObject    string                             `json:"DefaultRootObject,omitempty"`
	Enabled              bool                               `json:"Enabled,omitempty"`
	HttpVersion          string                             `json:"HttpVersion,omitempty"`
	IPV6Enabled          bool                               `json:"IPV6Enabled,omitempty"`
	PriceClass           string                             `json:"PriceClass,omitempty"`
	Origins              []Distribution_Origin              `json:"Origins,omitempty"`
	DefaultCacheBehavior *Distribution_DefaultCacheBehavior `json:"DefaultCacheBehavior,omitempty"`
	CacheBehaviors       []Distribution_CacheBehavior       `json:"CacheBehaviors,omitempty"`
	ViewerCertificate    *Distribution_ViewerCertificate    `json:"ViewerCertificate,omitempty"`
}

type Distribution_Origin struct {
	Id                    string                           `json:"Id,omitempty"`
	DomainName            any                              `json:"DomainName,omitempty"`
	CustomOriginConfig    *Distribution_CustomOriginConfig `json:"CustomOriginConfig,omitempty"`
	S3OriginConfig        *Distribution_S3OriginConfig     `json:"S3OriginConfig,omitempty"`
	OriginAccessControlId any                              `json:"OriginAccessControlId,omitempty"`
}

type Distribution_CustomOriginConfig struct {
	OriginProtocolPolicy string   `json:"OriginProtocolPolicy,omitempty"`
	HTTPSPort            int      `json:"HTTPSPort,omitempty"`
	OriginSSLProtocols   []string `json:"OriginSSLProtocols,omitempty"`
}

// Distribution_S3OriginConfig carries an empty OriginAccessIdentity when
// access goes through an origin access control.
type Distribution_S3OriginConfig struct {
	OriginAccessIdentity string `json:"OriginAccessIdentity"`
}

type Distribution_DefaultCacheBehavior struct {
	TargetOriginId        string   `json:"TargetOriginId,omitempty"`
	ViewerProtocolPolicy  string   `json:"ViewerProtocolPolicy,omitempty"`
	CachePolicyId         string   `json:"CachePolicyId,omitempty"`
	OriginRequestPolicyId string   `json:"OriginRequestPolicyId,omitempty"`
	AllowedMethods        []string `json:"AllowedMethods,omitempty"`
	CachedMethods         []string `json:"CachedMethods,omitempty"`
	Compress              bool     `json:"Compress,omitempty"`
}

type Distribution_CacheBehavior struct {
	PathPattern           string   `json:"PathPattern,omitempty"`
	TargetOriginId        string   `json:"TargetOriginId,omitempty"`
	ViewerProtocolPolicy  string   `json:"ViewerProtocolPolicy,omitempty"`
	CachePolicyId         string   `json:"CachePolicyId,omitempty"`
	OriginRequestPolicyId string   `json:"OriginRequestPolicyId,omitempty"`
	AllowedMethods        []string `json:"AllowedMethods,omitempty"`
	CachedMethods         []string `json:"CachedMethods,omitempty"`
	Compress              bool     `json:"Compress,omitempty"`
}

type Distribution_ViewerCertificate struct {
	AcmCertificateArn      any    `json:"AcmCertificateArn,omitempty"`
	SslSupportMethod       string `json:"SslSupportMethod,omitempty"`
	MinimumProtocolVersion string `json:"MinimumProtocolVersion,omitempty"`
}

// OriginAccessControl is AWS::CloudFront::OriginAccessControl. Attribute: Id.
type OriginAccessControl struct {
	OriginAccessControlConfig *OriginAccessControl_Config `json:"OriginAccessControlConfig,omitempty"`
}

func (OriginAccessControl) ResourceType() string { return "AWS::CloudFront::OriginAccessControl" }

type OriginAccessControl_Config struct {
	Name                          any    `json:"Name,omitempty"`
	Description                   string `json:"Description,omitempty"`
	OriginAccessControlOriginType string `json:"OriginAccessControlOriginType,omitempty"`
	SigningBehavior               string `json:"SigningBehavior,omitempty"`
	SigningProtocol               string `json:"SigningProtocol,omitempty"`
}

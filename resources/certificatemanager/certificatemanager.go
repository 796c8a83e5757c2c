// Package certificatemanager provides AWS::CertificateManager::Certificate.
package certificatemanager

import "github.com/lex00/strapi-aws-go/intrinsics"

// Certificate is AWS::CertificateManager::Certificate. Ref returns the ARN.
type Certificate struct {
	DomainName              any                                  `json:"DomainName,omitempty"`
	SubjectAlternativeNames []any                                `json:"SubjectAlternativeNames,omitempty"`
	ValidationMethod        string                               `json:"ValidationMethod,omitempty"`
	DomainValidationOptions []Certificate_DomainValidationOption `json:"DomainValidationOptions,omitempty"`
	Tags                    []intrinsics.Tag                     `json:"Tags,omitempty"`
}

func (Certificate) ResourceType() string { return "AWS::CertificateManager::Certificate" }

// Certificate_DomainValidationOption points DNS validation at a hosted zone.
type Certificate_DomainValidationOption struct {
	DomainName   any `json:"DomainName,omitempty"`
	HostedZoneId any `json:"HostedZoneId,omitempty"`
}

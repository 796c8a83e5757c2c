// Package secretsmanager provides the AWS::SecretsManager resource types.
package secretsmanager

import "github.com/lex00/strapi-aws-go/intrinsics"

// Secret is AWS::SecretsManager::Secret. Ref returns the ARN.
type Secret struct {
	Name                 any                          `json:"Name,omitempty"`
	Description          string                       `json:"Description,omitempty"`
	GenerateSecretString *Secret_GenerateSecretString `json:"GenerateSecretString,omitempty"`
	Tags                 []intrinsics.Tag             `json:"Tags,omitempty"`
}

func (Secret) ResourceType() string { return "AWS::SecretsManager::Secret" }

// Secret_GenerateSecretString asks Secrets Manager to generate the value.
type Secret_GenerateSecretString struct {
	SecretStringTemplate string `json:"SecretStringTemplate,omitempty"`
	GenerateStringKey    string `json:"GenerateStringKey,omitempty"`
	ExcludePunctuation   bool   `json:"ExcludePunctuation,omitempty"`
	ExcludeCharacters    string `json:"ExcludeCharacters,omitempty"`
	PasswordLength       int    `json:"PasswordLength,omitempty"`
}

// SecretTargetAttachment is AWS::SecretsManager::SecretTargetAttachment.
type SecretTargetAttachment struct {
	SecretId   any    `json:"SecretId,omitempty"`
	TargetId   any    `json:"TargetId,omitempty"`
	TargetType string `json:"TargetType,omitempty"`
}

func (SecretTargetAttachment) ResourceType() string {
	return "AWS::SecretsManager::SecretTargetAttachment"
}

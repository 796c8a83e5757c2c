// Package iam provides the AWS::IAM resource types for task identities.
package iam

import "github.com/lex00/strapi-aws-go/intrinsics"

// Role is AWS::IAM::Role. Attributes: Arn, RoleId.
type Role struct {
	RoleName                 any              `json:"RoleName,omitempty"`
	Description              string           `json:"Description,omitempty"`
	AssumeRolePolicyDocument any              `json:"AssumeRolePolicyDocument,omitempty"`
	ManagedPolicyArns        []any            `json:"ManagedPolicyArns,omitempty"`
	Tags                     []intrinsics.Tag `json:"Tags,omitempty"`
}

func (Role) ResourceType() string { return "AWS::IAM::Role" }

// Policy is AWS::IAM::Policy, an inline policy attached to roles.
type Policy struct {
	PolicyName     any   `json:"PolicyName,omitempty"`
	PolicyDocument any   `json:"PolicyDocument,omitempty"`
	Roles          []any `json:"Roles,omitempty"`
}

func (Policy) ResourceType() string { return "AWS::IAM::Policy" }

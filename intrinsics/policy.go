package intrinsics

import (
	"encoding/json"
)

// Json is a shorthand for map[string]any.
// Used for inline JSON objects like Condition blocks.
type Json = map[string]any

// Any creates a []any slice from the given items.
//
//	SecurityGroups: Any(albSG.GetAtt("GroupId")),
func Any(items ...any) []any {
	return items
}

// PolicyDocument represents an IAM policy document.
type PolicyDocument struct {
	Version   string            `json:"Version,omitempty"`
	Statement []PolicyStatement `json:"Statement"`
}

// NewPolicyDocument creates a PolicyDocument with the default version.
func NewPolicyDocument(statements ...PolicyStatement) PolicyDocument {
	return PolicyDocument{Version: "2012-10-17", Statement: statements}
}

// PolicyStatement represents an IAM policy statement.
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
	Condition Json   `json:"Condition,omitempty"`
}

// Allow builds an Allow statement over the given actions and resources.
func Allow(actions []string, resources ...any) PolicyStatement {
	act := make([]any, len(actions))
	for i, a := range actions {
		act[i] = a
	}
	return PolicyStatement{Effect: "Allow", Action: act, Resource: resources}
}

// AssumeRole is the trust policy letting a service assume a role.
func AssumeRole(service string) PolicyDocument {
	return NewPolicyDocument(PolicyStatement{
		Effect:    "Allow",
		Principal: ServicePrincipal{service},
		Action:    "sts:AssumeRole",
	})
}

// ServicePrincipal represents a service principal (e.g., ecs-tasks.amazonaws.com).
// Serializes to {"Service": ...} format.
type ServicePrincipal []any

// MarshalJSON serializes to {"Service": ...} format.
func (p ServicePrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"Service": p[0]})
	}
	return json.Marshal(map[string]any{"Service": []any(p)})
}

// AWSPrincipal represents an AWS account/role/user principal.
// Serializes to {"AWS": ...} format.
type AWSPrincipal []any

// MarshalJSON serializes to {"AWS": ...} format.
func (p AWSPrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"AWS": p[0]})
	}
	return json.Marshal(map[string]any{"AWS": []any(p)})
}

// IAM condition operators used by this module.
const (
	StringEquals = "StringEquals"
	StringLike   = "StringLike"
	ArnLike      = "ArnLike"
	Bool         = "Bool"
)

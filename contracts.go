// Package strapi_aws provides the shared CloudFormation model for composing a
// Strapi deployment on AWS.
//
// Components declare resources into a provisioning context:
//
//	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
//	bucket := s.Add("UploadsBucket", &s3.Bucket{})
//	role := s.Add("TaskRole", &iam.Role{...})
//
//	policy := &iam.Policy{
//	    Roles: []any{role.Ref()},
//	    PolicyDocument: ...bucket.GetAtt("Arn")...,
//	}
//
// The strapi-aws CLI synthesizes the contexts into CloudFormation templates
// and drives their deployment.
package strapi_aws

import (
	"encoding/json"
)

// Resource represents a CloudFormation resource.
// All resource types (s3.Bucket, iam.Role, etc.) implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::S3::Bucket")
	ResourceType() string
}

// AttrRef represents a GetAtt reference to a resource attribute.
//
// When serialized to CloudFormation JSON, AttrRef becomes:
//
//	{"Fn::GetAtt": ["MyRole", "Arn"]}
type AttrRef struct {
	// Resource is the logical name of the referenced resource
	Resource string
	// Attribute is the attribute name (e.g., "Arn", "DomainName")
	Attribute string
}

// MarshalJSON serializes AttrRef to CloudFormation GetAtt syntax.
func (a AttrRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{
		"Fn::GetAtt": {a.Resource, a.Attribute},
	})
}

// IsZero returns true if the AttrRef has not been populated.
func (a AttrRef) IsZero() bool {
	return a.Resource == "" && a.Attribute == ""
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type                string         `json:"Type" yaml:"Type"`
	Properties          map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn           []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	DeletionPolicy      string         `json:"DeletionPolicy,omitempty" yaml:"DeletionPolicy,omitempty"`
	UpdateReplacePolicy string         `json:"UpdateReplacePolicy,omitempty" yaml:"UpdateReplacePolicy,omitempty"`
}

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type           string   `json:"Type" yaml:"Type"`
	Description    string   `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default        any      `json:"Default,omitempty" yaml:"Default,omitempty"`
	AllowedValues  []string `json:"AllowedValues,omitempty" yaml:"AllowedValues,omitempty"`
	AllowedPattern string   `json:"AllowedPattern,omitempty" yaml:"AllowedPattern,omitempty"`
	NoEcho         bool     `json:"NoEcho,omitempty" yaml:"NoEcho,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string  `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any     `json:"Value" yaml:"Value"`
	Export      *Export `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// Export names an output for Fn::ImportValue.
type Export struct {
	Name string `json:"Name" yaml:"Name"`
}

// SynthResult is the JSON output from `strapi-aws synth`.
type SynthResult struct {
	Success bool                 `json:"success"`
	Stacks  []string             `json:"stacks,omitempty"`
	Files   []string             `json:"files,omitempty"`
	Output  map[string]*Template `json:"templates,omitempty"`
	Errors  []string             `json:"errors,omitempty"`
}

// LintResult is the JSON output from `strapi-aws lint`.
type LintResult struct {
	Success bool        `json:"success"`
	Issues  []LintIssue `json:"issues,omitempty"`
}

// LintIssue is a single policy finding in a synthesized template.
type LintIssue struct {
	Stack    string `json:"stack"`
	Resource string `json:"resource,omitempty"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Rule     string `json:"rule"`
}

// ValidateResult is the JSON output from `strapi-aws validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// DeployResult is the JSON output from `strapi-aws deploy` and `destroy`.
type DeployResult struct {
	Success  bool                         `json:"success"`
	Stacks   []StackStatus                `json:"stacks,omitempty"`
	Outputs  map[string]map[string]string `json:"outputs,omitempty"`
	WebURL   string                       `json:"webUrl,omitempty"`
	Retained []string                     `json:"retained,omitempty"`
	Errors   []string                     `json:"errors,omitempty"`
}

// StackStatus is the final state of one deployed stack.
type StackStatus struct {
	Name    string `json:"name"`
	Region  string `json:"region"`
	Status  string `json:"status"`
	Changed bool   `json:"changed"`
}

// ListResult is the JSON output from `strapi-aws list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Stack string `json:"stack"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

// DiffResult is the JSON output from `strapi-aws diff`.
type DiffResult struct {
	Success bool         `json:"success"`
	Stack   string       `json:"stack,omitempty"`
	Diff    TemplateDiff `json:"diff"`
	Summary DiffSummary  `json:"summary"`
}

// TemplateDiff groups resource-level differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffEntry is one changed resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// DiffSummary counts the entries of a TemplateDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// Package intrinsics provides CloudFormation intrinsic functions.
//
// This package re-exports the core intrinsic types from cloudformation-schema-go
// and adds IAM policy documents and Secrets Manager dynamic references.
//
//	Ref{"UploadsBucket"} → {"Ref": "UploadsBucket"}
//	Sub{"arn:${AWS::Partition}:s3:::x"} → {"Fn::Sub": "arn:${AWS::Partition}:s3:::x"}
//	Join{"", []any{"a", "b"}} → {"Fn::Join": ["", ["a", "b"]]}
package intrinsics

import (
	"encoding/json"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// SubWithMap is Fn::Sub with a variable map.
	SubWithMap = intrinsics.SubWithMap

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// Select represents a CloudFormation Fn::Select intrinsic function.
	Select = intrinsics.Select

	// GetAZs represents a CloudFormation Fn::GetAZs intrinsic function.
	GetAZs = intrinsics.GetAZs

	// ImportValue represents a CloudFormation Fn::ImportValue intrinsic function.
	ImportValue = intrinsics.ImportValue

	// Split represents a CloudFormation Fn::Split intrinsic function.
	Split = intrinsics.Split

	// Cidr represents a CloudFormation Fn::Cidr intrinsic function.
	Cidr = intrinsics.Cidr

	// Tag represents a CloudFormation resource tag.
	Tag = intrinsics.Tag
)

// AZ selects the n-th availability zone of the stack's region.
func AZ(n int) Select {
	return Select{Index: n, List: GetAZs{Region: ""}}
}

// SecretValue is a Secrets Manager dynamic reference. CloudFormation resolves
// it inside the service at provisioning time; the template only ever carries
// the reference.
//
//	SecretValue{SecretID: Ref{"DatabaseSecret"}, JSONKey: "password"}
//	→ {"Fn::Join": ["", ["{{resolve:secretsmanager:", {"Ref": "DatabaseSecret"}, ":SecretString:password}}"]]}
type SecretValue struct {
	// SecretID is the secret ARN or name, usually a Ref to the secret.
	SecretID any
	// JSONKey selects one field of a JSON secret string.
	JSONKey string
}

// MarshalJSON renders the dynamic reference as a Fn::Join so SecretID may be
// an intrinsic.
func (v SecretValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(Join{
		Delimiter: "",
		Values: []any{
			"{{resolve:secretsmanager:",
			v.SecretID,
			":SecretString:" + v.JSONKey + "}}",
		},
	})
}

// IntPtr returns a pointer to the given int value.
func IntPtr(i int) *int {
	return &i
}

// BoolPtr returns a pointer to the given bool value. Used where false must
// be rendered rather than omitted.
func BoolPtr(b bool) *bool {
	return &b
}

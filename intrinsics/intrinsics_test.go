package intrinsics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRef_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Ref{LogicalName: "UploadsBucket"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ref": "UploadsBucket"}`, string(data))
}

func TestGetAtt_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(GetAtt{LogicalName: "TaskRole", Attribute: "Arn"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::GetAtt": ["TaskRole", "Arn"]}`, string(data))
}

func TestAZ(t *testing.T) {
	data, err := json.Marshal(AZ(1))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Fn::Select"`)
	assert.Contains(t, string(data), `"Fn::GetAZs"`)
}

func TestSecretValue_MarshalJSON(t *testing.T) {
	v := SecretValue{SecretID: Ref{LogicalName: "DatabaseSecret"}, JSONKey: "password"}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Join": ["", [
		"{{resolve:secretsmanager:",
		{"Ref": "DatabaseSecret"},
		":SecretString:password}}"
	]]}`, string(data))
}

func TestPseudoParameters(t *testing.T) {
	tests := []struct {
		name     string
		param    Ref
		expected string
	}{
		{"AWS_REGION", AWS_REGION, `{"Ref": "AWS::Region"}`},
		{"AWS_ACCOUNT_ID", AWS_ACCOUNT_ID, `{"Ref": "AWS::AccountId"}`},
		{"AWS_STACK_NAME", AWS_STACK_NAME, `{"Ref": "AWS::StackName"}`},
		{"AWS_PARTITION", AWS_PARTITION, `{"Ref": "AWS::Partition"}`},
		{"AWS_URL_SUFFIX", AWS_URL_SUFFIX, `{"Ref": "AWS::URLSuffix"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.param)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
			assert.True(t, IsPseudo(tt.param.LogicalName))
		})
	}
	assert.False(t, IsPseudo("UploadsBucket"))
}

func TestPolicyDocument_MarshalJSON(t *testing.T) {
	doc := NewPolicyDocument(
		Allow([]string{"s3:GetObject*"}, Sub{String: "${UploadsBucket.Arn}/*"}),
	)
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Action": ["s3:GetObject*"],
			"Resource": [{"Fn::Sub": "${UploadsBucket.Arn}/*"}]
		}]
	}`, string(data))
}

func TestAssumeRole(t *testing.T) {
	data, err := json.Marshal(AssumeRole("ecs-tasks.amazonaws.com"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"Service": "ecs-tasks.amazonaws.com"},
			"Action": "sts:AssumeRole"
		}]
	}`, string(data))
}

func TestPrincipals_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(ServicePrincipal{"a.amazonaws.com", "b.amazonaws.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Service": ["a.amazonaws.com", "b.amazonaws.com"]}`, string(data))

	data, err = json.Marshal(AWSPrincipal{"*"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"AWS": "*"}`, string(data))
}

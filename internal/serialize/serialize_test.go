package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/intrinsics"
	"github.com/lex00/strapi-aws-go/resources/cloudfront"
	"github.com/lex00/strapi-aws-go/resources/ecs"
)

type testBucket struct {
	BucketName  any               `json:"BucketName,omitempty"`
	Tags        []intrinsics.Tag  `json:"Tags,omitempty"`
	Versioning  *testVersioning   `json:"VersioningConfiguration,omitempty"`
	Environment map[string]string `json:"Environment,omitempty"`
	Internal    string            `json:"-"`
}

type testVersioning struct {
	Status string `json:"Status"`
}

func TestResource_SimpleStruct(t *testing.T) {
	props, err := Resource(testBucket{BucketName: "uploads"})
	require.NoError(t, err)

	assert.Equal(t, "uploads", props["BucketName"])
	assert.NotContains(t, props, "Tags")
	assert.NotContains(t, props, "VersioningConfiguration")
}

func TestResource_NestedAndSkipped(t *testing.T) {
	props, err := Resource(&testBucket{
		BucketName: "uploads",
		Versioning: &testVersioning{Status: "Enabled"},
		Internal:   "hidden",
	})
	require.NoError(t, err)

	versioning := props["VersioningConfiguration"].(map[string]any)
	assert.Equal(t, "Enabled", versioning["Status"])
	assert.NotContains(t, props, "Internal")
	assert.NotContains(t, props, "-")
}

func TestResource_Intrinsics(t *testing.T) {
	props, err := Resource(testBucket{
		BucketName: intrinsics.Sub{String: "${AWS::StackName}-uploads"},
		Environment: map[string]string{
			"TIER": "isolated",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Fn::Sub": "${AWS::StackName}-uploads"}, props["BucketName"])
	assert.Equal(t, map[string]any{"TIER": "isolated"}, props["Environment"])
}

func TestResource_AttrRefInSlice(t *testing.T) {
	svc := ecs.Service{
		NetworkConfiguration: &ecs.Service_NetworkConfiguration{
			AwsvpcConfiguration: &ecs.Service_AwsVpcConfiguration{
				Subnets:        []any{intrinsics.Ref{LogicalName: "PrivateSubnet1"}},
				SecurityGroups: []any{wetwire.AttrRef{Resource: "ServiceSG", Attribute: "GroupId"}},
				AssignPublicIp: "DISABLED",
			},
		},
	}

	props, err := Resource(svc)
	require.NoError(t, err)

	awsvpc := props["NetworkConfiguration"].(map[string]any)["AwsvpcConfiguration"].(map[string]any)
	assert.Equal(t, []any{map[string]any{"Ref": "PrivateSubnet1"}}, awsvpc["Subnets"])
	assert.Equal(t, []any{map[string]any{"Fn::GetAtt": []any{"ServiceSG", "GroupId"}}}, awsvpc["SecurityGroups"])
}

func TestResource_KeepsRequiredZeroValues(t *testing.T) {
	origin := cloudfront.Distribution_Origin{
		Id:             "uploads",
		S3OriginConfig: &cloudfront.Distribution_S3OriginConfig{},
	}

	props, err := Resource(origin)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"OriginAccessIdentity": ""}, props["S3OriginConfig"])
}

func TestResource_PointerFalse(t *testing.T) {
	def := ecs.TaskDefinition_ContainerDefinition{Name: "web", Essential: intrinsics.BoolPtr(false)}

	props, err := Resource(def)
	require.NoError(t, err)
	assert.Equal(t, false, props["Essential"])
}

func TestResource_NonStruct(t *testing.T) {
	props, err := Resource("not a struct")
	require.NoError(t, err)
	assert.Nil(t, props)

	var nilBucket *testBucket
	props, err = Resource(nilBucket)
	require.NoError(t, err)
	assert.Nil(t, props)
}

func TestNormalize(t *testing.T) {
	props, err := Normalize(map[string]any{"Port": 1337})
	require.NoError(t, err)
	assert.Equal(t, float64(1337), props["Port"])
}

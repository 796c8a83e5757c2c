package differ

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/strapi-aws-go"
)

func bucket(props map[string]any) wetwire.ResourceDef {
	return wetwire.ResourceDef{Type: "AWS::S3::Bucket", Properties: props, DeletionPolicy: "Retain"}
}

func TestCompare(t *testing.T) {
	before := &wetwire.Template{
		Resources: map[string]wetwire.ResourceDef{
			"UploadsBucket": bucket(map[string]any{"OwnershipControls": map[string]any{"Rules": []any{"BucketOwnerEnforced"}}}),
			"LegacyBucket":  bucket(nil),
		},
	}
	after := &wetwire.Template{
		Resources: map[string]wetwire.ResourceDef{
			"UploadsBucket": bucket(map[string]any{"OwnershipControls": map[string]any{"Rules": []any{"ObjectWriter"}}}),
			"LogsBucket":    bucket(nil),
		},
		Outputs: map[string]wetwire.Output{"UploadsBucket": {Value: map[string]any{"Ref": "UploadsBucket"}}},
	}

	result, err := Compare(before, after, Options{})
	require.NoError(t, err)

	require.Len(t, result.Diff.Removed, 1)
	assert.Equal(t, "LegacyBucket", result.Diff.Removed[0].Resource)
	require.Len(t, result.Diff.Added, 1)
	assert.Equal(t, "LogsBucket", result.Diff.Added[0].Resource)
	require.Len(t, result.Diff.Modified, 1)
	assert.Equal(t, []string{"OwnershipControls.Rules modified"}, result.Diff.Modified[0].Changes)
	assert.Equal(t, []string{"Outputs.UploadsBucket added"}, result.Outputs)
	assert.Equal(t, 3, result.Summary.Total)
	assert.False(t, result.Empty())
}

func TestCompare_Identical(t *testing.T) {
	template := &wetwire.Template{
		Resources: map[string]wetwire.ResourceDef{"UploadsBucket": bucket(map[string]any{"Port": 5432})},
	}
	result, err := Compare(template, template, Options{})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestCompare_NotDeployed(t *testing.T) {
	after := &wetwire.Template{Resources: map[string]wetwire.ResourceDef{"UploadsBucket": bucket(nil)}}
	result, err := Compare(nil, after, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Added)
}

func TestCompare_TypeAndPolicyChange(t *testing.T) {
	before := &wetwire.Template{Resources: map[string]wetwire.ResourceDef{"Uploads": bucket(nil)}}
	after := &wetwire.Template{Resources: map[string]wetwire.ResourceDef{
		"Uploads": {Type: "AWS::S3::AccessPoint"},
	}}

	result, err := Compare(before, after, Options{})
	require.NoError(t, err)
	require.Len(t, result.Diff.Modified, 1)
	assert.Contains(t, result.Diff.Modified[0].Changes, "Type changed: AWS::S3::Bucket → AWS::S3::AccessPoint")
	assert.Contains(t, result.Diff.Modified[0].Changes, `DeletionPolicy changed: "Retain" → ""`)
}

func TestCompareProperties(t *testing.T) {
	tests := []struct {
		name string
		a, b map[string]any
		want []string
	}{
		{"identical", map[string]any{"Key": "value"}, map[string]any{"Key": "value"}, nil},
		{"added", map[string]any{}, map[string]any{"Key": "value"}, []string{"Key added"}},
		{"removed", map[string]any{"Key": "value"}, map[string]any{}, []string{"Key removed"}},
		{"modified", map[string]any{"Key": "a"}, map[string]any{"Key": "b"}, []string{"Key modified"}},
		{
			"nested",
			map[string]any{"Config": map[string]any{"Port": 1337.0, "Host": "0.0.0.0"}},
			map[string]any{"Config": map[string]any{"Port": 8080.0, "Host": "0.0.0.0"}},
			[]string{"Config.Port modified"},
		},
		{
			"intrinsic compared whole",
			map[string]any{"Bucket": map[string]any{"Ref": "A"}},
			map[string]any{"Bucket": map[string]any{"Ref": "B"}},
			[]string{"Bucket modified"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compareProperties("", tt.a, tt.b, Options{}))
		})
	}
}

func TestIgnoreOrder(t *testing.T) {
	a := map[string]any{"Aliases": []any{"a.example.com", "b.example.com"}}
	b := map[string]any{"Aliases": []any{"b.example.com", "a.example.com"}}

	assert.Equal(t, []string{"Aliases modified"}, compareProperties("", a, b, Options{}))
	assert.Empty(t, compareProperties("", a, b, Options{IgnoreOrder: true}))
}

func TestCompareFiles_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "a.json")
	yamlPath := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"Resources":{"Db":{"Type":"AWS::RDS::DBCluster","Properties":{"Port":5432}}}}`), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte("Resources:\n  Db:\n    Type: AWS::RDS::DBCluster\n    Properties:\n      Port: 5432\n"), 0o644))

	result, err := CompareFiles(jsonPath, yamlPath, Options{})
	require.NoError(t, err)
	assert.True(t, result.Empty())

	_, err = CompareFiles(filepath.Join(dir, "missing.json"), yamlPath, Options{})
	assert.Error(t, err)
}

func TestEqualStringSlices(t *testing.T) {
	assert.True(t, equalStringSlices(nil, nil))
	assert.True(t, equalStringSlices([]string{"a", "b"}, []string{"a", "b"}))
	assert.False(t, equalStringSlices([]string{"a"}, []string{"b"}))
	assert.False(t, equalStringSlices([]string{"a"}, []string{"a", "b"}))
}

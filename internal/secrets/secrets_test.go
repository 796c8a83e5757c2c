package secrets

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/internal/template"
	"github.com/lex00/strapi-aws-go/intrinsics"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestGenerate(t *testing.T) {
	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
	b := NewStrapiSecret(s, "StrapiSecret", "blog")

	tmpl, err := template.NewBuilder(s).Build()
	require.NoError(t, err)

	res := tmpl.Resources["StrapiSecret"]
	assert.Equal(t, "AWS::SecretsManager::Secret", res.Type)
	assert.Equal(t, "blog-strapi-secret", res.Properties["Name"])
	gen := res.Properties["GenerateSecretString"].(map[string]any)
	assert.Equal(t, "StrapiKey", gen["GenerateStringKey"])
	assert.Equal(t, true, gen["ExcludePunctuation"])

	assert.False(t, b.Imported())
	assert.Equal(t, intrinsics.Ref{LogicalName: "StrapiSecret"}, b.ARN())
}

func TestFieldRef_Renderings(t *testing.T) {
	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
	b := Generate(s, "DatabaseSecret", GenerateOptions{Template: `{"username":"postgres"}`, GenerateKey: "password"})
	f := b.Field("password")

	assert.Equal(t, OpRead, f.Op())
	assert.Equal(t, "password", f.Key())
	assert.Same(t, b, f.Secret())

	assert.JSONEq(t, `{"Fn::Join":["",[{"Ref":"DatabaseSecret"},":password::"]]}`, mustJSON(t, f.ValueFrom()))
	assert.JSONEq(t,
		`{"Fn::Join":["",["{{resolve:secretsmanager:",{"Ref":"DatabaseSecret"},":SecretString:password}}"]]}`,
		mustJSON(t, f.Resolve()))
}

func TestFieldRef_Redacted(t *testing.T) {
	b := Import("prod/strapi")
	f := b.Field("password")

	for _, out := range []string{f.String(), fmt.Sprintf("%v", f), fmt.Sprintf("%#v", f)} {
		assert.Contains(t, out, "redacted")
		assert.Contains(t, out, "prod/strapi")
	}
}

func TestGrantRead(t *testing.T) {
	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
	generated := Generate(s, "StrapiSecret", GenerateOptions{GenerateKey: StrapiKey})

	stmt := generated.GrantRead()
	assert.Equal(t, "Allow", stmt.Effect)
	assert.Equal(t, []any{"secretsmanager:GetSecretValue", "secretsmanager:DescribeSecret"}, stmt.Action)
	assert.Equal(t, []any{intrinsics.Ref{LogicalName: "StrapiSecret"}}, stmt.Resource)

	imported := Import("prod/strapi").GrantRead()
	assert.Contains(t, mustJSON(t, imported.Resource), "-??????")
	assert.Contains(t, mustJSON(t, imported.Resource), "secret:prod/strapi")
}

func TestStrapiKeyConsumers(t *testing.T) {
	assert.Len(t, StrapiKeyConsumers, 5)
	assert.Contains(t, StrapiKeyConsumers, "ADMIN_JWT_SECRET")
	assert.Equal(t, "blog-strapi-secret", StrapiSecretName("blog"))
}

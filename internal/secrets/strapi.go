package secrets

import "github.com/lex00/strapi-aws-go/internal/stack"

// StrapiKey is the generated key inside the strapi secret.
const StrapiKey = "StrapiKey"

// StrapiKeyConsumers are the CMS variables fed from the one generated key:
// token signing, app keys, token salts and admin session signing.
var StrapiKeyConsumers = []string{
	"JWT_SECRET",
	"APP_KEYS",
	"TRANSFER_TOKEN_SALT",
	"API_TOKEN_SALT",
	"ADMIN_JWT_SECRET",
}

// StrapiSecretName is the secret name for an application.
func StrapiSecretName(app string) string {
	return app + "-strapi-secret"
}

// NewStrapiSecret declares the generated strapi key secret.
func NewStrapiSecret(s *stack.Stack, id, app string) *Binding {
	return Generate(s, id, GenerateOptions{
		Name:               StrapiSecretName(app),
		Description:        "Signing keys and salts for " + app,
		Template:           "{}",
		GenerateKey:        StrapiKey,
		ExcludePunctuation: true,
	})
}

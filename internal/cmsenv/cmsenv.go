// Package cmsenv names the environment the CMS container reads, and keeps
// the local development fallbacks out of anything provisioned in the cloud.
package cmsenv

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Variables read by the CMS.
const (
	DatabaseClient   = "DATABASE_CLIENT"
	DatabaseHost     = "DATABASE_HOST"
	DatabasePort     = "DATABASE_PORT"
	DatabaseName     = "DATABASE_NAME"
	DatabaseUsername = "DATABASE_USERNAME"
	DatabasePassword = "DATABASE_PASSWORD"
	DatabaseSSL      = "DATABASE_SSL"
	DatabasePoolMin  = "DATABASE_POOL_MIN"
	DatabasePoolMax  = "DATABASE_POOL_MAX"

	Host = "HOST"
	Port = "PORT"

	AWSBucket   = "AWS_BUCKET"
	AWSRegion   = "AWS_REGION"
	CDNURL      = "CDN_URL"
	CDNRootPath = "CDN_ROOT_PATH"

	JWTSecret         = "JWT_SECRET"
	AppKeys           = "APP_KEYS"
	TransferTokenSalt = "TRANSFER_TOKEN_SALT"
	APITokenSalt      = "API_TOKEN_SALT"
	AdminJWTSecret    = "ADMIN_JWT_SECRET"
)

// Fixed container values.
const (
	ClientPostgres = "postgres"
	ListenHost     = "0.0.0.0"
	ListenPort     = 1337
	UploadsRoot    = "uploads"
)

var (
	ErrLocalCredentials = errors.New("local fallback credentials in cloud environment")
	ErrSecretInPlain    = errors.New("secret variable passed as plain text")
	ErrMissingVariable  = errors.New("required variable missing")
)

// Contract splits the cloud environment into plain values and secrets.
type Contract struct {
	Plain  []string
	Secret []string
}

// CloudContract is what a provisioned container receives.
func CloudContract() Contract {
	return Contract{
		Plain: []string{
			DatabaseClient, DatabaseHost, DatabasePort, DatabaseName,
			Host, Port,
			AWSBucket, AWSRegion, CDNURL, CDNRootPath,
		},
		Secret: []string{
			DatabaseUsername, DatabasePassword,
			JWTSecret, AppKeys, TransferTokenSalt, APITokenSalt, AdminJWTSecret,
		},
	}
}

// IsSecret reports whether name must only ever be passed by reference.
func (c Contract) IsSecret(name string) bool {
	for _, s := range c.Secret {
		if s == name {
			return true
		}
	}
	return false
}

// LocalDefaults are the fallbacks the CMS uses when nothing is configured.
// They are for a database on the developer's machine only.
func LocalDefaults() map[string]string {
	return map[string]string{
		DatabaseClient:   ClientPostgres,
		DatabaseHost:     "127.0.0.1",
		DatabasePort:     "5432",
		DatabaseName:     "strapi",
		DatabaseUsername: "admin",
		DatabasePassword: "admin",
		DatabaseSSL:      "false",
		DatabasePoolMin:  "0",
		DatabasePoolMax:  "10",
		Host:             ListenHost,
		Port:             fmt.Sprint(ListenPort),
	}
}

// ForCloud checks a container environment before it is provisioned: every
// secret arrives by reference, every required variable is present, and no
// local fallback credential or loopback host is used.
func ForCloud(plain map[string]any, secretNames []string) error {
	contract := CloudContract()
	local := LocalDefaults()

	for name, value := range plain {
		s, isString := value.(string)
		if fallback, ok := local[name]; ok && isString && s == fallback && (name == DatabaseHost || contract.IsSecret(name)) {
			return fmt.Errorf("%w: %s", ErrLocalCredentials, name)
		}
		if name == DatabaseHost && isString && s == "localhost" {
			return fmt.Errorf("%w: %s", ErrLocalCredentials, name)
		}
		if contract.IsSecret(name) {
			return fmt.Errorf("%w: %s", ErrSecretInPlain, name)
		}
	}

	for _, name := range contract.Plain {
		if _, ok := plain[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingVariable, name)
		}
	}
	have := make(map[string]bool, len(secretNames))
	for _, n := range secretNames {
		have[n] = true
	}
	for _, name := range contract.Secret {
		if !have[name] {
			return fmt.Errorf("%w: secret %s", ErrMissingVariable, name)
		}
	}
	return nil
}

// DotEnv renders env as a .env file, sorted by key. Secret variables that
// are missing are written as commented placeholders.
func DotEnv(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, quote(env[k]))
	}
	for _, k := range CloudContract().Secret {
		if _, ok := env[k]; !ok {
			fmt.Fprintf(&b, "# %s=\n", k)
		}
	}
	return b.String()
}

func quote(v string) string {
	if strings.ContainsAny(v, " #\"'\n") {
		return fmt.Sprintf("%q", v)
	}
	return v
}

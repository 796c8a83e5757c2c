// Package secrets binds Secrets Manager secrets to the workloads that read
// them. A Binding hands out FieldRef handles that render as references; no
// API in this package ever returns a secret's value.
package secrets

import (
	"fmt"

	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/intrinsics"
	"github.com/lex00/strapi-aws-go/resources/secretsmanager"
)

// Op is what a FieldRef permits.
type Op string

// OpRead is the only operation: read at consumption time.
const OpRead Op = "read"

// ReadActions are the IAM actions a reader needs.
var ReadActions = []string{
	"secretsmanager:GetSecretValue",
	"secretsmanager:DescribeSecret",
}

// GenerateOptions control a generated secret.
type GenerateOptions struct {
	Name               string
	Description        string
	Template           string
	GenerateKey        string
	ExcludePunctuation bool
	ExcludeCharacters  string
	Length             int
}

// Binding is a secret known to the stack, declared or imported.
type Binding struct {
	Name string
	Node *stack.Node

	arn any
}

// Generate declares a secret whose value Secrets Manager generates.
func Generate(s *stack.Stack, id string, opts GenerateOptions) *Binding {
	secret := &secretsmanager.Secret{
		Description: opts.Description,
		GenerateSecretString: &secretsmanager.Secret_GenerateSecretString{
			SecretStringTemplate: opts.Template,
			GenerateStringKey:    opts.GenerateKey,
			ExcludePunctuation:   opts.ExcludePunctuation,
			ExcludeCharacters:    opts.ExcludeCharacters,
			PasswordLength:       opts.Length,
		},
	}
	if opts.Name != "" {
		secret.Name = opts.Name
	}
	n := s.Add(id, secret)
	return &Binding{Name: opts.Name, Node: n, arn: n.Ref()}
}

// Import binds an existing secret by name.
func Import(name string) *Binding {
	return &Binding{
		Name: name,
		arn:  intrinsics.Sub{String: "arn:${AWS::Partition}:secretsmanager:${AWS::Region}:${AWS::AccountId}:secret:" + name},
	}
}

// Imported reports whether the secret was created outside the stack.
func (b *Binding) Imported() bool {
	return b.Node == nil
}

// ARN returns a reference to the secret ARN. Imported secrets yield a
// partial ARN without the random suffix.
func (b *Binding) ARN() any {
	return b.arn
}

// Field returns a read handle for one key of a JSON secret.
func (b *Binding) Field(key string) FieldRef {
	return FieldRef{secret: b, key: key, op: OpRead}
}

// GrantRead returns the statement letting a principal read the secret.
func (b *Binding) GrantRead() intrinsics.PolicyStatement {
	resource := b.arn
	if b.Imported() {
		resource = intrinsics.Join{Delimiter: "", Values: []any{b.arn, "-??????"}}
	}
	return intrinsics.Allow(ReadActions, resource)
}

func (b *Binding) String() string {
	if b.Name != "" {
		return b.Name
	}
	if b.Node != nil {
		return b.Node.ID
	}
	return "secret"
}

// FieldRef is a capability to read one key of a secret when the consumer
// starts or is provisioned.
type FieldRef struct {
	secret *Binding
	key    string
	op     Op
}

// Key is the JSON key within the secret.
func (f FieldRef) Key() string { return f.key }

// Op is the permitted operation.
func (f FieldRef) Op() Op { return f.op }

// Secret is the owning binding.
func (f FieldRef) Secret() *Binding { return f.secret }

// ValueFrom renders the ECS container secret reference
// "<arn>:<key>::".
func (f FieldRef) ValueFrom() any {
	return intrinsics.Join{Delimiter: "", Values: []any{f.secret.arn, ":" + f.key + "::"}}
}

// Resolve renders a CloudFormation dynamic reference, resolved by the
// service when the consuming resource is provisioned.
func (f FieldRef) Resolve() intrinsics.SecretValue {
	return intrinsics.SecretValue{SecretID: f.secret.arn, JSONKey: f.key}
}

// String never includes the value.
func (f FieldRef) String() string {
	return fmt.Sprintf("%s:%s (redacted)", f.secret, f.key)
}

// GoString keeps %#v redacted too.
func (f FieldRef) GoString() string {
	return f.String()
}

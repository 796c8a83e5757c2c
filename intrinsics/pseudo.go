package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

// Pseudo-parameters resolved by CloudFormation in every stack.
//
//	AWS_REGION             // {"Ref": "AWS::Region"}
var (
	AWS_ACCOUNT_ID = intrinsics.AWS_ACCOUNT_ID
	AWS_PARTITION  = intrinsics.AWS_PARTITION
	AWS_REGION     = intrinsics.AWS_REGION
	AWS_STACK_NAME = intrinsics.AWS_STACK_NAME
	AWS_URL_SUFFIX = intrinsics.AWS_URL_SUFFIX
)

// IsPseudo reports whether a Ref target is a pseudo-parameter rather than a
// logical ID.
func IsPseudo(name string) bool {
	return len(name) > 5 && name[:5] == "AWS::"
}

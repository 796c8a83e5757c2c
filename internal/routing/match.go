// Package routing evaluates the two ordered policy tables at the edges of the
// stack: the load balancer's priority-ordered access rules and the CDN's
// path-pattern behavior table. Both are plain data, rendered into
// CloudFormation by the compute and cdn packages and evaluated here so the
// ordering can be tested without deploying anything.
package routing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ryanuber/go-glob"
)

// ErrPattern is returned for path patterns the tables cannot hold.
var ErrPattern = errors.New("invalid path pattern")

// MatchPath reports whether path matches pattern. '*' matches any run of
// characters, including '/', the way ALB and CloudFront match paths.
// Matching is case-sensitive.
func MatchPath(pattern, path string) bool {
	return glob.Glob(pattern, path)
}

// ValidatePattern checks a path pattern is absolute and uses only '*'.
func ValidatePattern(pattern string) error {
	switch {
	case pattern == "":
		return fmt.Errorf("%w: empty", ErrPattern)
	case !strings.HasPrefix(pattern, "/"):
		return fmt.Errorf("%w: %q must start with /", ErrPattern, pattern)
	case strings.ContainsRune(pattern, '?'):
		return fmt.Errorf("%w: %q uses '?'", ErrPattern, pattern)
	case len(pattern) > 255:
		return fmt.Errorf("%w: %q is longer than 255 characters", ErrPattern, pattern)
	}
	return nil
}

// literalPrefix is the part of a pattern before its first wildcard.
func literalPrefix(pattern string) string {
	if i := strings.IndexByte(pattern, '*'); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

// moreSpecific orders patterns: a longer literal prefix wins, then fewer
// wildcards, then the longer pattern, then lexical order.
func moreSpecific(a, b string) bool {
	pa, pb := literalPrefix(a), literalPrefix(b)
	if len(pa) != len(pb) {
		return len(pa) > len(pb)
	}
	wa, wb := strings.Count(a, "*"), strings.Count(b, "*")
	if wa != wb {
		return wa < wb
	}
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a < b
}

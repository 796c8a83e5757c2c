package lint

import (
	"regexp"
	"strings"
)

type secretPatternDef struct {
	name    string
	pattern *regexp.Regexp
}

var secretPatterns = []secretPatternDef{
	{"AWS access key", regexp.MustCompile(`^(A3T[A-Z0-9]|AKIA|ABIA|ACCA|ASIA)[A-Z0-9]{16}$`)},
	{"AWS secret key", regexp.MustCompile(`^[A-Za-z0-9/+=]{40}$`)},
	{"private key", regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|DSA\s+|OPENSSH\s+)?PRIVATE\s+KEY-----`)},
	{"GitHub token", regexp.MustCompile(`^gh[pousr]_[A-Za-z0-9_]{36,}$`)},
	{"Slack token", regexp.MustCompile(`^xox[baprs]-[0-9]{10,}-[0-9]{10,}-[a-zA-Z0-9]{24,}$`)},
	{"postgres URL with password", regexp.MustCompile(`^postgres(ql)?://[^:/@]+:[^@]+@`)},
	{"API key", regexp.MustCompile(`^[A-Za-z0-9_\-]{32,}$`)},
}

func looksSecret(value string) bool {
	return secretKind(value) != ""
}

// secretKind names the kind of secret value looks like, empty when none.
func secretKind(value string) string {
	if len(value) < 10 {
		return ""
	}
	for _, sp := range secretPatterns {
		if !sp.pattern.MatchString(value) {
			continue
		}
		if sp.name == "AWS secret key" && isSafeString(value) {
			continue
		}
		if sp.name == "API key" && !isHighEntropy(value) {
			continue
		}
		return sp.name
	}
	return ""
}

func isSafeString(s string) bool {
	for _, pattern := range []string{"arn:aws:", "${", "AWS::", "https://", "s3://", ".amazonaws.com"} {
		if strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}

// isHighEntropy is true for strings of at least 32 characters mixing three
// character classes.
func isHighEntropy(s string) bool {
	var lower, upper, digit, other bool
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		default:
			other = true
		}
	}
	count := 0
	for _, b := range []bool{lower, upper, digit, other} {
		if b {
			count++
		}
	}
	return count >= 3 && len(s) >= 32
}

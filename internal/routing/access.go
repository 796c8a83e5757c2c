package routing

import (
	"errors"
	"fmt"
	"net/netip"
	"sort"
)

// Load balancer access contract. The priorities are part of the external
// interface: rule 1 must be evaluated before rule 2.
const (
	AdminPathPattern = "/admin/*"
	AllowPriority    = 1
	DenyPriority     = 2

	DenyStatusCode  = 403
	DenyContentType = "text/html"
	DenyMessage     = "Your IP address is not authorized"
)

var (
	ErrDuplicatePriority = errors.New("duplicate rule priority")
	ErrPriorityRange     = errors.New("rule priority out of range")
	ErrShadowedAllow     = errors.New("allow rule is shadowed by a lower-numbered deny rule")
	ErrEmptyAllowList    = errors.New("admin allow-list is empty")
	ErrNoConditions      = errors.New("rule has no conditions")
)

// ActionType is what the load balancer does with a matched request.
type ActionType string

const (
	Forward       ActionType = "forward"
	FixedResponse ActionType = "fixed-response"
)

// Response is a fixed response returned by the load balancer itself.
type Response struct {
	StatusCode  int
	ContentType string
	Body        string
}

// Rule is one listener rule. All conditions must hold for the rule to match.
type Rule struct {
	Name         string
	Priority     int
	PathPatterns []string
	SourceIPs    []netip.Prefix
	Action       ActionType
	Response     *Response
}

// Request is what the load balancer sees of an incoming request.
type Request struct {
	Path   string
	Source netip.Addr
}

// Decision is the outcome of evaluating a Request.
type Decision struct {
	// Rule is the matched rule name, "default" when none matched.
	Rule     string
	Action   ActionType
	Response *Response
}

// Forwarded reports whether the request reaches the service.
func (d Decision) Forwarded() bool {
	return d.Action == Forward
}

// AccessPolicy is an ordered rule list with a default forward action.
type AccessPolicy struct {
	rules []Rule
}

// NewAccessPolicy validates rules and orders them by priority.
func NewAccessPolicy(rules ...Rule) (*AccessPolicy, error) {
	sorted := append([]Rule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	p := &AccessPolicy{rules: sorted}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// AdminPolicy builds the two-rule admin restriction: forward admin paths
// from the allow-list at priority 1, reject every other admin request with
// the fixed 403 at priority 2.
func AdminPolicy(allow []netip.Prefix) (*AccessPolicy, error) {
	if len(allow) == 0 {
		return nil, ErrEmptyAllowList
	}
	return NewAccessPolicy(
		Rule{
			Name:         "accept",
			Priority:     AllowPriority,
			PathPatterns: []string{AdminPathPattern},
			SourceIPs:    allow,
			Action:       Forward,
		},
		Rule{
			Name:         "forbidden",
			Priority:     DenyPriority,
			PathPatterns: []string{AdminPathPattern},
			Action:       FixedResponse,
			Response:     DenyResponse(),
		},
	)
}

// DenyResponse is the fixed admin rejection.
func DenyResponse() *Response {
	return &Response{StatusCode: DenyStatusCode, ContentType: DenyContentType, Body: DenyMessage}
}

// Rules returns the rules in evaluation order.
func (p *AccessPolicy) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// Validate checks priorities are unique and in the ALB range, and that no
// source-restricted forward rule sits behind an unrestricted fixed-response
// rule on the same path, which would reject all of its traffic.
func (p *AccessPolicy) Validate() error {
	seen := make(map[int]string)
	for _, r := range p.rules {
		if r.Priority < 1 || r.Priority > 50000 {
			return fmt.Errorf("%w: %s has %d", ErrPriorityRange, r.Name, r.Priority)
		}
		if other, ok := seen[r.Priority]; ok {
			return fmt.Errorf("%w: %s and %s share %d", ErrDuplicatePriority, other, r.Name, r.Priority)
		}
		seen[r.Priority] = r.Name
		if len(r.PathPatterns) == 0 && len(r.SourceIPs) == 0 {
			return fmt.Errorf("%w: %s", ErrNoConditions, r.Name)
		}
		for _, pattern := range r.PathPatterns {
			if err := ValidatePattern(pattern); err != nil {
				return fmt.Errorf("rule %s: %w", r.Name, err)
			}
		}
	}

	for i, deny := range p.rules {
		if deny.Action != FixedResponse || len(deny.SourceIPs) > 0 {
			continue
		}
		for _, allow := range p.rules[i+1:] {
			if allow.Action == Forward && len(allow.SourceIPs) > 0 && CoversPaths(deny.PathPatterns, allow.PathPatterns) {
				return fmt.Errorf("%w: %s (priority %d) runs before %s (priority %d)",
					ErrShadowedAllow, deny.Name, deny.Priority, allow.Name, allow.Priority)
			}
		}
	}
	return nil
}

// CoversPaths reports whether every pattern of inner is matched by some
// pattern of outer. No path condition matches every path.
func CoversPaths(outer, inner []string) bool {
	if len(outer) == 0 {
		return true
	}
	for _, in := range inner {
		covered := false
		for _, out := range outer {
			if MatchPath(out, in) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return len(inner) > 0
}

// Evaluate returns the decision for req: the first matching rule in
// priority order, otherwise the default forward.
func (p *AccessPolicy) Evaluate(req Request) Decision {
	for _, r := range p.rules {
		if r.matches(req) {
			return Decision{Rule: r.Name, Action: r.Action, Response: r.Response}
		}
	}
	return Decision{Rule: "default", Action: Forward}
}

func (r Rule) matches(req Request) bool {
	if len(r.PathPatterns) > 0 {
		matched := false
		for _, pattern := range r.PathPatterns {
			if MatchPath(pattern, req.Path) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if len(r.SourceIPs) > 0 {
		src := req.Source.Unmap()
		for _, prefix := range r.SourceIPs {
			if prefix.Contains(src) {
				return true
			}
		}
		return false
	}
	return true
}

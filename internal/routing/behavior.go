package routing

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrDuplicatePattern = errors.New("duplicate path pattern")
	ErrMissingPolicy    = errors.New("behavior has no cache policy")
	ErrInsecureViewer   = errors.New("behavior does not force HTTPS")
)

// CachePolicy is a CloudFront managed cache policy.
type CachePolicy struct {
	Name string
	ID   string
}

// Managed cache policies.
var (
	CachingDisabled = CachePolicy{
		Name: "Managed-CachingDisabled",
		ID:   "4135ea2d-6df8-44a3-9df3-4b5a84be39ad",
	}
	CachingOptimized = CachePolicy{
		Name: "Managed-CachingOptimized",
		ID:   "658327ea-f89d-4fab-a63d-7e88639e58f6",
	}
	UseOriginCacheControlHeadersQueryStrings = CachePolicy{
		Name: "UseOriginCacheControlHeaders-QueryStrings",
		ID:   "4cc15a8a-d715-48a4-82b8-cc0b614638fe",
	}
)

// OriginRequestPolicy is a CloudFront managed origin request policy.
type OriginRequestPolicy struct {
	Name string
	ID   string
}

// Managed origin request policies.
var (
	AllViewer = OriginRequestPolicy{
		Name: "Managed-AllViewer",
		ID:   "216adef6-5c7f-47e4-b989-5492eafa07d3",
	}
	AllViewerAndCloudFrontHeaders = OriginRequestPolicy{
		Name: "Managed-AllViewerAndCloudFrontHeaders-2022-06",
		ID:   "33f36d7e-f396-46d9-90e0-52428a34d9dc",
	}
	CORSS3Origin = OriginRequestPolicy{
		Name: "Managed-CORS-S3Origin",
		ID:   "88a5eaf4-2fd4-4709-b370-b4c650ea3fcf",
	}
)

// Allowed method sets.
var (
	MethodsGetHead = []string{"GET", "HEAD"}
	MethodsAll     = []string{"GET", "HEAD", "OPTIONS", "PUT", "PATCH", "POST", "DELETE"}
)

// Viewer protocol policies.
const (
	RedirectToHTTPS = "redirect-to-https"
	HTTPSOnly       = "https-only"
	AllowAll        = "allow-all"
)

// Origin names the backend a behavior routes to.
type Origin string

const (
	OriginLoadBalancer Origin = "alb"
	OriginUploads      Origin = "uploads"
)

// Behavior is one CDN cache behavior. The default behavior has no
// PathPattern.
type Behavior struct {
	PathPattern         string
	Origin              Origin
	CachePolicy         CachePolicy
	OriginRequestPolicy OriginRequestPolicy
	AllowedMethods      []string
	ViewerProtocol      string
}

// BehaviorTable holds the path behaviors in evaluation order, most specific
// first, plus the default that catches everything else.
type BehaviorTable struct {
	Default   Behavior
	behaviors []Behavior
}

// NewBehaviorTable validates behaviors and orders them by specificity.
func NewBehaviorTable(def Behavior, behaviors ...Behavior) (*BehaviorTable, error) {
	if def.PathPattern != "" {
		return nil, fmt.Errorf("%w: default behavior has pattern %q", ErrPattern, def.PathPattern)
	}
	if err := def.validate("default"); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(behaviors))
	for _, b := range behaviors {
		if err := ValidatePattern(b.PathPattern); err != nil {
			return nil, err
		}
		if seen[b.PathPattern] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePattern, b.PathPattern)
		}
		seen[b.PathPattern] = true
		if err := b.validate(b.PathPattern); err != nil {
			return nil, err
		}
	}

	sorted := append([]Behavior(nil), behaviors...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return moreSpecific(sorted[i].PathPattern, sorted[j].PathPattern)
	})
	return &BehaviorTable{Default: def, behaviors: sorted}, nil
}

func (b Behavior) validate(name string) error {
	if b.CachePolicy.ID == "" {
		return fmt.Errorf("%w: %s", ErrMissingPolicy, name)
	}
	if b.ViewerProtocol != RedirectToHTTPS && b.ViewerProtocol != HTTPSOnly {
		return fmt.Errorf("%w: %s uses %q", ErrInsecureViewer, name, b.ViewerProtocol)
	}
	return nil
}

// Behaviors returns the path behaviors in evaluation order.
func (t *BehaviorTable) Behaviors() []Behavior {
	return append([]Behavior(nil), t.behaviors...)
}

// Route returns the behavior serving path.
func (t *BehaviorTable) Route(path string) Behavior {
	for _, b := range t.behaviors {
		if MatchPath(b.PathPattern, path) {
			return b
		}
	}
	return t.Default
}

// StrapiBehaviors is the CDN table for a Strapi deployment: the admin panel
// and uploads get their own behaviors, everything else is served from the
// load balancer with origin cache headers.
func StrapiBehaviors() (*BehaviorTable, error) {
	return NewBehaviorTable(
		Behavior{
			Origin:              OriginLoadBalancer,
			CachePolicy:         UseOriginCacheControlHeadersQueryStrings,
			OriginRequestPolicy: AllViewer,
			AllowedMethods:      MethodsGetHead,
			ViewerProtocol:      RedirectToHTTPS,
		},
		Behavior{
			PathPattern:         AdminPathPattern,
			Origin:              OriginLoadBalancer,
			CachePolicy:         CachingDisabled,
			OriginRequestPolicy: AllViewerAndCloudFrontHeaders,
			AllowedMethods:      MethodsAll,
			ViewerProtocol:      RedirectToHTTPS,
		},
		Behavior{
			PathPattern:         UploadsPathPattern,
			Origin:              OriginUploads,
			CachePolicy:         CachingOptimized,
			OriginRequestPolicy: CORSS3Origin,
			AllowedMethods:      MethodsAll,
			ViewerProtocol:      RedirectToHTTPS,
		},
	)
}

// UploadsPathPattern is where media uploads are served from.
const UploadsPathPattern = "/uploads/*"

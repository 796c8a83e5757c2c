package routing

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin    = netip.MustParseAddr("203.0.113.5")
	stranger = netip.MustParseAddr("198.51.100.9")
)

func adminPolicy(t *testing.T) *AccessPolicy {
	t.Helper()
	p, err := AdminPolicy([]netip.Prefix{netip.MustParsePrefix("203.0.113.0/24")})
	require.NoError(t, err)
	return p
}

func TestMatchPath(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/admin/*", "/admin/", true},
		{"/admin/*", "/admin/content-manager/collection-types", true},
		{"/admin/*", "/admin", false},
		{"/admin/*", "/Admin/login", false},
		{"/uploads/*", "/uploads/a.png", true},
		{"/uploads/*", "/api/uploads/a.png", false},
		{"/*.jpg", "/images/cat.jpg", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchPath(tt.pattern, tt.path))
		})
	}
}

func TestValidatePattern(t *testing.T) {
	assert.NoError(t, ValidatePattern("/admin/*"))
	assert.ErrorIs(t, ValidatePattern(""), ErrPattern)
	assert.ErrorIs(t, ValidatePattern("admin/*"), ErrPattern)
	assert.ErrorIs(t, ValidatePattern("/admin/?"), ErrPattern)
}

func TestAdminPolicy_Rules(t *testing.T) {
	rules := adminPolicy(t).Rules()
	require.Len(t, rules, 2)

	assert.Equal(t, "accept", rules[0].Name)
	assert.Equal(t, AllowPriority, rules[0].Priority)
	assert.Equal(t, Forward, rules[0].Action)
	assert.NotEmpty(t, rules[0].SourceIPs)

	assert.Equal(t, "forbidden", rules[1].Name)
	assert.Equal(t, DenyPriority, rules[1].Priority)
	assert.Equal(t, FixedResponse, rules[1].Action)
	assert.Equal(t, &Response{StatusCode: 403, ContentType: "text/html", Body: "Your IP address is not authorized"}, rules[1].Response)
}

func TestAdminPolicy_Evaluate(t *testing.T) {
	p := adminPolicy(t)

	tests := []struct {
		name   string
		req    Request
		rule   string
		action ActionType
	}{
		{"allowed admin", Request{Path: "/admin/auth/login", Source: admin}, "accept", Forward},
		{"rejected admin", Request{Path: "/admin/auth/login", Source: stranger}, "forbidden", FixedResponse},
		{"public api from stranger", Request{Path: "/api/articles", Source: stranger}, "default", Forward},
		{"public api from admin", Request{Path: "/api/articles", Source: admin}, "default", Forward},
		{"mapped v4 source", Request{Path: "/admin/", Source: netip.MustParseAddr("::ffff:203.0.113.5")}, "accept", Forward},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Evaluate(tt.req)
			assert.Equal(t, tt.rule, d.Rule)
			assert.Equal(t, tt.action, d.Action)
			if tt.action == FixedResponse {
				require.NotNil(t, d.Response)
				assert.Equal(t, 403, d.Response.StatusCode)
				assert.False(t, d.Forwarded())
			}
		})
	}
}

func TestAdminPolicy_EmptyAllowList(t *testing.T) {
	_, err := AdminPolicy(nil)
	assert.ErrorIs(t, err, ErrEmptyAllowList)
}

func TestAccessPolicy_ShadowedAllow(t *testing.T) {
	_, err := NewAccessPolicy(
		Rule{Name: "accept", Priority: 2, PathPatterns: []string{"/admin/*"}, SourceIPs: []netip.Prefix{netip.MustParsePrefix("203.0.113.0/24")}, Action: Forward},
		Rule{Name: "forbidden", Priority: 1, PathPatterns: []string{"/admin/*"}, Action: FixedResponse, Response: DenyResponse()},
	)
	assert.ErrorIs(t, err, ErrShadowedAllow)
}

func TestAccessPolicy_Validation(t *testing.T) {
	_, err := NewAccessPolicy(
		Rule{Name: "a", Priority: 1, PathPatterns: []string{"/a/*"}, Action: Forward},
		Rule{Name: "b", Priority: 1, PathPatterns: []string{"/b/*"}, Action: Forward},
	)
	assert.ErrorIs(t, err, ErrDuplicatePriority)

	_, err = NewAccessPolicy(Rule{Name: "a", Priority: 0, PathPatterns: []string{"/a/*"}, Action: Forward})
	assert.ErrorIs(t, err, ErrPriorityRange)

	_, err = NewAccessPolicy(Rule{Name: "a", Priority: 3, Action: Forward})
	assert.ErrorIs(t, err, ErrNoConditions)
}

func TestStrapiBehaviors_Route(t *testing.T) {
	table, err := StrapiBehaviors()
	require.NoError(t, err)

	tests := []struct {
		path   string
		origin Origin
		cache  CachePolicy
	}{
		{"/admin/auth/login", OriginLoadBalancer, CachingDisabled},
		{"/uploads/cat.png", OriginUploads, CachingOptimized},
		{"/api/articles", OriginLoadBalancer, UseOriginCacheControlHeadersQueryStrings},
		{"/", OriginLoadBalancer, UseOriginCacheControlHeadersQueryStrings},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			b := table.Route(tt.path)
			assert.Equal(t, tt.origin, b.Origin)
			assert.Equal(t, tt.cache, b.CachePolicy)
			assert.Equal(t, RedirectToHTTPS, b.ViewerProtocol)
		})
	}

	assert.Equal(t, MethodsGetHead, table.Default.AllowedMethods)
	assert.Equal(t, MethodsAll, table.Route("/admin/x").AllowedMethods)
}

func TestBehaviorTable_MostSpecificWins(t *testing.T) {
	def := Behavior{CachePolicy: CachingDisabled, ViewerProtocol: RedirectToHTTPS}
	table, err := NewBehaviorTable(def,
		Behavior{PathPattern: "/uploads/*", Origin: "broad", CachePolicy: CachingOptimized, ViewerProtocol: RedirectToHTTPS},
		Behavior{PathPattern: "/uploads/private/*", Origin: "narrow", CachePolicy: CachingDisabled, ViewerProtocol: HTTPSOnly},
	)
	require.NoError(t, err)

	assert.Equal(t, Origin("narrow"), table.Route("/uploads/private/a.pdf").Origin)
	assert.Equal(t, Origin("broad"), table.Route("/uploads/a.pdf").Origin)
	assert.Equal(t, "/uploads/private/*", table.Behaviors()[0].PathPattern)
}

func TestBehaviorTable_Validation(t *testing.T) {
	def := Behavior{CachePolicy: CachingDisabled, ViewerProtocol: RedirectToHTTPS}
	b := Behavior{PathPattern: "/a/*", CachePolicy: CachingDisabled, ViewerProtocol: RedirectToHTTPS}

	_, err := NewBehaviorTable(def, b, b)
	assert.ErrorIs(t, err, ErrDuplicatePattern)

	_, err = NewBehaviorTable(def, Behavior{PathPattern: "/a/*", ViewerProtocol: RedirectToHTTPS})
	assert.ErrorIs(t, err, ErrMissingPolicy)

	_, err = NewBehaviorTable(def, Behavior{PathPattern: "/a/*", CachePolicy: CachingDisabled, ViewerProtocol: AllowAll})
	assert.ErrorIs(t, err, ErrInsecureViewer)

	_, err = NewBehaviorTable(Behavior{PathPattern: "/x", CachePolicy: CachingDisabled, ViewerProtocol: RedirectToHTTPS})
	assert.ErrorIs(t, err, ErrPattern)
}

func TestRoundTrip_SingleAdminAddress(t *testing.T) {
	policy, err := AdminPolicy([]netip.Prefix{netip.PrefixFrom(admin, 32)})
	require.NoError(t, err)
	table, err := StrapiBehaviors()
	require.NoError(t, err)

	assert.True(t, policy.Evaluate(Request{Path: "/admin/login", Source: admin}).Forwarded())

	denied := policy.Evaluate(Request{Path: "/admin/login", Source: stranger})
	assert.False(t, denied.Forwarded())
	assert.Equal(t, DenyMessage, denied.Response.Body)

	assert.True(t, policy.Evaluate(Request{Path: "/", Source: stranger}).Forwarded())

	upload := table.Route("/uploads/logo.png")
	assert.Equal(t, OriginUploads, upload.Origin)
	assert.Equal(t, CachingOptimized.ID, upload.CachePolicy.ID)
}

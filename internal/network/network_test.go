package network

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/internal/template"
	"github.com/lex00/strapi-aws-go/intrinsics"
	"github.com/lex00/strapi-aws-go/resources/ec2"
)

func newTopology(t *testing.T, opts Options) (*stack.Stack, *Topology) {
	t.Helper()
	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
	topo, err := New(s, "Vpc", opts)
	require.NoError(t, err)
	require.NoError(t, s.Err())
	return s, topo
}

func TestNew_Defaults(t *testing.T) {
	_, topo := newTopology(t, DefaultOptions())

	assert.Equal(t, "10.0.0.0/24", topo.CIDR.String())

	want := map[Tier][]string{
		Public:        {"10.0.0.0/27", "10.0.0.32/27"},
		PrivateEgress: {"10.0.0.64/27", "10.0.0.96/27"},
		Isolated:      {"10.0.0.128/27", "10.0.0.160/27"},
	}
	for tier, blocks := range want {
		subnets := topo.Subnets(tier)
		require.Len(t, subnets, 2, tier)
		for i, sn := range subnets {
			assert.Equal(t, blocks[i], sn.CIDR.String())
			assert.Equal(t, i, sn.AZ)
		}
	}
}

func TestNew_Resources(t *testing.T) {
	s, _ := newTopology(t, DefaultOptions())

	tmpl, err := template.NewBuilder(s).Build()
	require.NoError(t, err)

	count := map[string]int{}
	for _, r := range tmpl.Resources {
		count[r.Type]++
	}
	assert.Equal(t, 1, count["AWS::EC2::VPC"])
	assert.Equal(t, 6, count["AWS::EC2::Subnet"])
	assert.Equal(t, 2, count["AWS::EC2::NatGateway"])
	assert.Equal(t, 2, count["AWS::EC2::EIP"])
	assert.Equal(t, 4, count["AWS::EC2::Route"])

	route := tmpl.Resources["VpcPrivateSubnet2DefaultRoute"]
	assert.Equal(t, map[string]any{"Ref": "VpcPublicSubnet2NATGateway"}, route.Properties["NatGatewayId"])

	_, hasRoute := tmpl.Resources["VpcIsolatedSubnet1DefaultRoute"]
	assert.False(t, hasRoute, "isolated subnets have no default route")

	subnet := tmpl.Resources["VpcIsolatedSubnet1"]
	assert.Contains(t, subnet.Properties["Tags"], map[string]any{"Key": TierTag, "Value": "isolated"})
}

func TestNew_SingleNAT(t *testing.T) {
	s, _ := newTopology(t, Options{CIDR: "10.0.0.0/24", MaxAZs: 2, NATGateways: 1})

	n, ok := s.Lookup("VpcPrivateSubnet2DefaultRoute")
	require.True(t, ok)
	route := n.Resource.(*ec2.Route)
	assert.Equal(t, intrinsics.Ref{LogicalName: "VpcPublicSubnet1NATGateway"}, route.NatGatewayId)
}

func TestNew_AddressSpace(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"too small", Options{CIDR: "10.0.0.0/27", MaxAZs: 2, NATGateways: 1}},
		{"too many zones", Options{CIDR: "10.0.0.0/24", MaxAZs: 6, NATGateways: 1}},
		{"not a prefix", Options{CIDR: "banana", MaxAZs: 2, NATGateways: 1}},
		{"ipv6", Options{CIDR: "fd00::/56", MaxAZs: 2, NATGateways: 1}},
		{"too large", Options{CIDR: "10.0.0.0/8", MaxAZs: 2, NATGateways: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
			_, err := New(s, "Vpc", tt.opts)
			assert.ErrorIs(t, err, ErrAddressSpace)
		})
	}
}

func TestNew_NATGateways(t *testing.T) {
	s := stack.New("StrapiStack", stack.Env{Region: "eu-west-1"})
	_, err := New(s, "Vpc", Options{MaxAZs: 2, NATGateways: 3})
	assert.ErrorIs(t, err, ErrNATGateways)
}

func TestTopology_Placement(t *testing.T) {
	_, topo := newTopology(t, DefaultOptions())

	_, err := topo.Placement(Public, "Database")
	assert.ErrorIs(t, err, ErrPublicPlacement)

	ids, err := topo.Placement(Isolated, "Database")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	assert.True(t, topo.IsPublicSubnet("VpcPublicSubnet1"))
	assert.False(t, topo.IsPublicSubnet("VpcIsolatedSubnet1"))
}

func TestTopology_TierOf(t *testing.T) {
	_, topo := newTopology(t, DefaultOptions())

	tier, ok := topo.TierOf(netip.MustParseAddr("10.0.0.70"))
	require.True(t, ok)
	assert.Equal(t, PrivateEgress, tier)

	tier, ok = topo.TierOf(netip.MustParseAddr("10.0.0.130"))
	require.True(t, ok)
	assert.Equal(t, Isolated, tier)

	_, ok = topo.TierOf(netip.MustParseAddr("10.0.0.200"))
	assert.False(t, ok, "spare space belongs to no subnet")

	assert.True(t, topo.Contains(netip.MustParseAddr("10.0.0.200")))
	assert.False(t, topo.Contains(netip.MustParseAddr("192.0.2.1")))
}

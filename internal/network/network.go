// Package network declares the VPC a Strapi deployment runs in: three subnet
// tiers spread over the availability zones, with an internet gateway for the
// public tier and NAT gateways for the private tier.
package network

import (
	"errors"
	"fmt"
	"math/bits"
	"net"
	"net/netip"

	"github.com/c-robinson/iplib"

	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/intrinsics"
	"github.com/lex00/strapi-aws-go/resources/ec2"
)

var (
	ErrAddressSpace    = errors.New("address space cannot hold the subnets")
	ErrPublicPlacement = errors.New("workload cannot be placed in a public subnet")
	ErrNATGateways     = errors.New("invalid NAT gateway count")
)

// TierTag marks every subnet with its tier.
const TierTag = "strapi-aws:subnet-tier"

// Tier is a subnet class.
type Tier string

const (
	// Public subnets route to the internet gateway.
	Public Tier = "public"
	// PrivateEgress subnets reach the internet only through NAT.
	PrivateEgress Tier = "private-egress"
	// Isolated subnets have no route out of the VPC.
	Isolated Tier = "isolated"
)

// Tiers lists tiers in address order.
var Tiers = []Tier{Public, PrivateEgress, Isolated}

func (t Tier) idPart() string {
	switch t {
	case Public:
		return "Public"
	case PrivateEgress:
		return "Private"
	default:
		return "Isolated"
	}
}

// Options sizes the topology.
type Options struct {
	CIDR        string
	MaxAZs      int
	NATGateways int
}

// DefaultOptions is a /24 over two zones with one NAT gateway per zone.
func DefaultOptions() Options {
	return Options{CIDR: "10.0.0.0/24", MaxAZs: 2, NATGateways: 2}
}

// Subnet is one declared subnet.
type Subnet struct {
	Tier Tier
	AZ   int
	CIDR netip.Prefix
	Node *stack.Node
}

// Topology is the declared network.
type Topology struct {
	VPC     *stack.Node
	CIDR    netip.Prefix
	subnets []Subnet
}

// New declares the network into s under the id prefix.
func New(s *stack.Stack, id string, opts Options) (*Topology, error) {
	if opts.CIDR == "" {
		opts.CIDR = DefaultOptions().CIDR
	}
	if opts.MaxAZs <= 0 {
		opts.MaxAZs = DefaultOptions().MaxAZs
	}
	if opts.NATGateways < 1 || opts.NATGateways > opts.MaxAZs {
		return nil, fmt.Errorf("%w: %d for %d zones", ErrNATGateways, opts.NATGateways, opts.MaxAZs)
	}

	cidr, err := netip.ParsePrefix(opts.CIDR)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAddressSpace, err)
	}
	cidr = cidr.Masked()
	blocks, err := carve(cidr, len(Tiers)*opts.MaxAZs)
	if err != nil {
		return nil, err
	}

	t := &Topology{CIDR: cidr}
	t.VPC = s.Add(id, &ec2.VPC{
		CidrBlock:          cidr.String(),
		EnableDnsHostnames: true,
		EnableDnsSupport:   true,
		InstanceTenancy:    "default",
		Tags:               []intrinsics.Tag{{Key: "Name", Value: s.Name + "/" + id}},
	})

	igw := s.Add(id+"IGW", &ec2.InternetGateway{})
	attach := s.Add(id+"VPCGW", &ec2.VPCGatewayAttachment{
		VpcId:             t.VPC.Ref(),
		InternetGatewayId: igw.Ref(),
	})

	var nats []*stack.Node
	for i, tier := range Tiers {
		for az := 0; az < opts.MaxAZs; az++ {
			block := blocks[i*opts.MaxAZs+az]
			name := fmt.Sprintf("%s%sSubnet%d", id, tier.idPart(), az+1)

			subnet := s.Add(name, &ec2.Subnet{
				VpcId:               t.VPC.Ref(),
				CidrBlock:           block.String(),
				AvailabilityZone:    intrinsics.AZ(az),
				MapPublicIpOnLaunch: tier == Public,
				Tags: []intrinsics.Tag{
					{Key: "Name", Value: s.Name + "/" + name},
					{Key: TierTag, Value: string(tier)},
				},
			})
			t.subnets = append(t.subnets, Subnet{Tier: tier, AZ: az, CIDR: block, Node: subnet})

			table := s.Add(name+"RouteTable", &ec2.RouteTable{VpcId: t.VPC.Ref()})
			s.Add(name+"RouteTableAssociation", &ec2.SubnetRouteTableAssociation{
				SubnetId:     subnet.Ref(),
				RouteTableId: table.Ref(),
			})

			switch tier {
			case Public:
				s.Add(name+"DefaultRoute", &ec2.Route{
					RouteTableId:         table.Ref(),
					DestinationCidrBlock: "0.0.0.0/0",
					GatewayId:            igw.Ref(),
				}).DependsOn(attach)
				if az < opts.NATGateways {
					eip := s.Add(name+"EIP", &ec2.EIP{Domain: "vpc"})
					nat := s.Add(name+"NATGateway", &ec2.NatGateway{
						AllocationId: eip.GetAtt("AllocationId"),
						SubnetId:     subnet.Ref(),
					}).DependsOn(attach)
					nats = append(nats, nat)
				}
			case PrivateEgress:
				s.Add(name+"DefaultRoute", &ec2.Route{
					RouteTableId:         table.Ref(),
					DestinationCidrBlock: "0.0.0.0/0",
					NatGatewayId:         nats[az%len(nats)].Ref(),
				})
			}
		}
	}
	return t, nil
}

// carve splits cidr into n equal blocks, the smallest prefix that fits.
func carve(cidr netip.Prefix, n int) ([]netip.Prefix, error) {
	if !cidr.Addr().Is4() {
		return nil, fmt.Errorf("%w: %s is not IPv4", ErrAddressSpace, cidr)
	}
	if cidr.Bits() < 16 || cidr.Bits() > 28 {
		return nil, fmt.Errorf("%w: VPC block %s must be between /16 and /28", ErrAddressSpace, cidr)
	}
	newBits := cidr.Bits() + bits.Len(uint(n-1))
	if newBits > 28 {
		return nil, fmt.Errorf("%w: %s cannot hold %d subnets of at least /28", ErrAddressSpace, cidr, n)
	}

	base := iplib.NewNet4(net.IP(cidr.Addr().AsSlice()), cidr.Bits())
	subs, err := base.Subnet(newBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAddressSpace, err)
	}
	if len(subs) < n {
		return nil, fmt.Errorf("%w: %s yields %d subnets, need %d", ErrAddressSpace, cidr, len(subs), n)
	}

	out := make([]netip.Prefix, n)
	for i := range out {
		p, err := netip.ParsePrefix(subs[i].IPNet.String())
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// Subnets returns the subnets of a tier, ordered by zone.
func (t *Topology) Subnets(tier Tier) []Subnet {
	var out []Subnet
	for _, sn := range t.subnets {
		if sn.Tier == tier {
			out = append(out, sn)
		}
	}
	return out
}

// SubnetIDs returns Ref handles for the subnets of a tier.
func (t *Topology) SubnetIDs(tier Tier) []any {
	var out []any
	for _, sn := range t.Subnets(tier) {
		out = append(out, sn.Node.Ref())
	}
	return out
}

// Placement returns the subnets a workload may be placed in. Workloads
// never go into the public tier.
func (t *Topology) Placement(tier Tier, consumer string) ([]any, error) {
	if tier == Public {
		return nil, fmt.Errorf("%w: %s", ErrPublicPlacement, consumer)
	}
	return t.SubnetIDs(tier), nil
}

// TierOf reports the tier of the subnet holding addr.
func (t *Topology) TierOf(addr netip.Addr) (Tier, bool) {
	addr = addr.Unmap()
	for _, sn := range t.subnets {
		if sn.CIDR.Contains(addr) {
			return sn.Tier, true
		}
	}
	return "", false
}

// Contains reports whether addr is inside the VPC block.
func (t *Topology) Contains(addr netip.Addr) bool {
	return t.CIDR.Contains(addr.Unmap())
}

// IsPublicSubnet reports whether the logical ID names a public subnet.
func (t *Topology) IsPublicSubnet(id string) bool {
	for _, sn := range t.Subnets(Public) {
		if sn.Node.ID == id {
			return true
		}
	}
	return false
}

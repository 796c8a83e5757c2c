// Package ec2 provides the AWS::EC2 resource types used by the network and
// security group wiring.
package ec2

import "github.com/lex00/strapi-aws-go/intrinsics"

// VPC is AWS::EC2::VPC.
type VPC struct {
	CidrBlock          any              `json:"CidrBlock,omitempty"`
	EnableDnsHostnames bool             `json:"EnableDnsHostnames,omitempty"`
	EnableDnsSupport   bool             `json:"EnableDnsSupport,omitempty"`
	InstanceTenancy    string           `json:"InstanceTenancy,omitempty"`
	Tags               []intrinsics.Tag `json:"Tags,omitempty"`
}

func (VPC) ResourceType() string { return "AWS::EC2::VPC" }

// Subnet is AWS::EC2::Subnet.
type Subnet struct {
	VpcId               any              `json:"VpcId,omitempty"`
	CidrBlock           any              `json:"CidrBlock,omitempty"`
	AvailabilityZone    any              `json:"AvailabilityZone,omitempty"`
	MapPublicIpOnLaunch bool             `json:"MapPublicIpOnLaunch,omitempty"`
	Tags                []intrinsics.Tag `json:"Tags,omitempty"`
}

func (Subnet) ResourceType() string { return "AWS::EC2::Subnet" }

// InternetGateway is AWS::EC2::InternetGateway.
type InternetGateway struct {
	Tags []intrinsics.Tag `json:"Tags,omitempty"`
}

func (InternetGateway) ResourceType() string { return "AWS::EC2::InternetGateway" }

// VPCGatewayAttachment is AWS::EC2::VPCGatewayAttachment.
type VPCGatewayAttachment struct {
	VpcId             any `json:"VpcId,omitempty"`
	InternetGatewayId any `json:"InternetGatewayId,omitempty"`
}

func (VPCGatewayAttachment) ResourceType() string { return "AWS::EC2::VPCGatewayAttachment" }

// EIP is AWS::EC2::EIP.
type EIP struct {
	Domain string           `json:"Domain,omitempty"`
	Tags   []intrinsics.Tag `json:"Tags,omitempty"`
}

func (EIP) ResourceType() string { return "AWS::EC2::EIP" }

// NatGateway is AWS::EC2::NatGateway.
type NatGateway struct {
	AllocationId any              `json:"AllocationId,omitempty"`
	SubnetId     any              `json:"SubnetId,omitempty"`
	Tags         []intrinsics.Tag `json:"Tags,omitempty"`
}

func (NatGateway) ResourceType() string { return "AWS::EC2::NatGateway" }

// RouteTable is AWS::EC2::RouteTable.
type RouteTable struct {
	VpcId any              `json:"VpcId,omitempty"`
	Tags  []intrinsics.Tag `json:"Tags,omitempty"`
}

func (RouteTable) ResourceType() string { return "AWS::EC2::RouteTable" }

// Route is AWS::EC2::Route.
type Route struct {
	RouteTableId         any `json:"RouteTableId,omitempty"`
	DestinationCidrBlock any `json:"DestinationCidrBlock,omitempty"`
	GatewayId            any `json:"GatewayId,omitempty"`
	NatGatewayId         any `json:"NatGatewayId,omitempty"`
}

func (Route) ResourceType() string { return "AWS::EC2::Route" }

// SubnetRouteTableAssociation is AWS::EC2::SubnetRouteTableAssociation.
type SubnetRouteTableAssociation struct {
	SubnetId     any `json:"SubnetId,omitempty"`
	RouteTableId any `json:"RouteTableId,omitempty"`
}

func (SubnetRouteTableAssociation) ResourceType() string {
	return "AWS::EC2::SubnetRouteTableAssociation"
}

// SecurityGroup is AWS::EC2::SecurityGroup.
type SecurityGroup struct {
	GroupDescription     string                  `json:"GroupDescription,omitempty"`
	VpcId                any                     `json:"VpcId,omitempty"`
	SecurityGroupIngress []SecurityGroup_Ingress `json:"SecurityGroupIngress,omitempty"`
	SecurityGroupEgress  []SecurityGroup_Egress  `json:"SecurityGroupEgress,omitempty"`
	Tags                 []intrinsics.Tag        `json:"Tags,omitempty"`
}

func (SecurityGroup) ResourceType() string { return "AWS::EC2::SecurityGroup" }

// SecurityGroup_Ingress is an inline ingress rule.
type SecurityGroup_Ingress struct {
	IpProtocol            string `json:"IpProtocol,omitempty"`
	FromPort              int    `json:"FromPort,omitempty"`
	ToPort                int    `json:"ToPort,omitempty"`
	CidrIp                any    `json:"CidrIp,omitempty"`
	CidrIpv6              any    `json:"CidrIpv6,omitempty"`
	SourceSecurityGroupId any    `json:"SourceSecurityGroupId,omitempty"`
	Description           string `json:"Description,omitempty"`
}

// SecurityGroup_Egress is an inline egress rule.
type SecurityGroup_Egress struct {
	IpProtocol  string `json:"IpProtocol,omitempty"`
	CidrIp      any    `json:"CidrIp,omitempty"`
	Description string `json:"Description,omitempty"`
}

// SecurityGroupIngress is AWS::EC2::SecurityGroupIngress, used when the
// source group is declared after the target group.
type SecurityGroupIngress struct {
	GroupId               any    `json:"GroupId,omitempty"`
	IpProtocol            string `json:"IpProtocol,omitempty"`
	FromPort              int    `json:"FromPort,omitempty"`
	ToPort                int    `json:"ToPort,omitempty"`
	SourceSecurityGroupId any    `json:"SourceSecurityGroupId,omitempty"`
	Description           string `json:"Description,omitempty"`
}

func (SecurityGroupIngress) ResourceType() string { return "AWS::EC2::SecurityGroupIngress" }

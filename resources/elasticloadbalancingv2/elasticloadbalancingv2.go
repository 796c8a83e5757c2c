// Package elasticloadbalancingv2 provides the AWS::ElasticLoadBalancingV2
// resource types for the application load balancer.
package elasticloadbalancingv2

import "github.com/lex00/strapi-aws-go/intrinsics"

// LoadBalancer is AWS::ElasticLoadBalancingV2::LoadBalancer.
// Attributes: DNSName, CanonicalHostedZoneID, LoadBalancerFullName.
type LoadBalancer struct {
	Name                   any                      `json:"Name,omitempty"`
	Scheme                 string                   `json:"Scheme,omitempty"`
	Type                   string                   `json:"Type,omitempty"`
	IpAddressType          string                   `json:"IpAddressType,omitempty"`
	Subnets                []any                    `json:"Subnets,omitempty"`
	SecurityGroups         []any                    `json:"SecurityGroups,omitempty"`
	LoadBalancerAttributes []LoadBalancer_Attribute `json:"LoadBalancerAttributes,omitempty"`
	Tags                   []intrinsics.Tag         `json:"Tags,omitempty"`
}

func (LoadBalancer) ResourceType() string { return "AWS::ElasticLoadBalancingV2::LoadBalancer" }

type LoadBalancer_Attribute struct {
	Key   string `json:"Key,omitempty"`
	Value string `json:"Value,omitempty"`
}

// TargetGroup is AWS::ElasticLoadBalancingV2::TargetGroup. Ref returns the ARN.
type TargetGroup struct {
	Port                       int                     `json:"Port,omitempty"`
	Protocol                   string                  `json:"Protocol,omitempty"`
	TargetType                 string                  `json:"TargetType,omitempty"`
	VpcId                      any                     `json:"VpcId,omitempty"`
	HealthCheckPath            string                  `json:"HealthCheckPath,omitempty"`
	HealthCheckIntervalSeconds int                     `json:"HealthCheckIntervalSeconds,omitempty"`
	HealthyThresholdCount      int                     `json:"HealthyThresholdCount,omitempty"`
	Matcher                    *TargetGroup_Matcher    `json:"Matcher,omitempty"`
	TargetGroupAttributes      []TargetGroup_Attribute `json:"TargetGroupAttributes,omitempty"`
	Tags                       []intrinsics.Tag        `json:"Tags,omitempty"`
}

func (TargetGroup) ResourceType() string { return "AWS::ElasticLoadBalancingV2::TargetGroup" }

type TargetGroup_Matcher struct {
	HttpCode string `json:"HttpCode,omitempty"`
}

type TargetGroup_Attribute struct {
	Key   string `json:"Key,omitempty"`
	Value string `json:"Value,omitempty"`
}

// Listener is AWS::ElasticLoadBalancingV2::Listener. Ref returns the ARN.
type Listener struct {
	LoadBalancerArn any                    `json:"LoadBalancerArn,omitempty"`
	Port            int                    `json:"Port,omitempty"`
	Protocol        string                 `json:"Protocol,omitempty"`
	SslPolicy       string                 `json:"SslPolicy,omitempty"`
	Certificates    []Listener_Certificate `json:"Certificates,omitempty"`
	DefaultActions  []Action               `json:"DefaultActions,omitempty"`
}

func (Listener) ResourceType() string { return "AWS::ElasticLoadBalancingV2::Listener" }

type Listener_Certificate struct {
	CertificateArn any `json:"CertificateArn,omitempty"`
}

// Action is shared by listener default actions and listener rules.
type Action struct {
	Type                string               `json:"Type,omitempty"`
	Order               int                  `json:"Order,omitempty"`
	TargetGroupArn      any                  `json:"TargetGroupArn,omitempty"`
	FixedResponseConfig *FixedResponseConfig `json:"FixedResponseConfig,omitempty"`
}

type FixedResponseConfig struct {
	StatusCode  string `json:"StatusCode,omitempty"`
	ContentType string `json:"ContentType,omitempty"`
	MessageBody string `json:"MessageBody,omitempty"`
}

// ListenerRule is AWS::ElasticLoadBalancingV2::ListenerRule.
type ListenerRule struct {
	ListenerArn any                          `json:"ListenerArn,omitempty"`
	Priority    int                          `json:"Priority,omitempty"`
	Conditions  []ListenerRule_RuleCondition `json:"Conditions,omitempty"`
	Actions     []Action                     `json:"Actions,omitempty"`
}

func (ListenerRule) ResourceType() string { return "AWS::ElasticLoadBalancingV2::ListenerRule" }

type ListenerRule_RuleCondition struct {
	Field             string                          `json:"Field,omitempty"`
	PathPatternConfig *ListenerRule_PathPatternConfig `json:"PathPatternConfig,omitempty"`
	SourceIpConfig    *ListenerRule_SourceIpConfig    `json:"SourceIpConfig,omitempty"`
}

type ListenerRule_PathPatternConfig struct {
	Values []string `json:"Values,omitempty"`
}

type ListenerRule_SourceIpConfig struct {
	Values []string `json:"Values,omitempty"`
}

package compute

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lex00/strapi-aws-go/internal/cmsenv"
	"github.com/lex00/strapi-aws-go/internal/dns"
	"github.com/lex00/strapi-aws-go/internal/network"
	"github.com/lex00/strapi-aws-go/internal/routing"
	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/intrinsics"
	elbv2 "github.com/lex00/strapi-aws-go/resources/elasticloadbalancingv2"
)

// SSLPolicy is the listener's TLS negotiation policy.
const SSLPolicy = "ELBSecurityPolicy-TLS13-1-2-2021-06"

func (svc *Service) declareLoadBalancer(s *stack.Stack, id string, opts Options, sg *stack.Node) error {
	svc.LoadBalancer = s.Add(id+"LoadBalancer", &elbv2.LoadBalancer{
		Scheme:         "internet-facing",
		Type:           "application",
		IpAddressType:  "ipv4",
		Subnets:        opts.Network.SubnetIDs(network.Public),
		SecurityGroups: []any{sg.GetAtt("GroupId")},
		LoadBalancerAttributes: []elbv2.LoadBalancer_Attribute{
			{Key: "deletion_protection.enabled", Value: "false"},
			{Key: "routing.http.drop_invalid_header_fields.enabled", Value: "true"},
		},
	})

	svc.TargetGroup = s.Add(id+"TargetGroup", &elbv2.TargetGroup{
		Port:                       cmsenv.ListenPort,
		Protocol:                   "HTTP",
		TargetType:                 "ip",
		VpcId:                      opts.Network.VPC.Ref(),
		HealthCheckPath:            HealthCheckPath,
		HealthCheckIntervalSeconds: 30,
		HealthyThresholdCount:      2,
		Matcher:                    &elbv2.TargetGroup_Matcher{HttpCode: "200-399"},
		TargetGroupAttributes: []elbv2.TargetGroup_Attribute{
			{Key: "deregistration_delay.timeout_seconds", Value: "30"},
		},
	})

	svc.Listener = s.Add(id+"Listener", &elbv2.Listener{
		LoadBalancerArn: svc.LoadBalancer.Ref(),
		Port:            HTTPSPort,
		Protocol:        "HTTPS",
		SslPolicy:       SSLPolicy,
		Certificates:    []elbv2.Listener_Certificate{{CertificateArn: opts.Certificate.Arn()}},
		DefaultActions:  []elbv2.Action{{Type: "forward", TargetGroupArn: svc.TargetGroup.Ref()}},
	})

	svc.Rules = RenderRules(s, id+"Listener", svc.Listener, svc.TargetGroup, svc.Access)

	record, err := dns.Alias(s, id+"LoadBalancerRecord", dns.Options{
		Zone:       opts.HostedZoneID,
		RecordName: opts.LoadBalancerDomain,
		Target:     intrinsics.Join{Delimiter: "", Values: []any{"dualstack.", svc.LoadBalancer.GetAtt("DNSName")}},
		TargetZone: svc.LoadBalancer.GetAtt("CanonicalHostedZoneID"),
		Types:      []string{"A"},
	})
	if err != nil {
		return fmt.Errorf("load balancer record: %w", err)
	}
	svc.Record = record
	return nil
}

// RenderRules declares one listener rule per access rule, in priority order.
func RenderRules(s *stack.Stack, prefix string, listener, targetGroup *stack.Node, policy *routing.AccessPolicy) []*stack.Node {
	var nodes []*stack.Node
	for _, r := range policy.Rules() {
		var conditions []elbv2.ListenerRule_RuleCondition
		if len(r.PathPatterns) > 0 {
			conditions = append(conditions, elbv2.ListenerRule_RuleCondition{
				Field:             "path-pattern",
				PathPatternConfig: &elbv2.ListenerRule_PathPatternConfig{Values: r.PathPatterns},
			})
		}
		if len(r.SourceIPs) > 0 {
			values := make([]string, len(r.SourceIPs))
			for i, p := range r.SourceIPs {
				values[i] = p.String()
			}
			conditions = append(conditions, elbv2.ListenerRule_RuleCondition{
				Field:          "source-ip",
				SourceIpConfig: &elbv2.ListenerRule_SourceIpConfig{Values: values},
			})
		}

		action := elbv2.Action{Type: string(r.Action)}
		switch r.Action {
		case routing.Forward:
			action.TargetGroupArn = targetGroup.Ref()
		case routing.FixedResponse:
			action.FixedResponseConfig = &elbv2.FixedResponseConfig{
				StatusCode:  strconv.Itoa(r.Response.StatusCode),
				ContentType: r.Response.ContentType,
				MessageBody: r.Response.Body,
			}
		}

		nodes = append(nodes, s.Add(prefix+title(r.Name)+"Rule", &elbv2.ListenerRule{
			ListenerArn: listener.Ref(),
			Priority:    r.Priority,
			Conditions:  conditions,
			Actions:     []elbv2.Action{action},
		}))
	}
	return nodes
}

func title(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

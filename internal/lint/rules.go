package lint

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"

	"github.com/ryanuber/go-glob"

	"github.com/lex00/strapi-aws-go/internal/certificate"
	"github.com/lex00/strapi-aws-go/internal/cmsenv"
	"github.com/lex00/strapi-aws-go/internal/network"
	"github.com/lex00/strapi-aws-go/internal/routing"
)

// AdminAccessOrder checks the listener rules that guard restricted paths.
//
// Every unrestricted fixed-response rule must be preceded, on the paths it
// covers, only by forward rules that carry a source-ip condition, and those
// forward rules must have the lower priority number.
type AdminAccessOrder struct{}

func (r AdminAccessOrder) ID() string { return "SAW001" }
func (r AdminAccessOrder) Description() string {
	return "Admin allow rule precedes the deny rule and is source-restricted"
}

func (r AdminAccessOrder) Check(t *Target) []Issue {
	var issues []Issue
	for _, s := range t.Stacks {
		listeners := map[string][]routing.Rule{}
		var order []string
		for _, id := range resources(s.Template, "AWS::ElasticLoadBalancingV2::ListenerRule") {
			props := s.Template.Resources[id].Properties
			rule, err := listenerRule(id, props)
			if err != nil {
				issues = append(issues, Issue{Rule: r.ID(), Severity: SeverityError, Stack: s.Name, Resource: id, Message: err.Error()})
				continue
			}
			key := fmt.Sprint(props["ListenerArn"])
			if _, ok := listeners[key]; !ok {
				order = append(order, key)
			}
			listeners[key] = append(listeners[key], rule)
		}

		for _, key := range order {
			rules := listeners[key]
			if _, err := routing.NewAccessPolicy(rules...); err != nil {
				issues = append(issues, Issue{
					Rule:       r.ID(),
					Severity:   SeverityError,
					Stack:      s.Name,
					Resource:   rules[0].Name,
					Message:    err.Error(),
					Suggestion: "Give the source-restricted forward rule the lower priority number",
				})
			}
			issues = append(issues, r.openAllows(s.Name, rules)...)
		}
	}
	return issues
}

func (r AdminAccessOrder) openAllows(stackName string, rules []routing.Rule) []Issue {
	var issues []Issue
	for _, deny := range rules {
		if deny.Action != routing.FixedResponse || len(deny.SourceIPs) > 0 || len(deny.PathPatterns) == 0 {
			continue
		}
		for _, allow := range rules {
			if allow.Action != routing.Forward || allow.Priority > deny.Priority {
				continue
			}
			if len(allow.SourceIPs) == 0 && routing.CoversPaths(deny.PathPatterns, allow.PathPatterns) {
				issues = append(issues, Issue{
					Rule:       r.ID(),
					Severity:   SeverityError,
					Stack:      stackName,
					Resource:   allow.Name,
					Message:    fmt.Sprintf("forwards %s from any address before %s rejects it", strings.Join(allow.PathPatterns, ","), deny.Name),
					Suggestion: "Add a source-ip condition with the admin allow-list",
				})
			}
		}
	}
	return issues
}

func listenerRule(id string, props map[string]any) (routing.Rule, error) {
	rule := routing.Rule{Name: id}
	var ok bool
	if rule.Priority, ok = num(props["Priority"]); !ok {
		return rule, fmt.Errorf("priority is not a literal number")
	}
	for _, c := range list(props["Conditions"]) {
		field, _ := str(obj(c)["Field"])
		switch field {
		case "path-pattern":
			for _, v := range list(path(c, "PathPatternConfig", "Values")) {
				if p, ok := str(v); ok {
					rule.PathPatterns = append(rule.PathPatterns, p)
				}
			}
		case "source-ip":
			for _, v := range list(path(c, "SourceIpConfig", "Values")) {
				raw, _ := str(v)
				p, err := netip.ParsePrefix(raw)
				if err != nil {
					return rule, fmt.Errorf("source-ip %q: %v", raw, err)
				}
				rule.SourceIPs = append(rule.SourceIPs, p)
			}
		}
	}
	if actions := list(props["Actions"]); len(actions) > 0 {
		typ, _ := str(obj(actions[0])["Type"])
		rule.Action = routing.ActionType(typ)
	}
	return rule, nil
}

// PrivatePlacement checks that database subnet groups and ECS services use
// no public subnet and get no public address.
type PrivatePlacement struct{}

func (r PrivatePlacement) ID() string { return "SAW002" }
func (r PrivatePlacement) Description() string {
	return "Database and service stay out of public subnets"
}

func (r PrivatePlacement) Check(t *Target) []Issue {
	var issues []Issue
	for _, s := range t.Stacks {
		public := publicSubnets(s)
		report := func(id, msg string) {
			issues = append(issues, Issue{Rule: r.ID(), Severity: SeverityError, Stack: s.Name, Resource: id, Message: msg})
		}

		for _, id := range resources(s.Template, "AWS::RDS::DBSubnetGroup") {
			for subnet := range targets(s.Template.Resources[id].Properties["SubnetIds"]) {
				if public[subnet] {
					report(id, "includes public subnet "+subnet)
				}
			}
		}
		for _, id := range resources(s.Template, "AWS::RDS::DBInstance") {
			if v, _ := s.Template.Resources[id].Properties["PubliclyAccessible"].(bool); v {
				report(id, "is publicly accessible")
			}
		}
		for _, id := range resources(s.Template, "AWS::ECS::Service") {
			cfg := path(s.Template.Resources[id].Properties, "NetworkConfiguration", "AwsvpcConfiguration")
			for subnet := range targets(obj(cfg)["Subnets"]) {
				if public[subnet] {
					report(id, "runs in public subnet "+subnet)
				}
			}
			if v, _ := str(obj(cfg)["AssignPublicIp"]); v == "ENABLED" {
				report(id, "assigns public addresses to tasks")
			}
		}
	}
	return issues
}

// publicSubnets finds subnets that are tagged public, map public IPs, or
// are associated with a route table that routes to an internet gateway.
func publicSubnets(s Stack) map[string]bool {
	public := map[string]bool{}
	for _, id := range resources(s.Template, "AWS::EC2::Subnet") {
		props := s.Template.Resources[id].Properties
		if v, _ := props["MapPublicIpOnLaunch"].(bool); v {
			public[id] = true
		}
		for _, tag := range list(props["Tags"]) {
			k, _ := str(obj(tag)["Key"])
			v, _ := str(obj(tag)["Value"])
			if k == network.TierTag && v == string(network.Public) {
				public[id] = true
			}
		}
	}

	gateways := map[string]bool{}
	for _, id := range resources(s.Template, "AWS::EC2::InternetGateway") {
		gateways[id] = true
	}
	tables := map[string]bool{}
	for _, id := range resources(s.Template, "AWS::EC2::Route") {
		props := s.Template.Resources[id].Properties
		for gw := range targets(props["GatewayId"]) {
			if gateways[gw] {
				for table := range targets(props["RouteTableId"]) {
					tables[table] = true
				}
			}
		}
	}
	for _, id := range resources(s.Template, "AWS::EC2::SubnetRouteTableAssociation") {
		props := s.Template.Resources[id].Properties
		for table := range targets(props["RouteTableId"]) {
			if tables[table] {
				for subnet := range targets(props["SubnetId"]) {
					public[subnet] = true
				}
			}
		}
	}
	return public
}

// LiteralSecrets checks container environments and database credentials
// for values that should come from Secrets Manager.
type LiteralSecrets struct{}

func (r LiteralSecrets) ID() string { return "SAW003" }
func (r LiteralSecrets) Description() string {
	return "No literal secrets in task environment or database credentials"
}

func (r LiteralSecrets) Check(t *Target) []Issue {
	var issues []Issue
	contract := cmsenv.CloudContract()
	local := cmsenv.LocalDefaults()
	for _, s := range t.Stacks {
		report := func(id, msg string) {
			issues = append(issues, Issue{
				Rule:       r.ID(),
				Severity:   SeverityError,
				Stack:      s.Name,
				Resource:   id,
				Message:    msg,
				Suggestion: "Inject the value from Secrets Manager",
			})
		}

		for _, id := range resources(s.Template, "AWS::ECS::TaskDefinition") {
			for _, c := range list(s.Template.Resources[id].Properties["ContainerDefinitions"]) {
				for _, kv := range list(obj(c)["Environment"]) {
					name, _ := str(obj(kv)["Name"])
					value, literal := str(obj(kv)["Value"])
					switch {
					case contract.IsSecret(name):
						report(id, fmt.Sprintf("%s is passed as a plain environment variable", name))
					case literal && name == cmsenv.DatabaseHost && value == local[cmsenv.DatabaseHost]:
						report(id, fmt.Sprintf("%s is the local fallback %s", name, value))
					case literal && looksSecret(value):
						report(id, fmt.Sprintf("%s looks like a %s", name, secretKind(value)))
					}
				}
			}
		}

		for _, typ := range []string{"AWS::RDS::DBCluster", "AWS::RDS::DBInstance"} {
			for _, id := range resources(s.Template, typ) {
				if v, ok := str(s.Template.Resources[id].Properties["MasterUserPassword"]); ok && !strings.Contains(v, "{{resolve:") {
					report(id, "MasterUserPassword is a literal")
				}
			}
		}
		for _, id := range resources(s.Template, "AWS::SecretsManager::Secret") {
			if _, ok := str(s.Template.Resources[id].Properties["SecretString"]); ok {
				report(id, "SecretString is a literal")
			}
		}
	}
	return issues
}

// RecordTTL checks record set TTLs.
type RecordTTL struct {
	MaxTTL int
}

func (r RecordTTL) ID() string { return "SAW004" }
func (r RecordTTL) Description() string {
	return "Record set TTLs stay at or under five minutes"
}

func (r RecordTTL) Check(t *Target) []Issue {
	var issues []Issue
	for _, s := range t.Stacks {
		for _, id := range resources(s.Template, "AWS::Route53::RecordSet") {
			ttl, ok := num(s.Template.Resources[id].Properties["TTL"])
			if ok && ttl > r.MaxTTL {
				issues = append(issues, Issue{
					Rule:     r.ID(),
					Severity: SeverityError,
					Stack:    s.Name,
					Resource: id,
					Message:  fmt.Sprintf("TTL %d exceeds %d seconds", ttl, r.MaxTTL),
				})
			}
		}
	}
	return issues
}

// CDNBehaviors checks every distribution's behavior table.
type CDNBehaviors struct{}

func (r CDNBehaviors) ID() string { return "SAW005" }
func (r CDNBehaviors) Description() string {
	return "CDN behaviors are unique, cached by policy and HTTPS-only"
}

var secureViewer = map[string]bool{
	routing.RedirectToHTTPS: true,
	routing.HTTPSOnly:       true,
}

func (r CDNBehaviors) Check(t *Target) []Issue {
	var issues []Issue
	for _, s := range t.Stacks {
		for _, id := range resources(s.Template, "AWS::CloudFront::Distribution") {
			report := func(msg string) {
				issues = append(issues, Issue{Rule: r.ID(), Severity: SeverityError, Stack: s.Name, Resource: id, Message: msg})
			}
			cfg := obj(s.Template.Resources[id].Properties["DistributionConfig"])

			check := func(name string, b map[string]any) {
				if _, ok := b["CachePolicyId"]; !ok {
					report(name + " has no cache policy")
				}
				if v, _ := str(b["ViewerProtocolPolicy"]); !secureViewer[v] {
					report(fmt.Sprintf("%s allows plain HTTP (%q)", name, v))
				}
			}
			if def := obj(cfg["DefaultCacheBehavior"]); def != nil {
				check("default behavior", def)
			} else {
				report("has no default behavior")
			}

			seen := map[string]bool{}
			for _, b := range list(cfg["CacheBehaviors"]) {
				pattern, _ := str(obj(b)["PathPattern"])
				if err := routing.ValidatePattern(pattern); err != nil {
					report(err.Error())
				}
				if seen[pattern] {
					report("duplicate path pattern " + pattern)
				}
				seen[pattern] = true
				check("behavior "+pattern, obj(b))
			}
		}
	}
	return issues
}

// SingleBucketWriter checks that each bucket has exactly one writer.
type SingleBucketWriter struct{}

func (r SingleBucketWriter) ID() string { return "SAW006" }
func (r SingleBucketWriter) Description() string {
	return "Bucket write access is granted to exactly one role"
}

var writeActions = []string{"s3:PutObject", "s3:DeleteObject"}

func (r SingleBucketWriter) Check(t *Target) []Issue {
	var issues []Issue
	for _, s := range t.Stacks {
		writers := map[string]map[string]bool{}
		for _, id := range resources(s.Template, "AWS::S3::Bucket") {
			writers[id] = map[string]bool{}
		}
		grant := func(doc any, grantees ...string) {
			for _, st := range list(obj(doc)["Statement"]) {
				if effect, _ := str(obj(st)["Effect"]); effect != "Allow" || !writes(obj(st)["Action"]) {
					continue
				}
				for bucket := range targets(obj(st)["Resource"]) {
					if w, ok := writers[bucket]; ok {
						for _, g := range grantees {
							w[g] = true
						}
					}
				}
			}
		}

		for _, id := range resources(s.Template, "AWS::IAM::Policy") {
			props := s.Template.Resources[id].Properties
			grant(props["PolicyDocument"], sortedKeys(targets(props["Roles"]))...)
		}
		for _, id := range resources(s.Template, "AWS::IAM::Role") {
			for _, p := range list(s.Template.Resources[id].Properties["Policies"]) {
				grant(obj(p)["PolicyDocument"], id)
			}
		}
		for _, id := range resources(s.Template, "AWS::S3::BucketPolicy") {
			props := s.Template.Resources[id].Properties
			grant(props["PolicyDocument"], "bucket policy "+id)
		}

		for _, bucket := range sortedKeys(writers) {
			w := writers[bucket]
			switch {
			case len(w) > 1:
				issues = append(issues, Issue{
					Rule:     r.ID(),
					Severity: SeverityError,
					Stack:    s.Name,
					Resource: bucket,
					Message:  "write access granted to " + strings.Join(sortedKeys(w), ", "),
				})
			case len(w) == 0:
				issues = append(issues, Issue{
					Rule:     r.ID(),
					Severity: SeverityWarning,
					Stack:    s.Name,
					Resource: bucket,
					Message:  "no role can write to the bucket",
				})
			}
		}
	}
	return issues
}

func writes(actions any) bool {
	values := list(actions)
	if s, ok := str(actions); ok {
		values = []any{s}
	}
	for _, a := range values {
		pattern, _ := str(a)
		for _, w := range writeActions {
			if glob.Glob(pattern, w) {
				return true
			}
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// GlobalCertificate checks that CloudFront certificates are issued in
// us-east-1, following parameters back to the producing stack.
type GlobalCertificate struct{}

func (r GlobalCertificate) ID() string { return "SAW007" }
func (r GlobalCertificate) Description() string {
	return "The CloudFront certificate comes from a us-east-1 stack"
}

func (r GlobalCertificate) Check(t *Target) []Issue {
	var issues []Issue
	regions := map[string]string{}
	for _, s := range t.Stacks {
		regions[s.Name] = s.Region
	}

	for _, s := range t.Stacks {
		for _, id := range resources(s.Template, "AWS::CloudFront::Distribution") {
			report := func(sev Severity, msg string) {
				issues = append(issues, Issue{Rule: r.ID(), Severity: sev, Stack: s.Name, Resource: id, Message: msg})
			}
			arn := path(s.Template.Resources[id].Properties, "DistributionConfig", "ViewerCertificate", "AcmCertificateArn")
			if arn == nil {
				continue
			}
			if literal, ok := str(arn); ok {
				if parts := strings.Split(literal, ":"); len(parts) < 4 || parts[3] != certificate.CloudFrontRegion {
					report(SeverityError, "certificate "+literal+" is not in "+certificate.CloudFrontRegion)
				}
				continue
			}

			for target := range targets(arn) {
				if _, isParam := s.Template.Parameters[target]; !isParam {
					if s.Region != certificate.CloudFrontRegion {
						report(SeverityError, fmt.Sprintf("certificate %s is declared in %s", target, s.Region))
					}
					continue
				}
				producer := ""
				for _, ref := range t.References {
					if ref.Consumer == s.Name && ref.Parameter == target {
						producer = ref.Producer
					}
				}
				switch {
				case producer == "":
					report(SeverityWarning, "certificate parameter "+target+" has no producing stack")
				case regions[producer] != certificate.CloudFrontRegion:
					report(SeverityError, fmt.Sprintf("certificate comes from %s in %s", producer, regions[producer]))
				}
			}
		}
	}
	return issues
}

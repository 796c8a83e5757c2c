package validation

import (
	"fmt"
	"sort"
	"strings"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/app"
)

// ResourceSchema is the offline subset of a CloudFormation resource schema.
type ResourceSchema struct {
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema constrains one top-level property.
type PropertySchema struct {
	Type          string
	AllowedValues []string
}

// resourceSchemas covers the resource types the components declare.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::CertificateManager::Certificate": {
		Required: []string{"DomainName"},
		Properties: map[string]PropertySchema{
			"DomainName":              {Type: "String"},
			"ValidationMethod":        {Type: "String", AllowedValues: []string{"DNS", "EMAIL"}},
			"DomainValidationOptions": {Type: "List"},
		},
	},
	"AWS::CloudFront::Distribution":        {Required: []string{"DistributionConfig"}},
	"AWS::CloudFront::OriginAccessControl": {Required: []string{"OriginAccessControlConfig"}},
	"AWS::EC2::EIP":                        {},
	"AWS::EC2::InternetGateway":            {},
	"AWS::EC2::NatGateway":                 {Required: []string{"SubnetId"}},
	"AWS::EC2::Route":                      {Required: []string{"RouteTableId"}},
	"AWS::EC2::RouteTable":                 {Required: []string{"VpcId"}},
	"AWS::EC2::SecurityGroup":              {Required: []string{"GroupDescription"}},
	"AWS::EC2::SecurityGroupIngress": {
		Required: []string{"IpProtocol"},
		Properties: map[string]PropertySchema{
			"FromPort": {Type: "Integer"},
			"ToPort":   {Type: "Integer"},
		},
	},
	"AWS::EC2::Subnet": {
		Required: []string{"VpcId"},
		Properties: map[string]PropertySchema{
			"MapPublicIpOnLaunch": {Type: "Boolean"},
		},
	},
	"AWS::EC2::SubnetRouteTableAssociation": {Required: []string{"RouteTableId", "SubnetId"}},
	"AWS::EC2::VPC":                         {Properties: map[string]PropertySchema{"CidrBlock": {Type: "String"}}},
	"AWS::EC2::VPCGatewayAttachment":        {Required: []string{"VpcId"}},
	"AWS::ECS::Cluster":                     {},
	"AWS::ECS::Service": {
		Properties: map[string]PropertySchema{
			"LaunchType":   {Type: "String", AllowedValues: []string{"EC2", "FARGATE", "EXTERNAL"}},
			"DesiredCount": {Type: "Integer"},
		},
	},
	"AWS::ECS::TaskDefinition": {
		Properties: map[string]PropertySchema{
			"ContainerDefinitions":    {Type: "List"},
			"RequiresCompatibilities": {Type: "List"},
		},
	},
	"AWS::ElasticLoadBalancingV2::Listener": {
		Required: []string{"DefaultActions", "LoadBalancerArn"},
		Properties: map[string]PropertySchema{
			"Protocol": {Type: "String", AllowedValues: []string{"HTTP", "HTTPS", "TCP", "TLS", "UDP", "TCP_UDP", "GENEVE"}},
			"Port":     {Type: "Integer"},
		},
	},
	"AWS::ElasticLoadBalancingV2::ListenerRule": {
		Required: []string{"Actions", "Conditions", "Priority"},
		Properties: map[string]PropertySchema{
			"Priority": {Type: "Integer"},
		},
	},
	"AWS::ElasticLoadBalancingV2::LoadBalancer": {
		Properties: map[string]PropertySchema{
			"Scheme": {Type: "String", AllowedValues: []string{"internet-facing", "internal"}},
		},
	},
	"AWS::ElasticLoadBalancingV2::TargetGroup": {
		Properties: map[string]PropertySchema{
			"TargetType": {Type: "String", AllowedValues: []string{"instance", "ip", "lambda", "alb"}},
		},
	},
	"AWS::IAM::Policy":     {Required: []string{"PolicyDocument", "PolicyName"}},
	"AWS::IAM::Role":       {Required: []string{"AssumeRolePolicyDocument"}},
	"AWS::Logs::LogGroup":  {Properties: map[string]PropertySchema{"RetentionInDays": {Type: "Integer"}}},
	"AWS::RDS::DBCluster":  {Required: []string{"Engine"}},
	"AWS::RDS::DBInstance": {Required: []string{"DBInstanceClass"}},
	"AWS::RDS::DBSubnetGroup": {
		Required: []string{"DBSubnetGroupDescription", "SubnetIds"},
		Properties: map[string]PropertySchema{
			"SubnetIds": {Type: "List"},
		},
	},
	"AWS::Route53::RecordSet": {
		Required: []string{"Name", "Type"},
		Properties: map[string]PropertySchema{
			"Type": {Type: "String", AllowedValues: []string{"A", "AAAA", "CAA", "CNAME", "DS", "MX", "NAPTR", "NS", "PTR", "SOA", "SPF", "SRV", "TXT"}},
		},
	},
	"AWS::S3::Bucket":                             {},
	"AWS::S3::BucketPolicy":                       {Required: []string{"Bucket", "PolicyDocument"}},
	"AWS::SecretsManager::Secret":                 {},
	"AWS::SecretsManager::SecretTargetAttachment": {Required: []string{"SecretId", "TargetId", "TargetType"}},
}

// CheckSchema validates a template offline against the known resource
// schemas. Unknown resource types are warnings.
func CheckSchema(name string, template *wetwire.Template) CfnLintResult {
	result := CfnLintResult{
		Template:      name,
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	ids := make([]string, 0, len(template.Resources))
	for id := range template.Resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		errs, warns := checkResource(id, template.Resources[id])
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warns...)
	}
	result.Passed = len(result.Errors) == 0
	return result
}

// CheckAssemblySchema runs CheckSchema over every stack.
func CheckAssemblySchema(a *app.Assembly) *Result {
	res := &Result{Passed: true}
	for _, art := range a.Stacks {
		r := CheckSchema(app.TemplateFile(art.Stack.Name, "json"), art.Template)
		res.Templates = append(res.Templates, r)
		if !r.Passed {
			res.Passed = false
		}
	}
	return res
}

func checkResource(id string, resource wetwire.ResourceDef) (errs, warns []string) {
	if !isValidResourceType(resource.Type) {
		errs = append(errs, fmt.Sprintf("%s: invalid resource type format: %s", id, resource.Type))
		return errs, warns
	}

	schema, ok := resourceSchemas[resource.Type]
	if !ok {
		warns = append(warns, fmt.Sprintf("%s: unknown resource type: %s (schema not available for validation)", id, resource.Type))
		return errs, warns
	}

	for _, required := range schema.Required {
		if _, exists := resource.Properties[required]; !exists {
			errs = append(errs, fmt.Sprintf("%s: missing required property: %s", id, required))
		}
	}

	props := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		props = append(props, name)
	}
	sort.Strings(props)
	for _, name := range props {
		value, exists := resource.Properties[name]
		if !exists {
			continue
		}
		errs = append(errs, checkProperty(id, name, value, schema.Properties[name])...)
	}
	return errs, warns
}

// isValidResourceType accepts AWS::Service::Resource and Custom::*.
func isValidResourceType(resourceType string) bool {
	if strings.HasPrefix(resourceType, "Custom::") {
		return true
	}
	parts := strings.Split(resourceType, "::")
	return len(parts) == 3 && parts[0] == "AWS" && parts[1] != "" && parts[2] != ""
}

func checkProperty(id, property string, value any, schema PropertySchema) []string {
	if isIntrinsic(value) {
		return nil
	}
	var errs []string
	if !isValidType(value, schema.Type) {
		errs = append(errs, fmt.Sprintf("%s: %s: expected type %s", id, property, schema.Type))
	}
	if s, ok := value.(string); ok && len(schema.AllowedValues) > 0 && !contains(schema.AllowedValues, s) {
		errs = append(errs, fmt.Sprintf("%s: %s: value %q not in allowed values: %v", id, property, s, schema.AllowedValues))
	}
	return errs
}

func isIntrinsic(value any) bool {
	m, ok := value.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	for key := range m {
		return key == "Ref" || strings.HasPrefix(key, "Fn::")
	}
	return false
}

// isValidType checks a normalized value, where every number is a float64.
func isValidType(value any, expectedType string) bool {
	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		switch v := value.(type) {
		case float64:
			return v == float64(int64(v))
		case int, int32, int64:
			return true
		}
		return false
	case "Boolean":
		_, ok := value.(bool)
		return ok
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

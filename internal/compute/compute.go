// Package compute declares the Fargate service running the CMS, the
// application load balancer in front of it and the listener rules that keep
// the admin panel behind an IP allow-list.
package compute

import (
	"errors"
	"fmt"
	"net/netip"
	"sort"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/certificate"
	"github.com/lex00/strapi-aws-go/internal/cmsenv"
	"github.com/lex00/strapi-aws-go/internal/database"
	"github.com/lex00/strapi-aws-go/internal/dns"
	"github.com/lex00/strapi-aws-go/internal/network"
	"github.com/lex00/strapi-aws-go/internal/routing"
	"github.com/lex00/strapi-aws-go/internal/secrets"
	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/internal/storage"
	"github.com/lex00/strapi-aws-go/intrinsics"
	"github.com/lex00/strapi-aws-go/resources/ec2"
	"github.com/lex00/strapi-aws-go/resources/ecs"
	"github.com/lex00/strapi-aws-go/resources/iam"
	"github.com/lex00/strapi-aws-go/resources/logs"
)

const (
	// ContainerName is the CMS container in the task definition.
	ContainerName = "web"
	// ImageParameter is the template parameter carrying the image URI.
	ImageParameter = "ContainerImageUri"
	// HealthCheckPath is served by the CMS without authentication.
	HealthCheckPath = "/_health"
	// HTTPSPort is the load balancer listener port.
	HTTPSPort = 443

	taskExecutionPolicy = "arn:${AWS::Partition}:iam::aws:policy/service-role/AmazonECSTaskExecutionRolePolicy"
)

var ErrMissingInput = errors.New("compute: missing input")

// Options are the service inputs.
type Options struct {
	AppName            string
	Network            *network.Topology
	Database           *database.Cluster
	StrapiSecret       *secrets.Binding
	Bucket             *storage.Bucket
	Certificate        *certificate.Certificate
	HostedZoneID       any
	DomainName         string
	LoadBalancerDomain string
	AdminAllowList     []netip.Prefix

	// Image overrides the ContainerImageUri parameter.
	Image any

	Cpu          int
	Memory       int
	DesiredCount int
}

// Service is the declared compute tier.
type Service struct {
	Cluster        *stack.Node
	LogGroup       *stack.Node
	ExecutionRole  *stack.Node
	TaskRole       *stack.Node
	TaskDefinition *stack.Node
	LoadBalancer   *stack.Node
	TargetGroup    *stack.Node
	Listener       *stack.Node
	Rules          []*stack.Node
	Node           *stack.Node
	Record         *dns.Record
	Access         *routing.AccessPolicy

	// Environment holds the plain container variables.
	Environment map[string]any
	// SecretNames are the variables injected from Secrets Manager.
	SecretNames []string
}

func (o *Options) validate() error {
	switch {
	case o.AppName == "":
		return fmt.Errorf("%w: application name", ErrMissingInput)
	case o.Network == nil:
		return fmt.Errorf("%w: network", ErrMissingInput)
	case o.Database == nil:
		return fmt.Errorf("%w: database", ErrMissingInput)
	case o.StrapiSecret == nil:
		return fmt.Errorf("%w: strapi secret", ErrMissingInput)
	case o.Bucket == nil:
		return fmt.Errorf("%w: bucket", ErrMissingInput)
	case o.Certificate == nil:
		return fmt.Errorf("%w: load balancer certificate", ErrMissingInput)
	case o.DomainName == "" || o.LoadBalancerDomain == "":
		return fmt.Errorf("%w: domain names", ErrMissingInput)
	}
	if o.Cpu == 0 {
		o.Cpu = 256
	}
	if o.Memory == 0 {
		o.Memory = 512
	}
	if o.DesiredCount == 0 {
		o.DesiredCount = 1
	}
	return nil
}

// New declares the service into s.
func New(s *stack.Stack, id string, opts Options) (*Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	access, err := routing.AdminPolicy(opts.AdminAllowList)
	if err != nil {
		return nil, err
	}
	subnets, err := opts.Network.Placement(network.PrivateEgress, id)
	if err != nil {
		return nil, err
	}

	svc := &Service{Access: access}
	svc.Environment = environment(opts)
	secretRefs := secretEnvironment(opts)
	for _, ref := range secretRefs {
		svc.SecretNames = append(svc.SecretNames, ref.Name)
	}
	if err := cmsenv.ForCloud(svc.Environment, svc.SecretNames); err != nil {
		return nil, err
	}

	image := opts.Image
	if image == nil {
		image = s.AddParameter(ImageParameter, wetwire.Parameter{
			Description: "URI of the CMS container image",
		}).Ref()
	}

	svc.Cluster = s.Add(id+"Cluster", &ecs.Cluster{
		ClusterSettings: []ecs.Cluster_ClusterSettings{{Name: "containerInsights", Value: "enabled"}},
	})
	svc.LogGroup = s.Add(id+"LogGroup", &logs.LogGroup{RetentionInDays: 30})

	svc.ExecutionRole = s.Add(id+"ExecutionRole", &iam.Role{
		AssumeRolePolicyDocument: intrinsics.AssumeRole("ecs-tasks.amazonaws.com"),
		ManagedPolicyArns:        []any{intrinsics.Sub{String: taskExecutionPolicy}},
	})
	execPolicy := s.Add(id+"ExecutionRolePolicy", &iam.Policy{
		PolicyName: id + "ExecutionRolePolicy",
		PolicyDocument: intrinsics.NewPolicyDocument(
			opts.Database.Secret().GrantRead(),
			opts.StrapiSecret.GrantRead(),
		),
		Roles: []any{svc.ExecutionRole.Ref()},
	})

	svc.TaskRole = s.Add(id+"TaskRole", &iam.Role{
		AssumeRolePolicyDocument: intrinsics.AssumeRole("ecs-tasks.amazonaws.com"),
	})
	bucketGrant, err := opts.Bucket.GrantReadWrite(svc.TaskRole)
	if err != nil {
		return nil, err
	}
	taskPolicy := s.Add(id+"TaskRolePolicy", &iam.Policy{
		PolicyName: id + "TaskRolePolicy",
		PolicyDocument: intrinsics.NewPolicyDocument(
			append([]intrinsics.PolicyStatement{opts.StrapiSecret.GrantRead()}, bucketGrant...)...,
		),
		Roles: []any{svc.TaskRole.Ref()},
	})

	svc.TaskDefinition = s.Add(id+"TaskDefinition", &ecs.TaskDefinition{
		Family:                  opts.AppName,
		Cpu:                     fmt.Sprint(opts.Cpu),
		Memory:                  fmt.Sprint(opts.Memory),
		NetworkMode:             "awsvpc",
		RequiresCompatibilities: []string{"FARGATE"},
		ExecutionRoleArn:        svc.ExecutionRole.GetAtt("Arn"),
		TaskRoleArn:             svc.TaskRole.GetAtt("Arn"),
		RuntimePlatform: &ecs.TaskDefinition_RuntimePlatform{
			CpuArchitecture:       "X86_64",
			OperatingSystemFamily: "LINUX",
		},
		ContainerDefinitions: []ecs.TaskDefinition_ContainerDefinition{{
			Name:      ContainerName,
			Image:     image,
			Essential: intrinsics.BoolPtr(true),
			PortMappings: []ecs.TaskDefinition_PortMapping{{
				ContainerPort: cmsenv.ListenPort,
				Protocol:      "tcp",
			}},
			Environment: keyValues(svc.Environment),
			Secrets:     secretRefs,
			LogConfiguration: &ecs.TaskDefinition_LogConfiguration{
				LogDriver: "awslogs",
				Options: map[string]any{
					"awslogs-group":         svc.LogGroup.Ref(),
					"awslogs-stream-prefix": opts.AppName,
					"awslogs-region":        intrinsics.AWS_REGION,
				},
			},
		}},
	})

	lbSG, serviceSG := securityGroups(s, id, opts.Network)
	if err := svc.declareLoadBalancer(s, id, opts, lbSG); err != nil {
		return nil, err
	}

	svc.Node = s.Add(id+"Service", &ecs.Service{
		Cluster:        svc.Cluster.Ref(),
		TaskDefinition: svc.TaskDefinition.Ref(),
		LaunchType:     "FARGATE",
		DesiredCount:   intrinsics.IntPtr(opts.DesiredCount),
		NetworkConfiguration: &ecs.Service_NetworkConfiguration{
			AwsvpcConfiguration: &ecs.Service_AwsVpcConfiguration{
				Subnets:        subnets,
				SecurityGroups: []any{serviceSG.GetAtt("GroupId")},
				AssignPublicIp: "DISABLED",
			},
		},
		LoadBalancers: []ecs.Service_LoadBalancer{{
			ContainerName:  ContainerName,
			ContainerPort:  cmsenv.ListenPort,
			TargetGroupArn: svc.TargetGroup.Ref(),
		}},
		HealthCheckGracePeriodSeconds: 60,
		DeploymentConfiguration: &ecs.Service_DeploymentConfiguration{
			MaximumPercent:        200,
			MinimumHealthyPercent: 50,
		},
		EnableECSManagedTags: true,
		PropagateTags:        "SERVICE",
	}).DependsOn(append([]*stack.Node{svc.Listener, execPolicy, taskPolicy}, svc.Rules...)...)

	return svc, nil
}

func environment(opts Options) map[string]any {
	return map[string]any{
		cmsenv.DatabaseClient: cmsenv.ClientPostgres,
		cmsenv.DatabaseHost:   opts.Database.Endpoint(),
		cmsenv.DatabasePort:   opts.Database.Port(),
		cmsenv.DatabaseName:   opts.Database.Name,
		cmsenv.Host:           cmsenv.ListenHost,
		cmsenv.Port:           fmt.Sprint(cmsenv.ListenPort),
		cmsenv.AWSBucket:      opts.Bucket.Name(),
		cmsenv.AWSRegion:      intrinsics.AWS_REGION,
		cmsenv.CDNURL:         opts.DomainName,
		cmsenv.CDNRootPath:    cmsenv.UploadsRoot,
	}
}

func secretEnvironment(opts Options) []ecs.TaskDefinition_Secret {
	db := opts.Database.Secret()
	out := []ecs.TaskDefinition_Secret{
		{Name: cmsenv.DatabaseUsername, ValueFrom: db.Field("username").ValueFrom()},
		{Name: cmsenv.DatabasePassword, ValueFrom: db.Field("password").ValueFrom()},
	}
	key := opts.StrapiSecret.Field(secrets.StrapiKey)
	for _, name := range secrets.StrapiKeyConsumers {
		out = append(out, ecs.TaskDefinition_Secret{Name: name, ValueFrom: key.ValueFrom()})
	}
	return out
}

func keyValues(env map[string]any) []ecs.TaskDefinition_KeyValuePair {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ecs.TaskDefinition_KeyValuePair, len(names))
	for i, name := range names {
		out[i] = ecs.TaskDefinition_KeyValuePair{Name: name, Value: env[name]}
	}
	return out
}

func securityGroups(s *stack.Stack, id string, topo *network.Topology) (lb, service *stack.Node) {
	lb = s.Add(id+"LoadBalancerSecurityGroup", &ec2.SecurityGroup{
		GroupDescription: "HTTPS from anywhere to the load balancer",
		VpcId:            topo.VPC.Ref(),
		SecurityGroupIngress: []ec2.SecurityGroup_Ingress{
			{IpProtocol: "tcp", FromPort: HTTPSPort, ToPort: HTTPSPort, CidrIp: "0.0.0.0/0", Description: "HTTPS IPv4"},
			{IpProtocol: "tcp", FromPort: HTTPSPort, ToPort: HTTPSPort, CidrIpv6: "::/0", Description: "HTTPS IPv6"},
		},
	})
	service = s.Add(id+"ServiceSecurityGroup", &ec2.SecurityGroup{
		GroupDescription: "CMS port from the load balancer only",
		VpcId:            topo.VPC.Ref(),
		SecurityGroupIngress: []ec2.SecurityGroup_Ingress{{
			IpProtocol:            "tcp",
			FromPort:              cmsenv.ListenPort,
			ToPort:                cmsenv.ListenPort,
			SourceSecurityGroupId: lb.GetAtt("GroupId"),
			Description:           "CMS from load balancer",
		}},
	})
	return lb, service
}

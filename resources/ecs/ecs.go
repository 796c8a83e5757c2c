// Package ecs provides the AWS::ECS resource types for Fargate services.
package ecs

import "github.com/lex00/strapi-aws-go/intrinsics"

// Cluster is AWS::ECS::Cluster.
type Cluster struct {
	ClusterName     any                       `json:"ClusterName,omitempty"`
	ClusterSettings []Cluster_ClusterSettings `json:"ClusterSettings,omitempty"`
	Tags            []intrinsics.Tag          `json:"Tags,omitempty"`
}

func (Cluster) ResourceType() string { return "AWS::ECS::Cluster" }

type Cluster_ClusterSettings struct {
	Name  string `json:"Name,omitempty"`
	Value string `json:"Value,omitempty"`
}

// TaskDefinition is AWS::ECS::TaskDefinition. Ref returns the ARN.
type TaskDefinition struct {
	Family                  any                                  `json:"Family,omitempty"`
	Cpu                     string                               `json:"Cpu,omitempty"`
	Memory                  string                               `json:"Memory,omitempty"`
	NetworkMode             string                               `json:"NetworkMode,omitempty"`
	RequiresCompatibilities []string                             `json:"RequiresCompatibilities,omitempty"`
	ExecutionRoleArn        any                                  `json:"ExecutionRoleArn,omitempty"`
	TaskRoleArn             any                                  `json:"TaskRoleArn,omitempty"`
	ContainerDefinitions    []TaskDefinition_ContainerDefinition `json:"ContainerDefinitions,omitempty"`
	RuntimePlatform         *TaskDefinition_RuntimePlatform      `json:"RuntimePlatform,omitempty"`
	Tags                    []intrinsics.Tag                     `json:"Tags,omitempty"`
}

func (TaskDefinition) ResourceType() string { return "AWS::ECS::TaskDefinition" }

type TaskDefinition_ContainerDefinition struct {
	Name             string                           `json:"Name,omitempty"`
	Image            any                              `json:"Image,omitempty"`
	Essential        *bool                            `json:"Essential,omitempty"`
	PortMappings     []TaskDefinition_PortMapping     `json:"PortMappings,omitempty"`
	Environment      []TaskDefinition_KeyValuePair    `json:"Environment,omitempty"`
	Secrets          []TaskDefinition_Secret          `json:"Secrets,omitempty"`
	LogConfiguration *TaskDefinition_LogConfiguration `json:"LogConfiguration,omitempty"`
}

type TaskDefinition_PortMapping struct {
	ContainerPort int    `json:"ContainerPort,omitempty"`
	Protocol      string `json:"Protocol,omitempty"`
}

type TaskDefinition_KeyValuePair struct {
	Name  string `json:"Name,omitempty"`
	Value any    `json:"Value,omitempty"`
}

// TaskDefinition_Secret maps an environment name to a Secrets Manager
// reference that the agent resolves when the container starts.
type TaskDefinition_Secret struct {
	Name      string `json:"Name,omitempty"`
	ValueFrom any    `json:"ValueFrom,omitempty"`
}

type TaskDefinition_LogConfiguration struct {
	LogDriver string         `json:"LogDriver,omitempty"`
	Options   map[string]any `json:"Options,omitempty"`
}

type TaskDefinition_RuntimePlatform struct {
	CpuArchitecture       string `json:"CpuArchitecture,omitempty"`
	OperatingSystemFamily string `json:"OperatingSystemFamily,omitempty"`
}

// Service is AWS::ECS::Service.
type Service struct {
	Cluster                       any                              `json:"Cluster,omitempty"`
	ServiceName                   any                              `json:"ServiceName,omitempty"`
	TaskDefinition                any                              `json:"TaskDefinition,omitempty"`
	LaunchType                    string                           `json:"LaunchType,omitempty"`
	DesiredCount                  *int                             `json:"DesiredCount,omitempty"`
	NetworkConfiguration          *Service_NetworkConfiguration    `json:"NetworkConfiguration,omitempty"`
	LoadBalancers                 []Service_LoadBalancer           `json:"LoadBalancers,omitempty"`
	HealthCheckGracePeriodSeconds int                              `json:"HealthCheckGracePeriodSeconds,omitempty"`
	DeploymentConfiguration       *Service_DeploymentConfiguration `json:"DeploymentConfiguration,omitempty"`
	EnableECSManagedTags          bool                             `json:"EnableECSManagedTags,omitempty"`
	PropagateTags                 string                           `json:"PropagateTags,omitempty"`
	Tags                          []intrinsics.Tag                 `json:"Tags,omitempty"`
}

func (Service) ResourceType() string { return "AWS::ECS::Service" }

type Service_NetworkConfiguration struct {
	AwsvpcConfiguration *Service_AwsVpcConfiguration `json:"AwsvpcConfiguration,omitempty"`
}

type Service_AwsVpcConfiguration struct {
	Subnets        []any  `json:"Subnets,omitempty"`
	SecurityGroups []any  `json:"SecurityGroups,omitempty"`
	AssignPublicIp string `json:"AssignPublicIp,omitempty"`
}

type Service_LoadBalancer struct {
	ContainerName  string `json:"ContainerName,omitempty"`
	ContainerPort  int    `json:"ContainerPort,omitempty"`
	TargetGroupArn any    `json:"TargetGroupArn,omitempty"`
}

type Service_DeploymentConfiguration struct {
	MaximumPercent        int `json:"MaximumPercent,omitempty"`
	MinimumHealthyPercent int `json:"MinimumHealthyPercent,omitempty"`
}

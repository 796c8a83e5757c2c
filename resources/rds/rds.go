// Package rds provides the AWS::RDS resource types for Aurora clusters.
package rds

import "github.com/lex00/strapi-aws-go/intrinsics"

// DBSubnetGroup is AWS::RDS::DBSubnetGroup.
type DBSubnetGroup struct {
	DBSubnetGroupDescription string           `json:"DBSubnetGroupDescription,omitempty"`
	SubnetIds                []any            `json:"SubnetIds,omitempty"`
	Tags                     []intrinsics.Tag `json:"Tags,omitempty"`
}

func (DBSubnetGroup) ResourceType() string { return "AWS::RDS::DBSubnetGroup" }

// DBCluster is AWS::RDS::DBCluster. Attributes: Endpoint.Address,
// Endpoint.Port, ReadEndpoint.Address, DBClusterArn.
type DBCluster struct {
	Engine                           string                                      `json:"Engine,omitempty"`
	EngineVersion                    string                                      `json:"EngineVersion,omitempty"`
	DatabaseName                     any                                         `json:"DatabaseName,omitempty"`
	MasterUsername                   any                                         `json:"MasterUsername,omitempty"`
	MasterUserPassword               any                                         `json:"MasterUserPassword,omitempty"`
	DBSubnetGroupName                any                                         `json:"DBSubnetGroupName,omitempty"`
	VpcSecurityGroupIds              []any                                       `json:"VpcSecurityGroupIds,omitempty"`
	Port                             int                                         `json:"Port,omitempty"`
	StorageEncrypted                 bool                                        `json:"StorageEncrypted,omitempty"`
	BackupRetentionPeriod            int                                         `json:"BackupRetentionPeriod,omitempty"`
	CopyTagsToSnapshot               bool                                        `json:"CopyTagsToSnapshot,omitempty"`
	ServerlessV2ScalingConfiguration *DBCluster_ServerlessV2ScalingConfiguration `json:"ServerlessV2ScalingConfiguration,omitempty"`
	Tags                             []intrinsics.Tag                            `json:"Tags,omitempty"`
}

func (DBCluster) ResourceType() string { return "AWS::RDS::DBCluster" }

// DBCluster_ServerlessV2ScalingConfiguration bounds Aurora capacity units.
type DBCluster_ServerlessV2ScalingConfiguration struct {
	MinCapacity float64 `json:"MinCapacity,omitempty"`
	MaxCapacity float64 `json:"MaxCapacity,omitempty"`
}

// DBInstance is AWS::RDS::DBInstance.
type DBInstance struct {
	DBClusterIdentifier any              `json:"DBClusterIdentifier,omitempty"`
	DBInstanceClass     string           `json:"DBInstanceClass,omitempty"`
	Engine              string           `json:"Engine,omitempty"`
	PubliclyAccessible  *bool            `json:"PubliclyAccessible,omitempty"`
	Tags                []intrinsics.Tag `json:"Tags,omitempty"`
}

func (DBInstance) ResourceType() string { return "AWS::RDS::DBInstance" }

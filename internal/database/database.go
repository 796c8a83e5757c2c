// Package database declares the Aurora PostgreSQL cluster the CMS stores its
// content in. The cluster lives in the isolated tier and is only reachable
// from inside the VPC.
package database

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/lex00/strapi-aws-go/internal/network"
	"github.com/lex00/strapi-aws-go/internal/secrets"
	"github.com/lex00/strapi-aws-go/internal/stack"
	"github.com/lex00/strapi-aws-go/intrinsics"
	"github.com/lex00/strapi-aws-go/resources/ec2"
	"github.com/lex00/strapi-aws-go/resources/rds"
	"github.com/lex00/strapi-aws-go/resources/secretsmanager"
)

// ErrUnreachable is returned by Probe for sources the cluster's security
// group does not admit.
var ErrUnreachable = errors.New("database unreachable from source")

const (
	Engine        = "aurora-postgresql"
	EngineVersion = "16.4"
	DefaultPort   = 5432
	MasterUser    = "postgres"

	// excludedPasswordChars are characters RDS rejects in master passwords
	// plus those that break connection strings.
	excludedPasswordChars = " %+~`#$&*()|[]{}:;<>?!'/@\"\\"
)

// Options configure the cluster.
type Options struct {
	Network      *network.Topology
	DatabaseName string
	Port         int
	MinCapacity  float64
	MaxCapacity  float64
}

// Cluster is the declared database.
type Cluster struct {
	Node          *stack.Node
	Writer        *stack.Node
	SecurityGroup *stack.Node
	SubnetGroup   *stack.Node
	Name          string

	secret  *secrets.Binding
	port    int
	allowed []netip.Prefix
	topo    *network.Topology
}

// New declares the cluster, its credentials and its network placement.
func New(s *stack.Stack, id string, opts Options) (*Cluster, error) {
	if opts.Network == nil {
		return nil, fmt.Errorf("database %s: network is required", id)
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.MinCapacity == 0 {
		opts.MinCapacity = 0.5
	}
	if opts.MaxCapacity == 0 {
		opts.MaxCapacity = 4
	}

	subnets, err := opts.Network.Placement(network.Isolated, id)
	if err != nil {
		return nil, err
	}

	c := &Cluster{
		Name:    opts.DatabaseName,
		port:    opts.Port,
		allowed: []netip.Prefix{opts.Network.CIDR},
		topo:    opts.Network,
	}

	c.secret = secrets.Generate(s, id+"Secret", secrets.GenerateOptions{
		Description:       "Master credentials for " + s.Name + "/" + id,
		Template:          fmt.Sprintf(`{"username":%q}`, MasterUser),
		GenerateKey:       "password",
		ExcludeCharacters: excludedPasswordChars,
		Length:            30,
	})

	c.SubnetGroup = s.Add(id+"SubnetGroup", &rds.DBSubnetGroup{
		DBSubnetGroupDescription: "Isolated subnets for " + id,
		SubnetIds:                subnets,
	})

	c.SecurityGroup = s.Add(id+"SecurityGroup", &ec2.SecurityGroup{
		GroupDescription: "Database access from inside the VPC",
		VpcId:            opts.Network.VPC.Ref(),
		SecurityGroupIngress: []ec2.SecurityGroup_Ingress{{
			IpProtocol:  "tcp",
			FromPort:    opts.Port,
			ToPort:      opts.Port,
			CidrIp:      opts.Network.VPC.GetAtt("CidrBlock"),
			Description: "PostgreSQL from VPC",
		}},
	})

	c.Node = s.Add(id, &rds.DBCluster{
		Engine:                Engine,
		EngineVersion:         EngineVersion,
		DatabaseName:          opts.DatabaseName,
		MasterUsername:        c.secret.Field("username").Resolve(),
		MasterUserPassword:    c.secret.Field("password").Resolve(),
		DBSubnetGroupName:     c.SubnetGroup.Ref(),
		VpcSecurityGroupIds:   []any{c.SecurityGroup.GetAtt("GroupId")},
		Port:                  opts.Port,
		StorageEncrypted:      true,
		BackupRetentionPeriod: 7,
		CopyTagsToSnapshot:    true,
		ServerlessV2ScalingConfiguration: &rds.DBCluster_ServerlessV2ScalingConfiguration{
			MinCapacity: opts.MinCapacity,
			MaxCapacity: opts.MaxCapacity,
		},
	}).SetDeletionPolicy(stack.Snapshot)

	c.Writer = s.Add(id+"Writer", &rds.DBInstance{
		DBClusterIdentifier: c.Node.Ref(),
		DBInstanceClass:     "db.serverless",
		Engine:              Engine,
		PubliclyAccessible:  intrinsics.BoolPtr(false),
	})

	s.Add(id+"SecretAttachment", &secretsmanager.SecretTargetAttachment{
		SecretId:   c.secret.ARN(),
		TargetId:   c.Node.Ref(),
		TargetType: "AWS::RDS::DBCluster",
	})

	return c, nil
}

// Endpoint is the writer hostname.
func (c *Cluster) Endpoint() any {
	return c.Node.GetAtt("Endpoint.Address")
}

// Port is the listener port as rendered by CloudFormation.
func (c *Cluster) Port() any {
	return c.Node.GetAtt("Endpoint.Port")
}

// PortNumber is the configured listener port.
func (c *Cluster) PortNumber() int {
	return c.port
}

// Secret is the master credential secret, with keys username and password.
func (c *Cluster) Secret() *secrets.Binding {
	return c.secret
}

// Probe reports whether a connection from src to the cluster port would be
// admitted: src must be inside the VPC and inside an allowed range.
func (c *Cluster) Probe(src netip.Addr) error {
	src = src.Unmap()
	if !c.topo.Contains(src) {
		return fmt.Errorf("%w: %s is outside %s", ErrUnreachable, src, c.topo.CIDR)
	}
	for _, p := range c.allowed {
		if p.Contains(src) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not admitted on port %d", ErrUnreachable, src, c.port)
}

// Package config loads strapi-aws.yaml and the command-line overrides on top
// of it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory.
const DefaultFile = "strapi-aws.yaml"

var (
	ErrInvalid   = errors.New("invalid configuration")
	ErrOpenAdmin = errors.New("admin allow-list admits every address")
)

var (
	labelPattern   = regexp.MustCompile(`^[a-z]([a-z0-9-]{0,38}[a-z0-9])?$`)
	regionPattern  = regexp.MustCompile(`^[a-z]{2}(-gov)?-[a-z]+-\d$`)
	accountPattern = regexp.MustCompile(`^\d{12}$`)
	zonePattern    = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}$`)
)

// Image describes the container image. The URI is what gets deployed; the
// rest is written to the manifest for whatever builds the image.
type Image struct {
	URI        string            `yaml:"uri,omitempty"`
	Directory  string            `yaml:"directory"`
	Dockerfile string            `yaml:"dockerfile"`
	Platform   string            `yaml:"platform"`
	BuildArgs  map[string]string `yaml:"buildArgs,omitempty"`
}

// VPC sizes the network.
type VPC struct {
	CIDR        string `yaml:"cidr"`
	MaxAZs      int    `yaml:"maxAzs"`
	NATGateways int    `yaml:"natGateways"`
}

// Service sizes the Fargate task.
type Service struct {
	Cpu          int `yaml:"cpu"`
	Memory       int `yaml:"memory"`
	DesiredCount int `yaml:"desiredCount"`
}

// Config is the full deployment configuration.
type Config struct {
	ApplicationName             string      `yaml:"applicationName"`
	HostedZoneDomainName        string      `yaml:"hostedZoneDomainName"`
	AuthorizedIPsForAdminAccess AddressList `yaml:"authorizedIPsForAdminAccess"`
	Account                     string      `yaml:"account,omitempty"`
	Region                      string      `yaml:"region"`
	HostedZoneID                string      `yaml:"hostedZoneId,omitempty"`
	Image                       Image       `yaml:"image"`
	VPC                         VPC         `yaml:"vpc"`
	Service                     Service     `yaml:"service"`
}

// AddressList decodes from a YAML sequence or a comma-separated string.
type AddressList []string

func (l *AddressList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var raw string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*l = SplitList(raw)
		return nil
	}
	var items []string
	if err := node.Decode(&items); err != nil {
		return err
	}
	*l = items
	return nil
}

// Default returns a configuration with every optional value filled in.
func Default() *Config {
	return &Config{
		Region: "us-east-1",
		Image: Image{
			Directory:  "../cms",
			Dockerfile: "Dockerfile.prod",
			Platform:   "linux/amd64",
			BuildArgs:  map[string]string{"NODE_ENV": "production"},
		},
		VPC:     VPC{CIDR: "10.0.0.0/24", MaxAZs: 2, NATGateways: 2},
		Service: Service{Cpu: 256, Memory: 512, DesiredCount: 1},
	}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs *multierror.Error
	add := func(format string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if !labelPattern.MatchString(c.ApplicationName) {
		add("applicationName %q must be a lowercase DNS label of at most 40 characters", c.ApplicationName)
	}
	if !zonePattern.MatchString(c.HostedZoneDomainName) {
		add("hostedZoneDomainName %q is not a domain name", c.HostedZoneDomainName)
	}
	if len(c.AuthorizedIPsForAdminAccess) == 0 {
		add("authorizedIPsForAdminAccess is empty")
	} else if _, err := c.AdminAllowList(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if c.Account != "" && !accountPattern.MatchString(c.Account) {
		add("account %q must be 12 digits", c.Account)
	}
	if !regionPattern.MatchString(c.Region) {
		add("region %q is not an AWS region", c.Region)
	}
	if _, err := netip.ParsePrefix(c.VPC.CIDR); err != nil {
		add("vpc.cidr: %v", err)
	}
	if c.VPC.MaxAZs < 1 || c.VPC.MaxAZs > 6 {
		add("vpc.maxAzs %d must be between 1 and 6", c.VPC.MaxAZs)
	}
	if c.VPC.NATGateways < 1 || c.VPC.NATGateways > c.VPC.MaxAZs {
		add("vpc.natGateways %d must be between 1 and vpc.maxAzs", c.VPC.NATGateways)
	}
	if !validFargateSize(c.Service.Cpu, c.Service.Memory) {
		add("service cpu %d / memory %d is not a Fargate size", c.Service.Cpu, c.Service.Memory)
	}
	if c.Service.DesiredCount < 1 {
		add("service.desiredCount %d must be at least 1", c.Service.DesiredCount)
	}
	return errs.ErrorOrNil()
}

// fargateMemory lists the memory range per CPU value, in MiB.
var fargateMemory = map[int][2]int{
	256:  {512, 2048},
	512:  {1024, 4096},
	1024: {2048, 8192},
	2048: {4096, 16384},
	4096: {8192, 30720},
}

func validFargateSize(cpu, memory int) bool {
	r, ok := fargateMemory[cpu]
	if !ok || memory < r[0] || memory > r[1] {
		return false
	}
	if memory%1024 == 0 {
		return true
	}
	return cpu == 256 && memory == 512
}

// DomainName is the public name of the CMS.
func (c *Config) DomainName() string {
	return c.ApplicationName + "." + c.HostedZoneDomainName
}

// ALBDomainName is the name the CDN uses to reach the load balancer.
func (c *Config) ALBDomainName() string {
	return "alb." + c.DomainName()
}

// DatabaseName is the application name made valid for PostgreSQL.
func (c *Config) DatabaseName() string {
	return strings.ReplaceAll(c.ApplicationName, "-", "_")
}

// StackName is the deployed name of one of the application's stacks.
func (c *Config) StackName(stack string) string {
	return c.ApplicationName + "-" + stack
}

// AdminAllowList parses the admin IPs. Bare addresses become host prefixes.
func (c *Config) AdminAllowList() ([]netip.Prefix, error) {
	var errs *multierror.Error
	var out []netip.Prefix
	for _, raw := range c.AuthorizedIPsForAdminAccess {
		raw = strings.TrimSpace(raw)
		p, err := parsePrefix(raw)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%w: admin address %q: %v", ErrInvalid, raw, err))
			continue
		}
		if p.Bits() == 0 {
			errs = multierror.Append(errs, fmt.Errorf("%w: %s", ErrOpenAdmin, p))
			continue
		}
		out = append(out, p)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

func parsePrefix(raw string) (netip.Prefix, error) {
	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// SplitList splits a comma-separated flag value.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

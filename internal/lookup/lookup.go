// Package lookup resolves the hosted zone of the deployment and caches the
// answer next to the configuration, so synthesis stays deterministic once a
// zone has been seen.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ContextFile is the default cache location.
const ContextFile = "strapi-aws.context.yaml"

var ErrZoneNotFound = errors.New("hosted zone not found")

// Zone is a public hosted zone.
type Zone struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Resolver finds a public hosted zone by domain name.
type Resolver interface {
	HostedZone(ctx context.Context, name string) (Zone, error)
}

// Route53API is the slice of the Route 53 client used here.
type Route53API interface {
	ListHostedZonesByName(ctx context.Context, in *route53.ListHostedZonesByNameInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error)
}

// Route53 resolves zones through the Route 53 API.
type Route53 struct {
	API Route53API
	Log *log.Entry
}

// NewRoute53 wraps a Route 53 client.
func NewRoute53(api Route53API) *Route53 {
	return &Route53{API: api, Log: log.WithField("component", "lookup")}
}

// HostedZone returns the public zone named name. Private zones with the same
// name are skipped.
func (r *Route53) HostedZone(ctx context.Context, name string) (Zone, error) {
	want := fqdn(name)
	out, err := r.API.ListHostedZonesByName(ctx, &route53.ListHostedZonesByNameInput{
		DNSName:  aws.String(want),
		MaxItems: aws.Int32(10),
	})
	if err != nil {
		return Zone{}, fmt.Errorf("listing hosted zones for %s: %w", name, err)
	}
	for _, z := range out.HostedZones {
		if fqdn(aws.ToString(z.Name)) != want {
			continue
		}
		if z.Config != nil && z.Config.PrivateZone {
			r.Log.WithField("zone", aws.ToString(z.Id)).Debug("skipping private zone")
			continue
		}
		zone := Zone{ID: strings.TrimPrefix(aws.ToString(z.Id), "/hostedzone/"), Name: strings.TrimSuffix(want, ".")}
		r.Log.WithField("zone", zone.ID).Infof("resolved hosted zone %s", zone.Name)
		return zone, nil
	}
	return Zone{}, fmt.Errorf("%w: %s", ErrZoneNotFound, name)
}

func fqdn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if !strings.HasSuffix(name, ".") {
		name += "."
	}
	return name
}

// contextFile is the on-disk cache layout.
type contextFile struct {
	HostedZones map[string]Zone `yaml:"hostedZones"`
}

// Cache answers from a context file before asking the wrapped resolver, and
// records new answers in the file.
type Cache struct {
	Path     string
	Resolver Resolver
	Log      *log.Entry

	mu sync.Mutex
}

// NewCache returns a Cache persisted at path.
func NewCache(path string, r Resolver) *Cache {
	if path == "" {
		path = ContextFile
	}
	return &Cache{Path: path, Resolver: r, Log: log.WithField("context", path)}
}

// HostedZone implements Resolver.
func (c *Cache) HostedZone(ctx context.Context, name string) (Zone, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.TrimSuffix(fqdn(name), ".")
	cf, err := c.read()
	if err != nil {
		return Zone{}, err
	}
	if z, ok := cf.HostedZones[key]; ok {
		c.Log.WithField("zone", z.ID).Debugf("cached hosted zone %s", key)
		return z, nil
	}
	if c.Resolver == nil {
		return Zone{}, fmt.Errorf("%w: %s is not cached", ErrZoneNotFound, key)
	}

	z, err := c.Resolver.HostedZone(ctx, name)
	if err != nil {
		return Zone{}, err
	}
	cf.HostedZones[key] = z
	if err := c.write(cf); err != nil {
		return Zone{}, err
	}
	return z, nil
}

// Clear removes the cached entry for name.
func (c *Cache) Clear(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cf, err := c.read()
	if err != nil {
		return err
	}
	delete(cf.HostedZones, strings.TrimSuffix(fqdn(name), "."))
	return c.write(cf)
}

func (c *Cache) read() (*contextFile, error) {
	cf := &contextFile{}
	data, err := os.ReadFile(c.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", c.Path, err)
	default:
		if err := yaml.Unmarshal(data, cf); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", c.Path, err)
		}
	}
	if cf.HostedZones == nil {
		cf.HostedZones = map[string]Zone{}
	}
	return cf, nil
}

func (c *Cache) write(cf *contextFile) error {
	data, err := yaml.Marshal(cf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.Path, err)
	}
	return nil
}

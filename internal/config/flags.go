package config

import "github.com/spf13/pflag"

// Flags are command-line overrides for the file values.
type Flags struct {
	fs *pflag.FlagSet

	applicationName string
	hostedZone      string
	adminIPs        string
	account         string
	region          string
	hostedZoneID    string
	image           string
}

// RegisterFlags adds the override flags to fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.applicationName, "application-name", "", "Application name, the first label of the public domain")
	fs.StringVar(&f.hostedZone, "hosted-zone", "", "Parent hosted zone domain name")
	fs.StringVar(&f.adminIPs, "admin-ips", "", "Comma-separated IPs or CIDRs allowed to reach /admin")
	fs.StringVar(&f.account, "account", "", "AWS account ID")
	fs.StringVar(&f.region, "region", "", "AWS region of the application stack")
	fs.StringVar(&f.hostedZoneID, "hosted-zone-id", "", "Hosted zone ID, skips the lookup")
	fs.StringVar(&f.image, "image", "", "Container image URI")
	return f
}

// Apply copies every flag the user set onto c.
func (f *Flags) Apply(c *Config) {
	if f.fs.Changed("application-name") {
		c.ApplicationName = f.applicationName
	}
	if f.fs.Changed("hosted-zone") {
		c.HostedZoneDomainName = f.hostedZone
	}
	if f.fs.Changed("admin-ips") {
		c.AuthorizedIPsForAdminAccess = SplitList(f.adminIPs)
	}
	if f.fs.Changed("account") {
		c.Account = f.account
	}
	if f.fs.Changed("region") {
		c.Region = f.region
	}
	if f.fs.Changed("hosted-zone-id") {
		c.HostedZoneID = f.hostedZoneID
	}
	if f.fs.Changed("image") {
		c.Image.URI = f.image
	}
}

package model

// RecordTTL is the TTL in seconds applied to all managed DNS records
const RecordTTL = 300

// ChangeAction is a Route53 record change operation
type ChangeAction string

const (
	ChangeUpsert ChangeAction = "UPSERT"
	ChangeDelete ChangeAction = "DELETE"
)

// Record represents a single managed DNS record
type Record struct {
	ZoneID string `json:"zone_id"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Data   string `json:"data"`
}

// HostedZone represents a Route53 hosted zone
type HostedZone struct {
	ID      string
	Name    string // Fully qualified, with trailing dot
	Private bool
}

// Instance holds the EC2 instance attributes needed for record
// registration
type Instance struct {
	ID        string
	PrivateIP string
	PublicIP  string // Empty when the instance has no public address
	VPCID     string
	Tags      map[string]string
}

// Account represents an AWS Organizations member account
type Account struct {
	ID   string
	Name string
	Tags map[string]string
}

// Credentials holds temporary credentials from an assumed role. Secret
// fields are redacted from logs.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string `masq:"secret"`
	SessionToken    string `masq:"secret"`
}

// AliasTarget holds the resolved settings for a single alias record
type AliasTarget struct {
	Alias     string
	Hostname  string
	DNSDomain string
	FQDN      string
	ZoneID    string // Empty when no matching zone was found
}

package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// FunctionClient defines operations against the Lambda service
type FunctionClient interface {
	// UpdateCode uploads a new code archive for the function and waits
	// until the update is complete
	UpdateCode(ctx context.Context, name string, zipData []byte) (*model.DeployResult, error)

	// GetFunction retrieves the remote state of a function. A function
	// that does not exist yields an error tagged remote_not_found.
	GetFunction(ctx context.Context, name string) (*model.RemoteFunction, error)

	// Invoke executes the function synchronously with the given JSON
	// payload
	Invoke(ctx context.Context, name string, payload []byte) (*model.InvokeResult, error)
}

// EC2Client defines the EC2 operations used during record registration
type EC2Client interface {
	// DescribeInstance retrieves a single instance by ID
	DescribeInstance(ctx context.Context, instanceID string) (*model.Instance, error)

	// VPCDomainName resolves the domain-name value of the DHCP options
	// set attached to the VPC. Empty when none is configured.
	VPCDomainName(ctx context.Context, vpcID string) (string, error)
}

// EC2ClientFactory builds an EC2 client for a region with assumed-role
// credentials
type EC2ClientFactory func(ctx context.Context, region string, creds *model.Credentials) (EC2Client, error)

// Route53Client defines the Route53 operations used for record management
type Route53Client interface {
	// ListZones lists all hosted zones visible to the caller
	ListZones(ctx context.Context) ([]model.HostedZone, error)

	// ZoneVPCs lists the VPC IDs attached to a private hosted zone
	ZoneVPCs(ctx context.Context, zoneID string) ([]string, error)

	// ChangeRecord applies a single record change to a hosted zone
	ChangeRecord(ctx context.Context, action model.ChangeAction, record model.Record) error
}

// AccountClient defines Organizations and STS operations for cross-account
// access
type AccountClient interface {
	// DescribeAccount retrieves a member account with its tags
	DescribeAccount(ctx context.Context, accountID string) (*model.Account, error)

	// AssumeRole obtains temporary credentials for the given role ARN
	AssumeRole(ctx context.Context, roleARN, sessionName string) (*model.Credentials, error)
}

// RecordStore persists the set of records registered per instance
type RecordStore interface {
	Save(ctx context.Context, instanceID string, records []model.Record) error
	Load(ctx context.Context, instanceID string) ([]model.Record, error)
	Delete(ctx context.Context, instanceID string) error
}

// Notifier delivers deployment notifications to an external channel
type Notifier interface {
	NotifyDeploy(ctx context.Context, result *model.DeployResult, deployErr error) error
}

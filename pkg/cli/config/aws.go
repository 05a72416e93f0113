package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// AWS holds AWS client configuration
type AWS struct {
	Region  string
	Profile string
}

// Flags returns CLI flags for AWS configuration
func (c *AWS) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "aws-region",
			Usage:       "AWS region",
			Destination: &c.Region,
			Sources:     cli.EnvVars("DROVER_AWS_REGION", "AWS_REGION"),
		},
		&cli.StringFlag{
			Name:        "aws-profile",
			Usage:       "AWS shared config profile",
			Destination: &c.Profile,
			Sources:     cli.EnvVars("DROVER_AWS_PROFILE", "AWS_PROFILE"),
		},
	}
}

// Configure loads the AWS SDK configuration
func (c *AWS) Configure(ctx context.Context) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	if c.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, goerr.Wrap(err, "failed to load AWS config")
	}
	return cfg, nil
}

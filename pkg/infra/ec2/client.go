package ec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type client struct {
	ec2 *awsec2.Client
}

// NewClient creates an EC2 client from an existing AWS config
func NewClient(cfg aws.Config) interfaces.EC2Client {
	return &client{ec2: awsec2.NewFromConfig(cfg)}
}

// NewWithCredentials creates an EC2 client for a region using temporary
// assumed-role credentials. It satisfies interfaces.EC2ClientFactory.
func NewWithCredentials(ctx context.Context, region string, creds *model.Credentials) (interfaces.EC2Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken,
		)),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load AWS config", goerr.V("region", region))
	}
	return NewClient(cfg), nil
}

// DescribeInstance retrieves a single instance by ID. Exactly one
// reservation with exactly one instance is expected.
func (c *client) DescribeInstance(ctx context.Context, instanceID string) (*model.Instance, error) {
	out, err := c.ec2.DescribeInstances(ctx, &awsec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to describe instance", goerr.V("instance_id", instanceID))
	}

	if len(out.Reservations) != 1 || len(out.Reservations[0].Instances) != 1 {
		return nil, goerr.New("unexpected result when retrieving instance data",
			goerr.V("instance_id", instanceID),
			goerr.V("reservations", len(out.Reservations)))
	}

	instance := out.Reservations[0].Instances[0]
	tags := make(map[string]string, len(instance.Tags))
	for _, tag := range instance.Tags {
		if tag.Key == nil || tag.Value == nil {
			continue
		}
		tags[*tag.Key] = *tag.Value
	}

	return &model.Instance{
		ID:        aws.ToString(instance.InstanceId),
		PrivateIP: aws.ToString(instance.PrivateIpAddress),
		PublicIP:  aws.ToString(instance.PublicIpAddress),
		VPCID:     aws.ToString(instance.VpcId),
		Tags:      tags,
	}, nil
}

// VPCDomainName resolves the domain-name of the DHCP options set attached
// to the VPC. Empty when the options set has no domain-name configured.
func (c *client) VPCDomainName(ctx context.Context, vpcID string) (string, error) {
	vpcs, err := c.ec2.DescribeVpcs(ctx, &awsec2.DescribeVpcsInput{
		VpcIds: []string{vpcID},
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to describe VPC", goerr.V("vpc_id", vpcID))
	}
	if len(vpcs.Vpcs) != 1 {
		return "", goerr.New("unexpected VPC count", goerr.V("vpc_id", vpcID), goerr.V("count", len(vpcs.Vpcs)))
	}

	optionsID := aws.ToString(vpcs.Vpcs[0].DhcpOptionsId)
	if optionsID == "" {
		return "", goerr.New("VPC is missing DHCP options set", goerr.V("vpc_id", vpcID))
	}

	options, err := c.ec2.DescribeDhcpOptions(ctx, &awsec2.DescribeDhcpOptionsInput{
		DhcpOptionsIds: []string{optionsID},
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to describe DHCP options", goerr.V("dhcp_options_id", optionsID))
	}
	if len(options.DhcpOptions) != 1 {
		return "", goerr.New("unexpected DHCP options count", goerr.V("dhcp_options_id", optionsID))
	}

	for _, conf := range options.DhcpOptions[0].DhcpConfigurations {
		if aws.ToString(conf.Key) != "domain-name" {
			continue
		}
		if len(conf.Values) == 1 {
			return aws.ToString(conf.Values[0].Value), nil
		}
	}
	return "", nil
}

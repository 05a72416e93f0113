package route53

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsroute53 "github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type client struct {
	route53 *awsroute53.Client
}

// NewClient creates a Route53 client from an existing AWS config
func NewClient(cfg aws.Config) interfaces.Route53Client {
	return &client{route53: awsroute53.NewFromConfig(cfg)}
}

// ListZones lists all hosted zones visible to the caller
func (c *client) ListZones(ctx context.Context) ([]model.HostedZone, error) {
	var zones []model.HostedZone

	paginator := awsroute53.NewListHostedZonesPaginator(c.route53, &awsroute53.ListHostedZonesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list hosted zones")
		}
		for _, zone := range page.HostedZones {
			private := zone.Config != nil && zone.Config.PrivateZone
			zones = append(zones, model.HostedZone{
				ID:      aws.ToString(zone.Id),
				Name:    aws.ToString(zone.Name),
				Private: private,
			})
		}
	}

	return zones, nil
}

// ZoneVPCs lists the VPC IDs attached to a private hosted zone
func (c *client) ZoneVPCs(ctx context.Context, zoneID string) ([]string, error) {
	out, err := c.route53.GetHostedZone(ctx, &awsroute53.GetHostedZoneInput{
		Id: aws.String(zoneID),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get hosted zone", goerr.V("zone_id", zoneID))
	}

	vpcs := make([]string, 0, len(out.VPCs))
	for _, vpc := range out.VPCs {
		vpcs = append(vpcs, aws.ToString(vpc.VPCId))
	}
	return vpcs, nil
}

// ChangeRecord applies a single record change to a hosted zone
func (c *client) ChangeRecord(ctx context.Context, action model.ChangeAction, record model.Record) error {
	_, err := c.route53.ChangeResourceRecordSets(ctx, &awsroute53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(record.ZoneID),
		ChangeBatch: &r53types.ChangeBatch{
			Changes: []r53types.Change{
				{
					Action: r53types.ChangeAction(action),
					ResourceRecordSet: &r53types.ResourceRecordSet{
						Name: aws.String(record.Name + "."),
						Type: r53types.RRType(record.Type),
						TTL:  aws.Int64(model.RecordTTL),
						ResourceRecords: []r53types.ResourceRecord{
							{Value: aws.String(record.Data)},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to change resource record set",
			goerr.V("action", action),
			goerr.V("zone_id", record.ZoneID),
			goerr.V("name", record.Name),
			goerr.V("type", record.Type))
	}
	return nil
}

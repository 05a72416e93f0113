package account

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type client struct {
	organizations *organizations.Client
	sts           *sts.Client
}

// NewClient creates an account client backed by Organizations and STS
func NewClient(cfg aws.Config) interfaces.AccountClient {
	return &client{
		organizations: organizations.NewFromConfig(cfg),
		sts:           sts.NewFromConfig(cfg),
	}
}

// DescribeAccount retrieves a member account with its Organizations tags
func (c *client) DescribeAccount(ctx context.Context, accountID string) (*model.Account, error) {
	out, err := c.organizations.DescribeAccount(ctx, &organizations.DescribeAccountInput{
		AccountId: aws.String(accountID),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to describe account", goerr.V("account_id", accountID))
	}

	account := &model.Account{
		ID:   accountID,
		Name: aws.ToString(out.Account.Name),
		Tags: map[string]string{},
	}
	if account.Name == "" {
		account.Name = accountID
	}

	paginator := organizations.NewListTagsForResourcePaginator(c.organizations,
		&organizations.ListTagsForResourceInput{ResourceId: aws.String(accountID)})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list account tags", goerr.V("account_id", accountID))
		}
		for _, tag := range page.Tags {
			if tag.Key == nil || tag.Value == nil {
				continue
			}
			account.Tags[*tag.Key] = *tag.Value
		}
	}

	return account, nil
}

// AssumeRole obtains temporary credentials for the given role ARN
func (c *client) AssumeRole(ctx context.Context, roleARN, sessionName string) (*model.Credentials, error) {
	out, err := c.sts.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(sessionName),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to assume role", goerr.V("role_arn", roleARN))
	}

	return &model.Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
	}, nil
}

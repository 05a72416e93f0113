package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamotypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type client struct {
	dynamo    *awsdynamodb.Client
	tableName string
}

// recordItem is the persisted representation of an instance's registered
// records
type recordItem struct {
	InstanceID string         `dynamodbav:"InstanceId"`
	Records    []model.Record `dynamodbav:"Records"`
}

// NewRecordStore creates a DynamoDB-backed record store using the given
// table
func NewRecordStore(cfg aws.Config, tableName string) interfaces.RecordStore {
	return &client{
		dynamo:    awsdynamodb.NewFromConfig(cfg),
		tableName: tableName,
	}
}

// Save persists the set of registered records for an instance
func (c *client) Save(ctx context.Context, instanceID string, records []model.Record) error {
	item, err := attributevalue.MarshalMap(recordItem{
		InstanceID: instanceID,
		Records:    records,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to marshal record item", goerr.V("instance_id", instanceID))
	}

	if _, err := c.dynamo.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	}); err != nil {
		return goerr.Wrap(err, "failed to put record item",
			goerr.V("instance_id", instanceID), goerr.V("table", c.tableName))
	}
	return nil
}

// Load retrieves the registered records for an instance. A missing item
// yields an error tagged not_found.
func (c *client) Load(ctx context.Context, instanceID string) ([]model.Record, error) {
	out, err := c.dynamo.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]dynamotypes.AttributeValue{
			"InstanceId": &dynamotypes.AttributeValueMemberS{Value: instanceID},
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get record item",
			goerr.V("instance_id", instanceID), goerr.V("table", c.tableName))
	}
	if len(out.Item) == 0 {
		return nil, goerr.New("no record item for instance",
			goerr.V("instance_id", instanceID), goerr.T(types.ErrTagNotFound))
	}

	var item recordItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal record item",
			goerr.V("instance_id", instanceID))
	}
	return item.Records, nil
}

// Delete removes the record item for an instance
func (c *client) Delete(ctx context.Context, instanceID string) error {
	if _, err := c.dynamo.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]dynamotypes.AttributeValue{
			"InstanceId": &dynamotypes.AttributeValueMemberS{Value: instanceID},
		},
	}); err != nil {
		return goerr.Wrap(err, "failed to delete record item",
			goerr.V("instance_id", instanceID), goerr.V("table", c.tableName))
	}
	return nil
}

package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// Key attribute names shared by every table in this application. Each logical
// table is a flat record set addressed by a constant partition key and a
// business row key.
const (
	PartitionKeyAttr = "pk"
	RowKeyAttr       = "sk"
)

// EnsureTable creates the table if it does not exist and waits until it is
// active. Safe to call on every startup.
func EnsureTable(ctx context.Context, client DynamoDBAPI, tableName string) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &tableName})
	if err == nil {
		return nil
	}
	var nf *types.ResourceNotFoundException
	if !errors.As(err, &nf) {
		return fmt.Errorf("describe table %s: %w", tableName, err)
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &tableName,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: awsString(PartitionKeyAttr), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: awsString(RowKeyAttr), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: awsString(PartitionKeyAttr), KeyType: types.KeyTypeHash},
			{AttributeName: awsString(RowKeyAttr), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		// another instance may have created it first
		var ae smithy.APIError
		if !errors.As(err, &ae) || ae.ErrorCode() != "ResourceInUseException" {
			return fmt.Errorf("create table %s: %w", tableName, err)
		}
	}

	return waitTableActive(ctx, client, tableName)
}

func waitTableActive(ctx context.Context, client DynamoDBAPI, tableName string) error {
	for i := 0; i < 30; i++ {
		out, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &tableName})
		if err == nil && out.Table != nil && out.Table.TableStatus == types.TableStatusActive {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("table %s did not become active", tableName)
}

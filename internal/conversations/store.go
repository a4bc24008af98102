package conversations

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/aws"
)

// Registry tracks which conversations have the bot installed.
type Registry struct {
	client    aws.DynamoDBAPI
	tableName string
	log       *zap.Logger
}

// NewRegistry creates a Registry over the BotSubscriptions table.
func NewRegistry(client aws.DynamoDBAPI, tableName string, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		client:    client,
		tableName: tableName,
		log:       log,
	}
}

// EnsureTable creates the BotSubscriptions table when absent.
func (r *Registry) EnsureTable(ctx context.Context) error {
	return aws.EnsureTable(ctx, r.client, r.tableName)
}

// Save upserts a registration. Called on bot install.
func (r *Registry) Save(ctx context.Context, conversationID, serviceURL string) error {
	item, err := attributevalue.MarshalMap(record{
		PK:             conversationPartition,
		SK:             rowKey(conversationID),
		ConversationID: conversationID,
		ServiceURL:     serviceURL,
	})
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &r.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("save conversation %s: %w", conversationID, err)
	}
	r.log.Info("conversation registered", zap.String("conversation_id", conversationID))
	return nil
}

// Remove deletes a registration. Deleting an absent registration succeeds.
func (r *Registry) Remove(ctx context.Context, conversationID string) error {
	if _, err := r.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &r.tableName,
		Key: map[string]types.AttributeValue{
			aws.PartitionKeyAttr: &types.AttributeValueMemberS{Value: conversationPartition},
			aws.RowKeyAttr:       &types.AttributeValueMemberS{Value: rowKey(conversationID)},
		},
	}); err != nil {
		return fmt.Errorf("remove conversation %s: %w", conversationID, err)
	}
	r.log.Info("conversation removed", zap.String("conversation_id", conversationID))
	return nil
}

// List returns every registration, unordered.
func (r *Registry) List(ctx context.Context) ([]Registration, error) {
	var regs []Registration
	input := &dyn.ScanInput{
		TableName:        &r.tableName,
		FilterExpression: awsString("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: conversationPartition},
		},
	}
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan conversations: %w", err)
		}
		var page []record
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal conversations: %w", err)
		}
		for _, rec := range page {
			regs = append(regs, Registration{
				ConversationID: rec.ConversationID,
				ServiceURL:     rec.ServiceURL,
			})
		}
		if out.LastEvaluatedKey == nil {
			return regs, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func awsString(s string) *string { return &s }

package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/aws"
)

// ErrNotFound is returned when an update targets a missing order.
var ErrNotFound = errors.New("order not found")

// Repository encapsulates operations on the Orders table.
type Repository struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
	log       *zap.Logger
}

// NewRepository creates a new orders Repository.
func NewRepository(client aws.DynamoDBAPI, tableName string, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
		log:       log,
	}
}

// EnsureTable creates the Orders table when absent and waits until active.
func (r *Repository) EnsureTable(ctx context.Context) error {
	return aws.EnsureTable(ctx, r.client, r.tableName)
}

// List returns all orders sorted by numeric id suffix descending.
func (r *Repository) List(ctx context.Context) ([]Order, error) {
	recs, err := r.scanOrders(ctx)
	if err != nil {
		return nil, err
	}
	orders := make([]Order, 0, len(recs))
	for _, rec := range recs {
		o, err := rec.toOrder()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	sortDescending(orders)
	return orders, nil
}

// ListByCustomer returns all orders whose customer matches name exactly,
// sorted descending like List.
func (r *Repository) ListByCustomer(ctx context.Context, name string) ([]Order, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0)
	for _, o := range all {
		if o.Customer == name {
			out = append(out, o)
		}
	}
	return out, nil
}

// Get fetches an order by id. Returns (nil, nil) if not found.
func (r *Repository) Get(ctx context.Context, id string) (*Order, error) {
	out, err := r.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &r.tableName,
		Key:       orderKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	o, err := rec.toOrder()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create allocates the next sequential id, writes the order with status
// Submitted and today's date, and returns it.
func (r *Repository) Create(ctx context.Context, customer string, amount decimal.Decimal) (*Order, error) {
	seq, err := r.nextSequence(ctx)
	if err != nil {
		return nil, err
	}
	o := Order{
		ID:       FormatID(seq),
		Customer: customer,
		Amount:   amount,
		Status:   StatusSubmitted,
		Date:     r.nowFunc().UTC().Format(dateLayout),
	}
	if err := r.put(ctx, o); err != nil {
		return nil, err
	}
	r.log.Info("order created", zap.String("order_id", o.ID), zap.String("customer", o.Customer))
	return &o, nil
}

// Update reads the order, merges non-nil patch fields over it, and writes the
// merged record back as a full replace. Returns ErrNotFound for missing ids.
func (r *Repository) Update(ctx context.Context, id string, patch Patch) (*Order, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("update order %s: %w", id, ErrNotFound)
	}

	merged := *existing
	if patch.Customer != nil {
		merged.Customer = *patch.Customer
	}
	if patch.Amount != nil {
		merged.Amount = *patch.Amount
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
	}
	if patch.Date != nil {
		merged.Date = *patch.Date
	}

	if err := r.put(ctx, merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// RenameCustomer rewrites every order belonging to oldName with newName and
// returns the number of rows updated. The rewrite is per-row: a failure stops
// the batch and reports the rows already renamed, with no rollback.
func (r *Repository) RenameCustomer(ctx context.Context, oldName, newName string) (int, error) {
	all, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, o := range all {
		if o.Customer != oldName {
			continue
		}
		o.Customer = newName
		if err := r.put(ctx, o); err != nil {
			return updated, fmt.Errorf("rename order %s: %w", o.ID, err)
		}
		updated++
	}
	return updated, nil
}

func (r *Repository) put(ctx context.Context, o Order) error {
	item, err := attributevalue.MarshalMap(o.toRecord())
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &r.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put order %s: %w", o.ID, err)
	}
	return nil
}

// nextSequence bumps the counter record atomically and returns the new value.
// The counter is primed from the highest existing id suffix the first time it
// is needed, so the sequence continues from pre-existing data.
func (r *Repository) nextSequence(ctx context.Context) (int64, error) {
	if err := r.primeCounter(ctx); err != nil {
		return 0, err
	}
	out, err := r.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                &r.tableName,
		Key:                      counterKey(),
		UpdateExpression:         awsString("SET #n = if_not_exists(#n, :zero) + :inc"),
		ExpressionAttributeNames: map[string]string{"#n": "n"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("bump order counter: %w", err)
	}
	attr, ok := out.Attributes["n"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("order counter: unexpected attribute shape %T", out.Attributes["n"])
	}
	seq, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("order counter: parse %q: %w", attr.Value, err)
	}
	return seq, nil
}

func (r *Repository) primeCounter(ctx context.Context) error {
	out, err := r.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &r.tableName,
		Key:       counterKey(),
	})
	if err != nil {
		return fmt.Errorf("get order counter: %w", err)
	}
	if len(out.Item) > 0 {
		return nil
	}

	var max int64
	recs, err := r.scanOrders(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if seq, ok := SequenceOf(rec.SK); ok && seq > max {
			max = seq
		}
	}

	item := counterKey()
	item["n"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(max, 10)}
	_, err = r.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &r.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(pk)"),
	})
	if err != nil {
		// a concurrent writer primed it first
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return nil
		}
		return fmt.Errorf("prime order counter: %w", err)
	}
	return nil
}

func (r *Repository) scanOrders(ctx context.Context) ([]record, error) {
	var recs []record
	input := &dyn.ScanInput{
		TableName:        &r.tableName,
		FilterExpression: awsString("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: orderPartition},
		},
	}
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan orders: %w", err)
		}
		var page []record
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal orders: %w", err)
		}
		recs = append(recs, page...)
		if out.LastEvaluatedKey == nil {
			return recs, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// sortDescending orders by parsed numeric suffix descending, falling back to
// a reverse lexicographic compare for ids outside the ORD-<digits> pattern.
func sortDescending(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		si, oki := SequenceOf(orders[i].ID)
		sj, okj := SequenceOf(orders[j].ID)
		if oki && okj && si != sj {
			return si > sj
		}
		if oki != okj {
			return oki
		}
		return orders[i].ID > orders[j].ID
	})
}

func orderKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		aws.PartitionKeyAttr: &types.AttributeValueMemberS{Value: orderPartition},
		aws.RowKeyAttr:       &types.AttributeValueMemberS{Value: id},
	}
}

func counterKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		aws.PartitionKeyAttr: &types.AttributeValueMemberS{Value: counterPartition},
		aws.RowKeyAttr:       &types.AttributeValueMemberS{Value: counterRowKey},
	}
}

func awsString(s string) *string { return &s }

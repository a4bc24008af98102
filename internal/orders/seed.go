package orders

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// seedCount matches DynamoDB's TransactWriteItems ceiling, so the whole seed
// lands in a single atomic call. The counter record is written separately.
const seedCount = 100

var seedCustomers = []string{
	"Contoso Ltd",
	"Fabrikam Inc",
	"Adventure Works",
	"Northwind Traders",
	"Tailspin Toys",
	"Wide World Importers",
	"Proseware",
	"Fourth Coffee",
	"Alpine Ski House",
	"Lucerne Publishing",
}

var seedStatuses = []Status{
	StatusSubmitted,
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// SeedIfEmpty ensures the table exists and, when it holds no orders, inserts
// seedCount synthetic orders in one transaction. Safe to call on every
// startup; a no-op once data exists.
func (r *Repository) SeedIfEmpty(ctx context.Context) error {
	if err := r.EnsureTable(ctx); err != nil {
		return err
	}

	recs, err := r.scanOrders(ctx)
	if err != nil {
		return err
	}
	if len(recs) > 0 {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, seedCount)
	for i := 1; i <= seedCount; i++ {
		o := r.syntheticOrder(int64(i))
		item, err := attributevalue.MarshalMap(o.toRecord())
		if err != nil {
			return fmt.Errorf("marshal seed order %s: %w", o.ID, err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: &r.tableName,
				Item:      item,
			},
		})
	}

	if _, err := r.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: items,
	}); err != nil {
		return fmt.Errorf("seed orders: %w", err)
	}

	// prime the counter so the next created order is ORD-101
	counter := counterKey()
	counter["n"] = &types.AttributeValueMemberN{Value: strconv.Itoa(seedCount)}
	if _, err := r.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &r.tableName,
		Item:      counter,
	}); err != nil {
		return fmt.Errorf("seed order counter: %w", err)
	}

	r.log.Info("seeded demo orders", zap.Int("count", seedCount))
	return nil
}

func (r *Repository) syntheticOrder(seq int64) Order {
	cents := int64(rand.IntN(99000) + 1000) // 10.00 .. 999.99
	daysAgo := rand.IntN(90)
	return Order{
		ID:       FormatID(seq),
		Customer: seedCustomers[rand.IntN(len(seedCustomers))],
		Amount:   decimal.New(cents, -2),
		Status:   seedStatuses[rand.IntN(len(seedStatuses))],
		Date:     r.nowFunc().UTC().AddDate(0, 0, -daysAgo).Format(dateLayout),
	}
}

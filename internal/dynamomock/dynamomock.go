// Package dynamomock provides a small in-memory stand-in for the DynamoDB
// client interface, covering the operations this application uses. It is
// intentionally minimal and not production-grade; package tests share it
// instead of each carrying its own copy.
package dynamomock

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DB stores items per table in a nested map: table -> pk|sk -> item map.
type DB struct {
	mu      sync.Mutex
	tables  map[string]map[string]map[string]types.AttributeValue
	created map[string]bool

	// PutHook, when set, runs before every PutItem and transact Put; a
	// non-nil return is surfaced as the call's error. Used to inject
	// write failures.
	PutHook func(params *dyn.PutItemInput) error
	// ScanErr, when set, fails every Scan.
	ScanErr error

	PutCalls      int
	ScanCalls     int
	TransactCalls int
}

func New() *DB {
	return &DB{
		tables:  map[string]map[string]map[string]types.AttributeValue{},
		created: map[string]bool{},
	}
}

func (m *DB) ensureTable(tbl string) {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
}

func itemKey(attrs map[string]types.AttributeValue) (string, error) {
	pk, ok := attrs["pk"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing pk attribute")
	}
	sk, ok := attrs["sk"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing sk attribute")
	}
	return pk.Value + "|" + sk.Value, nil
}

// Len reports the number of items in a table.
func (m *DB) Len(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables[table])
}

// Raw returns the stored item for a key, or nil.
func (m *DB) Raw(table, pk, sk string) map[string]types.AttributeValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables[table][pk+"|"+sk]
}

// Put seeds an item directly, bypassing hooks.
func (m *DB) Put(table string, item map[string]types.AttributeValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureTable(table)
	k, err := itemKey(item)
	if err != nil {
		return err
	}
	m.tables[table][k] = item
	return nil
}

func (m *DB) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.PutHook != nil {
		if err := m.PutHook(params); err != nil {
			return nil, err
		}
	}
	table := *params.TableName
	m.ensureTable(table)
	k, err := itemKey(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(pk)" {
		if _, exists := m.tables[table][k]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.tables[table][k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *DB) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)
	k, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[table][k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *DB) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)
	k, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}
	// deleting an absent item succeeds, like the real service
	delete(m.tables[table], k)
	return &dyn.DeleteItemOutput{}, nil
}

// UpdateItem emulates the atomic counter expression
// "SET <name> = if_not_exists(<name>, :zero) + :inc".
func (m *DB) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)
	k, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}

	if !strings.Contains(*params.UpdateExpression, "if_not_exists") {
		return nil, errors.New("mock supports only counter updates")
	}
	name := "n"
	for alias, real := range params.ExpressionAttributeNames {
		if strings.Contains(*params.UpdateExpression, alias) {
			name = real
		}
	}
	inc, err := numValue(params.ExpressionAttributeValues[":inc"])
	if err != nil {
		return nil, err
	}

	item, ok := m.tables[table][k]
	if !ok {
		item = map[string]types.AttributeValue{}
		for kk, vv := range params.Key {
			item[kk] = vv
		}
	}
	var current int64
	if cur, ok := item[name].(*types.AttributeValueMemberN); ok {
		current, err = strconv.ParseInt(cur.Value, 10, 64)
		if err != nil {
			return nil, err
		}
	}
	next := current + inc
	item[name] = &types.AttributeValueMemberN{Value: strconv.FormatInt(next, 10)}
	m.tables[table][k] = item

	return &dyn.UpdateItemOutput{
		Attributes: map[string]types.AttributeValue{
			name: item[name],
		},
	}, nil
}

// Scan supports the single filter shape "pk = :pk" and returns everything in
// one page.
func (m *DB) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanCalls++
	if m.ScanErr != nil {
		return nil, m.ScanErr
	}
	table := *params.TableName
	m.ensureTable(table)

	var wantPK string
	if params.FilterExpression != nil && *params.FilterExpression == "pk = :pk" {
		v, ok := params.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS)
		if !ok {
			return nil, errors.New("missing :pk value")
		}
		wantPK = v.Value
	}

	var items []map[string]types.AttributeValue
	for _, item := range m.tables[table] {
		if wantPK != "" {
			pk, ok := item["pk"].(*types.AttributeValueMemberS)
			if !ok || pk.Value != wantPK {
				continue
			}
		}
		items = append(items, item)
	}
	count := int32(len(items))
	return &dyn.ScanOutput{Items: items, Count: count}, nil
}

func (m *DB) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TransactCalls++

	// first pass: verify conditions
	for _, it := range params.TransactItems {
		p := it.Put
		if p == nil {
			continue
		}
		if p.ConditionExpression != nil && *p.ConditionExpression == "attribute_not_exists(pk)" {
			table := *p.TableName
			m.ensureTable(table)
			k, err := itemKey(p.Item)
			if err != nil {
				return nil, err
			}
			if _, exists := m.tables[table][k]; exists {
				return nil, &types.TransactionCanceledException{}
			}
		}
	}
	// second pass: apply
	for _, it := range params.TransactItems {
		p := it.Put
		if p == nil {
			continue
		}
		if m.PutHook != nil {
			if err := m.PutHook(&dyn.PutItemInput{TableName: p.TableName, Item: p.Item}); err != nil {
				return nil, err
			}
		}
		table := *p.TableName
		m.ensureTable(table)
		k, err := itemKey(p.Item)
		if err != nil {
			return nil, err
		}
		m.tables[table][k] = p.Item
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func (m *DB) CreateTable(ctx context.Context, params *dyn.CreateTableInput, optFns ...func(*dyn.Options)) (*dyn.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created[*params.TableName] = true
	m.ensureTable(*params.TableName)
	return &dyn.CreateTableOutput{}, nil
}

func (m *DB) DescribeTable(ctx context.Context, params *dyn.DescribeTableInput, optFns ...func(*dyn.Options)) (*dyn.DescribeTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := *params.TableName
	_, hasItems := m.tables[name]
	if !m.created[name] && !hasItems {
		return nil, &types.ResourceNotFoundException{}
	}
	return &dyn.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   &name,
			TableStatus: types.TableStatusActive,
		},
	}, nil
}

func numValue(v types.AttributeValue) (int64, error) {
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("expected numeric attribute value")
	}
	return strconv.ParseInt(n.Value, 10, 64)
}

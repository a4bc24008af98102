package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	intaws "github.com/orderdesk/backend/internal/aws"
	"github.com/orderdesk/backend/internal/cards"
	"github.com/orderdesk/backend/internal/conversations"
	"github.com/orderdesk/backend/internal/dynamomock"
	"github.com/orderdesk/backend/internal/live"
	"github.com/orderdesk/backend/internal/orders"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []string // conversation ids
	failID string   // conversation id that fails
}

func (f *fakeSender) SendCard(ctx context.Context, serviceURL, conversationID string, card cards.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conversationID == f.failID {
		return errors.New("injected delivery failure")
	}
	f.sent = append(f.sent, conversationID)
	return nil
}

func (f *fakeSender) sentIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeSQS struct {
	mu     sync.Mutex
	bodies []string
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies = append(f.bodies, *params.MessageBody)
	return &sqs.SendMessageOutput{}, nil
}

func testOrder() orders.Order {
	amount, _ := decimal.NewFromString("42.50")
	return orders.Order{
		ID:       "ORD-001",
		Customer: "Acme",
		Amount:   amount,
		Status:   orders.StatusSubmitted,
		Date:     "2025-06-15",
	}
}

func newRegistryWith(t *testing.T, ids ...string) *conversations.Registry {
	t.Helper()
	reg := conversations.NewRegistry(dynamomock.New(), "BotSubscriptions", zap.NewNop())
	for _, id := range ids {
		require.NoError(t, reg.Save(context.Background(), id, "https://smba.example/"))
	}
	return reg
}

func TestDeliverNewOrder_PartialFailure(t *testing.T) {
	reg := newRegistryWith(t, "conv-1", "conv-2", "conv-3")
	sender := &fakeSender{failID: "conv-2"}
	d := NewDeliverer(reg, sender, nil, zap.NewNop())

	d.DeliverNewOrder(context.Background(), testOrder())

	// conv-2's failure does not block the others
	sent := sender.sentIDs()
	assert.Len(t, sent, 2)
	assert.NotContains(t, sent, "conv-2")
}

func TestDeliverNewOrder_NoRegistrations(t *testing.T) {
	reg := newRegistryWith(t)
	sender := &fakeSender{}
	d := NewDeliverer(reg, sender, nil, zap.NewNop())

	d.DeliverNewOrder(context.Background(), testOrder())
	assert.Empty(t, sender.sentIDs())
}

func TestOrderCreated_BroadcastsAndDeliversDirectly(t *testing.T) {
	hub := live.NewHub(zap.NewNop())
	defer hub.Close()
	_, ch := hub.Add()

	reg := newRegistryWith(t, "conv-1")
	sender := &fakeSender{}
	deliverer := NewDeliverer(reg, sender, nil, zap.NewNop())
	n := NewNotifier(hub, nil, deliverer, nil, zap.NewNop())

	n.OrderCreated(context.Background(), testOrder())

	// live sink gets the raw order document
	select {
	case ev := <-ch:
		var o orders.Order
		require.NoError(t, json.Unmarshal(ev.Payload, &o))
		assert.Equal(t, "ORD-001", o.ID)
	case <-time.After(time.Second):
		t.Fatal("no live event received")
	}

	// conversation sink is served from a background goroutine
	assert.Eventually(t, func() bool {
		return len(sender.sentIDs()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestOrderCreated_EnqueuesWhenPublisherConfigured(t *testing.T) {
	hub := live.NewHub(zap.NewNop())
	defer hub.Close()

	q := &fakeSQS{}
	publisher := intaws.NewPublisher(q, "https://sqs.example/q")
	sender := &fakeSender{}
	deliverer := NewDeliverer(newRegistryWith(t, "conv-1"), sender, nil, zap.NewNop())
	n := NewNotifier(hub, publisher, deliverer, nil, zap.NewNop())

	n.OrderCreated(context.Background(), testOrder())

	require.Len(t, q.bodies, 1)
	var job DeliveryJob
	require.NoError(t, json.Unmarshal([]byte(q.bodies[0]), &job))
	assert.Equal(t, JobNewOrder, job.Kind)
	assert.Equal(t, "ORD-001", job.Order.ID)

	// queue mode must not also deliver directly
	assert.Empty(t, sender.sentIDs())
}

func TestOrderUpdated_BroadcastsTypedEvent(t *testing.T) {
	hub := live.NewHub(zap.NewNop())
	defer hub.Close()
	_, ch := hub.Add()

	n := NewNotifier(hub, nil, nil, nil, zap.NewNop())

	o := testOrder()
	o.Status = orders.StatusPending
	n.OrderUpdated(context.Background(), o)

	select {
	case ev := <-ch:
		var payload struct {
			Type  string       `json:"type"`
			Order orders.Order `json:"order"`
		}
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		assert.Equal(t, "order.updated", payload.Type)
		assert.Equal(t, orders.StatusPending, payload.Order.Status)
	case <-time.After(time.Second):
		t.Fatal("no live event received")
	}
}

// Package notify propagates order state changes to the two independent
// sinks: open live browser sessions and bot-registered conversations.
package notify

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/aws"
	"github.com/orderdesk/backend/internal/live"
	"github.com/orderdesk/backend/internal/metrics"
	"github.com/orderdesk/backend/internal/orders"
)

// updatedEvent is the stream payload for status changes.
type updatedEvent struct {
	Type  string       `json:"type"`
	Order orders.Order `json:"order"`
}

// Notifier fans order events out. Delivery is best-effort: no sink's failure
// blocks another, and nothing is surfaced to the triggering request.
//
// Conversation delivery takes one of two routes: when a publisher is
// configured the job is enqueued for the worker; otherwise the deliverer
// runs directly in a background goroutine.
type Notifier struct {
	hub       *live.Hub
	publisher *aws.Publisher
	deliverer *Deliverer
	recorder  *metrics.Recorder
	log       *zap.Logger
}

// NewNotifier wires a Notifier. publisher may be nil (direct delivery);
// deliverer may be nil when a publisher is set.
func NewNotifier(hub *live.Hub, publisher *aws.Publisher, deliverer *Deliverer, recorder *metrics.Recorder, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		hub:       hub,
		publisher: publisher,
		deliverer: deliverer,
		recorder:  recorder,
		log:       log,
	}
}

// OrderCreated pushes the new order to all live sessions and kicks off card
// delivery to registered conversations.
func (n *Notifier) OrderCreated(ctx context.Context, o orders.Order) {
	payload, err := json.Marshal(o)
	if err != nil {
		n.log.Error("marshal order event", zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	n.hub.Broadcast(payload)
	n.recorder.Incr(ctx, metrics.MetricOrdersCreated)
	n.recorder.Incr(ctx, metrics.MetricEventsBroadcast)
	n.recorder.Count(ctx, metrics.MetricLiveSessions, float64(n.hub.Len()))

	switch {
	case n.publisher != nil:
		body, err := json.Marshal(DeliveryJob{Kind: JobNewOrder, Order: o})
		if err != nil {
			n.log.Error("marshal delivery job", zap.String("order_id", o.ID), zap.Error(err))
			return
		}
		attrs := map[string]string{"kind": JobNewOrder, "order_id": o.ID}
		if err := n.publisher.SendNotification(ctx, string(body), attrs); err != nil {
			n.log.Error("enqueue delivery job failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	case n.deliverer != nil:
		// deliberately detached from the request context
		go n.deliverer.DeliverNewOrder(context.WithoutCancel(ctx), o)
	}
}

// OrderUpdated pushes a status-change event to all live sessions.
func (n *Notifier) OrderUpdated(ctx context.Context, o orders.Order) {
	payload, err := json.Marshal(updatedEvent{Type: "order.updated", Order: o})
	if err != nil {
		n.log.Error("marshal update event", zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	n.hub.Broadcast(payload)
	n.recorder.Incr(ctx, metrics.MetricOrdersUpdated)
	n.recorder.Incr(ctx, metrics.MetricEventsBroadcast)
}

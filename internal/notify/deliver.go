package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/cards"
	"github.com/orderdesk/backend/internal/conversations"
	"github.com/orderdesk/backend/internal/metrics"
	"github.com/orderdesk/backend/internal/orders"
)

// CardSender posts a card into one conversation. Implemented by the bot
// connector client; tests substitute fakes.
type CardSender interface {
	SendCard(ctx context.Context, serviceURL, conversationID string, card cards.Card) error
}

// Deliverer fans a card out to every registered conversation. Delivery is
// best-effort and at-most-once: an individual conversation's failure is
// logged and counted, and the remaining conversations still get the card.
type Deliverer struct {
	registry *conversations.Registry
	sender   CardSender
	recorder *metrics.Recorder
	log      *zap.Logger
}

// NewDeliverer wires a Deliverer.
func NewDeliverer(registry *conversations.Registry, sender CardSender, recorder *metrics.Recorder, log *zap.Logger) *Deliverer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Deliverer{
		registry: registry,
		sender:   sender,
		recorder: recorder,
		log:      log,
	}
}

// DeliverNewOrder sends the new-order card to every registered conversation.
func (d *Deliverer) DeliverNewOrder(ctx context.Context, o orders.Order) {
	regs, err := d.registry.List(ctx)
	if err != nil {
		d.log.Error("list conversations failed, skipping card delivery",
			zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	if len(regs) == 0 {
		return
	}

	card := cards.NewOrderCard(o)
	for _, reg := range regs {
		if err := d.sender.SendCard(ctx, reg.ServiceURL, reg.ConversationID, card); err != nil {
			d.recorder.Incr(ctx, metrics.MetricCardsFailed)
			d.log.Error("card delivery failed",
				zap.String("order_id", o.ID),
				zap.String("conversation_id", reg.ConversationID),
				zap.Error(err))
			continue
		}
		d.recorder.Incr(ctx, metrics.MetricCardsDelivered)
	}
}

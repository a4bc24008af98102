package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/aws"
	"github.com/orderdesk/backend/internal/botapi"
	"github.com/orderdesk/backend/internal/config"
	"github.com/orderdesk/backend/internal/conversations"
	"github.com/orderdesk/backend/internal/metrics"
	"github.com/orderdesk/backend/internal/notify"
)

// Processor handles queued notification jobs and delivers cards to every
// registered conversation.
type Processor struct {
	deliverer *notify.Deliverer
	log       *zap.Logger
}

// NewProcessor creates a worker processor with AWS clients injected.
func NewProcessor(clients *aws.Clients, cfg *config.Config, log *zap.Logger) *Processor {
	registry := conversations.NewRegistry(clients.DynamoDB, cfg.Tables.Subscriptions, log.Named("conversations"))
	connector := botapi.NewConnector(cfg.Bot.Token)

	var cw aws.CloudWatchAPI
	if cfg.Metrics.Enabled {
		cw = clients.CloudWatch
	}
	recorder := metrics.NewRecorder(cw, cfg.Metrics.Namespace, log.Named("metrics"))

	return newProcessor(notify.NewDeliverer(registry, connector, recorder, log.Named("deliver")), log)
}

func newProcessor(deliverer *notify.Deliverer, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{deliverer: deliverer, log: log}
}

// Handle receives an SQS batch event and processes each message. Delivery is
// at-most-once: failures are logged, never returned, so the runtime does not
// redrive the batch.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error("notification job failed",
				zap.String("message_id", rec.MessageId), zap.Error(err))
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var job notify.DeliveryJob
	if err := json.Unmarshal([]byte(rec.Body), &job); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	switch job.Kind {
	case notify.JobNewOrder:
		p.log.Info("delivering new-order card", zap.String("order_id", job.Order.ID))
		p.deliverer.DeliverNewOrder(ctx, job.Order)
		return nil
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

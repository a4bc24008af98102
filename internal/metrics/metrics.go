// Package metrics publishes operational counters to CloudWatch. Publishing
// is best-effort: failures are logged and never surfaced to callers.
package metrics

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/aws"
)

// Metric names.
const (
	MetricOrdersCreated   = "OrdersCreated"
	MetricOrdersUpdated   = "OrdersUpdated"
	MetricCardsDelivered  = "CardsDelivered"
	MetricCardsFailed     = "CardsFailed"
	MetricLiveSessions    = "LiveSessions"
	MetricEventsBroadcast = "EventsBroadcast"
)

// Recorder emits counters to a CloudWatch namespace. A nil Recorder, or one
// built without a client, discards everything.
type Recorder struct {
	client    aws.CloudWatchAPI
	namespace string
	log       *zap.Logger
}

// NewRecorder returns a Recorder. client may be nil to disable publishing.
func NewRecorder(client aws.CloudWatchAPI, namespace string, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		client:    client,
		namespace: namespace,
		log:       log,
	}
}

// Count adds value to the named counter.
func (r *Recorder) Count(ctx context.Context, name string, value float64) {
	if r == nil || r.client == nil {
		return
	}
	_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &r.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Value:      &value,
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	})
	if err != nil {
		r.log.Warn("put metric failed", zap.String("metric", name), zap.Error(err))
	}
}

// Incr adds 1 to the named counter.
func (r *Recorder) Incr(ctx context.Context, name string) {
	r.Count(ctx, name, 1)
}

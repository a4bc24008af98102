package notify

import "github.com/orderdesk/backend/internal/orders"

// Job kinds.
const (
	JobNewOrder = "order.created"
)

// DeliveryJob is the payload sent from API -> SQS -> delivery worker. The
// order snapshot travels with the job so the worker does not re-read the
// store.
type DeliveryJob struct {
	Kind  string       `json:"kind"`
	Order orders.Order `json:"order"`
}

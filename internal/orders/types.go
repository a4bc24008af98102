package orders

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts go over the wire as bare JSON numbers, matching what the tab
	// front end renders
	decimal.MarshalJSONWithoutQuotes = true
}

// Status is the order lifecycle state.
type Status string

// Order statuses
const (
	StatusSubmitted  Status = "Submitted"
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

const (
	idPrefix   = "ORD-"
	idPadWidth = 3
	dateLayout = "2006-01-02"

	orderPartition   = "ORDER"
	counterPartition = "COUNTER"
	counterRowKey    = "orders"
)

// Order is the domain object exposed by the API and pushed to live sessions.
type Order struct {
	ID       string          `json:"id"`
	Customer string          `json:"customer"`
	Amount   decimal.Decimal `json:"amount"`
	Status   Status          `json:"status"`
	Date     string          `json:"date"`
}

// Patch carries the fields of a partial update. Only non-nil fields override
// the stored values; the record is written back as a full replace.
type Patch struct {
	Customer *string
	Amount   *decimal.Decimal
	Status   *Status
	Date     *string
}

// record is the item stored in the Orders table.
type record struct {
	PK       string `dynamodbav:"pk"`
	SK       string `dynamodbav:"sk"`
	Customer string `dynamodbav:"customer"`
	Amount   string `dynamodbav:"amount"`
	Status   string `dynamodbav:"status"`
	Date     string `dynamodbav:"date"`
}

func (o Order) toRecord() record {
	return record{
		PK:       orderPartition,
		SK:       o.ID,
		Customer: o.Customer,
		Amount:   o.Amount.String(),
		Status:   string(o.Status),
		Date:     o.Date,
	}
}

func (r record) toOrder() (Order, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return Order{}, fmt.Errorf("order %s: parse amount %q: %w", r.SK, r.Amount, err)
	}
	return Order{
		ID:       r.SK,
		Customer: r.Customer,
		Amount:   amount,
		Status:   Status(r.Status),
		Date:     r.Date,
	}, nil
}

// FormatID renders a sequence number as an order id. The width grows past
// the padded three digits, so ORD-1000 follows ORD-999.
func FormatID(seq int64) string {
	return fmt.Sprintf("%s%0*d", idPrefix, idPadWidth, seq)
}

// SequenceOf parses the numeric suffix of an order id. Returns false for ids
// that do not match the ORD-<digits> pattern.
func SequenceOf(id string) (int64, bool) {
	rest, ok := strings.CutPrefix(id, idPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

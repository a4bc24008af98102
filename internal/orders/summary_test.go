package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaries(t *testing.T) {
	dec := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		require.NoError(t, err)
		return d
	}

	orders := []Order{
		{ID: "ORD-001", Customer: "Acme", Amount: dec("10.50"), Status: StatusSubmitted, Date: "2025-01-10"},
		{ID: "ORD-002", Customer: "Globex", Amount: dec("5.00"), Status: StatusPending, Date: "2025-02-01"},
		{ID: "ORD-003", Customer: "Acme", Amount: dec("0.25"), Status: StatusShipped, Date: "2025-03-05"},
	}

	got := Summaries(orders)
	require.Len(t, got, 2)

	// sorted by customer name ascending
	assert.Equal(t, "Acme", got[0].Customer)
	assert.True(t, got[0].TotalAmount.Equal(dec("10.75")))
	assert.Equal(t, 2, got[0].OrderCount)
	assert.Equal(t, "2025-03-05", got[0].LastOrderDate)

	assert.Equal(t, "Globex", got[1].Customer)
	assert.True(t, got[1].TotalAmount.Equal(dec("5.00")))
	assert.Equal(t, 1, got[1].OrderCount)
	assert.Equal(t, "2025-02-01", got[1].LastOrderDate)
}

func TestSummaries_Empty(t *testing.T) {
	assert.Empty(t, Summaries(nil))
}

// Package cards builds the Adaptive Card documents the bot posts into chat.
// Builders are pure; the output marshals straight to the card JSON the
// messaging transport renders.
package cards

import (
	"fmt"

	"github.com/orderdesk/backend/internal/orders"
)

// Verbs carried by card actions back to the bot.
const (
	VerbAccept = "order.accept"
	VerbCancel = "order.cancel"
)

const (
	cardType   = "AdaptiveCard"
	cardSchema = "http://adaptivecards.io/schemas/adaptive-card.json"
	cardVer    = "1.4"
)

// Card is an Adaptive Card document.
type Card struct {
	Type    string    `json:"type"`
	Schema  string    `json:"$schema"`
	Version string    `json:"version"`
	Body    []Element `json:"body"`
	Actions []Action  `json:"actions,omitempty"`
}

// Element is a card body element; only the fields used by our two layouts
// are modeled.
type Element struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Size     string `json:"size,omitempty"`
	Weight   string `json:"weight,omitempty"`
	Wrap     bool   `json:"wrap,omitempty"`
	IsSubtle bool   `json:"isSubtle,omitempty"`
	Facts    []Fact `json:"facts,omitempty"`
}

// Fact is one row of a FactSet.
type Fact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Action is a universal Action.Execute carrying a verb and payload.
type Action struct {
	Type  string         `json:"type"`
	Title string         `json:"title"`
	Verb  string         `json:"verb"`
	Data  map[string]any `json:"data,omitempty"`
}

// NewOrderCard renders the notification posted when an order is created,
// with accept/cancel actions carrying the order id.
func NewOrderCard(o orders.Order) Card {
	return Card{
		Type:    cardType,
		Schema:  cardSchema,
		Version: cardVer,
		Body: []Element{
			header("New order received"),
			factSet(o, nil),
		},
		Actions: []Action{
			{
				Type:  "Action.Execute",
				Title: "Accept",
				Verb:  VerbAccept,
				Data:  map[string]any{"orderId": o.ID},
			},
			{
				Type:  "Action.Execute",
				Title: "Cancel",
				Verb:  VerbCancel,
				Data:  map[string]any{"orderId": o.ID},
			},
		},
	}
}

// ConfirmedCard renders the response to an accept/cancel action. The header
// depends on the resulting status; no further action is offered.
func ConfirmedCard(o orders.Order, actedBy string) Card {
	var title string
	switch o.Status {
	case orders.StatusPending:
		title = "Order accepted"
	case orders.StatusCancelled:
		title = "Order cancelled"
	default:
		title = fmt.Sprintf("Order %s", o.Status)
	}

	extra := []Fact{{Title: "Acted by", Value: actedBy}}
	return Card{
		Type:    cardType,
		Schema:  cardSchema,
		Version: cardVer,
		Body: []Element{
			header(title),
			factSet(o, extra),
			{
				Type:     "TextBlock",
				Text:     "No further action is available for this order.",
				Wrap:     true,
				IsSubtle: true,
			},
		},
	}
}

func header(text string) Element {
	return Element{
		Type:   "TextBlock",
		Text:   text,
		Size:   "Medium",
		Weight: "Bolder",
		Wrap:   true,
	}
}

func factSet(o orders.Order, extra []Fact) Element {
	facts := []Fact{
		{Title: "Order", Value: o.ID},
		{Title: "Customer", Value: o.Customer},
		{Title: "Amount", Value: "$" + o.Amount.StringFixed(2)},
		{Title: "Status", Value: string(o.Status)},
		{Title: "Date", Value: o.Date},
	}
	facts = append(facts, extra...)
	return Element{
		Type:  "FactSet",
		Facts: facts,
	}
}

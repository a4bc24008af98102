// Package botapi implements the bot-facing surface: the connector client for
// proactive messages and the handling of inbound activities (install
// lifecycle and card actions).
package botapi

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/cards"
	"github.com/orderdesk/backend/internal/conversations"
	"github.com/orderdesk/backend/internal/notify"
	"github.com/orderdesk/backend/internal/orders"
)

// Activity is the slice of an inbound bot activity this application reads.
type Activity struct {
	Type         string               `json:"type"`
	Name         string               `json:"name,omitempty"`
	Action       string               `json:"action,omitempty"`
	ServiceURL   string               `json:"serviceUrl,omitempty"`
	Conversation *ConversationAccount `json:"conversation,omitempty"`
	From         *ChannelAccount      `json:"from,omitempty"`
	Value        *InvokeValue         `json:"value,omitempty"`
}

// ConversationAccount identifies the chat context an activity came from.
type ConversationAccount struct {
	ID string `json:"id"`
}

// ChannelAccount identifies the user behind an activity.
type ChannelAccount struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// InvokeValue carries an adaptiveCard/action invocation.
type InvokeValue struct {
	Action InvokeAction `json:"action"`
}

// InvokeAction is the verb and payload of a card action.
type InvokeAction struct {
	Verb string     `json:"verb"`
	Data InvokeData `json:"data"`
	Type string     `json:"type,omitempty"`
}

// InvokeData is the action payload.
type InvokeData struct {
	OrderID string `json:"orderId"`
}

// ActionResponse is the value returned to the transport for a card action.
type ActionResponse struct {
	StatusCode int    `json:"statusCode"`
	Type       string `json:"type"`
	Value      any    `json:"value"`
}

type errorValue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Handler routes inbound activities: installationUpdate events drive the
// conversation registry, card actions drive the order lifecycle.
type Handler struct {
	registry *conversations.Registry
	repo     *orders.Repository
	notifier *notify.Notifier
	log      *zap.Logger
}

// NewHandler wires a Handler.
func NewHandler(registry *conversations.Registry, repo *orders.Repository, notifier *notify.Notifier, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		registry: registry,
		repo:     repo,
		notifier: notifier,
		log:      log,
	}
}

// Handle processes one activity. The returned response is non-nil only for
// invoke activities; lifecycle events produce no body.
func (h *Handler) Handle(ctx context.Context, act Activity) (*ActionResponse, error) {
	switch act.Type {
	case "installationUpdate":
		return nil, h.handleInstallation(ctx, act)
	case "invoke":
		return h.handleInvoke(ctx, act), nil
	default:
		h.log.Debug("ignoring activity", zap.String("type", act.Type))
		return nil, nil
	}
}

func (h *Handler) handleInstallation(ctx context.Context, act Activity) error {
	if act.Conversation == nil || act.Conversation.ID == "" {
		return fmt.Errorf("installationUpdate without conversation")
	}
	switch act.Action {
	case "add":
		return h.registry.Save(ctx, act.Conversation.ID, act.ServiceURL)
	case "remove":
		return h.registry.Remove(ctx, act.Conversation.ID)
	default:
		h.log.Debug("ignoring installationUpdate action", zap.String("action", act.Action))
		return nil
	}
}

func (h *Handler) handleInvoke(ctx context.Context, act Activity) *ActionResponse {
	if act.Value == nil || act.Value.Action.Data.OrderID == "" {
		return actionError(http.StatusBadRequest, "BadRequest", "missing orderId in action payload")
	}
	verb := act.Value.Action.Verb
	orderID := act.Value.Action.Data.OrderID

	var target orders.Status
	switch verb {
	case cards.VerbAccept:
		target = orders.StatusPending
	case cards.VerbCancel:
		target = orders.StatusCancelled
	default:
		return actionError(http.StatusBadRequest, "BadRequest", fmt.Sprintf("unknown verb %q", verb))
	}

	updated, err := h.repo.Update(ctx, orderID, orders.Patch{Status: &target})
	if err != nil {
		h.log.Error("card action update failed",
			zap.String("order_id", orderID), zap.String("verb", verb), zap.Error(err))
		return actionError(http.StatusInternalServerError, "UpdateFailed", err.Error())
	}

	h.notifier.OrderUpdated(ctx, *updated)

	actedBy := "unknown"
	if act.From != nil && act.From.Name != "" {
		actedBy = act.From.Name
	}
	return &ActionResponse{
		StatusCode: http.StatusOK,
		Type:       adaptiveCardContentType,
		Value:      cards.ConfirmedCard(*updated, actedBy),
	}
}

func actionError(status int, code, message string) *ActionResponse {
	return &ActionResponse{
		StatusCode: status,
		Type:       "application/vnd.microsoft.error",
		Value:      errorValue{Code: code, Message: message},
	}
}

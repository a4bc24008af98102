package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orderdesk/backend/internal/cards"
)

const adaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

// Connector posts proactive messages to conversations through the bot
// connector REST surface rooted at each conversation's service URL.
type Connector struct {
	httpClient *http.Client
	token      string
}

// NewConnector returns a Connector. token, when non-empty, is sent as a
// bearer credential.
func NewConnector(token string) *Connector {
	return &Connector{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      token,
	}
}

type outgoingActivity struct {
	Type        string       `json:"type"`
	ID          string       `json:"id,omitempty"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type attachment struct {
	ContentType string     `json:"contentType"`
	Content     cards.Card `json:"content"`
}

// SendCard posts card as a message activity into the conversation.
func (c *Connector) SendCard(ctx context.Context, serviceURL, conversationID string, card cards.Card) error {
	activity := outgoingActivity{
		Type: "message",
		ID:   uuid.NewString(),
		Attachments: []attachment{
			{ContentType: adaptiveCardContentType, Content: card},
		},
	}
	body, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v3/conversations/%s/activities",
		strings.TrimRight(serviceURL, "/"), url.PathEscape(conversationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post activity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post activity: %s responded %d: %s", serviceURL, resp.StatusCode, snippet)
	}
	return nil
}

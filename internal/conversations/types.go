package conversations

import "encoding/base64"

const conversationPartition = "CONVERSATION"

// Registration identifies a chat conversation the bot has been installed
// into, addressable for proactive messages.
type Registration struct {
	ConversationID string `json:"conversationId"`
	ServiceURL     string `json:"serviceUrl"`
}

// record is the item stored in the BotSubscriptions table. The row key is a
// URL-safe encoding of the conversation id, which may contain characters the
// store rejects in keys.
type record struct {
	PK             string `dynamodbav:"pk"`
	SK             string `dynamodbav:"sk"`
	ConversationID string `dynamodbav:"conversation_id"`
	ServiceURL     string `dynamodbav:"service_url"`
}

func rowKey(conversationID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(conversationID))
}

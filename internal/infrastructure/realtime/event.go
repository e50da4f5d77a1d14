package realtime

import (
	"fmt"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/entity"
)

// Change event types delivered by the hosted realtime endpoint.
const (
	EventMessageCreated      = "message_created"
	EventConversationUpdated = "conversation_updated"
	EventNotificationCreated = "notification_created"
)

// Event is a single change record fanned out by the provider. Delivery
// is at-most-once per connection with no ordering guarantee across
// reconnects; consumers merge idempotently by entity ID.
type Event struct {
	Type           string               `json:"type"`
	ConversationID string               `json:"conversation_id,omitempty"`
	Message        *entity.Message      `json:"message,omitempty"`
	Conversation   *entity.Conversation `json:"conversation,omitempty"`
	Notification   *entity.Notification `json:"notification,omitempty"`
	Timestamp      string               `json:"timestamp,omitempty"`
}

// Topic names follow the provider's "<scope>:<id>" convention.

func ConversationListTopic(userID string) string {
	return fmt.Sprintf("conversations:%s", userID)
}

func MessagesTopic(conversationID string) string {
	return fmt.Sprintf("messages:%s", conversationID)
}

func NotificationsTopic(userID string) string {
	return fmt.Sprintf("notifications:%s", userID)
}

package entity

import "time"

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeSystem = "system"
)

// Message is an ordered entry within a conversation. IDs are globally
// unique and immutable; the only field that ever changes after creation
// is the read flag.
type Message struct {
	ID             string    `json:"id" firestore:"id"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	Content        string    `json:"content" firestore:"content"`
	Type           string    `json:"type" firestore:"type"` // "text", "image", "system"
	Read           bool      `json:"read" firestore:"read"`
	ReplyToID      string    `json:"reply_to_id,omitempty" firestore:"replyToId,omitempty"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}

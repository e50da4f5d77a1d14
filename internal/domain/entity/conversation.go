package entity

import "time"

// Conversation is a buyer-seller-product messaging thread. Exactly one
// conversation exists per (buyer, seller, product) triple; the remote
// store enforces uniqueness and the client trusts it.
type Conversation struct {
	ID        string `json:"id" firestore:"id"`
	BuyerID   string `json:"buyer_id" firestore:"buyerId"`
	SellerID  string `json:"seller_id" firestore:"sellerId"`
	ProductID string `json:"product_id" firestore:"productId"`

	// Denormalized last-message fields, kept current by the sync
	// coordinator so the conversation list renders without a message fetch.
	LastMessage         string    `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt       time.Time `json:"last_message_at" firestore:"lastMessageAt"`
	LastMessageSenderID string    `json:"last_message_sender_id,omitempty" firestore:"lastMessageSenderId,omitempty"`

	// Unread maps viewer ID to whether the thread holds messages that
	// viewer has not seen.
	Unread   map[string]bool `json:"unread" firestore:"unread"`
	Archived bool            `json:"archived" firestore:"archived"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Participants returns the two user IDs in the thread.
func (c *Conversation) Participants() []string {
	return []string{c.BuyerID, c.SellerID}
}

// HasParticipant reports whether userID is the buyer or the seller.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID == c.BuyerID || userID == c.SellerID
}

// OtherParticipant returns the counterparty of userID, or "" when
// userID is not in the thread.
func (c *Conversation) OtherParticipant(userID string) string {
	switch userID {
	case c.BuyerID:
		return c.SellerID
	case c.SellerID:
		return c.BuyerID
	}
	return ""
}

// LastActivityAt is the sort key for the conversation list: the
// last-message timestamp, falling back to creation time for threads
// that have no message yet.
func (c *Conversation) LastActivityAt() time.Time {
	if c.LastMessageAt.IsZero() {
		return c.CreatedAt
	}
	return c.LastMessageAt
}

// UnreadFor reports the viewer's unread flag.
func (c *Conversation) UnreadFor(userID string) bool {
	if c.Unread == nil {
		return false
	}
	return c.Unread[userID]
}

package entity

import "time"

// Notification is a server-written record backing the notification
// center and its tab badge. The client only reads and marks them; it
// never creates or deletes records.
type Notification struct {
	ID        string            `json:"id" firestore:"id"`
	UserID    string            `json:"user_id" firestore:"userId"`
	Type      string            `json:"type" firestore:"type"` // "message", "order", "system"
	Title     string            `json:"title" firestore:"title"`
	Body      string            `json:"body" firestore:"body"`
	Payload   map[string]string `json:"payload,omitempty" firestore:"payload,omitempty"`
	Read      bool              `json:"read" firestore:"read"`
	CreatedAt time.Time         `json:"created_at" firestore:"createdAt"`
}

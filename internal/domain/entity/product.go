package entity

import "time"

type Product struct {
	ID          string   `json:"id" firestore:"id"`
	SellerID    string   `json:"seller_id" firestore:"sellerId"`
	Title       string   `json:"title" firestore:"title"`
	Description string   `json:"description,omitempty" firestore:"description,omitempty"`
	Price       float64  `json:"price" firestore:"price"`
	Category    string   `json:"category" firestore:"category"`
	Condition   string   `json:"condition,omitempty" firestore:"condition,omitempty"`
	ImageURLs   []string `json:"image_urls,omitempty" firestore:"imageURLs,omitempty"`
	Status      string   `json:"status" firestore:"status"` // "available", "reserved", "sold"

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

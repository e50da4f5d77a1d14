package entity

import "time"

type User struct {
	ID       string `json:"id" firestore:"id"`
	Email    string `json:"email" firestore:"email"`
	Username string `json:"username" firestore:"username"`
	Phone    string `json:"phone,omitempty" firestore:"phone,omitempty"`

	FullName   string `json:"full_name,omitempty" firestore:"fullName,omitempty"`
	University string `json:"university,omitempty" firestore:"university,omitempty"`
	Campus     string `json:"campus,omitempty" firestore:"campus,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty"`

	EmailVerified bool `json:"email_verified" firestore:"emailVerified"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

package model

import "time"

// User is a registered account. Username is the public identity: it is the
// JWT subject, the snippet owner (Snippet.AddedBy) and the member value in
// Snippet.LikedBy.
//
// PasswordHash is a bcrypt hash and is never serialised.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

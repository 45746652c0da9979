package models

import (
	"time"
)

// User is a registered account. Recommendations may belong to a user.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Admin        bool      `json:"admin"`
	Salt         string    `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

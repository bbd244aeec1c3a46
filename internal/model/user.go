// Package model defines the data structures used throughout the application.
package model

import "time"

// User is an account that can own snippets and perform mutations.
//
// IsActive is the soft-delete marker: deactivating a user flips it to false
// and keeps the row, so ids in historical audit records stay meaningful.
// Inactive users are hidden from default listings and can no longer log in.
//
// PasswordHash is a bcrypt hash and is never serialised.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	IsStaff      bool      `json:"isStaff"   db:"is_staff"`
	IsActive     bool      `json:"isActive"  db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`

	// Snippets holds the ids of the snippets this user owns.
	// Filled by the service layer for detail/list responses only.
	Snippets []int64 `json:"snippets" db:"-"`
}

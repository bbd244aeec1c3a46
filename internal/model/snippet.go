package model

import "time"

// Snippet is a titled code fragment owned by the user that created it.
//
// Highlighted is derived from Code, Language, Style and Linenos every time
// the snippet is saved; clients never write it.
type Snippet struct {
	ID          int64     `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Code        string    `json:"code"        db:"code"`
	Linenos     bool      `json:"linenos"     db:"linenos"`
	Language    string    `json:"language"    db:"language"`
	Style       string    `json:"style"       db:"style"`
	Highlighted string    `json:"-"           db:"highlighted"`
	OwnerID     int64     `json:"ownerId"     db:"owner_id"`
	Owner       string    `json:"owner"       db:"owner"` // owner's username, read-only
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// Defaults applied when a create request leaves the field empty.
const (
	DefaultLanguage = "python"
	DefaultStyle    = "friendly"
)

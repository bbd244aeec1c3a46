// Package repository declares the storage contracts the services depend on.
//
// Services receive these interfaces, never a concrete database, so they can
// be tested against fakes and the backend can change without touching them.
package repository

import (
	"context"

	"github.com/sakif/snippets-api/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository stores accounts. Every mutating method requires an actor
// bound to ctx (see package actor) and notifies the registered observers.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, includeInactive bool) ([]model.User, error)

	// Deactivate soft-deletes a user by flipping is_active. It is observed
	// as an update.
	Deactivate(ctx context.Context, username string) (*model.User, error)

	// Delete removes a user and, by cascade, the snippets they own. Each
	// removed row is observed as a delete.
	Delete(ctx context.Context, id int64) error
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id int64) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	ListIDsByOwner(ctx context.Context, ownerID int64) ([]int64, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id int64) error
}

// AuditFilter selects audit records. Zero-valued fields don't filter;
// supplied fields are ANDed. Limit 0 means no limit; Offset applies either way.
type AuditFilter struct {
	UserID    *int64
	Action    model.Action
	ModelName model.ModelName
	Limit     int
	Offset    int
}

// AuditAppender is the write half of the audit ledger.
type AuditAppender interface {
	// Append assigns record.ID and record.Timestamp and persists it.
	Append(ctx context.Context, record *model.AuditRecord) error
}

// AuditRepository is append-only: there is deliberately no way to update or
// delete a record through it.
type AuditRepository interface {
	AuditAppender
	Query(ctx context.Context, filter AuditFilter) ([]model.AuditRecord, error)
	GetByID(ctx context.Context, id int64) (*model.AuditRecord, error)
}

package repository

import (
	"context"
	"fmt"

	"github.com/sakif/snippets-api/internal/model"
)

// MutationKind is the hook that fired for a mutation.
type MutationKind int

const (
	Created MutationKind = iota + 1
	Updated
	Deleted // hard delete only; a soft delete is Updated
)

func (k MutationKind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	}
	return fmt.Sprintf("MutationKind(%d)", int(k))
}

// Mutation describes one successful write to a watched entity.
type Mutation struct {
	Model    model.ModelName
	ObjectID int64
	Kind     MutationKind
}

// MutationObserver is notified synchronously after each successful mutation
// of the entity types it was registered for, in registration order, on the
// same goroutine and context as the mutation itself.
//
// audit writes through the mutation's own transaction, so an error returned
// here rolls the mutation back.
type MutationObserver interface {
	AfterMutation(ctx context.Context, audit AuditAppender, m Mutation) error
}

// ObserverFunc adapts a function to MutationObserver.
type ObserverFunc func(ctx context.Context, audit AuditAppender, m Mutation) error

func (f ObserverFunc) AfterMutation(ctx context.Context, audit AuditAppender, m Mutation) error {
	return f(ctx, audit, m)
}

// Package actor carries "who is performing this operation" through a
// request without handing the caller to every function explicitly.
//
// The identity lives in the request's context.Context. A binding made with
// WithActor is visible to everything that receives the derived context, and
// to nothing else: two concurrent requests each see only their own actor,
// and when a request's context goes away the binding goes with it. There is
// no slot to clear and nothing can leak into the next request handled by the
// same goroutine.
//
// The authentication middleware binds the caller before any handler runs.
// The entity store refuses mutations on a context with no binding at all, so
// attribution can't be forgotten. Background or administrative work that
// has no authenticated caller binds System explicitly.
package actor

import "context"

// Actor identifies the user performing a mutation.
// The zero value is the System actor.
type Actor struct {
	UserID   int64
	Username string
	IsStaff  bool
}

// System is the explicit "no user" actor for unauthenticated or
// administrative operations. Audit records written under it have no user.
var System = Actor{Username: "system"}

// IsSystem reports whether a is not backed by a stored user.
func (a Actor) IsSystem() bool {
	return a.UserID == 0
}

// contextKey is unexported so no other package can read or shadow the value.
type contextKey struct{}

// WithActor returns a copy of ctx bound to a. A later WithActor on the
// derived context overrides the binding for that subtree only.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the actor bound to ctx. ok is false when nothing was
// bound; callers decide whether that is an error.
func FromContext(ctx context.Context) (a Actor, ok bool) {
	a, ok = ctx.Value(contextKey{}).(Actor)
	return a, ok
}

// UserID returns the bound user's id, or nil for System or an unbound ctx.
func UserID(ctx context.Context) *int64 {
	a, ok := FromContext(ctx)
	if !ok || a.IsSystem() {
		return nil
	}
	id := a.UserID
	return &id
}

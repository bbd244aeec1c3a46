// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// WHO IS CALLING?
// Services never receive the caller as a parameter. They read it from the
// context with actor.FromContext, the same binding the entity store and the
// audit recorder read. Permission checks and audit attribution therefore
// can't disagree about who the caller is.
//
// Permission rules live here, not only in the HTTP middleware, because the
// admin CLI calls the same services without going through HTTP.
package service

import (
	"context"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/sakif/snippets-api/internal/actor"
	"github.com/sakif/snippets-api/internal/apperror"
)

const (
	MaxUsernameLength = 150
	MaxTitleLength    = 100
	MaxCodeLength     = 100000 // ~100KB of code
	DefaultListLimit  = 20
	MaxListLimit      = 100
)

// callerFrom returns the bound actor, or ErrUnauthorized when the request
// is anonymous.
func callerFrom(ctx context.Context) (actor.Actor, error) {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return actor.Actor{}, apperror.Unauthorized("authentication credentials were not provided")
	}
	return a, nil
}

// requireStaff passes staff users and the System actor.
func requireStaff(ctx context.Context) (actor.Actor, error) {
	a, err := callerFrom(ctx)
	if err != nil {
		return a, err
	}
	if !a.IsStaff && !a.IsSystem() {
		return a, apperror.Forbidden("you do not have permission to perform this action")
	}
	return a, nil
}

// isStaffCaller reports whether ctx carries a staff (or System) actor.
func isStaffCaller(ctx context.Context) bool {
	a, ok := actor.FromContext(ctx)
	return ok && (a.IsStaff || a.IsSystem())
}

// ValidUsername reports whether s is 1-150 characters of letters, digits
// and @ . + - _.
func ValidUsername(s string) bool {
	n := utf8.RuneCountInString(s)
	if n == 0 || n > MaxUsernameLength {
		return false
	}
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case r == '@', r == '.', r == '+', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return limit, max(offset, 0)
}

func tooLong(field string, maxLen int) error {
	return apperror.ValidationFailed(field, fmt.Sprintf("%s must be %d characters or less", field, maxLen))
}

package model

import (
	"fmt"
	"time"
)

// Action is what happened to the audited entity.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ParseAction validates a raw action string, e.g. from a query parameter.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// ModelName is the type of a watched entity.
type ModelName string

const (
	ModelUser    ModelName = "User"
	ModelSnippet ModelName = "Snippet"
)

// ParseModelName validates a raw model name.
func ParseModelName(s string) (ModelName, error) {
	switch m := ModelName(s); m {
	case ModelUser, ModelSnippet:
		return m, nil
	}
	return "", fmt.Errorf("unknown model name %q", s)
}

// AuditRecord is one immutable entry of the audit ledger.
//
// UserID is the actor that performed the action; nil when the mutation ran
// under the system actor. It keeps naming the user after that user is gone.
// ObjectID is a historical pointer, not a foreign key: the entity it names
// may no longer exist.
type AuditRecord struct {
	ID        int64     `json:"id"         db:"id"`
	UserID    *int64    `json:"user"       db:"user_id"`
	ModelName ModelName `json:"model_name" db:"model_name"`
	ObjectID  int64     `json:"object_id"  db:"object_id"`
	Action    Action    `json:"action"     db:"action"`
	Timestamp time.Time `json:"timestamp"  db:"timestamp"`
}

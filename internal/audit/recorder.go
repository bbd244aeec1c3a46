// Package audit turns entity mutations into audit records.
//
// The Recorder is a repository.MutationObserver. The entity store calls it
// once per successful mutation, on the same goroutine and with the same
// context as the caller, so the actor bound to that context by the auth
// middleware is the one that ends up in the record:
//
//	handler → service → sqlite.mutate → Recorder.AfterMutation → AuditAppender
//
// Register it once at start-up, before serving traffic:
//
//	rec := audit.NewRecorder(logger, cfg.Audit.Strict)
//	rec.Register(db)
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sakif/snippets-api/internal/actor"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

var _ repository.MutationObserver = (*Recorder)(nil)

// Observable is anything that accepts mutation observers per entity type.
// *sqlite.DB satisfies it.
type Observable interface {
	Observe(name model.ModelName, observers ...repository.MutationObserver)
}

// Recorder appends one AuditRecord per observed mutation.
//
// In strict mode an append failure is returned, which rolls the mutation
// back. Otherwise the failure is logged and the mutation is allowed to
// commit without a record.
type Recorder struct {
	logger *slog.Logger
	strict bool
}

// NewRecorder creates a Recorder.
func NewRecorder(logger *slog.Logger, strict bool) *Recorder {
	return &Recorder{logger: logger, strict: strict}
}

// Register subscribes the recorder to every audited entity type.
func (r *Recorder) Register(db Observable) {
	db.Observe(model.ModelUser, r)
	db.Observe(model.ModelSnippet, r)
}

// AfterMutation writes the audit record for m.
func (r *Recorder) AfterMutation(ctx context.Context, appender repository.AuditAppender, m repository.Mutation) error {
	action, err := ActionFor(m.Kind)
	if err != nil {
		return err
	}

	rec := &model.AuditRecord{
		UserID:    actor.UserID(ctx),
		ModelName: m.Model,
		ObjectID:  m.ObjectID,
		Action:    action,
	}

	if err := appender.Append(ctx, rec); err != nil {
		if r.strict {
			return fmt.Errorf("audit: recording %s %s %d: %w", action, m.Model, m.ObjectID, err)
		}
		r.logger.ErrorContext(ctx, "audit record dropped",
			slog.String("model", string(m.Model)),
			slog.Int64("objectID", m.ObjectID),
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	trace.SpanFromContext(ctx).AddEvent("audit.record", trace.WithAttributes(
		attribute.Int64("audit.id", rec.ID),
		attribute.String("audit.model_name", string(rec.ModelName)),
		attribute.Int64("audit.object_id", rec.ObjectID),
		attribute.String("audit.action", string(rec.Action)),
	))

	attrs := []any{
		slog.Int64("id", rec.ID),
		slog.String("model", string(rec.ModelName)),
		slog.Int64("objectID", rec.ObjectID),
		slog.String("action", string(rec.Action)),
	}
	if rec.UserID != nil {
		attrs = append(attrs, slog.Int64("userID", *rec.UserID))
	}
	r.logger.DebugContext(ctx, "audit record appended", attrs...)

	return nil
}

// ActionFor maps the hook that fired to the action stored in the ledger.
// A soft delete arrives here as Updated and is stored as an update.
func ActionFor(kind repository.MutationKind) (model.Action, error) {
	switch kind {
	case repository.Created:
		return model.ActionCreate, nil
	case repository.Updated:
		return model.ActionUpdate, nil
	case repository.Deleted:
		return model.ActionDelete, nil
	}
	return "", fmt.Errorf("audit: unknown mutation kind %v", kind)
}

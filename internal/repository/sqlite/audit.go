package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

var (
	_ repository.AuditRepository = (*AuditDB)(nil)
	_ repository.AuditAppender   = txAppender{}
)

// AuditDB is the append-only audit ledger. It exposes no update or delete;
// the schema backs that up with triggers that abort any UPDATE or DELETE.
type AuditDB struct {
	db *DB
}

// txAppender appends inside a mutation's transaction, stamping records with
// the mutation's own time. It is what observers receive from mutate().
type txAppender struct {
	tx *sqlx.Tx
	ts time.Time
}

func (a txAppender) Append(ctx context.Context, record *model.AuditRecord) error {
	return appendRecord(ctx, a.tx, record, a.ts)
}

// Append writes a record in its own implicit transaction.
func (a *AuditDB) Append(ctx context.Context, record *model.AuditRecord) error {
	return appendRecord(ctx, a.db.conn, record, now())
}

func appendRecord(ctx context.Context, exec sqlx.ExecerContext, record *model.AuditRecord, ts time.Time) error {
	record.Timestamp = ts

	result, err := exec.ExecContext(ctx,
		`INSERT INTO audit_records (user_id, model_name, object_id, action, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		record.UserID,
		string(record.ModelName),
		record.ObjectID,
		string(record.Action),
		record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("sqlite: appending audit record (%s %d %s): %w",
			record.ModelName, record.ObjectID, record.Action, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading audit record id: %w", err)
	}
	record.ID = id
	return nil
}

// Query returns matching records in insertion order.
func (a *AuditDB) Query(ctx context.Context, f repository.AuditFilter) ([]model.AuditRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(f.Action))
	}
	if f.ModelName != "" {
		where = append(where, "model_name = ?")
		args = append(args, string(f.ModelName))
	}

	var q strings.Builder
	q.WriteString(`SELECT id, user_id, model_name, object_id, action, timestamp FROM audit_records`)
	if len(where) > 0 {
		q.WriteString(" WHERE ")
		q.WriteString(strings.Join(where, " AND "))
	}
	q.WriteString(" ORDER BY id")
	switch {
	case f.Limit > 0:
		q.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, f.Limit, max(f.Offset, 0))
	case f.Offset > 0:
		// SQLite only accepts OFFSET after a LIMIT; -1 means no limit.
		q.WriteString(" LIMIT -1 OFFSET ?")
		args = append(args, f.Offset)
	}

	records := []model.AuditRecord{}
	if err := sqlx.SelectContext(ctx, a.db.conn, &records, q.String(), args...); err != nil {
		return nil, fmt.Errorf("sqlite: querying audit records: %w", err)
	}
	return records, nil
}

func (a *AuditDB) GetByID(ctx context.Context, id int64) (*model.AuditRecord, error) {
	var rec model.AuditRecord
	err := sqlx.GetContext(ctx, a.db.conn, &rec,
		`SELECT id, user_id, model_name, object_id, action, timestamp
		 FROM audit_records WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("audit record", id)
		}
		return nil, fmt.Errorf("sqlite: getting audit record %d: %w", id, err)
	}
	return &rec, nil
}

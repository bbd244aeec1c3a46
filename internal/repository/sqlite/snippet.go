package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

var _ repository.SnippetRepository = (*SnippetDB)(nil)

// selectSnippet joins the owner so Owner carries the username.
const selectSnippet = `
	SELECT s.id, s.title, s.code, s.linenos, s.language, s.style, s.highlighted,
	       s.owner_id, u.username AS owner, s.created_at, s.updated_at
	FROM snippets s
	JOIN users u ON u.id = s.owner_id`

// SnippetDB stores snippets.
type SnippetDB struct {
	db *DB
}

// Create inserts a snippet owned by snippet.OwnerID and fills in ID, Owner
// and timestamps.
func (s *SnippetDB) Create(ctx context.Context, snippet *model.Snippet) error {
	return s.db.mutate(ctx, func(tx *sqlx.Tx, ts time.Time) ([]repository.Mutation, error) {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO snippets (title, code, linenos, language, style, highlighted, owner_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snippet.Title,
			snippet.Code,
			snippet.Linenos,
			snippet.Language,
			snippet.Style,
			snippet.Highlighted,
			snippet.OwnerID,
			ts,
			ts,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: creating snippet: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("sqlite: reading snippet id: %w", err)
		}
		if err := tx.GetContext(ctx, &snippet.Owner,
			`SELECT username FROM users WHERE id = ?`, snippet.OwnerID); err != nil {
			return nil, fmt.Errorf("sqlite: loading owner %d: %w", snippet.OwnerID, err)
		}
		snippet.ID = id
		snippet.CreatedAt = ts
		snippet.UpdatedAt = ts

		return []repository.Mutation{{Model: model.ModelSnippet, ObjectID: id, Kind: repository.Created}}, nil
	})
}

// GetByID retrieves a single snippet by its ID.
// Returns apperror.ErrNotFound if it doesn't exist.
func (s *SnippetDB) GetByID(ctx context.Context, id int64) (*model.Snippet, error) {
	var snippet model.Snippet
	err := sqlx.GetContext(ctx, s.db.conn, &snippet, selectSnippet+` WHERE s.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %d: %w", id, err)
	}
	return &snippet, nil
}

// List returns snippets oldest first with LIMIT/OFFSET pagination.
func (s *SnippetDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := max(opts.Offset, 0)

	snippets := make([]model.Snippet, 0, limit)
	err := sqlx.SelectContext(ctx, s.db.conn, &snippets,
		selectSnippet+` ORDER BY s.created_at, s.id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	return snippets, nil
}

// ListIDsByOwner returns the ids of the snippets a user owns.
func (s *SnippetDB) ListIDsByOwner(ctx context.Context, ownerID int64) ([]int64, error) {
	ids := []int64{}
	err := sqlx.SelectContext(ctx, s.db.conn, &ids,
		`SELECT id FROM snippets WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets of user %d: %w", ownerID, err)
	}
	return ids, nil
}

// Update saves the editable fields of an existing snippet. Owner and
// created_at never change.
func (s *SnippetDB) Update(ctx context.Context, snippet *model.Snippet) error {
	return s.db.mutate(ctx, func(tx *sqlx.Tx, ts time.Time) ([]repository.Mutation, error) {
		result, err := tx.ExecContext(ctx,
			`UPDATE snippets
			 SET title = ?, code = ?, linenos = ?, language = ?, style = ?, highlighted = ?, updated_at = ?
			 WHERE id = ?`,
			snippet.Title,
			snippet.Code,
			snippet.Linenos,
			snippet.Language,
			snippet.Style,
			snippet.Highlighted,
			ts,
			snippet.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: updating snippet %d: %w", snippet.ID, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return nil, apperror.NotFound("snippet", snippet.ID)
		}
		snippet.UpdatedAt = ts

		return []repository.Mutation{{Model: model.ModelSnippet, ObjectID: snippet.ID, Kind: repository.Updated}}, nil
	})
}

// Delete removes a snippet by its ID.
func (s *SnippetDB) Delete(ctx context.Context, id int64) error {
	return s.db.mutate(ctx, func(tx *sqlx.Tx, ts time.Time) ([]repository.Mutation, error) {
		result, err := tx.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
		if err != nil {
			return nil, fmt.Errorf("sqlite: deleting snippet %d: %w", id, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return nil, apperror.NotFound("snippet", id)
		}

		return []repository.Mutation{{Model: model.ModelSnippet, ObjectID: id, Kind: repository.Deleted}}, nil
	})
}

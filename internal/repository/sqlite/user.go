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

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, username, password_hash, is_staff, is_active, created_at, updated_at`

// UserDB stores accounts.
type UserDB struct {
	db *DB
}

// Create inserts a user and fills in ID and timestamps.
// Returns apperror.ErrConflict if the username is taken.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	return u.db.mutate(ctx, func(tx *sqlx.Tx, ts time.Time) ([]repository.Mutation, error) {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, password_hash, is_staff, is_active, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			user.Username,
			user.PasswordHash,
			user.IsStaff,
			user.IsActive,
			ts,
			ts,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, apperror.Conflict("user", user.Username)
			}
			return nil, fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("sqlite: reading user id: %w", err)
		}
		user.ID = id
		user.CreatedAt = ts
		user.UpdatedAt = ts

		return []repository.Mutation{{Model: model.ModelUser, ObjectID: id, Kind: repository.Created}}, nil
	})
}

// GetByID retrieves a user by id regardless of is_active.
// Returns apperror.ErrNotFound if no user exists with that id.
func (u *UserDB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, u.db.conn, &user,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username regardless of is_active.
func (u *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, u.db.conn, &user,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}
	return &user, nil
}

// List returns users in id order. Inactive users are skipped unless
// includeInactive is set.
func (u *UserDB) List(ctx context.Context, includeInactive bool) ([]model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users`
	if !includeInactive {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY id`

	users := []model.User{}
	if err := sqlx.SelectContext(ctx, u.db.conn, &users, q); err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	return users, nil
}

// Deactivate soft-deletes a user: the row stays, is_active becomes false.
// The write is reported as an Updated mutation, even when the user was
// already inactive, because the row is saved either way.
func (u *UserDB) Deactivate(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := u.db.mutate(ctx, func(tx *sqlx.Tx, ts time.Time) ([]repository.Mutation, error) {
		err := tx.GetContext(ctx, &user,
			`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperror.NotFound("user", username)
			}
			return nil, fmt.Errorf("sqlite: loading user %q: %w", username, err)
		}

		user.IsActive = false
		user.UpdatedAt = ts
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET is_active = 0, updated_at = ? WHERE id = ?`,
			user.UpdatedAt, user.ID,
		); err != nil {
			return nil, fmt.Errorf("sqlite: deactivating user %d: %w", user.ID, err)
		}

		return []repository.Mutation{{Model: model.ModelUser, ObjectID: user.ID, Kind: repository.Updated}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user permanently. Their snippets go with them, and each
// removed snippet is reported before the user itself.
func (u *UserDB) Delete(ctx context.Context, id int64) error {
	return u.db.mutate(ctx, func(tx *sqlx.Tx, ts time.Time) ([]repository.Mutation, error) {
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM users WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("sqlite: checking user %d: %w", id, err)
		}
		if exists == 0 {
			return nil, apperror.NotFound("user", id)
		}

		var snippetIDs []int64
		if err := tx.SelectContext(ctx, &snippetIDs,
			`SELECT id FROM snippets WHERE owner_id = ? ORDER BY id`, id); err != nil {
			return nil, fmt.Errorf("sqlite: listing snippets of user %d: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM snippets WHERE owner_id = ?`, id); err != nil {
			return nil, fmt.Errorf("sqlite: deleting snippets of user %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("sqlite: deleting user %d: %w", id, err)
		}

		mutations := make([]repository.Mutation, 0, len(snippetIDs)+1)
		for _, sid := range snippetIDs {
			mutations = append(mutations, repository.Mutation{Model: model.ModelSnippet, ObjectID: sid, Kind: repository.Deleted})
		}
		mutations = append(mutations, repository.Mutation{Model: model.ModelUser, ObjectID: id, Kind: repository.Deleted})
		return mutations, nil
	})
}

package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

// createTestUser is a test helper that creates an active user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, username string, staff bool) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		PasswordHash: "$2a$04$not-a-real-hash",
		IsStaff:      staff,
		IsActive:     true,
	}
	if err := db.Users().Create(systemCtx(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := createTestUser(t, db, "alice", true)

	if user.ID == 0 {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}

	found, err := db.Users().GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Username != "alice" || !found.IsStaff || !found.IsActive {
		t.Errorf("GetByID() = %+v", found)
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice", false)

	err := db.Users().Create(systemCtx(), &model.User{Username: "alice", IsActive: true})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() duplicate error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "bob", false)

	found, err := db.Users().GetByUsername(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
}

// =========================================================================
// LIST / DEACTIVATE TESTS
// =========================================================================

func TestUserList_HidesInactive(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice", false)
	createTestUser(t, db, "bob", false)

	if _, err := db.Users().Deactivate(systemCtx(), "bob"); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	active, err := db.Users().List(context.Background(), false)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(active) != 1 || active[0].Username != "alice" {
		t.Errorf("List(false) = %+v, want only alice", active)
	}

	all, err := db.Users().List(context.Background(), true)
	if err != nil {
		t.Fatalf("List(true) error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(true) returned %d users, want 2", len(all))
	}
}

func TestUserDeactivate_ObservedAsUpdate(t *testing.T) {
	db := newTestDB(t)
	bob := createTestUser(t, db, "bob", false)
	obs := &captured{}
	db.Observe(model.ModelUser, obs)

	got, err := db.Users().Deactivate(systemCtx(), "bob")
	if err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if got.IsActive {
		t.Error("Deactivate() returned an active user")
	}

	stored, err := db.Users().GetByID(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.IsActive {
		t.Error("user is still active after Deactivate()")
	}

	want := repository.Mutation{Model: model.ModelUser, ObjectID: bob.ID, Kind: repository.Updated}
	if len(obs.mutations) != 1 || obs.mutations[0] != want {
		t.Errorf("observed %+v, want [%+v]", obs.mutations, want)
	}
}

func TestUserDeactivate_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().Deactivate(systemCtx(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Deactivate() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// HARD DELETE TESTS
// =========================================================================

func TestUserDelete_CascadesSnippets(t *testing.T) {
	db := newTestDB(t)
	carol := createTestUser(t, db, "carol", false)
	s1 := createTestSnippet(t, db, carol, "one", "1")
	s2 := createTestSnippet(t, db, carol, "two", "2")

	var order []string
	users := &captured{tag: "user", order: &order}
	snippets := &captured{tag: "snippet", order: &order}
	db.Observe(model.ModelUser, users)
	db.Observe(model.ModelSnippet, snippets)

	if err := db.Users().Delete(systemCtx(), carol.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := db.Snippets().GetByID(context.Background(), s1.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("snippet %d survived its owner's deletion", s1.ID)
	}

	wantOrder := []string{"snippet", "snippet", "user"}
	if len(order) != 3 || order[0] != wantOrder[0] || order[2] != wantOrder[2] {
		t.Errorf("observer order = %v, want %v", order, wantOrder)
	}
	if snippets.mutations[0].ObjectID != s1.ID || snippets.mutations[1].ObjectID != s2.ID {
		t.Errorf("snippet deletes = %+v", snippets.mutations)
	}
	for _, m := range append(snippets.mutations, users.mutations...) {
		if m.Kind != repository.Deleted {
			t.Errorf("mutation %+v should be Deleted", m)
		}
	}
}

func TestUserDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Users().Delete(systemCtx(), 77)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

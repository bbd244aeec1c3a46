package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/snippets-api/internal/actor"
	"github.com/sakif/snippets-api/internal/audit"
	"github.com/sakif/snippets-api/internal/auth"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
	"github.com/sakif/snippets-api/internal/repository/sqlite"
)

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================
//
// Services are exercised against a real in-memory SQLite database with the
// audit recorder registered, exactly as the server wires them. The audit
// trail is produced by the store, so a fake repository would have nothing
// to check.

type testEnv struct {
	db       *sqlite.DB
	users    *UserService
	snippets *SnippetService
	audits   *AuditService
	auth     *AuthService
	tokens   *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	audit.NewRecorder(logger, true).Register(db)

	tokens, err := auth.NewTokenService("service-test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	passwords := auth.NewPasswordService(bcrypt.MinCost)

	return &testEnv{
		db:       db,
		users:    NewUserService(db.Users(), db.Snippets(), passwords, logger),
		snippets: NewSnippetService(db.Snippets(), logger),
		audits:   NewAuditService(db.Audit()),
		auth:     NewAuthService(db.Users(), tokens, passwords, logger),
		tokens:   tokens,
	}
}

func systemCtx() context.Context {
	return actor.WithActor(context.Background(), actor.System)
}

// as returns a context bound to u, the way the auth middleware binds it.
func as(u *model.User) context.Context {
	return actor.WithActor(context.Background(), actor.Actor{
		UserID:   u.ID,
		Username: u.Username,
		IsStaff:  u.IsStaff,
	})
}

// seedUser creates an account under the System actor.
func (e *testEnv) seedUser(t *testing.T, username string, staff bool) *model.User {
	t.Helper()
	u, err := e.users.Create(systemCtx(), CreateUserInput{Username: username, Password: "pw-" + username, IsStaff: staff})
	require.NoError(t, err)
	return u
}

func (e *testEnv) seedSnippet(t *testing.T, owner *model.User, title string) *model.Snippet {
	t.Helper()
	s, err := e.snippets.Create(as(owner), SnippetInput{Title: title, Code: "print('" + title + "')"})
	require.NoError(t, err)
	return s
}

// records reads the ledger directly, bypassing the staff check.
func (e *testEnv) records(t *testing.T, f repository.AuditFilter) []model.AuditRecord {
	t.Helper()
	recs, err := e.db.Audit().Query(context.Background(), f)
	require.NoError(t, err)
	return recs
}

func (e *testEnv) recordCount(t *testing.T) int {
	t.Helper()
	return len(e.records(t, repository.AuditFilter{}))
}

func ptr(v int64) *int64 { return &v }

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
)

// testDB points every test at its own database file and keeps bcrypt fast.
func testDB(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"DB_PATH", "JWT_SECRET", "AUDIT_STRICT", "LOG_LEVEL", "LOG_FORMAT", "PORT", "TOKEN_TTL"} {
		t.Setenv(k, "")
	}
	t.Setenv("BCRYPT_COST", "4")
	return filepath.Join(t.TempDir(), "data", "snippets.db")
}

// ctl runs snippetctl against db and returns stdout.
func ctl(t *testing.T, db, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), append([]string{"--db", db}, args...), strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func mustCtl(t *testing.T, db string, args ...string) string {
	t.Helper()
	out, err := ctl(t, db, "", args...)
	require.NoError(t, err, "snippetctl %v", args)
	return out
}

func auditJSON(t *testing.T, db string, filters ...string) []model.AuditRecord {
	t.Helper()
	out := mustCtl(t, db, append([]string{"audit", "list", "--json"}, filters...)...)
	var recs []model.AuditRecord
	require.NoError(t, json.Unmarshal([]byte(out), &recs), out)
	return recs
}

func TestMigrate(t *testing.T) {
	db := testDB(t)

	out := mustCtl(t, db, "migrate")
	assert.Contains(t, out, "Schema at version 3")

	out = mustCtl(t, db, "migrate")
	assert.Contains(t, out, "Schema at version 3", "running again is a no-op")
}

func TestCreateSuperuser(t *testing.T) {
	db := testDB(t)

	out := mustCtl(t, db, "createsuperuser", "--username", "admin", "--password", "s3cret")
	assert.Contains(t, out, "Superuser admin created")

	recs := auditJSON(t, db)
	require.Len(t, recs, 1)
	assert.Equal(t, model.ModelUser, recs[0].ModelName)
	assert.Equal(t, model.ActionCreate, recs[0].Action)
	assert.Nil(t, recs[0].UserID, "CLI changes are recorded without a user")

	_, err := ctl(t, db, "", "createsuperuser", "--username", "admin", "--password", "other")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestCreateSuperuser_PasswordFromStdin(t *testing.T) {
	db := testDB(t)

	out, err := ctl(t, db, "from-stdin\n", "createsuperuser", "-u", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "Superuser admin created")

	_, err = ctl(t, db, "", "createsuperuser", "-u", "other")
	assert.ErrorContains(t, err, "reading password")
}

func TestCreateSuperuser_RequiresUsername(t *testing.T) {
	db := testDB(t)
	_, err := ctl(t, db, "", "createsuperuser", "--password", "x")
	assert.ErrorContains(t, err, "username")
}

func TestDeactivate(t *testing.T) {
	db := testDB(t)
	mustCtl(t, db, "createsuperuser", "-u", "bob", "-p", "pw")

	out := mustCtl(t, db, "deactivate", "bob")
	assert.Contains(t, out, "User bob deactivated")

	updates := auditJSON(t, db, "--action", "update", "--model", "User")
	require.Len(t, updates, 1)

	_, err := ctl(t, db, "", "deactivate", "nobody")
	assert.ErrorContains(t, err, "not found")
}

func TestPurge(t *testing.T) {
	db := testDB(t)
	mustCtl(t, db, "createsuperuser", "-u", "bob", "-p", "pw")

	_, err := ctl(t, db, "", "purge", "bob")
	assert.ErrorContains(t, err, "--yes")

	mustCtl(t, db, "purge", "bob", "--yes")
	deletes := auditJSON(t, db, "--action", "delete")
	require.Len(t, deletes, 1)
	assert.Equal(t, model.ModelUser, deletes[0].ModelName)

	assert.Len(t, auditJSON(t, db), 2, "the create record outlives the user")
}

func TestAuditList_Table(t *testing.T) {
	db := testDB(t)

	out := mustCtl(t, db, "audit", "list")
	assert.Contains(t, out, "No audit records match")

	mustCtl(t, db, "createsuperuser", "-u", "admin", "-p", "pw")
	out = mustCtl(t, db, "audit", "list")
	assert.Contains(t, out, "ACTION")
	assert.Contains(t, out, "system")
	assert.Contains(t, out, "create")
	assert.Contains(t, out, "User")
}

func TestAuditList_Filters(t *testing.T) {
	db := testDB(t)
	mustCtl(t, db, "createsuperuser", "-u", "a", "-p", "pw")
	mustCtl(t, db, "createsuperuser", "-u", "b", "-p", "pw")
	mustCtl(t, db, "deactivate", "b")

	assert.Len(t, auditJSON(t, db), 3)
	assert.Len(t, auditJSON(t, db, "--action", "create"), 2)
	assert.Len(t, auditJSON(t, db, "--model", "Snippet"), 0)
	assert.Len(t, auditJSON(t, db, "--user", "1"), 0, "system records have no user")
	assert.Len(t, auditJSON(t, db, "--limit", "1", "--offset", "1"), 1)

	_, err := ctl(t, db, "", "audit", "list", "--action", "purge")
	assert.ErrorContains(t, err, "unknown action")
	_, err = ctl(t, db, "", "audit", "list", "--model", "Order")
	assert.ErrorContains(t, err, "unknown model name")
}

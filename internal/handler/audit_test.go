package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditJSON struct {
	ID        int64  `json:"id"`
	User      *int64 `json:"user"`
	ModelName string `json:"model_name"`
	ObjectID  int64  `json:"object_id"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

func TestAuditList(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, "admin", true)
	f.seedUser(t, "carol", false)
	require.Equal(t, http.StatusOK,
		f.do(t, http.MethodPost, "/users/create", "admin", map[string]any{"username": "alice", "password": "p"}).Code)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/audit-records", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/audit-records", "carol", nil).Code)

	rr := f.do(t, http.MethodGet, "/audit-records", "admin", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]auditJSON](t, rr), 3)

	rr = f.do(t, http.MethodGet, "/audit-records?offset=2", "admin", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	paged := decode[[]auditJSON](t, rr)
	require.Len(t, paged, 1, "offset applies without a limit")
	assert.Equal(t, int64(3), paged[0].ID)

	rr = f.do(t, http.MethodGet, fmt.Sprintf("/audit-records?user=%d&action=create", admin.ID), "admin", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	recs := decode[[]auditJSON](t, rr)
	require.Len(t, recs, 1)
	assert.Equal(t, "User", recs[0].ModelName)
	assert.Equal(t, "create", recs[0].Action)
	require.NotNil(t, recs[0].User)
	assert.Equal(t, admin.ID, *recs[0].User)
	assert.NotEmpty(t, recs[0].Timestamp)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/audit-records?action=purge", "admin", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/audit-records?model_name=Order", "admin", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/audit-records?user=me", "admin", nil).Code)
}

func TestAuditDetail(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "admin", true)

	rr := f.do(t, http.MethodGet, "/audit-records/1", "admin", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rec := decode[auditJSON](t, rr)
	assert.Equal(t, int64(1), rec.ID)
	assert.Nil(t, rec.User, "seeded by the system actor")

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/audit-records/1?action=delete", "admin", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/audit-records/42", "admin", nil).Code)
}

// The ledger exposes no write methods over HTTP.
func TestAuditRecords_NoWriteRoutes(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "admin", true)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rr := f.do(t, method, "/audit-records/1", "admin", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, method)
	}
}

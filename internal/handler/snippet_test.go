package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snippetJSON struct {
	URL       string `json:"url"`
	Highlight string `json:"highlight"`
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Code      string `json:"code"`
	Language  string `json:"language"`
	Style     string `json:"style"`
	Owner     string `json:"owner"`
}

func TestSnippetCreate(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "carol", false)

	rr := f.do(t, http.MethodPost, "/snippets", "carol", map[string]any{"title": "hi", "code": "print('hi')"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	s := decode[snippetJSON](t, rr)
	assert.Equal(t, "carol", s.Owner)
	assert.Equal(t, "python", s.Language)
	assert.Equal(t, "friendly", s.Style)
	assert.Equal(t, fmt.Sprintf("/snippets/%d", s.ID), s.URL)
	assert.Equal(t, fmt.Sprintf("/snippets/%d/highlight", s.ID), s.Highlight)
	assert.NotContains(t, rr.Body.String(), "<html", "rendered page is not part of the JSON")
}

func TestSnippetCreate_Payloads(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "carol", false)

	tests := []struct {
		name string
		as   string
		body any
		want int
	}{
		{"anonymous", "", map[string]any{"code": "x"}, http.StatusUnauthorized},
		{"missing code", "carol", map[string]any{"title": "t"}, http.StatusBadRequest},
		{"title too long", "carol", map[string]any{"code": "x", "title": strings.Repeat("t", 101)}, http.StatusBadRequest},
		{"multibyte title within limit", "carol", map[string]any{"code": "x", "title": strings.Repeat("é", 60)}, http.StatusCreated},
		{"multibyte title at limit", "carol", map[string]any{"code": "x", "title": strings.Repeat("é", 100)}, http.StatusCreated},
		{"multibyte title over limit", "carol", map[string]any{"code": "x", "title": strings.Repeat("é", 101)}, http.StatusBadRequest},
		{"bad language", "carol", map[string]any{"code": "x", "language": "klingon"}, http.StatusBadRequest},
		{"no body", "carol", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/snippets", tt.as, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestSnippetReadEndpoints(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "carol", false)
	created := decode[snippetJSON](t, f.do(t, http.MethodPost, "/snippets", "carol", map[string]any{"code": "x = 1"}))

	rr := f.do(t, http.MethodGet, "/snippets", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]snippetJSON](t, rr), 1)

	rr = f.do(t, http.MethodGet, fmt.Sprintf("/snippets/%d", created.ID), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "x = 1", decode[snippetJSON](t, rr).Code)

	rr = f.do(t, http.MethodGet, fmt.Sprintf("/snippets/%d/highlight", created.ID), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "<html")

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/snippets/999", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/snippets/abc", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/snippets?limit=ten", "", nil).Code)
}

func TestSnippetUpdateAndDelete_Permissions(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "carol", false)
	f.seedUser(t, "dave", false)
	f.seedUser(t, "admin", true)
	s := decode[snippetJSON](t, f.do(t, http.MethodPost, "/snippets", "carol", map[string]any{"code": "x"}))
	path := fmt.Sprintf("/snippets/%d", s.ID)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPut, path, "dave", map[string]any{"code": "y"}).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, path, "dave", nil).Code)

	rr := f.do(t, http.MethodPut, path, "carol", map[string]any{"code": "y", "title": "edited"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "edited", decode[snippetJSON](t, rr).Title)

	rr = f.do(t, http.MethodPut, path, "admin", map[string]any{"code": "z"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, path, "admin", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, path, "", nil).Code)
}

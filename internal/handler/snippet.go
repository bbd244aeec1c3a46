package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/service"
)

// SnippetHandler serves the /snippets resource.
type SnippetHandler struct {
	service *service.SnippetService
	logger  *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler.
func NewSnippetHandler(svc *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{service: svc, logger: logger}
}

// snippetRequest is the body of POST and PUT /snippets. Language and style
// may be omitted; the service fills in defaults and checks them against the
// highlighter's registry.
type snippetRequest struct {
	Title    string `json:"title"    validate:"max=100"`
	Code     string `json:"code"     validate:"required"`
	Linenos  bool   `json:"linenos"`
	Language string `json:"language"`
	Style    string `json:"style"`
}

func (req snippetRequest) input() service.SnippetInput {
	return service.SnippetInput{
		Title:    req.Title,
		Code:     req.Code,
		Linenos:  req.Linenos,
		Language: req.Language,
		Style:    req.Style,
	}
}

// snippetResponse adds hypermedia links to a snippet.
type snippetResponse struct {
	URL       string `json:"url"`
	Highlight string `json:"highlight"`
	*model.Snippet
}

func toSnippetResponse(s *model.Snippet) snippetResponse {
	return snippetResponse{
		URL:       fmt.Sprintf("/snippets/%d", s.ID),
		Highlight: fmt.Sprintf("/snippets/%d/highlight", s.ID),
		Snippet:   s,
	}
}

// HandleList returns a page of snippets.
//
// HTTP: GET /snippets?limit=20&offset=0
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	snippets, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]snippetResponse, 0, len(snippets))
	for i := range snippets {
		out = append(out, toSnippetResponse(&snippets[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetByID returns one snippet.
//
// HTTP: GET /snippets/{id}
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnippetResponse(snippet))
}

// HandleHighlight returns the snippet rendered as a standalone HTML page.
//
// HTTP: GET /snippets/{id}/highlight
func (h *SnippetHandler) HandleHighlight(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.service.Highlight(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(page)); err != nil {
		h.logger.WarnContext(r.Context(), "writing highlight page", slog.String("error", err.Error()))
	}
}

// HandleCreate saves a new snippet owned by the caller.
//
// HTTP: POST /snippets
// REQUEST BODY: {"title": "hello", "code": "print('hello')", "language": "python"}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSnippetResponse(snippet))
}

// HandleUpdate replaces a snippet's editable fields.
//
// HTTP: PUT /snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnippetResponse(snippet))
}

// HandleDelete removes a snippet.
//
// HTTP: DELETE /snippets/{id} → 204 No Content
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

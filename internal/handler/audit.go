package handler

import (
	"net/http"
	"strconv"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
	"github.com/sakif/snippets-api/internal/service"
)

// AuditHandler serves the read-only /audit-records resource. Staff only.
type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// auditFilter reads ?user=&action=&model_name=&limit=&offset=.
// Unknown actions or model names are rejected rather than matching nothing.
func auditFilter(r *http.Request) (repository.AuditFilter, error) {
	var f repository.AuditFilter
	q := r.URL.Query()

	if raw := q.Get("user"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, apperror.ValidationFailed("user", "user must be a numeric id")
		}
		f.UserID = &id
	}
	if raw := q.Get("action"); raw != "" {
		a, err := model.ParseAction(raw)
		if err != nil {
			return f, apperror.ValidationFailed("action", "action must be one of create, update, delete")
		}
		f.Action = a
	}
	if raw := q.Get("model_name"); raw != "" {
		m, err := model.ParseModelName(raw)
		if err != nil {
			return f, apperror.ValidationFailed("model_name", "model_name must be User or Snippet")
		}
		f.ModelName = m
	}

	var err error
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

// HandleList returns matching records in insertion order.
//
// HTTP: GET /audit-records?user=1&action=create
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	f, err := auditFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.service.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleGetByID returns one record. The list filters apply here too.
//
// HTTP: GET /audit-records/{id}
func (h *AuditHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := auditFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.service.Get(r.Context(), id, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

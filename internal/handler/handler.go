// Package handler contains the HTTP handlers of the snippets API.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the incoming HTTP request (path params, query, JSON body)
//  2. Call the service layer
//  3. Write the HTTP response (status code, headers, body)
//
// Handlers hold no business rules and never read the caller themselves:
// the auth middleware has already bound the actor on r.Context(), and the
// services read it from there.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snippets-api/internal/apperror"
)

// maxBodyBytes caps JSON request bodies. Snippet code is the largest field.
const maxBodyBytes = 1 << 20

// HandleAPIRoot lists the top-level collections.
//
// HTTP: GET /
func HandleAPIRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"users":         "/users",
		"snippets":      "/snippets",
		"audit-records": "/audit-records",
	})
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", fmt.Sprintf("%q is not a valid id", raw))
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(key, fmt.Sprintf("%s must be an integer", key))
	}
	return v, nil
}

// queryBool reads an optional flag such as ?show_inactive_users=true. Only
// "true", in any case, turns it on.
func queryBool(r *http.Request, key string) bool {
	return strings.EqualFold(r.URL.Query().Get(key), "true")
}

// decodeJSON reads a JSON body into dst and validates it.
//
// JSON DECODING:
// json.NewDecoder streams the body instead of buffering it, and
// http.MaxBytesReader stops a client from sending an unbounded body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return apperror.ValidationFailed("body", "request body too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		default:
			return apperror.ValidationFailed("body", "invalid JSON body")
		}
	}
	return validateStruct(dst)
}

package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/service"
)

// UserHandler serves /users and the staff-only account management
// endpoints.
type UserHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Password string `json:"password" validate:"required,max=72"`
	IsStaff  bool   `json:"isStaff"`
}

type deleteUserRequest struct {
	Username string `json:"username" validate:"required"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// userResponse is the public view of an account: no staff or active flags,
// snippets as links.
type userResponse struct {
	URL      string   `json:"url"`
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Snippets []string `json:"snippets"`
}

func toUserResponse(u *model.User) userResponse {
	links := make([]string, 0, len(u.Snippets))
	for _, id := range u.Snippets {
		links = append(links, fmt.Sprintf("/snippets/%d", id))
	}
	return userResponse{
		URL:      fmt.Sprintf("/users/%d", u.ID),
		ID:       u.ID,
		Username: u.Username,
		Snippets: links,
	}
}

// HandleList returns users; staff may add ?show_inactive_users=true.
//
// HTTP: GET /users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context(), queryBool(r, "show_inactive_users"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetByID returns one user.
//
// HTTP: GET /users/{id}
func (h *UserHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Get(r.Context(), id, queryBool(r, "show_inactive_users"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleCreate creates an account. Staff only.
//
// HTTP: POST /users/create
// REQUEST BODY: {"username": "alice", "password": "..."}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.service.Create(r.Context(), service.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		IsStaff:  req.IsStaff,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detailResponse{Detail: "User successfully created"})
}

// HandleDelete soft-deletes an account. Staff only.
//
// HTTP: DELETE /users/delete
// REQUEST BODY: {"username": "bob"}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.service.SoftDelete(r.Context(), req.Username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detailResponse{Detail: "User deleted"})
}

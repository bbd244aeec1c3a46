package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippets-api/internal/actor"
	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/auth"
	"github.com/sakif/snippets-api/internal/service"
)

// AuthHandler handles login, logout and "who am I".
type AuthHandler struct {
	auth   *service.AuthService
	users  *service.UserService
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(
	authSvc *service.AuthService,
	users *service.UserService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:   authSvc,
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// HandleLogin exchanges credentials for a JWT.
//
// HTTP: POST /login
// REQUEST BODY: {"username": "alice", "password": "..."}
// RESPONSE: {"token": "<jwt>"}; the same token is also set as an HttpOnly
// cookie so browser clients need no extra work.
//
// Missing or wrong credentials are a 400, not a 401: the request itself
// was unacceptable, nobody was being challenged.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	// HttpOnly = JavaScript cannot read this cookie (XSS protection).
	// SameSite=Lax = sent on top-level navigations but not cross-site POSTs.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, tokenResponse{Token: res.Token})
}

// HandleLogout clears the token cookie.
//
// HTTP: POST /logout
//
// Since we're stateless (JWT), "logout" just means deleting the client-side
// cookie. The token remains technically valid until it expires; deactivating
// the user is what revokes it server-side.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, detailResponse{Detail: "logged out"})
}

// HandleMe returns the caller's own account.
//
// HTTP: GET /me (authenticated)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	a, ok := actor.FromContext(r.Context())
	if !ok || a.IsSystem() {
		writeError(w, apperror.Unauthorized("authentication credentials were not provided"))
		return
	}

	user, err := h.users.Get(r.Context(), a.UserID, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		userResponse: toUserResponse(user),
		IsStaff:      user.IsStaff,
	})
}

type meResponse struct {
	userResponse
	IsStaff bool `json:"isStaff"`
}

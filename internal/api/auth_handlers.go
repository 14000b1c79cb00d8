package api

import (
	"net/http"
	"time"

	"clipstream/internal/models"
	"clipstream/internal/storage"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type authResponse struct {
	User      userResponse `json:"user"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// userResponse is the account projection returned to its owner. The password
// hash never leaves the storage layer.
type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CoverURL  string    `json:"coverUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserResponse(user models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		AvatarURL: user.AvatarURL,
		CoverURL:  user.CoverURL,
		CreatedAt: user.CreatedAt,
	}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.Store.CreateUser(r.Context(), storage.CreateUserParams{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		writeRepositoryError(w, err)
		return
	}

	token, expiresAt, err := h.sessionManager().Create(r.Context(), user.ID)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}

	setSessionCookie(w, r, token, expiresAt)
	writeSuccess(w, http.StatusCreated, authResponse{User: newUserResponse(user), ExpiresAt: expiresAt}, "account created")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.Store.AuthenticateUser(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.sessionManager().Create(r.Context(), user.ID)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}

	setSessionCookie(w, r, token, expiresAt)
	writeSuccess(w, http.StatusOK, authResponse{User: newUserResponse(user), ExpiresAt: expiresAt}, "logged in")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if token := ExtractToken(r); token != "" {
		if err := h.sessionManager().Revoke(r.Context(), token); err != nil {
			writeFailure(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	clearSessionCookie(w, r)
	writeSuccess(w, http.StatusOK, nil, "logged out")
}

// Session returns the authenticated account, or 401 when the token is
// missing or stale.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		user, ok := h.requireAuthenticatedUser(w, r)
		if !ok {
			return
		}
		writeSuccess(w, http.StatusOK, newUserResponse(user), "current session")
	case http.MethodPatch:
		h.changePassword(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPatch)
	}
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.Store.AuthenticateUser(r.Context(), user.Username, req.OldPassword); err != nil {
		writeFailure(w, http.StatusBadRequest, "old password is incorrect")
		return
	}
	updated, err := h.Store.SetUserPassword(r.Context(), user.ID, req.NewPassword)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, newUserResponse(updated), "password changed")
}

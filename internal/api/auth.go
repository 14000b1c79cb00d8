package api

import (
	"context"
	"errors"
	"net/http"

	"clipstream/internal/models"
	"clipstream/internal/storage"
)

type contextKey string

const userContextKey contextKey = "authenticatedUser"

// ContextWithUser stores the authenticated user in the provided context.
func ContextWithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the authenticated user from context if present.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// AuthenticateRequest validates the session token on the request and returns
// the acting user. The auth middleware calls this once per request.
func (h *Handler) AuthenticateRequest(r *http.Request) (models.User, error) {
	token := ExtractToken(r)
	if token == "" {
		return models.User{}, errors.New("missing session token")
	}
	userID, _, ok, err := h.sessionManager().Validate(r.Context(), token)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, errors.New("invalid or expired session")
	}
	user, err := h.Store.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, errors.New("account not found")
		}
		return models.User{}, err
	}
	return user, nil
}

func (h *Handler) requireAuthenticatedUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "authentication required")
		return models.User{}, false
	}
	return user, true
}

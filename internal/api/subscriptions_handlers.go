package api

import (
	"net/http"
	"strings"
)

// Subscriptions handles POST /api/subscriptions/channels/{id}/toggle.
func (h *Handler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/subscriptions/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) != 3 || parts[0] != "channels" || parts[2] != "toggle" {
		writeFailure(w, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	channelID := parts[1]
	if !requireValidID(w, channelID, "channel id") {
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	subscribed, err := h.Store.ToggleSubscription(r.Context(), user.ID, channelID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	recordEngagement("subscriptions_toggled")
	writeSuccess(w, http.StatusOK, map[string]bool{"subscribed": subscribed}, "subscription toggled")
}

// ChannelSubscribers serves GET /api/channels/{id}/subscribers.
func (h *Handler) ChannelSubscribers(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/channels/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) != 2 || parts[1] != "subscribers" {
		writeFailure(w, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	channelID := parts[0]
	if !requireValidID(w, channelID, "channel id") {
		return
	}
	subscribers, err := h.Store.ListChannelSubscribers(r.Context(), channelID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, subscribers, "subscribers fetched")
}

// userSubscriptions serves GET /api/users/{id}/subscriptions.
func (h *Handler) userSubscriptions(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	channels, err := h.Store.ListSubscribedChannels(r.Context(), userID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, channels, "subscribed channels fetched")
}

// UserResources dispatches /api/users/{id}/... subresources.
func (h *Handler) UserResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/users/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) != 2 {
		writeFailure(w, http.StatusNotFound, "resource not found")
		return
	}
	userID := parts[0]
	if !requireValidID(w, userID, "user id") {
		return
	}
	switch parts[1] {
	case "tweets":
		h.userTweets(w, r, userID)
	case "playlists":
		h.userPlaylists(w, r, userID)
	case "subscriptions":
		h.userSubscriptions(w, r, userID)
	default:
		writeFailure(w, http.StatusNotFound, "resource not found")
	}
}

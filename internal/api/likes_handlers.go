package api

import (
	"net/http"
	"strings"

	"clipstream/internal/models"
)

// Likes dispatches /api/likes/... : per-kind toggles and the liked-videos
// listing.
func (h *Handler) Likes(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/likes/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")

	if len(parts) == 1 && parts[0] == "videos" {
		h.likedVideos(w, r)
		return
	}
	if len(parts) == 3 && parts[2] == "toggle" {
		var kind models.LikeTarget
		switch parts[0] {
		case "videos":
			kind = models.LikeTargetVideo
		case "comments":
			kind = models.LikeTargetComment
		case "tweets":
			kind = models.LikeTargetTweet
		default:
			writeFailure(w, http.StatusNotFound, "resource not found")
			return
		}
		h.toggleLike(w, r, kind, parts[1])
		return
	}
	writeFailure(w, http.StatusNotFound, "resource not found")
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request, kind models.LikeTarget, targetID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if !requireValidID(w, targetID, string(kind)+" id") {
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	liked, err := h.Store.ToggleLike(r.Context(), user.ID, kind, targetID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	recordEngagement("likes_toggled")
	writeSuccess(w, http.StatusOK, map[string]bool{"liked": liked}, "like toggled")
}

func (h *Handler) likedVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	videos, err := h.Store.ListLikedVideos(r.Context(), user.ID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, videos, "liked videos fetched")
}

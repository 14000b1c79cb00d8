package api

import (
	"net/http"
	"strings"
)

type commentRequest struct {
	Content string `json:"content"`
}

// videoComments serves /api/videos/{id}/comments.
func (h *Handler) videoComments(w http.ResponseWriter, r *http.Request, videoID string) {
	switch r.Method {
	case http.MethodGet:
		page, err := h.Store.ListVideoComments(r.Context(), videoID, parsePageRequest(r))
		if err != nil {
			writeRepositoryError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, page, "comments fetched")
	case http.MethodPost:
		user, ok := h.requireAuthenticatedUser(w, r)
		if !ok {
			return
		}
		var req commentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		comment, err := h.Store.AddComment(r.Context(), videoID, user.ID, req.Content)
		if err != nil {
			writeRepositoryError(w, err)
			return
		}
		recordEngagement("comments_created")
		writeSuccess(w, http.StatusCreated, comment, "comment added")
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// CommentByID handles /api/comments/{id}.
func (h *Handler) CommentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/comments/"), "/")
	if !requireValidID(w, id, "comment id") {
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req commentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		comment, err := h.Store.UpdateComment(r.Context(), id, user.ID, req.Content)
		if err != nil {
			writeRepositoryError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, comment, "comment updated")
	case http.MethodDelete:
		if err := h.Store.DeleteComment(r.Context(), id, user.ID); err != nil {
			writeRepositoryError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"id": id}, "comment deleted")
	default:
		methodNotAllowed(w, http.MethodPatch, http.MethodDelete)
	}
}

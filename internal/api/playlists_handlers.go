package api

import (
	"net/http"
	"strings"

	"clipstream/internal/storage"
)

type playlistCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type playlistUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Playlists handles POST /api/playlists.
func (h *Handler) Playlists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req playlistCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	playlist, err := h.Store.CreatePlaylist(r.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, playlist, "playlist created")
}

// PlaylistByID handles /api/playlists/{id} and membership subresources.
func (h *Handler) PlaylistByID(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/playlists/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeFailure(w, http.StatusNotFound, "resource not found")
		return
	}
	id := parts[0]
	if !requireValidID(w, id, "playlist id") {
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getPlaylist(w, r, id)
		case http.MethodPatch:
			h.updatePlaylist(w, r, id)
		case http.MethodDelete:
			h.deletePlaylist(w, r, id)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
		return
	}

	if len(parts) == 3 && parts[1] == "videos" {
		h.playlistMembership(w, r, id, parts[2])
		return
	}
	writeFailure(w, http.StatusNotFound, "resource not found")
}

func (h *Handler) getPlaylist(w http.ResponseWriter, r *http.Request, id string) {
	playlist, err := h.Store.GetPlaylist(r.Context(), id)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, playlist, "playlist fetched")
}

func (h *Handler) updatePlaylist(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req playlistUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == nil && req.Description == nil {
		writeFailure(w, http.StatusBadRequest, "no fields to update")
		return
	}
	playlist, err := h.Store.UpdatePlaylist(r.Context(), id, user.ID, storage.PlaylistUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, playlist, "playlist updated")
}

func (h *Handler) deletePlaylist(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeletePlaylist(r.Context(), id, user.ID); err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"id": id}, "playlist deleted")
}

func (h *Handler) playlistMembership(w http.ResponseWriter, r *http.Request, playlistID, videoID string) {
	if !requireValidID(w, videoID, "video id") {
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		playlist, err := h.Store.AddPlaylistVideo(r.Context(), playlistID, videoID, user.ID)
		if err != nil {
			writeRepositoryError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, playlist, "video added to playlist")
	case http.MethodDelete:
		playlist, err := h.Store.RemovePlaylistVideo(r.Context(), playlistID, videoID, user.ID)
		if err != nil {
			writeRepositoryError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, playlist, "video removed from playlist")
	default:
		methodNotAllowed(w, http.MethodPost, http.MethodDelete)
	}
}

// userPlaylists serves GET /api/users/{id}/playlists.
func (h *Handler) userPlaylists(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	playlists, err := h.Store.ListUserPlaylists(r.Context(), userID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, playlists, "playlists fetched")
}

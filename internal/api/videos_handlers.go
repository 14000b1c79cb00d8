package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"clipstream/internal/storage"
)

const maxUploadBytes = 1 << 30 // 1 GiB multipart ceiling

type videoUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Thumbnail   *string `json:"thumbnail"`
}

// Videos handles the /api/videos collection: listing and publishing.
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listVideos(w, r)
	case http.MethodPost:
		h.publishVideo(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *Handler) listVideos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := storage.VideoFilter{
		Query:   strings.TrimSpace(query.Get("q")),
		OwnerID: strings.TrimSpace(query.Get("owner")),
	}
	if filter.OwnerID != "" && !storage.ValidID(filter.OwnerID) {
		writeFailure(w, http.StatusBadRequest, "invalid owner")
		return
	}
	// Owners see their own drafts when filtering by themselves.
	if user, ok := UserFromContext(r.Context()); ok && filter.OwnerID == user.ID {
		filter.IncludeUnpublished = true
	}

	page, err := h.Store.ListVideos(r.Context(), filter, parsePageRequest(r))
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, page, "videos fetched")
}

func (h *Handler) publishVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	videoURL, err := h.uploadFormFile(r, "videoFile")
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, fmt.Sprintf("video upload failed: %v", err))
		return
	}
	if videoURL == "" {
		writeFailure(w, http.StatusBadRequest, "videoFile is required")
		return
	}
	thumbnailURL, err := h.uploadFormFile(r, "thumbnail")
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, fmt.Sprintf("thumbnail upload failed: %v", err))
		return
	}

	duration := 0
	if raw := r.FormValue("durationSeconds"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			duration = value
		}
	}
	published := true
	if raw := r.FormValue("published"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			published = value
		}
	}

	video, err := h.Store.PublishVideo(r.Context(), storage.CreateVideoParams{
		OwnerID:         user.ID,
		Title:           r.FormValue("title"),
		Description:     r.FormValue("description"),
		VideoURL:        videoURL,
		ThumbnailURL:    thumbnailURL,
		DurationSeconds: duration,
		Published:       published,
	})
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	recordEngagement("videos_published")
	writeSuccess(w, http.StatusCreated, video, "video published")
}

// uploadFormFile stages the named multipart file on disk and hands it to the
// media uploader. Absent fields return an empty URL with no error.
func (h *Handler) uploadFormFile(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	localPath, err := stageUpload(file, header)
	if err != nil {
		return "", err
	}
	return h.Media.UploadFile(r.Context(), localPath)
}

func stageUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	tmp, err := os.CreateTemp("", "clipstream-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("stage upload: %w", err)
	}
	return tmp.Name(), nil
}

// VideoByID handles /api/videos/{id} and its subresources.
func (h *Handler) VideoByID(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/videos/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeFailure(w, http.StatusNotFound, "resource not found")
		return
	}
	id := parts[0]
	if !requireValidID(w, id, "video id") {
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getVideo(w, r, id)
		case http.MethodPatch:
			h.updateVideo(w, r, id)
		case http.MethodDelete:
			h.deleteVideo(w, r, id)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
		return
	}

	switch parts[1] {
	case "toggle-publish":
		h.toggleVideoPublish(w, r, id)
	case "comments":
		h.videoComments(w, r, id)
	default:
		writeFailure(w, http.StatusNotFound, "resource not found")
	}
}

func (h *Handler) getVideo(w http.ResponseWriter, r *http.Request, id string) {
	video, err := h.Store.GetVideo(r.Context(), id)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	if !video.Published {
		user, ok := UserFromContext(r.Context())
		if !ok || user.ID != video.OwnerID {
			writeFailure(w, http.StatusNotFound, "resource not found")
			return
		}
	}
	// Count the view only once the caller is allowed to see the video.
	if raw := r.URL.Query().Get("view"); raw == "1" || strings.EqualFold(raw, "true") {
		if err := h.Store.RecordView(r.Context(), id); err != nil {
			writeRepositoryError(w, err)
			return
		}
		video.Views++
	}
	writeSuccess(w, http.StatusOK, video, "video fetched")
}

func (h *Handler) updateVideo(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}

	update := storage.VideoUpdate{}
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid multipart payload")
			return
		}
		if _, ok := r.MultipartForm.Value["title"]; ok {
			title := r.FormValue("title")
			update.Title = &title
		}
		if _, ok := r.MultipartForm.Value["description"]; ok {
			description := r.FormValue("description")
			update.Description = &description
		}
		thumbnailURL, err := h.uploadFormFile(r, "thumbnail")
		if err != nil {
			writeFailure(w, http.StatusInternalServerError, fmt.Sprintf("thumbnail upload failed: %v", err))
			return
		}
		if thumbnailURL != "" {
			update.ThumbnailURL = &thumbnailURL
		}
	} else {
		var req videoUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		update.Title = req.Title
		update.Description = req.Description
		update.ThumbnailURL = req.Thumbnail
	}
	if update.Title == nil && update.Description == nil && update.ThumbnailURL == nil {
		writeFailure(w, http.StatusBadRequest, "no fields to update")
		return
	}

	video, err := h.Store.UpdateVideo(r.Context(), id, user.ID, update)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, video, "video updated")
}

func (h *Handler) deleteVideo(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteVideo(r.Context(), id, user.ID); err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"id": id}, "video deleted")
}

func (h *Handler) toggleVideoPublish(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	published, err := h.Store.ToggleVideoPublish(r.Context(), id, user.ID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"isPublished": published}, "publish status toggled")
}

// DashboardVideos lists the requester's own videos, drafts included.
func (h *Handler) DashboardVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	page, err := h.Store.ListVideos(r.Context(), storage.VideoFilter{
		OwnerID:            user.ID,
		IncludeUnpublished: true,
	}, parsePageRequest(r))
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, page, "channel videos fetched")
}

// DashboardStats returns the requester's channel aggregates.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	stats, err := h.Store.ChannelStats(r.Context(), user.ID)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, stats, "channel stats fetched")
}

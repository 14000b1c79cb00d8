package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clipstream/internal/models"
	"clipstream/internal/storage"
)

// multipartRequest builds an upload request with text fields and fake file
// parts keyed by form field name.
func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %q: %v", name, err)
		}
	}
	for field, filename := range files {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create file part %q: %v", field, err)
		}
		if _, err := part.Write([]byte("not a real codec stream")); err != nil {
			t.Fatalf("write file part %q: %v", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestPublishVideoUpload(t *testing.T) {
	h, store := newTestHandler(t)
	user := seedHandlerUser(t, store, "alice")

	req := multipartRequest(t, "/api/videos", map[string]string{
		"title":           "  First Clip  ",
		"description":     "about nothing",
		"durationSeconds": "95",
	}, map[string]string{
		"videoFile": "clip.mp4",
		"thumbnail": "cover.png",
	})
	req = req.WithContext(ContextWithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	h.Videos(rec, req)

	env := wantSuccess(t, rec, http.StatusCreated)
	var video models.VideoWithOwner
	decodeData(t, env, &video)
	if video.Title != "First Clip" {
		t.Errorf("title = %q, want trimmed %q", video.Title, "First Clip")
	}
	if !strings.HasPrefix(video.VideoURL, "file://") {
		t.Errorf("videoURL = %q, want local file URL", video.VideoURL)
	}
	if !strings.HasPrefix(video.ThumbnailURL, "file://") {
		t.Errorf("thumbnailURL = %q, want local file URL", video.ThumbnailURL)
	}
	if video.DurationSeconds != 95 {
		t.Errorf("duration = %d, want 95", video.DurationSeconds)
	}
	if !video.Published {
		t.Error("video not published by default")
	}
	if video.Owner.Username != "alice" {
		t.Errorf("owner projection = %+v, want alice", video.Owner)
	}
}

func TestPublishVideoAsDraft(t *testing.T) {
	h, store := newTestHandler(t)
	user := seedHandlerUser(t, store, "alice")

	req := multipartRequest(t, "/api/videos", map[string]string{
		"title":     "Draft Clip",
		"published": "false",
	}, map[string]string{"videoFile": "clip.mp4"})
	req = req.WithContext(ContextWithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	h.Videos(rec, req)

	env := wantSuccess(t, rec, http.StatusCreated)
	var video models.Video
	decodeData(t, env, &video)
	if video.Published {
		t.Error("published = true, want draft")
	}
}

func TestPublishVideoRequiresFile(t *testing.T) {
	h, store := newTestHandler(t)
	user := seedHandlerUser(t, store, "alice")

	req := multipartRequest(t, "/api/videos", map[string]string{"title": "No File"}, nil)
	req = req.WithContext(ContextWithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	h.Videos(rec, req)

	wantFailure(t, rec, http.StatusBadRequest, "videoFile is required")
}

func TestPublishVideoRequiresAuth(t *testing.T) {
	h, _ := newTestHandler(t)

	req := multipartRequest(t, "/api/videos", nil, map[string]string{"videoFile": "clip.mp4"})
	rec := httptest.NewRecorder()
	h.Videos(rec, req)

	wantFailure(t, rec, http.StatusUnauthorized, "authentication required")
}

func TestListVideosHidesDraftsFromStrangers(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	seedHandlerVideo(t, store, owner.ID, "public clip")
	if _, err := store.PublishVideo(context.Background(), storage.CreateVideoParams{
		OwnerID:  owner.ID,
		Title:    "draft clip",
		VideoURL: "file:///videos/draft.mp4",
	}); err != nil {
		t.Fatalf("PublishVideo draft: %v", err)
	}

	rec := doJSON(t, h.Videos, http.MethodGet, "/api/videos?owner="+owner.ID, nil, nil)
	env := wantSuccess(t, rec, http.StatusOK)
	var page struct {
		Items []models.Video `json:"items"`
		Total int            `json:"total"`
	}
	decodeData(t, env, &page)
	if page.Total != 1 {
		t.Errorf("anonymous total = %d, want 1", page.Total)
	}

	// Owners filtering by themselves see their drafts.
	rec = doJSON(t, h.Videos, http.MethodGet, "/api/videos?owner="+owner.ID, nil, &owner)
	env = wantSuccess(t, rec, http.StatusOK)
	decodeData(t, env, &page)
	if page.Total != 2 {
		t.Errorf("owner total = %d, want 2", page.Total)
	}
}

func TestListVideosSearchAndPagination(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	seedHandlerVideo(t, store, owner.ID, "go tour part one")
	seedHandlerVideo(t, store, owner.ID, "go tour part two")
	seedHandlerVideo(t, store, owner.ID, "cooking show")

	rec := doJSON(t, h.Videos, http.MethodGet, "/api/videos?q=go+tour&limit=1&page=2", nil, nil)
	env := wantSuccess(t, rec, http.StatusOK)
	var page struct {
		Items      []models.Video `json:"items"`
		Total      int            `json:"total"`
		Page       int            `json:"page"`
		Limit      int            `json:"limit"`
		TotalPages int            `json:"totalPages"`
	}
	decodeData(t, env, &page)
	if page.Total != 2 || page.TotalPages != 2 || page.Page != 2 || len(page.Items) != 1 {
		t.Errorf("page = %+v, want total 2 across 2 pages with 1 item", page)
	}
}

func TestListVideosRejectsMalformedOwner(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h.Videos, http.MethodGet, "/api/videos?owner=not-hex", nil, nil)
	wantFailure(t, rec, http.StatusBadRequest, "invalid owner")
}

func TestGetVideoRecordsView(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	video := seedHandlerVideo(t, store, owner.ID, "clip")

	rec := doJSON(t, h.VideoByID, http.MethodGet, "/api/videos/"+video.ID+"?view=1", nil, nil)
	wantSuccess(t, rec, http.StatusOK)
	rec = doJSON(t, h.VideoByID, http.MethodGet, "/api/videos/"+video.ID+"?view=true", nil, nil)
	env := wantSuccess(t, rec, http.StatusOK)

	var got models.Video
	decodeData(t, env, &got)
	if got.Views != 2 {
		t.Errorf("views = %d, want 2", got.Views)
	}

	// A plain fetch does not count.
	rec = doJSON(t, h.VideoByID, http.MethodGet, "/api/videos/"+video.ID, nil, nil)
	env = wantSuccess(t, rec, http.StatusOK)
	decodeData(t, env, &got)
	if got.Views != 2 {
		t.Errorf("views after plain fetch = %d, want 2", got.Views)
	}
}

func TestGetVideoHidesDraftFromStrangers(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	other := seedHandlerUser(t, store, "bob")
	draft, err := store.PublishVideo(context.Background(), storage.CreateVideoParams{
		OwnerID:  owner.ID,
		Title:    "draft",
		VideoURL: "file:///videos/draft.mp4",
	})
	if err != nil {
		t.Fatalf("PublishVideo: %v", err)
	}

	rec := doJSON(t, h.VideoByID, http.MethodGet, "/api/videos/"+draft.ID, nil, nil)
	wantFailure(t, rec, http.StatusNotFound, "resource not found")

	rec = doJSON(t, h.VideoByID, http.MethodGet, "/api/videos/"+draft.ID, nil, &other)
	wantFailure(t, rec, http.StatusNotFound, "resource not found")

	rec = doJSON(t, h.VideoByID, http.MethodGet, "/api/videos/"+draft.ID, nil, &owner)
	wantSuccess(t, rec, http.StatusOK)
}

func TestGetVideoDoesNotCountHiddenViews(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	draft, err := store.PublishVideo(context.Background(), storage.CreateVideoParams{
		OwnerID:  owner.ID,
		Title:    "draft",
		VideoURL: "file:///videos/draft.mp4",
	})
	if err != nil {
		t.Fatalf("PublishVideo: %v", err)
	}

	rec := doJSON(t, h.VideoByID, http.MethodGet, "/api/videos/"+draft.ID+"?view=1", nil, nil)
	wantFailure(t, rec, http.StatusNotFound, "resource not found")

	got, err := store.GetVideo(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if got.Views != 0 {
		t.Errorf("views = %d after hidden fetch, want 0", got.Views)
	}
}

func TestUpdateVideo(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	other := seedHandlerUser(t, store, "bob")
	video := seedHandlerVideo(t, store, owner.ID, "before")

	rec := doJSON(t, h.VideoByID, http.MethodPatch, "/api/videos/"+video.ID, map[string]string{
		"title": "after",
	}, &other)
	wantFailure(t, rec, http.StatusForbidden, "you do not own this resource")

	rec = doJSON(t, h.VideoByID, http.MethodPatch, "/api/videos/"+video.ID, map[string]string{}, &owner)
	wantFailure(t, rec, http.StatusBadRequest, "no fields to update")

	rec = doJSON(t, h.VideoByID, http.MethodPatch, "/api/videos/"+video.ID, map[string]string{
		"title": "after",
	}, &owner)
	env := wantSuccess(t, rec, http.StatusOK)
	var got models.Video
	decodeData(t, env, &got)
	if got.Title != "after" {
		t.Errorf("title = %q, want %q", got.Title, "after")
	}
}

func TestToggleVideoPublish(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	video := seedHandlerVideo(t, store, owner.ID, "clip")

	rec := doJSON(t, h.VideoByID, http.MethodPost, "/api/videos/"+video.ID+"/toggle-publish", nil, &owner)
	env := wantSuccess(t, rec, http.StatusOK)
	var toggled map[string]bool
	decodeData(t, env, &toggled)
	if toggled["isPublished"] {
		t.Error("isPublished = true after first toggle, want false")
	}

	rec = doJSON(t, h.VideoByID, http.MethodPost, "/api/videos/"+video.ID+"/toggle-publish", nil, &owner)
	env = wantSuccess(t, rec, http.StatusOK)
	decodeData(t, env, &toggled)
	if !toggled["isPublished"] {
		t.Error("isPublished = false after second toggle, want true")
	}
}

func TestDeleteVideo(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	other := seedHandlerUser(t, store, "bob")
	video := seedHandlerVideo(t, store, owner.ID, "clip")

	rec := doJSON(t, h.VideoByID, http.MethodDelete, "/api/videos/"+video.ID, nil, &other)
	wantFailure(t, rec, http.StatusForbidden, "you do not own this resource")

	rec = doJSON(t, h.VideoByID, http.MethodDelete, "/api/videos/"+video.ID, nil, &owner)
	wantSuccess(t, rec, http.StatusOK)

	rec = doJSON(t, h.VideoByID, http.MethodGet, "/api/videos/"+video.ID, nil, &owner)
	wantFailure(t, rec, http.StatusNotFound, "resource not found")
}

func TestVideoByIDRejectsMalformedID(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h.VideoByID, http.MethodGet, "/api/videos/short", nil, nil)
	wantFailure(t, rec, http.StatusBadRequest, "invalid video id")
}

func TestDashboardVideosIncludesDrafts(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	seedHandlerVideo(t, store, owner.ID, "published clip")
	if _, err := store.PublishVideo(context.Background(), storage.CreateVideoParams{
		OwnerID:  owner.ID,
		Title:    "draft clip",
		VideoURL: "file:///videos/draft.mp4",
	}); err != nil {
		t.Fatalf("PublishVideo draft: %v", err)
	}

	rec := doJSON(t, h.DashboardVideos, http.MethodGet, "/api/dashboard/videos", nil, &owner)
	env := wantSuccess(t, rec, http.StatusOK)
	var page struct {
		Total int `json:"total"`
	}
	decodeData(t, env, &page)
	if page.Total != 2 {
		t.Errorf("total = %d, want 2", page.Total)
	}
}

func TestDashboardStats(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	fan := seedHandlerUser(t, store, "bob")
	video := seedHandlerVideo(t, store, owner.ID, "clip")

	ctx := context.Background()
	if err := store.RecordView(ctx, video.ID); err != nil {
		t.Fatalf("RecordView: %v", err)
	}
	if _, err := store.ToggleLike(ctx, fan.ID, models.LikeTargetVideo, video.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if _, err := store.ToggleSubscription(ctx, fan.ID, owner.ID); err != nil {
		t.Fatalf("ToggleSubscription: %v", err)
	}

	rec := doJSON(t, h.DashboardStats, http.MethodGet, "/api/dashboard/stats", nil, &owner)
	env := wantSuccess(t, rec, http.StatusOK)
	var stats models.ChannelStats
	decodeData(t, env, &stats)
	if stats.TotalVideos != 1 || stats.TotalViews != 1 || stats.TotalSubscribers != 1 || stats.TotalLikes != 1 {
		t.Errorf("stats = %+v, want one of each", stats)
	}
}

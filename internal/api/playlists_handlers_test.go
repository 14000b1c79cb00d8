package api

import (
	"context"
	"net/http"
	"testing"

	"clipstream/internal/models"
)

func TestCreatePlaylist(t *testing.T) {
	h, store := newTestHandler(t)
	user := seedHandlerUser(t, store, "alice")

	rec := doJSON(t, h.Playlists, http.MethodPost, "/api/playlists", map[string]string{
		"name":        "  Watch Later  ",
		"description": "queue",
	}, &user)
	env := wantSuccess(t, rec, http.StatusCreated)

	var playlist models.Playlist
	decodeData(t, env, &playlist)
	if playlist.Name != "Watch Later" {
		t.Errorf("name = %q, want trimmed %q", playlist.Name, "Watch Later")
	}
	if playlist.OwnerID != user.ID {
		t.Errorf("ownerId = %q, want %q", playlist.OwnerID, user.ID)
	}

	rec = doJSON(t, h.Playlists, http.MethodPost, "/api/playlists", map[string]string{
		"name": "   ",
	}, &user)
	env = wantFailure(t, rec, http.StatusBadRequest, "")
	if len(env.Errors) == 0 || env.Errors[0] != "name" {
		t.Errorf("errors = %v, want [name]", env.Errors)
	}
}

func TestPlaylistMembership(t *testing.T) {
	h, store := newTestHandler(t)
	user := seedHandlerUser(t, store, "alice")
	other := seedHandlerUser(t, store, "bob")
	video := seedHandlerVideo(t, store, user.ID, "clip")

	playlist, err := store.CreatePlaylist(context.Background(), user.ID, "mix", "")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	base := "/api/playlists/" + playlist.ID + "/videos/" + video.ID

	rec := doJSON(t, h.PlaylistByID, http.MethodPost, base, nil, &other)
	wantFailure(t, rec, http.StatusForbidden, "you do not own this resource")

	rec = doJSON(t, h.PlaylistByID, http.MethodPost, base, nil, &user)
	env := wantSuccess(t, rec, http.StatusOK)
	var updated models.Playlist
	decodeData(t, env, &updated)
	if len(updated.VideoIDs) != 1 || updated.VideoIDs[0] != video.ID {
		t.Errorf("videoIds = %v, want [%s]", updated.VideoIDs, video.ID)
	}

	rec = doJSON(t, h.PlaylistByID, http.MethodPost, base, nil, &user)
	wantFailure(t, rec, http.StatusBadRequest, "video already in playlist")

	rec = doJSON(t, h.PlaylistByID, http.MethodDelete, base, nil, &user)
	env = wantSuccess(t, rec, http.StatusOK)
	decodeData(t, env, &updated)
	if len(updated.VideoIDs) != 0 {
		t.Errorf("videoIds = %v, want empty", updated.VideoIDs)
	}

	rec = doJSON(t, h.PlaylistByID, http.MethodDelete, base, nil, &user)
	wantFailure(t, rec, http.StatusNotFound, "video not in playlist")
}

func TestGetPlaylistDetail(t *testing.T) {
	h, store := newTestHandler(t)
	user := seedHandlerUser(t, store, "alice")
	video := seedHandlerVideo(t, store, user.ID, "clip")

	ctx := context.Background()
	playlist, err := store.CreatePlaylist(ctx, user.ID, "mix", "all the clips")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if _, err := store.AddPlaylistVideo(ctx, playlist.ID, video.ID, user.ID); err != nil {
		t.Fatalf("AddPlaylistVideo: %v", err)
	}

	rec := doJSON(t, h.PlaylistByID, http.MethodGet, "/api/playlists/"+playlist.ID, nil, nil)
	env := wantSuccess(t, rec, http.StatusOK)
	var detail models.PlaylistDetail
	decodeData(t, env, &detail)
	if detail.Name != "mix" || detail.Owner.Username != "alice" {
		t.Errorf("detail = %+v, want mix owned by alice", detail)
	}
	if len(detail.Videos) != 1 || detail.Videos[0].ID != video.ID {
		t.Errorf("videos = %+v, want the added clip", detail.Videos)
	}
}

func TestUpdateAndDeletePlaylist(t *testing.T) {
	h, store := newTestHandler(t)
	user := seedHandlerUser(t, store, "alice")
	other := seedHandlerUser(t, store, "bob")

	playlist, err := store.CreatePlaylist(context.Background(), user.ID, "before", "desc")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	path := "/api/playlists/" + playlist.ID

	rec := doJSON(t, h.PlaylistByID, http.MethodPatch, path, map[string]string{"name": "after"}, &other)
	wantFailure(t, rec, http.StatusForbidden, "you do not own this resource")

	rec = doJSON(t, h.PlaylistByID, http.MethodPatch, path, map[string]string{}, &user)
	wantFailure(t, rec, http.StatusBadRequest, "no fields to update")

	rec = doJSON(t, h.PlaylistByID, http.MethodPatch, path, map[string]string{"name": "after"}, &user)
	env := wantSuccess(t, rec, http.StatusOK)
	var updated models.Playlist
	decodeData(t, env, &updated)
	if updated.Name != "after" || updated.Description != "desc" {
		t.Errorf("playlist = %+v, want renamed with description kept", updated)
	}

	rec = doJSON(t, h.PlaylistByID, http.MethodDelete, path, nil, &user)
	wantSuccess(t, rec, http.StatusOK)
	rec = doJSON(t, h.PlaylistByID, http.MethodGet, path, nil, nil)
	wantFailure(t, rec, http.StatusNotFound, "resource not found")
}

func TestUserPlaylistsListing(t *testing.T) {
	h, store := newTestHandler(t)
	user := seedHandlerUser(t, store, "alice")
	video := seedHandlerVideo(t, store, user.ID, "clip")

	ctx := context.Background()
	playlist, err := store.CreatePlaylist(ctx, user.ID, "mix", "")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if _, err := store.AddPlaylistVideo(ctx, playlist.ID, video.ID, user.ID); err != nil {
		t.Fatalf("AddPlaylistVideo: %v", err)
	}

	rec := doJSON(t, h.UserResources, http.MethodGet, "/api/users/"+user.ID+"/playlists", nil, nil)
	env := wantSuccess(t, rec, http.StatusOK)
	var summaries []models.PlaylistSummary
	decodeData(t, env, &summaries)
	if len(summaries) != 1 {
		t.Fatalf("playlists = %d, want 1", len(summaries))
	}
	if summaries[0].TotalVideos != 1 || summaries[0].TotalDuration != 60 {
		t.Errorf("summary = %+v, want one 60s video", summaries[0])
	}
}

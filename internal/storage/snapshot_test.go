package storage

import (
	"context"
	"testing"

	"clipstream/internal/models"
)

func TestSnapshotRoundTripThroughJSON(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	user := seedUser(t, store, "alice")
	video := seedVideo(t, store, user.ID, "clip")
	if _, err := store.AddComment(ctx, video.ID, user.ID, "first"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if _, err := store.CreateTweet(ctx, user.ID, "hello"); err != nil {
		t.Fatalf("CreateTweet: %v", err)
	}
	playlist, err := store.CreatePlaylist(ctx, user.ID, "mix", "")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if _, err := store.AddPlaylistVideo(ctx, playlist.ID, video.ID, user.ID); err != nil {
		t.Fatalf("AddPlaylistVideo: %v", err)
	}
	if _, err := store.ToggleLike(ctx, user.ID, models.LikeTargetVideo, video.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}

	// NewStorage persisted every mutation, so the on-disk file is a complete
	// snapshot already.
	snapshot, err := LoadSnapshotFromJSON(store.filePath)
	if err != nil {
		t.Fatalf("LoadSnapshotFromJSON: %v", err)
	}

	counts := snapshot.Counts()
	want := SnapshotCounts{
		Users:          1,
		Videos:         1,
		Comments:       1,
		Tweets:         1,
		Playlists:      1,
		PlaylistVideos: 1,
		Likes:          1,
	}
	if counts != want {
		t.Errorf("counts = %+v, want %+v", counts, want)
	}

	restored := snapshot.Users[user.ID]
	if restored.Username != "alice" || restored.PasswordHash == "" {
		t.Errorf("restored user = %+v, want alice with password hash", restored)
	}
}

func TestLoadSnapshotFromJSONMissingFile(t *testing.T) {
	if _, err := LoadSnapshotFromJSON("/nonexistent/store.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

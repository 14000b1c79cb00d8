package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"clipstream/internal/models"
)

func TestToggleLikeOscillates(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice")
	fan := seedUser(t, store, "bob")
	video := seedVideo(t, store, owner.ID, "clip")

	liked, err := store.ToggleLike(ctx, fan.ID, models.LikeTargetVideo, video.ID)
	if err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}
	if !liked {
		t.Fatal("expected first toggle to like")
	}
	liked, err = store.ToggleLike(ctx, fan.ID, models.LikeTargetVideo, video.ID)
	if err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}
	if liked {
		t.Fatal("expected second toggle to unlike")
	}
	liked, err = store.ToggleLike(ctx, fan.ID, models.LikeTargetVideo, video.ID)
	if err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}
	if !liked {
		t.Fatal("expected third toggle to like again")
	}
}

func TestToggleLikeValidatesTarget(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	fan := seedUser(t, store, "bob")

	if _, err := store.ToggleLike(ctx, fan.ID, models.LikeTarget("channel"), "x"); !IsValidation(err) {
		t.Fatalf("expected validation error for bad kind, got %v", err)
	}
	if _, err := store.ToggleLike(ctx, fan.ID, models.LikeTargetVideo, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing video, got %v", err)
	}
	if _, err := store.ToggleLike(ctx, fan.ID, models.LikeTargetTweet, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing tweet, got %v", err)
	}
}

func TestLikesAreIndependentPerUserAndKind(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice")
	fan := seedUser(t, store, "bob")
	video := seedVideo(t, store, owner.ID, "clip")
	comment, err := store.AddComment(ctx, video.ID, owner.ID, "hello")
	if err != nil {
		t.Fatalf("AddComment returned error: %v", err)
	}

	if _, err := store.ToggleLike(ctx, fan.ID, models.LikeTargetVideo, video.ID); err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}
	if _, err := store.ToggleLike(ctx, owner.ID, models.LikeTargetVideo, video.ID); err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}
	if _, err := store.ToggleLike(ctx, fan.ID, models.LikeTargetComment, comment.ID); err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}

	// Unliking the comment leaves the video like in place.
	liked, err := store.ToggleLike(ctx, fan.ID, models.LikeTargetComment, comment.ID)
	if err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}
	if liked {
		t.Fatal("expected comment unlike")
	}
	videos, err := store.ListLikedVideos(ctx, fan.ID)
	if err != nil {
		t.Fatalf("ListLikedVideos returned error: %v", err)
	}
	if len(videos) != 1 || videos[0].ID != video.ID {
		t.Fatalf("expected fan's video like intact, got %+v", videos)
	}
}

func TestListLikedVideosOrdersByLikeRecency(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice")
	fan := seedUser(t, store, "bob")
	first := seedVideo(t, store, owner.ID, "first")
	second := seedVideo(t, store, owner.ID, "second")

	if _, err := store.ToggleLike(ctx, fan.ID, models.LikeTargetVideo, first.ID); err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}
	if _, err := store.ToggleLike(ctx, fan.ID, models.LikeTargetVideo, second.ID); err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}

	videos, err := store.ListLikedVideos(ctx, fan.ID)
	if err != nil {
		t.Fatalf("ListLikedVideos returned error: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 liked videos, got %d", len(videos))
	}
	if videos[0].ID != second.ID {
		t.Fatalf("expected most recently liked first, got %q", videos[0].Title)
	}
}

func TestToggleLikeConcurrentDuplicates(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice")
	fan := seedUser(t, store, "bob")
	video := seedVideo(t, store, owner.ID, "clip")

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			// Each worker toggles twice, so the net effect is zero.
			for j := 0; j < 2; j++ {
				if _, err := store.ToggleLike(ctx, fan.ID, models.LikeTargetVideo, video.ID); err != nil {
					t.Errorf("ToggleLike returned error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	store.mu.RLock()
	records := 0
	for _, like := range store.data.Likes {
		if like.LikedByID == fan.ID && like.TargetKind == models.LikeTargetVideo && like.TargetID == video.ID {
			records++
		}
	}
	store.mu.RUnlock()
	if records > 1 {
		t.Fatalf("expected at most one like record for the pair, got %d", records)
	}
	if records != 0 {
		t.Fatalf("expected the even toggle count to end absent, got %d records", records)
	}

	// The pair still toggles cleanly afterwards.
	liked, err := store.ToggleLike(ctx, fan.ID, models.LikeTargetVideo, video.ID)
	if err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}
	if !liked {
		t.Fatal("expected toggle from the clean state to like the video")
	}
}

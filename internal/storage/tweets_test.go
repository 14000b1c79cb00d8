package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCreateTweetEnforcesRuneLimit(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	user := seedUser(t, store, "alice")

	// 280 multibyte runes are fine even though the byte count is larger.
	atLimit := strings.Repeat("ü", MaxTweetLength)
	tweet, err := store.CreateTweet(ctx, user.ID, atLimit)
	if err != nil {
		t.Fatalf("CreateTweet at limit returned error: %v", err)
	}
	if tweet.Content != atLimit {
		t.Fatalf("expected content preserved, got %d runes", len([]rune(tweet.Content)))
	}

	if _, err := store.CreateTweet(ctx, user.ID, strings.Repeat("a", MaxTweetLength+1)); !IsValidation(err) {
		t.Fatalf("expected validation error over limit, got %v", err)
	}
	if _, err := store.CreateTweet(ctx, user.ID, " \n\t "); !IsValidation(err) {
		t.Fatalf("expected validation error for blank content, got %v", err)
	}
	if _, err := store.CreateTweet(ctx, "missing", "hello"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestListUserTweetsPaginates(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	user := seedUser(t, store, "alice")
	other := seedUser(t, store, "bob")

	for i := 0; i < 7; i++ {
		if _, err := store.CreateTweet(ctx, user.ID, strings.Repeat("x", i+1)); err != nil {
			t.Fatalf("CreateTweet returned error: %v", err)
		}
	}
	if _, err := store.CreateTweet(ctx, other.ID, "not mine"); err != nil {
		t.Fatalf("CreateTweet returned error: %v", err)
	}

	page, err := store.ListUserTweets(ctx, user.ID, PageRequest{Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("ListUserTweets returned error: %v", err)
	}
	if page.Total != 7 || page.TotalPages != 3 || len(page.Items) != 3 {
		t.Fatalf("unexpected page shape: %+v", page)
	}

	if _, err := store.ListUserTweets(ctx, "missing", PageRequest{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestUpdateAndDeleteTweetOwnership(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	user := seedUser(t, store, "alice")
	intruder := seedUser(t, store, "bob")

	tweet, err := store.CreateTweet(ctx, user.ID, "original")
	if err != nil {
		t.Fatalf("CreateTweet returned error: %v", err)
	}

	if _, err := store.UpdateTweet(ctx, tweet.ID, intruder.ID, "hijacked"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	updated, err := store.UpdateTweet(ctx, tweet.ID, user.ID, "edited")
	if err != nil {
		t.Fatalf("UpdateTweet returned error: %v", err)
	}
	if updated.Content != "edited" {
		t.Fatalf("expected edited content, got %q", updated.Content)
	}
	if !updated.UpdatedAt.After(tweet.UpdatedAt) && !updated.UpdatedAt.Equal(tweet.UpdatedAt) {
		t.Fatalf("expected UpdatedAt to move forward, got %v", updated.UpdatedAt)
	}

	if err := store.DeleteTweet(ctx, tweet.ID, intruder.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := store.DeleteTweet(ctx, tweet.ID, user.ID); err != nil {
		t.Fatalf("DeleteTweet returned error: %v", err)
	}
	if err := store.DeleteTweet(ctx, tweet.ID, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

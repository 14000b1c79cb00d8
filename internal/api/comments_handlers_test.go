package api

import (
	"context"
	"net/http"
	"testing"

	"clipstream/internal/models"
)

func TestAddCommentAndList(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	commenter := seedHandlerUser(t, store, "bob")
	video := seedHandlerVideo(t, store, owner.ID, "clip")

	rec := doJSON(t, h.VideoByID, http.MethodPost, "/api/videos/"+video.ID+"/comments", map[string]string{
		"content": "  nice clip  ",
	}, &commenter)
	env := wantSuccess(t, rec, http.StatusCreated)

	var comment models.CommentWithOwner
	decodeData(t, env, &comment)
	if comment.Content != "nice clip" {
		t.Errorf("content = %q, want trimmed %q", comment.Content, "nice clip")
	}
	if comment.Owner.Username != "bob" {
		t.Errorf("owner = %+v, want bob", comment.Owner)
	}

	rec = doJSON(t, h.VideoByID, http.MethodGet, "/api/videos/"+video.ID+"/comments", nil, nil)
	env = wantSuccess(t, rec, http.StatusOK)
	var page struct {
		Items []models.CommentWithOwner `json:"items"`
		Total int                       `json:"total"`
	}
	decodeData(t, env, &page)
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("page = %+v, want one comment", page)
	}
	if page.Items[0].ID != comment.ID {
		t.Errorf("listed comment = %q, want %q", page.Items[0].ID, comment.ID)
	}
}

func TestAddCommentRequiresAuthAndContent(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	video := seedHandlerVideo(t, store, owner.ID, "clip")

	rec := doJSON(t, h.VideoByID, http.MethodPost, "/api/videos/"+video.ID+"/comments", map[string]string{
		"content": "anonymous",
	}, nil)
	wantFailure(t, rec, http.StatusUnauthorized, "authentication required")

	rec = doJSON(t, h.VideoByID, http.MethodPost, "/api/videos/"+video.ID+"/comments", map[string]string{
		"content": "   ",
	}, &owner)
	env := wantFailure(t, rec, http.StatusBadRequest, "")
	if len(env.Errors) == 0 || env.Errors[0] != "content" {
		t.Errorf("errors = %v, want [content]", env.Errors)
	}
}

func TestAddCommentUnknownVideo(t *testing.T) {
	h, store := newTestHandler(t)
	user := seedHandlerUser(t, store, "alice")

	missing := "0123456789abcdef0123456789abcdef"
	rec := doJSON(t, h.VideoByID, http.MethodPost, "/api/videos/"+missing+"/comments", map[string]string{
		"content": "hello",
	}, &user)
	wantFailure(t, rec, http.StatusNotFound, "resource not found")
}

func TestUpdateCommentOwnership(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	commenter := seedHandlerUser(t, store, "bob")
	video := seedHandlerVideo(t, store, owner.ID, "clip")

	comment, err := store.AddComment(context.Background(), video.ID, commenter.ID, "original")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	// The video owner does not own the comment.
	rec := doJSON(t, h.CommentByID, http.MethodPatch, "/api/comments/"+comment.ID, map[string]string{
		"content": "hijacked",
	}, &owner)
	wantFailure(t, rec, http.StatusForbidden, "you do not own this resource")

	rec = doJSON(t, h.CommentByID, http.MethodPatch, "/api/comments/"+comment.ID, map[string]string{
		"content": "edited",
	}, &commenter)
	env := wantSuccess(t, rec, http.StatusOK)
	var updated models.CommentWithOwner
	decodeData(t, env, &updated)
	if updated.Content != "edited" {
		t.Errorf("content = %q, want %q", updated.Content, "edited")
	}
}

func TestDeleteComment(t *testing.T) {
	h, store := newTestHandler(t)
	owner := seedHandlerUser(t, store, "alice")
	commenter := seedHandlerUser(t, store, "bob")
	video := seedHandlerVideo(t, store, owner.ID, "clip")

	comment, err := store.AddComment(context.Background(), video.ID, commenter.ID, "short lived")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	rec := doJSON(t, h.CommentByID, http.MethodDelete, "/api/comments/"+comment.ID, nil, &owner)
	wantFailure(t, rec, http.StatusForbidden, "you do not own this resource")

	rec = doJSON(t, h.CommentByID, http.MethodDelete, "/api/comments/"+comment.ID, nil, &commenter)
	wantSuccess(t, rec, http.StatusOK)

	rec = doJSON(t, h.CommentByID, http.MethodDelete, "/api/comments/"+comment.ID, nil, &commenter)
	wantFailure(t, rec, http.StatusNotFound, "resource not found")
}

func TestCommentByIDRejectsMalformedID(t *testing.T) {
	h, store := newTestHandler(t)
	user := seedHandlerUser(t, store, "alice")
	rec := doJSON(t, h.CommentByID, http.MethodPatch, "/api/comments/nope", map[string]string{
		"content": "x",
	}, &user)
	wantFailure(t, rec, http.StatusBadRequest, "invalid comment id")
}

package api

import (
	"net/http"
	"strings"
)

type tweetRequest struct {
	Content string `json:"content"`
}

// Tweets handles POST /api/tweets.
func (h *Handler) Tweets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	tweet, err := h.Store.CreateTweet(r.Context(), user.ID, req.Content)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, tweet, "tweet created")
}

// TweetByID handles PATCH and DELETE on /api/tweets/{id}.
func (h *Handler) TweetByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tweets/"), "/")
	if !requireValidID(w, id, "tweet id") {
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req tweetRequest
		if err := decodeJSON(r, &req); err != nil {
			writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		tweet, err := h.Store.UpdateTweet(r.Context(), id, user.ID, req.Content)
		if err != nil {
			writeRepositoryError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, tweet, "tweet updated")
	case http.MethodDelete:
		if err := h.Store.DeleteTweet(r.Context(), id, user.ID); err != nil {
			writeRepositoryError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"id": id}, "tweet deleted")
	default:
		methodNotAllowed(w, http.MethodPatch, http.MethodDelete)
	}
}

// userTweets serves GET /api/users/{id}/tweets.
func (h *Handler) userTweets(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	page, err := h.Store.ListUserTweets(r.Context(), userID, parsePageRequest(r))
	if err != nil {
		writeRepositoryError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, page, "tweets fetched")
}

package storage

import "clipstream/internal/models"

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// PageRequest selects a 1-based page window. Zero values fall back to page 1
// with a size of 10.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize coerces the request into valid bounds: page >= 1, 1 <= limit <=
// 100, applying the defaults for unset values.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

// Offset returns the number of entries skipped before the page window.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages computes ceil(total / limit) for a normalized limit.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// VideoPage is one page of videos joined with their owners, plus the total
// match count independent of the window.
type VideoPage struct {
	Items      []models.VideoWithOwner `json:"items"`
	Total      int                     `json:"total"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"totalPages"`
}

// CommentPage is one page of comments joined with their owners.
type CommentPage struct {
	Items      []models.CommentWithOwner `json:"items"`
	Total      int                       `json:"total"`
	Page       int                       `json:"page"`
	Limit      int                       `json:"limit"`
	TotalPages int                       `json:"totalPages"`
}

// TweetPage is one page of tweets.
type TweetPage struct {
	Items      []models.Tweet `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

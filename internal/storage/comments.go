package storage

import (
	"context"
	"sort"
	"time"

	"clipstream/internal/models"
)

func (s *Storage) AddComment(ctx context.Context, videoID, actorID, content string) (models.CommentWithOwner, error) {
	cleaned, err := cleanText("content", content, MaxCommentLength)
	if err != nil {
		return models.CommentWithOwner{}, err
	}
	id, err := generateID()
	if err != nil {
		return models.CommentWithOwner{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Videos[videoID]; !ok {
		return models.CommentWithOwner{}, ErrNotFound
	}

	now := time.Now().UTC()
	comment := models.Comment{
		ID:        id,
		VideoID:   videoID,
		OwnerID:   actorID,
		Content:   cleaned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.data.Comments[comment.ID] = comment
	if err := s.persist(); err != nil {
		delete(s.data.Comments, comment.ID)
		return models.CommentWithOwner{}, err
	}
	return s.commentWithOwnerLocked(comment), nil
}

func (s *Storage) ListVideoComments(ctx context.Context, videoID string, page PageRequest) (CommentPage, error) {
	page = page.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Videos[videoID]; !ok {
		return CommentPage{}, ErrNotFound
	}

	matches := make([]models.Comment, 0)
	for _, comment := range s.data.Comments {
		if comment.VideoID == videoID {
			matches = append(matches, comment)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := len(matches)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}

	items := make([]models.CommentWithOwner, 0, end-start)
	for _, comment := range matches[start:end] {
		items = append(items, s.commentWithOwnerLocked(comment))
	}
	return CommentPage{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: TotalPages(total, page.Limit),
	}, nil
}

func (s *Storage) UpdateComment(ctx context.Context, id, actorID, content string) (models.CommentWithOwner, error) {
	cleaned, err := cleanText("content", content, MaxCommentLength)
	if err != nil {
		return models.CommentWithOwner{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.data.Comments[id]
	if !ok {
		return models.CommentWithOwner{}, ErrNotFound
	}
	if err := requireOwner(comment, actorID); err != nil {
		return models.CommentWithOwner{}, err
	}

	previous := comment
	comment.Content = cleaned
	comment.UpdatedAt = time.Now().UTC()
	s.data.Comments[id] = comment
	if err := s.persist(); err != nil {
		s.data.Comments[id] = previous
		return models.CommentWithOwner{}, err
	}
	return s.commentWithOwnerLocked(comment), nil
}

// DeleteComment also drops any likes recorded against the comment.
func (s *Storage) DeleteComment(ctx context.Context, id, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.data.Comments[id]
	if !ok {
		return ErrNotFound
	}
	if err := requireOwner(comment, actorID); err != nil {
		return err
	}

	snapshot := cloneDataset(s.data)
	delete(s.data.Comments, id)
	for likeID, like := range s.data.Likes {
		if like.TargetKind == models.LikeTargetComment && like.TargetID == id {
			delete(s.data.Likes, likeID)
		}
	}
	if err := s.persist(); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Storage) commentWithOwnerLocked(comment models.Comment) models.CommentWithOwner {
	return models.CommentWithOwner{
		Comment: comment,
		Owner:   s.ownerSummaryLocked(comment.OwnerID),
	}
}

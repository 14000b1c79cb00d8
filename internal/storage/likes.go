package storage

import (
	"context"
	"sort"
	"time"

	"clipstream/internal/models"
)

// ToggleLike flips the (actor, target) like: the first call records it, the
// next removes it. The returned bool is the state after the call.
func (s *Storage) ToggleLike(ctx context.Context, actorID string, kind models.LikeTarget, targetID string) (bool, error) {
	if !kind.Valid() {
		return false, validationErrorf("targetKind", "must be video, comment or tweet")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.likeTargetExistsLocked(kind, targetID); err != nil {
		return false, err
	}

	for likeID, like := range s.data.Likes {
		if like.LikedByID == actorID && like.TargetKind == kind && like.TargetID == targetID {
			removed := like
			delete(s.data.Likes, likeID)
			if err := s.persist(); err != nil {
				s.data.Likes[likeID] = removed
				return false, err
			}
			return false, nil
		}
	}

	id, err := generateID()
	if err != nil {
		return false, err
	}
	like := models.Like{
		ID:         id,
		LikedByID:  actorID,
		TargetKind: kind,
		TargetID:   targetID,
		CreatedAt:  time.Now().UTC(),
	}
	s.data.Likes[like.ID] = like
	if err := s.persist(); err != nil {
		delete(s.data.Likes, like.ID)
		return false, err
	}
	return true, nil
}

func (s *Storage) likeTargetExistsLocked(kind models.LikeTarget, targetID string) error {
	switch kind {
	case models.LikeTargetVideo:
		if _, ok := s.data.Videos[targetID]; !ok {
			return ErrNotFound
		}
	case models.LikeTargetComment:
		if _, ok := s.data.Comments[targetID]; !ok {
			return ErrNotFound
		}
	case models.LikeTargetTweet:
		if _, ok := s.data.Tweets[targetID]; !ok {
			return ErrNotFound
		}
	}
	return nil
}

// ListLikedVideos returns the videos the actor has liked, most recently
// liked first. Likes whose video has since been deleted are skipped.
func (s *Storage) ListLikedVideos(ctx context.Context, actorID string) ([]models.VideoWithOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	likes := make([]models.Like, 0)
	for _, like := range s.data.Likes {
		if like.LikedByID == actorID && like.TargetKind == models.LikeTargetVideo {
			likes = append(likes, like)
		}
	}
	sort.Slice(likes, func(i, j int) bool {
		if likes[i].CreatedAt.Equal(likes[j].CreatedAt) {
			return likes[i].ID < likes[j].ID
		}
		return likes[i].CreatedAt.After(likes[j].CreatedAt)
	})

	videos := make([]models.VideoWithOwner, 0, len(likes))
	for _, like := range likes {
		video, ok := s.data.Videos[like.TargetID]
		if !ok {
			continue
		}
		videos = append(videos, s.videoWithOwnerLocked(video))
	}
	return videos, nil
}

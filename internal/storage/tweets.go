package storage

import (
	"context"
	"sort"
	"time"

	"clipstream/internal/models"
)

func (s *Storage) CreateTweet(ctx context.Context, actorID, content string) (models.Tweet, error) {
	cleaned, err := cleanText("content", content, MaxTweetLength)
	if err != nil {
		return models.Tweet{}, err
	}
	id, err := generateID()
	if err != nil {
		return models.Tweet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[actorID]; !ok {
		return models.Tweet{}, ErrNotFound
	}

	now := time.Now().UTC()
	tweet := models.Tweet{
		ID:        id,
		OwnerID:   actorID,
		Content:   cleaned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.data.Tweets[tweet.ID] = tweet
	if err := s.persist(); err != nil {
		delete(s.data.Tweets, tweet.ID)
		return models.Tweet{}, err
	}
	return tweet, nil
}

func (s *Storage) ListUserTweets(ctx context.Context, userID string, page PageRequest) (TweetPage, error) {
	page = page.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[userID]; !ok {
		return TweetPage{}, ErrNotFound
	}

	matches := make([]models.Tweet, 0)
	for _, tweet := range s.data.Tweets {
		if tweet.OwnerID == userID {
			matches = append(matches, tweet)
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

	return TweetPage{
		Items:      append([]models.Tweet(nil), matches[start:end]...),
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: TotalPages(total, page.Limit),
	}, nil
}

func (s *Storage) UpdateTweet(ctx context.Context, id, actorID, content string) (models.Tweet, error) {
	cleaned, err := cleanText("content", content, MaxTweetLength)
	if err != nil {
		return models.Tweet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tweet, ok := s.data.Tweets[id]
	if !ok {
		return models.Tweet{}, ErrNotFound
	}
	if err := requireOwner(tweet, actorID); err != nil {
		return models.Tweet{}, err
	}

	previous := tweet
	tweet.Content = cleaned
	tweet.UpdatedAt = time.Now().UTC()
	s.data.Tweets[id] = tweet
	if err := s.persist(); err != nil {
		s.data.Tweets[id] = previous
		return models.Tweet{}, err
	}
	return tweet, nil
}

// DeleteTweet also drops any likes recorded against the tweet.
func (s *Storage) DeleteTweet(ctx context.Context, id, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tweet, ok := s.data.Tweets[id]
	if !ok {
		return ErrNotFound
	}
	if err := requireOwner(tweet, actorID); err != nil {
		return err
	}

	snapshot := cloneDataset(s.data)
	delete(s.data.Tweets, id)
	for likeID, like := range s.data.Likes {
		if like.TargetKind == models.LikeTargetTweet && like.TargetID == id {
			delete(s.data.Likes, likeID)
		}
	}
	if err := s.persist(); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

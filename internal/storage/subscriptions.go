package storage

import (
	"context"
	"sort"
	"time"

	"clipstream/internal/models"
)

// ToggleSubscription flips the (subscriber, channel) pair and returns the
// state after the call. Subscribing to yourself is rejected.
func (s *Storage) ToggleSubscription(ctx context.Context, actorID, channelID string) (bool, error) {
	if actorID == channelID {
		return false, ErrSelfSubscription
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[channelID]; !ok {
		return false, ErrNotFound
	}

	for subID, sub := range s.data.Subscriptions {
		if sub.SubscriberID == actorID && sub.ChannelID == channelID {
			removed := sub
			delete(s.data.Subscriptions, subID)
			if err := s.persist(); err != nil {
				s.data.Subscriptions[subID] = removed
				return false, err
			}
			return false, nil
		}
	}

	id, err := generateID()
	if err != nil {
		return false, err
	}
	sub := models.Subscription{
		ID:           id,
		SubscriberID: actorID,
		ChannelID:    channelID,
		CreatedAt:    time.Now().UTC(),
	}
	s.data.Subscriptions[sub.ID] = sub
	if err := s.persist(); err != nil {
		delete(s.data.Subscriptions, sub.ID)
		return false, err
	}
	return true, nil
}

func (s *Storage) ListChannelSubscribers(ctx context.Context, channelID string) ([]models.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[channelID]; !ok {
		return nil, ErrNotFound
	}
	return s.subscriptionSummariesLocked(func(sub models.Subscription) (string, bool) {
		if sub.ChannelID == channelID {
			return sub.SubscriberID, true
		}
		return "", false
	}), nil
}

func (s *Storage) ListSubscribedChannels(ctx context.Context, userID string) ([]models.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[userID]; !ok {
		return nil, ErrNotFound
	}
	return s.subscriptionSummariesLocked(func(sub models.Subscription) (string, bool) {
		if sub.SubscriberID == userID {
			return sub.ChannelID, true
		}
		return "", false
	}), nil
}

func (s *Storage) subscriptionSummariesLocked(pick func(models.Subscription) (string, bool)) []models.UserSummary {
	type entry struct {
		summary models.UserSummary
		at      time.Time
	}
	entries := make([]entry, 0)
	for _, sub := range s.data.Subscriptions {
		userID, ok := pick(sub)
		if !ok {
			continue
		}
		entries = append(entries, entry{summary: s.ownerSummaryLocked(userID), at: sub.CreatedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].at.Equal(entries[j].at) {
			return entries[i].summary.ID < entries[j].summary.ID
		}
		return entries[i].at.After(entries[j].at)
	})

	summaries := make([]models.UserSummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, e.summary)
	}
	return summaries
}

package storage

import (
	"context"

	"clipstream/internal/models"
)

// ChannelStats aggregates the channel counters in one pass under the read
// lock. Likes count every like against the channel's videos, whoever left
// them.
func (s *Storage) ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[channelID]; !ok {
		return models.ChannelStats{}, ErrNotFound
	}

	var stats models.ChannelStats
	owned := make(map[string]struct{})
	for _, video := range s.data.Videos {
		if video.OwnerID != channelID {
			continue
		}
		owned[video.ID] = struct{}{}
		stats.TotalVideos++
		stats.TotalViews += video.Views
	}
	for _, sub := range s.data.Subscriptions {
		if sub.ChannelID == channelID {
			stats.TotalSubscribers++
		}
	}
	for _, like := range s.data.Likes {
		if like.TargetKind != models.LikeTargetVideo {
			continue
		}
		if _, ok := owned[like.TargetID]; ok {
			stats.TotalLikes++
		}
	}
	return stats, nil
}

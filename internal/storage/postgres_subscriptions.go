package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"clipstream/internal/models"
)

func (r *postgresRepository) ToggleSubscription(ctx context.Context, actorID, channelID string) (bool, error) {
	if actorID == channelID {
		return false, ErrSelfSubscription
	}

	var subscribed bool
	err := r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", channelID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		id, err := generateID()
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			"INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT ON CONSTRAINT subscriptions_pair_key DO NOTHING",
			id, actorID, channelID, time.Now().UTC())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			subscribed = true
			return nil
		}
		_, err = tx.Exec(ctx,
			"DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2", actorID, channelID)
		subscribed = false
		return err
	})
	if err != nil {
		return false, err
	}
	return subscribed, nil
}

func (r *postgresRepository) ListChannelSubscribers(ctx context.Context, channelID string) ([]models.UserSummary, error) {
	return r.listSubscriptionUsers(ctx, channelID,
		`SELECT u.id, u.username, u.avatar_url FROM subscriptions s
		 JOIN users u ON u.id = s.subscriber_id
		 WHERE s.channel_id = $1 ORDER BY s.created_at DESC, s.id`)
}

func (r *postgresRepository) ListSubscribedChannels(ctx context.Context, userID string) ([]models.UserSummary, error) {
	return r.listSubscriptionUsers(ctx, userID,
		`SELECT u.id, u.username, u.avatar_url FROM subscriptions s
		 JOIN users u ON u.id = s.channel_id
		 WHERE s.subscriber_id = $1 ORDER BY s.created_at DESC, s.id`)
}

func (r *postgresRepository) listSubscriptionUsers(ctx context.Context, userID, query string) ([]models.UserSummary, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", userID).Scan(&exists); err != nil {
		return nil, mapPostgresError(err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	summaries := make([]models.UserSummary, 0)
	for rows.Next() {
		var summary models.UserSummary
		if err := rows.Scan(&summary.ID, &summary.Username, &summary.AvatarURL); err != nil {
			return nil, mapPostgresError(err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}
	return summaries, nil
}

// ChannelStats runs the four counters concurrently. Each lands on its own
// pooled connection, so the snapshot is consistent per counter, not across
// them.
func (r *postgresRepository) ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", channelID).Scan(&exists); err != nil {
		return models.ChannelStats{}, mapPostgresError(err)
	}
	if !exists {
		return models.ChannelStats{}, ErrNotFound
	}

	var stats models.ChannelStats
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return r.pool.QueryRow(groupCtx,
			"SELECT COUNT(*), COALESCE(SUM(views), 0) FROM videos WHERE owner_id = $1", channelID).
			Scan(&stats.TotalVideos, &stats.TotalViews)
	})
	group.Go(func() error {
		return r.pool.QueryRow(groupCtx,
			"SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1", channelID).
			Scan(&stats.TotalSubscribers)
	})
	group.Go(func() error {
		return r.pool.QueryRow(groupCtx,
			`SELECT COUNT(*) FROM likes l JOIN videos v ON v.id = l.target_id
			 WHERE l.target_kind = $1 AND v.owner_id = $2`,
			models.LikeTargetVideo, channelID).
			Scan(&stats.TotalLikes)
	})
	if err := group.Wait(); err != nil {
		return models.ChannelStats{}, mapPostgresError(err)
	}
	return stats, nil
}

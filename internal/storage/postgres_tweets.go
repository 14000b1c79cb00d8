package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"clipstream/internal/models"
)

const tweetColumns = "id, owner_id, content, created_at, updated_at"

func scanTweet(row pgx.Row) (models.Tweet, error) {
	var tweet models.Tweet
	err := row.Scan(&tweet.ID, &tweet.OwnerID, &tweet.Content, &tweet.CreatedAt, &tweet.UpdatedAt)
	return tweet, err
}

func (r *postgresRepository) CreateTweet(ctx context.Context, actorID, content string) (models.Tweet, error) {
	cleaned, err := cleanText("content", content, MaxTweetLength)
	if err != nil {
		return models.Tweet{}, err
	}
	id, err := generateID()
	if err != nil {
		return models.Tweet{}, err
	}

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	tweet := models.Tweet{ID: id, OwnerID: actorID, Content: cleaned, CreatedAt: now, UpdatedAt: now}
	_, err = r.pool.Exec(ctx,
		"INSERT INTO tweets (id, owner_id, content, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)",
		tweet.ID, tweet.OwnerID, tweet.Content, now)
	if err != nil {
		return models.Tweet{}, mapPostgresError(err)
	}
	return tweet, nil
}

func (r *postgresRepository) ListUserTweets(ctx context.Context, userID string, page PageRequest) (TweetPage, error) {
	page = page.Normalize()

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", userID).Scan(&exists); err != nil {
		return TweetPage{}, mapPostgresError(err)
	}
	if !exists {
		return TweetPage{}, ErrNotFound
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tweets WHERE owner_id = $1", userID).Scan(&total); err != nil {
		return TweetPage{}, mapPostgresError(err)
	}

	rows, err := r.pool.Query(ctx,
		"SELECT "+tweetColumns+" FROM tweets WHERE owner_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3",
		userID, page.Limit, page.Offset())
	if err != nil {
		return TweetPage{}, mapPostgresError(err)
	}
	defer rows.Close()

	items := make([]models.Tweet, 0, page.Limit)
	for rows.Next() {
		tweet, err := scanTweet(rows)
		if err != nil {
			return TweetPage{}, mapPostgresError(err)
		}
		items = append(items, tweet)
	}
	if err := rows.Err(); err != nil {
		return TweetPage{}, mapPostgresError(err)
	}

	return TweetPage{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: TotalPages(total, page.Limit),
	}, nil
}

func (r *postgresRepository) UpdateTweet(ctx context.Context, id, actorID, content string) (models.Tweet, error) {
	cleaned, err := cleanText("content", content, MaxTweetLength)
	if err != nil {
		return models.Tweet{}, err
	}

	var result models.Tweet
	err = r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockOwned(ctx, tx, "tweets", id, actorID); err != nil {
			return err
		}
		var err error
		result, err = scanTweet(tx.QueryRow(ctx,
			"UPDATE tweets SET content = $2, updated_at = $3 WHERE id = $1 RETURNING "+tweetColumns,
			id, cleaned, time.Now().UTC()))
		return err
	})
	if err != nil {
		return models.Tweet{}, err
	}
	return result, nil
}

func (r *postgresRepository) DeleteTweet(ctx context.Context, id, actorID string) error {
	return r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockOwned(ctx, tx, "tweets", id, actorID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM likes WHERE target_kind = $1 AND target_id = $2", models.LikeTargetTweet, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "DELETE FROM tweets WHERE id = $1", id)
		return err
	})
}

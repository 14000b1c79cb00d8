package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"clipstream/internal/models"
)

const commentWithOwnerColumns = `c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at,
	u.id, u.username, u.avatar_url`

func scanCommentWithOwner(row pgx.Row) (models.CommentWithOwner, error) {
	var comment models.CommentWithOwner
	err := row.Scan(
		&comment.ID, &comment.VideoID, &comment.OwnerID, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt,
		&comment.Owner.ID, &comment.Owner.Username, &comment.Owner.AvatarURL)
	return comment, err
}

func (r *postgresRepository) AddComment(ctx context.Context, videoID, actorID, content string) (models.CommentWithOwner, error) {
	cleaned, err := cleanText("content", content, MaxCommentLength)
	if err != nil {
		return models.CommentWithOwner{}, err
	}
	id, err := generateID()
	if err != nil {
		return models.CommentWithOwner{}, err
	}

	var result models.CommentWithOwner
	err = r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		now := time.Now().UTC()
		_, err := tx.Exec(ctx,
			"INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5)",
			id, videoID, actorID, cleaned, now)
		if err != nil {
			return err
		}
		result, err = scanCommentWithOwner(tx.QueryRow(ctx,
			"SELECT "+commentWithOwnerColumns+" FROM comments c JOIN users u ON u.id = c.owner_id WHERE c.id = $1", id))
		return err
	})
	if err != nil {
		return models.CommentWithOwner{}, err
	}
	return result, nil
}

func (r *postgresRepository) ListVideoComments(ctx context.Context, videoID string, page PageRequest) (CommentPage, error) {
	page = page.Normalize()

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)", videoID).Scan(&exists); err != nil {
		return CommentPage{}, mapPostgresError(err)
	}
	if !exists {
		return CommentPage{}, ErrNotFound
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM comments WHERE video_id = $1", videoID).Scan(&total); err != nil {
		return CommentPage{}, mapPostgresError(err)
	}

	rows, err := r.pool.Query(ctx,
		"SELECT "+commentWithOwnerColumns+" FROM comments c JOIN users u ON u.id = c.owner_id WHERE c.video_id = $1 ORDER BY c.created_at DESC, c.id LIMIT $2 OFFSET $3",
		videoID, page.Limit, page.Offset())
	if err != nil {
		return CommentPage{}, mapPostgresError(err)
	}
	defer rows.Close()

	items := make([]models.CommentWithOwner, 0, page.Limit)
	for rows.Next() {
		comment, err := scanCommentWithOwner(rows)
		if err != nil {
			return CommentPage{}, mapPostgresError(err)
		}
		items = append(items, comment)
	}
	if err := rows.Err(); err != nil {
		return CommentPage{}, mapPostgresError(err)
	}

	return CommentPage{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: TotalPages(total, page.Limit),
	}, nil
}

func (r *postgresRepository) UpdateComment(ctx context.Context, id, actorID, content string) (models.CommentWithOwner, error) {
	cleaned, err := cleanText("content", content, MaxCommentLength)
	if err != nil {
		return models.CommentWithOwner{}, err
	}

	var result models.CommentWithOwner
	err = r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockOwned(ctx, tx, "comments", id, actorID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1", id, cleaned, time.Now().UTC()); err != nil {
			return err
		}
		var err error
		result, err = scanCommentWithOwner(tx.QueryRow(ctx,
			"SELECT "+commentWithOwnerColumns+" FROM comments c JOIN users u ON u.id = c.owner_id WHERE c.id = $1", id))
		return err
	})
	if err != nil {
		return models.CommentWithOwner{}, err
	}
	return result, nil
}

func (r *postgresRepository) DeleteComment(ctx context.Context, id, actorID string) error {
	return r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockOwned(ctx, tx, "comments", id, actorID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM likes WHERE target_kind = $1 AND target_id = $2", models.LikeTargetComment, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "DELETE FROM comments WHERE id = $1", id)
		return err
	})
}

package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"clipstream/internal/models"
)

func likeTargetTable(kind models.LikeTarget) string {
	switch kind {
	case models.LikeTargetVideo:
		return "videos"
	case models.LikeTargetComment:
		return "comments"
	default:
		return "tweets"
	}
}

// ToggleLike attempts the insert first and falls back to deleting the row the
// insert collided with, so concurrent toggles settle on exactly one state.
func (r *postgresRepository) ToggleLike(ctx context.Context, actorID string, kind models.LikeTarget, targetID string) (bool, error) {
	if !kind.Valid() {
		return false, validationErrorf("targetKind", "must be video, comment or tweet")
	}

	var liked bool
	err := r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+likeTargetTable(kind)+" WHERE id = $1)", targetID).Scan(&exists); err != nil {
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
			"INSERT INTO likes (id, liked_by, target_kind, target_id, created_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT ON CONSTRAINT likes_unique_target DO NOTHING",
			id, actorID, kind, targetID, time.Now().UTC())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			liked = true
			return nil
		}
		_, err = tx.Exec(ctx,
			"DELETE FROM likes WHERE liked_by = $1 AND target_kind = $2 AND target_id = $3",
			actorID, kind, targetID)
		liked = false
		return err
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

func (r *postgresRepository) ListLikedVideos(ctx context.Context, actorID string) ([]models.VideoWithOwner, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		"SELECT "+videoWithOwnerColumns+` FROM likes l
		 JOIN videos v ON v.id = l.target_id
		 JOIN users u ON u.id = v.owner_id
		 WHERE l.liked_by = $1 AND l.target_kind = $2
		 ORDER BY l.created_at DESC, l.id`,
		actorID, models.LikeTargetVideo)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	videos := make([]models.VideoWithOwner, 0)
	for rows.Next() {
		video, err := scanVideoWithOwner(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}
	return videos, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"clipstream/internal/models"
)

const videoWithOwnerColumns = `v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
	v.duration_seconds, v.views, v.published, v.created_at, v.updated_at,
	u.id, u.username, u.avatar_url`

func scanVideoWithOwner(row pgx.Row) (models.VideoWithOwner, error) {
	var video models.VideoWithOwner
	err := row.Scan(
		&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.VideoURL, &video.ThumbnailURL,
		&video.DurationSeconds, &video.Views, &video.Published, &video.CreatedAt, &video.UpdatedAt,
		&video.Owner.ID, &video.Owner.Username, &video.Owner.AvatarURL)
	return video, err
}

// likePattern escapes LIKE metacharacters so user queries match literally.
func likePattern(query string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(query) + "%"
}

// lockOwned loads the owner of a row FOR UPDATE and enforces the ownership
// gate before the caller mutates it.
func lockOwned(ctx context.Context, tx pgx.Tx, table, id, actorID string) error {
	var ownerID string
	err := tx.QueryRow(ctx, fmt.Sprintf("SELECT owner_id FROM %s WHERE id = $1 FOR UPDATE", table), id).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if ownerID != actorID {
		return ErrForbidden
	}
	return nil
}

func (r *postgresRepository) PublishVideo(ctx context.Context, params CreateVideoParams) (models.VideoWithOwner, error) {
	title, err := cleanText("title", params.Title, MaxTitleLength)
	if err != nil {
		return models.VideoWithOwner{}, err
	}
	description, err := cleanOptionalText("description", params.Description, MaxDescriptionLength)
	if err != nil {
		return models.VideoWithOwner{}, err
	}
	if strings.TrimSpace(params.VideoURL) == "" {
		return models.VideoWithOwner{}, validationErrorf("videoFile", "is required")
	}
	id, err := generateID()
	if err != nil {
		return models.VideoWithOwner{}, err
	}

	var result models.VideoWithOwner
	err = r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		now := time.Now().UTC()
		_, err := tx.Exec(ctx,
			`INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration_seconds, views, published, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $9)`,
			id, params.OwnerID, title, description, params.VideoURL, params.ThumbnailURL, params.DurationSeconds, params.Published, now)
		if err != nil {
			return err
		}
		result, err = scanVideoWithOwner(tx.QueryRow(ctx,
			"SELECT "+videoWithOwnerColumns+" FROM videos v JOIN users u ON u.id = v.owner_id WHERE v.id = $1", id))
		return err
	})
	if err != nil {
		return models.VideoWithOwner{}, err
	}
	return result, nil
}

func (r *postgresRepository) GetVideo(ctx context.Context, id string) (models.VideoWithOwner, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	video, err := scanVideoWithOwner(r.pool.QueryRow(ctx,
		"SELECT "+videoWithOwnerColumns+" FROM videos v JOIN users u ON u.id = v.owner_id WHERE v.id = $1", id))
	if err != nil {
		return models.VideoWithOwner{}, mapPostgresError(err)
	}
	return video, nil
}

func (r *postgresRepository) RecordView(ctx context.Context, id string) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	tag, err := r.pool.Exec(ctx, "UPDATE videos SET views = views + 1 WHERE id = $1", id)
	if err != nil {
		return mapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) ListVideos(ctx context.Context, filter VideoFilter, page PageRequest) (VideoPage, error) {
	page = page.Normalize()

	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("v.owner_id = $%d", len(args)))
	}
	if !filter.IncludeUnpublished {
		conditions = append(conditions, "v.published")
	}
	if filter.Query != "" {
		args = append(args, likePattern(filter.Query))
		conditions = append(conditions, fmt.Sprintf("v.title ILIKE $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM videos v"+where, args...).Scan(&total); err != nil {
		return VideoPage{}, mapPostgresError(err)
	}

	args = append(args, page.Limit, page.Offset())
	rows, err := r.pool.Query(ctx,
		"SELECT "+videoWithOwnerColumns+" FROM videos v JOIN users u ON u.id = v.owner_id"+where+
			fmt.Sprintf(" ORDER BY v.created_at DESC, v.id LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return VideoPage{}, mapPostgresError(err)
	}
	defer rows.Close()

	items := make([]models.VideoWithOwner, 0, page.Limit)
	for rows.Next() {
		video, err := scanVideoWithOwner(rows)
		if err != nil {
			return VideoPage{}, mapPostgresError(err)
		}
		items = append(items, video)
	}
	if err := rows.Err(); err != nil {
		return VideoPage{}, mapPostgresError(err)
	}

	return VideoPage{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: TotalPages(total, page.Limit),
	}, nil
}

func (r *postgresRepository) UpdateVideo(ctx context.Context, id, actorID string, update VideoUpdate) (models.VideoWithOwner, error) {
	var result models.VideoWithOwner
	err := r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockOwned(ctx, tx, "videos", id, actorID); err != nil {
			return err
		}
		if update.Title != nil {
			title, err := cleanText("title", *update.Title, MaxTitleLength)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, "UPDATE videos SET title = $2 WHERE id = $1", id, title); err != nil {
				return err
			}
		}
		if update.Description != nil {
			description, err := cleanOptionalText("description", *update.Description, MaxDescriptionLength)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, "UPDATE videos SET description = $2 WHERE id = $1", id, description); err != nil {
				return err
			}
		}
		if update.ThumbnailURL != nil {
			if _, err := tx.Exec(ctx, "UPDATE videos SET thumbnail_url = $2 WHERE id = $1", id, strings.TrimSpace(*update.ThumbnailURL)); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, "UPDATE videos SET updated_at = $2 WHERE id = $1", id, time.Now().UTC()); err != nil {
			return err
		}
		var err error
		result, err = scanVideoWithOwner(tx.QueryRow(ctx,
			"SELECT "+videoWithOwnerColumns+" FROM videos v JOIN users u ON u.id = v.owner_id WHERE v.id = $1", id))
		return err
	})
	if err != nil {
		return models.VideoWithOwner{}, err
	}
	return result, nil
}

// DeleteVideo relies on foreign keys to cascade comments and playlist
// memberships; likes are polymorphic so they are cleared explicitly in the
// same transaction.
func (r *postgresRepository) DeleteVideo(ctx context.Context, id, actorID string) error {
	return r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockOwned(ctx, tx, "videos", id, actorID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			"DELETE FROM likes WHERE (target_kind = $1 AND target_id = $2) OR (target_kind = $3 AND target_id IN (SELECT id FROM comments WHERE video_id = $2))",
			models.LikeTargetVideo, id, models.LikeTargetComment); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "DELETE FROM videos WHERE id = $1", id)
		return err
	})
}

func (r *postgresRepository) ToggleVideoPublish(ctx context.Context, id, actorID string) (bool, error) {
	var published bool
	err := r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockOwned(ctx, tx, "videos", id, actorID); err != nil {
			return err
		}
		return tx.QueryRow(ctx,
			"UPDATE videos SET published = NOT published, updated_at = $2 WHERE id = $1 RETURNING published",
			id, time.Now().UTC()).Scan(&published)
	})
	if err != nil {
		return false, err
	}
	return published, nil
}

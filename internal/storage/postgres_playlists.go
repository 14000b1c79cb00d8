package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"clipstream/internal/models"
)

func (r *postgresRepository) CreatePlaylist(ctx context.Context, actorID, name, description string) (models.Playlist, error) {
	cleanedName, err := cleanText("name", name, MaxTitleLength)
	if err != nil {
		return models.Playlist{}, err
	}
	cleanedDescription, err := cleanOptionalText("description", description, MaxDescriptionLength)
	if err != nil {
		return models.Playlist{}, err
	}
	id, err := generateID()
	if err != nil {
		return models.Playlist{}, err
	}

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	playlist := models.Playlist{
		ID:          id,
		OwnerID:     actorID,
		Name:        cleanedName,
		Description: cleanedDescription,
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = r.pool.Exec(ctx,
		"INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5)",
		playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, now)
	if err != nil {
		return models.Playlist{}, mapPostgresError(err)
	}
	return playlist, nil
}

func (r *postgresRepository) ListUserPlaylists(ctx context.Context, userID string) ([]models.PlaylistSummary, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", userID).Scan(&exists); err != nil {
		return nil, mapPostgresError(err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.description, p.created_at,
			u.id, u.username, u.avatar_url,
			COUNT(v.id), COALESCE(SUM(v.duration_seconds), 0)
		 FROM playlists p
		 JOIN users u ON u.id = p.owner_id
		 LEFT JOIN playlist_videos pv ON pv.playlist_id = p.id
		 LEFT JOIN videos v ON v.id = pv.video_id
		 WHERE p.owner_id = $1
		 GROUP BY p.id, u.id
		 ORDER BY p.created_at DESC, p.id`,
		userID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	summaries := make([]models.PlaylistSummary, 0)
	for rows.Next() {
		var summary models.PlaylistSummary
		err := rows.Scan(
			&summary.ID, &summary.Name, &summary.Description, &summary.CreatedAt,
			&summary.Owner.ID, &summary.Owner.Username, &summary.Owner.AvatarURL,
			&summary.TotalVideos, &summary.TotalDuration)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}
	return summaries, nil
}

func (r *postgresRepository) GetPlaylist(ctx context.Context, id string) (models.PlaylistDetail, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var detail models.PlaylistDetail
	err := r.pool.QueryRow(ctx,
		`SELECT p.id, p.name, p.description, p.created_at, u.id, u.username, u.avatar_url
		 FROM playlists p JOIN users u ON u.id = p.owner_id WHERE p.id = $1`, id).
		Scan(&detail.ID, &detail.Name, &detail.Description, &detail.CreatedAt,
			&detail.Owner.ID, &detail.Owner.Username, &detail.Owner.AvatarURL)
	if err != nil {
		return models.PlaylistDetail{}, mapPostgresError(err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT v.id, v.title, v.thumbnail_url, v.duration_seconds
		 FROM playlist_videos pv JOIN videos v ON v.id = pv.video_id
		 WHERE pv.playlist_id = $1 ORDER BY pv.position`, id)
	if err != nil {
		return models.PlaylistDetail{}, mapPostgresError(err)
	}
	defer rows.Close()

	detail.Videos = make([]models.PlaylistVideo, 0)
	for rows.Next() {
		var video models.PlaylistVideo
		if err := rows.Scan(&video.ID, &video.Title, &video.ThumbnailURL, &video.DurationSeconds); err != nil {
			return models.PlaylistDetail{}, mapPostgresError(err)
		}
		detail.Videos = append(detail.Videos, video)
	}
	if err := rows.Err(); err != nil {
		return models.PlaylistDetail{}, mapPostgresError(err)
	}
	return detail, nil
}

func (r *postgresRepository) playlistRowLocked(ctx context.Context, tx pgx.Tx, id string) (models.Playlist, error) {
	var playlist models.Playlist
	err := tx.QueryRow(ctx,
		"SELECT id, owner_id, name, description, created_at, updated_at FROM playlists WHERE id = $1", id).
		Scan(&playlist.ID, &playlist.OwnerID, &playlist.Name, &playlist.Description, &playlist.CreatedAt, &playlist.UpdatedAt)
	if err != nil {
		return models.Playlist{}, err
	}

	rows, err := tx.Query(ctx,
		"SELECT video_id FROM playlist_videos WHERE playlist_id = $1 ORDER BY position", id)
	if err != nil {
		return models.Playlist{}, err
	}
	defer rows.Close()

	playlist.VideoIDs = make([]string, 0)
	for rows.Next() {
		var videoID string
		if err := rows.Scan(&videoID); err != nil {
			return models.Playlist{}, err
		}
		playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	}
	return playlist, rows.Err()
}

func (r *postgresRepository) UpdatePlaylist(ctx context.Context, id, actorID string, update PlaylistUpdate) (models.Playlist, error) {
	var result models.Playlist
	err := r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockOwned(ctx, tx, "playlists", id, actorID); err != nil {
			return err
		}
		if update.Name != nil {
			name, err := cleanText("name", *update.Name, MaxTitleLength)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, "UPDATE playlists SET name = $2 WHERE id = $1", id, name); err != nil {
				return err
			}
		}
		if update.Description != nil {
			description, err := cleanOptionalText("description", *update.Description, MaxDescriptionLength)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, "UPDATE playlists SET description = $2 WHERE id = $1", id, description); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, "UPDATE playlists SET updated_at = $2 WHERE id = $1", id, time.Now().UTC()); err != nil {
			return err
		}
		var err error
		result, err = r.playlistRowLocked(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.Playlist{}, err
	}
	return result, nil
}

func (r *postgresRepository) DeletePlaylist(ctx context.Context, id, actorID string) error {
	return r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockOwned(ctx, tx, "playlists", id, actorID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "DELETE FROM playlists WHERE id = $1", id)
		return err
	})
}

func (r *postgresRepository) AddPlaylistVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error) {
	var result models.Playlist
	err := r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockOwned(ctx, tx, "playlists", playlistID, actorID); err != nil {
			return err
		}
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)", videoID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO playlist_videos (playlist_id, video_id, position, added_at)
			 VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_videos WHERE playlist_id = $1), $3)
			 ON CONFLICT ON CONSTRAINT playlist_videos_pkey DO NOTHING`,
			playlistID, videoID, time.Now().UTC())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadyInPlaylist
		}
		if _, err := tx.Exec(ctx, "UPDATE playlists SET updated_at = $2 WHERE id = $1", playlistID, time.Now().UTC()); err != nil {
			return err
		}
		result, err = r.playlistRowLocked(ctx, tx, playlistID)
		return err
	})
	if err != nil {
		return models.Playlist{}, err
	}
	return result, nil
}

func (r *postgresRepository) RemovePlaylistVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error) {
	var result models.Playlist
	err := r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockOwned(ctx, tx, "playlists", playlistID, actorID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			"DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2", playlistID, videoID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotInPlaylist
		}
		if _, err := tx.Exec(ctx, "UPDATE playlists SET updated_at = $2 WHERE id = $1", playlistID, time.Now().UTC()); err != nil {
			return err
		}
		result, err = r.playlistRowLocked(ctx, tx, playlistID)
		return err
	})
	if err != nil {
		return models.Playlist{}, err
	}
	return result, nil
}

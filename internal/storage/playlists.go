package storage

import (
	"context"
	"sort"
	"time"

	"clipstream/internal/models"
)

func (s *Storage) CreatePlaylist(ctx context.Context, actorID, name, description string) (models.Playlist, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[actorID]; !ok {
		return models.Playlist{}, ErrNotFound
	}

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
	s.data.Playlists[playlist.ID] = playlist
	if err := s.persist(); err != nil {
		delete(s.data.Playlists, playlist.ID)
		return models.Playlist{}, err
	}
	return playlist, nil
}

func (s *Storage) ListUserPlaylists(ctx context.Context, userID string) ([]models.PlaylistSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[userID]; !ok {
		return nil, ErrNotFound
	}

	matches := make([]models.Playlist, 0)
	for _, playlist := range s.data.Playlists {
		if playlist.OwnerID == userID {
			matches = append(matches, playlist)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	summaries := make([]models.PlaylistSummary, 0, len(matches))
	for _, playlist := range matches {
		summaries = append(summaries, s.playlistSummaryLocked(playlist))
	}
	return summaries, nil
}

func (s *Storage) GetPlaylist(ctx context.Context, id string) (models.PlaylistDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlist, ok := s.data.Playlists[id]
	if !ok {
		return models.PlaylistDetail{}, ErrNotFound
	}
	return s.playlistDetailLocked(playlist), nil
}

func (s *Storage) UpdatePlaylist(ctx context.Context, id, actorID string, update PlaylistUpdate) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.data.Playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	if err := requireOwner(playlist, actorID); err != nil {
		return models.Playlist{}, err
	}

	previous := playlist
	previous.VideoIDs = append([]string(nil), playlist.VideoIDs...)
	if update.Name != nil {
		name, err := cleanText("name", *update.Name, MaxTitleLength)
		if err != nil {
			return models.Playlist{}, err
		}
		playlist.Name = name
	}
	if update.Description != nil {
		description, err := cleanOptionalText("description", *update.Description, MaxDescriptionLength)
		if err != nil {
			return models.Playlist{}, err
		}
		playlist.Description = description
	}
	playlist.UpdatedAt = time.Now().UTC()

	s.data.Playlists[id] = playlist
	if err := s.persist(); err != nil {
		s.data.Playlists[id] = previous
		return models.Playlist{}, err
	}
	return playlist, nil
}

func (s *Storage) DeletePlaylist(ctx context.Context, id, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.data.Playlists[id]
	if !ok {
		return ErrNotFound
	}
	if err := requireOwner(playlist, actorID); err != nil {
		return err
	}

	delete(s.data.Playlists, id)
	if err := s.persist(); err != nil {
		s.data.Playlists[id] = playlist
		return err
	}
	return nil
}

func (s *Storage) AddPlaylistVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.data.Playlists[playlistID]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	if err := requireOwner(playlist, actorID); err != nil {
		return models.Playlist{}, err
	}
	if _, ok := s.data.Videos[videoID]; !ok {
		return models.Playlist{}, ErrNotFound
	}
	for _, member := range playlist.VideoIDs {
		if member == videoID {
			return models.Playlist{}, ErrAlreadyInPlaylist
		}
	}

	previous := playlist
	previous.VideoIDs = append([]string(nil), playlist.VideoIDs...)
	playlist.VideoIDs = append(append([]string(nil), playlist.VideoIDs...), videoID)
	playlist.UpdatedAt = time.Now().UTC()

	s.data.Playlists[playlistID] = playlist
	if err := s.persist(); err != nil {
		s.data.Playlists[playlistID] = previous
		return models.Playlist{}, err
	}
	return playlist, nil
}

func (s *Storage) RemovePlaylistVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.data.Playlists[playlistID]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	if err := requireOwner(playlist, actorID); err != nil {
		return models.Playlist{}, err
	}

	trimmed := removeStringValue(playlist.VideoIDs, videoID)
	if len(trimmed) == len(playlist.VideoIDs) {
		return models.Playlist{}, ErrNotInPlaylist
	}

	previous := playlist
	previous.VideoIDs = append([]string(nil), playlist.VideoIDs...)
	playlist.VideoIDs = trimmed
	playlist.UpdatedAt = time.Now().UTC()

	s.data.Playlists[playlistID] = playlist
	if err := s.persist(); err != nil {
		s.data.Playlists[playlistID] = previous
		return models.Playlist{}, err
	}
	return playlist, nil
}

func (s *Storage) playlistSummaryLocked(playlist models.Playlist) models.PlaylistSummary {
	summary := models.PlaylistSummary{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Owner:       s.ownerSummaryLocked(playlist.OwnerID),
		CreatedAt:   playlist.CreatedAt,
	}
	for _, videoID := range playlist.VideoIDs {
		video, ok := s.data.Videos[videoID]
		if !ok {
			continue
		}
		summary.TotalVideos++
		summary.TotalDuration += video.DurationSeconds
	}
	return summary
}

func (s *Storage) playlistDetailLocked(playlist models.Playlist) models.PlaylistDetail {
	detail := models.PlaylistDetail{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Owner:       s.ownerSummaryLocked(playlist.OwnerID),
		Videos:      make([]models.PlaylistVideo, 0, len(playlist.VideoIDs)),
		CreatedAt:   playlist.CreatedAt,
	}
	for _, videoID := range playlist.VideoIDs {
		video, ok := s.data.Videos[videoID]
		if !ok {
			continue
		}
		detail.Videos = append(detail.Videos, models.PlaylistVideo{
			ID:              video.ID,
			Title:           video.Title,
			ThumbnailURL:    video.ThumbnailURL,
			DurationSeconds: video.DurationSeconds,
		})
	}
	return detail
}

package storage

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"clipstream/internal/models"
)

var searchFolder = cases.Fold()

// matchesQuery reports whether title contains query under Unicode case
// folding, so searches behave the same for "Straße" and "STRASSE".
func matchesQuery(title, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(searchFolder.String(title), searchFolder.String(query))
}

func (s *Storage) PublishVideo(ctx context.Context, params CreateVideoParams) (models.VideoWithOwner, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[params.OwnerID]; !ok {
		return models.VideoWithOwner{}, ErrNotFound
	}

	now := time.Now().UTC()
	video := models.Video{
		ID:              id,
		OwnerID:         params.OwnerID,
		Title:           title,
		Description:     description,
		VideoURL:        params.VideoURL,
		ThumbnailURL:    params.ThumbnailURL,
		DurationSeconds: params.DurationSeconds,
		Published:       params.Published,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.data.Videos[video.ID] = video
	if err := s.persist(); err != nil {
		delete(s.data.Videos, video.ID)
		return models.VideoWithOwner{}, err
	}
	return s.videoWithOwnerLocked(video), nil
}

func (s *Storage) GetVideo(ctx context.Context, id string) (models.VideoWithOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.data.Videos[id]
	if !ok {
		return models.VideoWithOwner{}, ErrNotFound
	}
	return s.videoWithOwnerLocked(video), nil
}

// RecordView increments the watch counter without touching UpdatedAt, so
// reads never surface as content edits.
func (s *Storage) RecordView(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return ErrNotFound
	}
	previous := video
	video.Views++
	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		s.data.Videos[id] = previous
		return err
	}
	return nil
}

func (s *Storage) ListVideos(ctx context.Context, filter VideoFilter, page PageRequest) (VideoPage, error) {
	page = page.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]models.Video, 0, len(s.data.Videos))
	for _, video := range s.data.Videos {
		if filter.OwnerID != "" && video.OwnerID != filter.OwnerID {
			continue
		}
		if !video.Published && !filter.IncludeUnpublished {
			continue
		}
		if !matchesQuery(video.Title, filter.Query) {
			continue
		}
		matches = append(matches, video)
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

	items := make([]models.VideoWithOwner, 0, end-start)
	for _, video := range matches[start:end] {
		items = append(items, s.videoWithOwnerLocked(video))
	}
	return VideoPage{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: TotalPages(total, page.Limit),
	}, nil
}

func (s *Storage) UpdateVideo(ctx context.Context, id, actorID string, update VideoUpdate) (models.VideoWithOwner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.VideoWithOwner{}, ErrNotFound
	}
	if err := requireOwner(video, actorID); err != nil {
		return models.VideoWithOwner{}, err
	}

	previous := video
	if update.Title != nil {
		title, err := cleanText("title", *update.Title, MaxTitleLength)
		if err != nil {
			return models.VideoWithOwner{}, err
		}
		video.Title = title
	}
	if update.Description != nil {
		description, err := cleanOptionalText("description", *update.Description, MaxDescriptionLength)
		if err != nil {
			return models.VideoWithOwner{}, err
		}
		video.Description = description
	}
	if update.ThumbnailURL != nil {
		video.ThumbnailURL = strings.TrimSpace(*update.ThumbnailURL)
	}
	video.UpdatedAt = time.Now().UTC()

	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		s.data.Videos[id] = previous
		return models.VideoWithOwner{}, err
	}
	return s.videoWithOwnerLocked(video), nil
}

// DeleteVideo removes the video along with its comments, every like that
// pointed at the video or its comments, and its playlist memberships. The
// whole cascade persists as one snapshot so a failed write leaves nothing
// half-deleted.
func (s *Storage) DeleteVideo(ctx context.Context, id, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return ErrNotFound
	}
	if err := requireOwner(video, actorID); err != nil {
		return err
	}

	snapshot := cloneDataset(s.data)

	commentIDs := make(map[string]struct{})
	for commentID, comment := range s.data.Comments {
		if comment.VideoID == id {
			commentIDs[commentID] = struct{}{}
			delete(s.data.Comments, commentID)
		}
	}
	for likeID, like := range s.data.Likes {
		switch like.TargetKind {
		case models.LikeTargetVideo:
			if like.TargetID == id {
				delete(s.data.Likes, likeID)
			}
		case models.LikeTargetComment:
			if _, gone := commentIDs[like.TargetID]; gone {
				delete(s.data.Likes, likeID)
			}
		}
	}
	for playlistID, playlist := range s.data.Playlists {
		trimmed := removeStringValue(playlist.VideoIDs, id)
		if len(trimmed) != len(playlist.VideoIDs) {
			playlist.VideoIDs = trimmed
			playlist.UpdatedAt = time.Now().UTC()
			s.data.Playlists[playlistID] = playlist
		}
	}
	delete(s.data.Videos, id)

	if err := s.persist(); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Storage) ToggleVideoPublish(ctx context.Context, id, actorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return false, ErrNotFound
	}
	if err := requireOwner(video, actorID); err != nil {
		return false, err
	}

	previous := video
	video.Published = !video.Published
	video.UpdatedAt = time.Now().UTC()
	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		s.data.Videos[id] = previous
		return false, err
	}
	return video.Published, nil
}

func (s *Storage) videoWithOwnerLocked(video models.Video) models.VideoWithOwner {
	return models.VideoWithOwner{
		Video: video,
		Owner: s.ownerSummaryLocked(video.OwnerID),
	}
}

func removeStringValue(values []string, target string) []string {
	filtered := values[:0:0]
	for _, value := range values {
		if value != target {
			filtered = append(filtered, value)
		}
	}
	return filtered
}

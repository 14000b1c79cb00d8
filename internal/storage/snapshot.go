package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"clipstream/internal/models"
)

// Snapshot captures a complete JSON-serialisable view of the datastore,
// grouping each collection by its primary identifier so it can be persisted
// and later replayed into another backing store.
type Snapshot struct {
	Users         map[string]models.User         `json:"users"`
	Videos        map[string]models.Video        `json:"videos"`
	Comments      map[string]models.Comment      `json:"comments"`
	Tweets        map[string]models.Tweet        `json:"tweets"`
	Playlists     map[string]models.Playlist     `json:"playlists"`
	Likes         map[string]models.Like         `json:"likes"`
	Subscriptions map[string]models.Subscription `json:"subscriptions"`
}

// SnapshotCounts summarises the size of each collection in a Snapshot so
// operators can see how much data a migration will move.
type SnapshotCounts struct {
	Users          int
	Videos         int
	Comments       int
	Tweets         int
	Playlists      int
	PlaylistVideos int
	Likes          int
	Subscriptions  int
}

func (s *Snapshot) ensureInitialized() {
	if s.Users == nil {
		s.Users = make(map[string]models.User)
	}
	if s.Videos == nil {
		s.Videos = make(map[string]models.Video)
	}
	if s.Comments == nil {
		s.Comments = make(map[string]models.Comment)
	}
	if s.Tweets == nil {
		s.Tweets = make(map[string]models.Tweet)
	}
	if s.Playlists == nil {
		s.Playlists = make(map[string]models.Playlist)
	}
	if s.Likes == nil {
		s.Likes = make(map[string]models.Like)
	}
	if s.Subscriptions == nil {
		s.Subscriptions = make(map[string]models.Subscription)
	}
}

func (s *Snapshot) Counts() SnapshotCounts {
	counts := SnapshotCounts{
		Users:         len(s.Users),
		Videos:        len(s.Videos),
		Comments:      len(s.Comments),
		Tweets:        len(s.Tweets),
		Playlists:     len(s.Playlists),
		Likes:         len(s.Likes),
		Subscriptions: len(s.Subscriptions),
	}
	for _, playlist := range s.Playlists {
		counts.PlaylistVideos += len(playlist.VideoIDs)
	}
	return counts
}

// LoadSnapshotFromJSON reads a previously exported Snapshot from disk.
func LoadSnapshotFromJSON(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	var snapshot Snapshot
	if err := decoder.Decode(&snapshot); err != nil {
		if err == io.EOF {
			snapshot.ensureInitialized()
			return &snapshot, nil
		}
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	snapshot.ensureInitialized()
	return &snapshot, nil
}

// Snapshot exports a deep copy of the JSON store's current contents.
func (s *Storage) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := cloneDataset(s.data)
	snapshot := &Snapshot{
		Users:         clone.Users,
		Videos:        clone.Videos,
		Comments:      clone.Comments,
		Tweets:        clone.Tweets,
		Playlists:     clone.Playlists,
		Likes:         clone.Likes,
		Subscriptions: clone.Subscriptions,
	}
	snapshot.ensureInitialized()
	return snapshot
}

// ImportSnapshotToPostgres bulk-loads a Snapshot into a Postgres-backed
// repository inside one transaction.
func ImportSnapshotToPostgres(ctx context.Context, repo Repository, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is required")
	}
	pgRepo, ok := repo.(*postgresRepository)
	if !ok {
		return fmt.Errorf("postgres repository required for snapshot import")
	}
	snapshot.ensureInitialized()
	return pgRepo.importSnapshot(ctx, snapshot)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (r *postgresRepository) importSnapshot(ctx context.Context, snapshot *Snapshot) error {
	return r.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, id := range sortedKeys(snapshot.Users) {
			user := snapshot.Users[id]
			createdAt := user.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now().UTC()
			}
			_, err := tx.Exec(ctx,
				"INSERT INTO users (id, username, email, full_name, avatar_url, cover_url, password_hash, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING",
				user.ID, user.Username, user.Email, user.FullName, user.AvatarURL, user.CoverURL, user.PasswordHash, createdAt)
			if err != nil {
				return fmt.Errorf("insert user %s: %w", id, err)
			}
		}
		for _, id := range sortedKeys(snapshot.Videos) {
			video := snapshot.Videos[id]
			_, err := tx.Exec(ctx,
				"INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration_seconds, views, published, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) ON CONFLICT (id) DO NOTHING",
				video.ID, video.OwnerID, video.Title, video.Description, video.VideoURL, video.ThumbnailURL, video.DurationSeconds, video.Views, video.Published, video.CreatedAt, video.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert video %s: %w", id, err)
			}
		}
		for _, id := range sortedKeys(snapshot.Comments) {
			comment := snapshot.Comments[id]
			_, err := tx.Exec(ctx,
				"INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING",
				comment.ID, comment.VideoID, comment.OwnerID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert comment %s: %w", id, err)
			}
		}
		for _, id := range sortedKeys(snapshot.Tweets) {
			tweet := snapshot.Tweets[id]
			_, err := tx.Exec(ctx,
				"INSERT INTO tweets (id, owner_id, content, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING",
				tweet.ID, tweet.OwnerID, tweet.Content, tweet.CreatedAt, tweet.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert tweet %s: %w", id, err)
			}
		}
		for _, id := range sortedKeys(snapshot.Playlists) {
			playlist := snapshot.Playlists[id]
			_, err := tx.Exec(ctx,
				"INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING",
				playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert playlist %s: %w", id, err)
			}
			for position, videoID := range playlist.VideoIDs {
				_, err := tx.Exec(ctx,
					"INSERT INTO playlist_videos (playlist_id, video_id, position, added_at) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING",
					playlist.ID, videoID, position+1, playlist.UpdatedAt)
				if err != nil {
					return fmt.Errorf("insert playlist video %s/%s: %w", id, videoID, err)
				}
			}
		}
		for _, id := range sortedKeys(snapshot.Likes) {
			like := snapshot.Likes[id]
			_, err := tx.Exec(ctx,
				"INSERT INTO likes (id, liked_by, target_kind, target_id, created_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING",
				like.ID, like.LikedByID, like.TargetKind, like.TargetID, like.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert like %s: %w", id, err)
			}
		}
		for _, id := range sortedKeys(snapshot.Subscriptions) {
			sub := snapshot.Subscriptions[id]
			_, err := tx.Exec(ctx,
				"INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING",
				sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert subscription %s: %w", id, err)
			}
		}
		return nil
	})
}

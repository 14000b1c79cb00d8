package storage

import (
	"context"

	"clipstream/internal/models"
)

// CreateUserParams carries the fields accepted when registering an account.
type CreateUserParams struct {
	Username  string
	Email     string
	Password  string
	FullName  string
	AvatarURL string
	CoverURL  string
}

// CreateVideoParams carries the fields accepted when publishing a video. The
// media URLs come from the upload collaborator, never from the client.
type CreateVideoParams struct {
	OwnerID         string
	Title           string
	Description     string
	VideoURL        string
	ThumbnailURL    string
	DurationSeconds int
	Published       bool
}

// VideoUpdate applies partial-update semantics: nil fields are left
// untouched.
type VideoUpdate struct {
	Title        *string
	Description  *string
	ThumbnailURL *string
}

// PlaylistUpdate applies partial-update semantics: nil fields are left
// untouched.
type PlaylistUpdate struct {
	Name        *string
	Description *string
}

// VideoFilter selects videos for a listing. Query matches title substrings
// case-insensitively. When OwnerID is set only that owner's videos match.
// Unpublished videos are included only when IncludeUnpublished is set (the
// handler enables it for the owner's own listing).
type VideoFilter struct {
	OwnerID            string
	Query              string
	IncludeUnpublished bool
}

// Repository is the storage contract consumed by the API handlers. Every
// mutation of an owned entity takes the acting identity explicitly and
// enforces the ownership gate before writing; ErrForbidden always means the
// entity was left unchanged.
type Repository interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)
	AuthenticateUser(ctx context.Context, identifier, password string) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	SetUserPassword(ctx context.Context, id, password string) (models.User, error)

	PublishVideo(ctx context.Context, params CreateVideoParams) (models.VideoWithOwner, error)
	GetVideo(ctx context.Context, id string) (models.VideoWithOwner, error)
	RecordView(ctx context.Context, id string) error
	ListVideos(ctx context.Context, filter VideoFilter, page PageRequest) (VideoPage, error)
	UpdateVideo(ctx context.Context, id, actorID string, update VideoUpdate) (models.VideoWithOwner, error)
	DeleteVideo(ctx context.Context, id, actorID string) error
	ToggleVideoPublish(ctx context.Context, id, actorID string) (bool, error)

	AddComment(ctx context.Context, videoID, actorID, content string) (models.CommentWithOwner, error)
	ListVideoComments(ctx context.Context, videoID string, page PageRequest) (CommentPage, error)
	UpdateComment(ctx context.Context, id, actorID, content string) (models.CommentWithOwner, error)
	DeleteComment(ctx context.Context, id, actorID string) error

	CreateTweet(ctx context.Context, actorID, content string) (models.Tweet, error)
	ListUserTweets(ctx context.Context, userID string, page PageRequest) (TweetPage, error)
	UpdateTweet(ctx context.Context, id, actorID, content string) (models.Tweet, error)
	DeleteTweet(ctx context.Context, id, actorID string) error

	ToggleLike(ctx context.Context, actorID string, kind models.LikeTarget, targetID string) (bool, error)
	ListLikedVideos(ctx context.Context, actorID string) ([]models.VideoWithOwner, error)

	CreatePlaylist(ctx context.Context, actorID, name, description string) (models.Playlist, error)
	ListUserPlaylists(ctx context.Context, userID string) ([]models.PlaylistSummary, error)
	GetPlaylist(ctx context.Context, id string) (models.PlaylistDetail, error)
	UpdatePlaylist(ctx context.Context, id, actorID string, update PlaylistUpdate) (models.Playlist, error)
	DeletePlaylist(ctx context.Context, id, actorID string) error
	AddPlaylistVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error)
	RemovePlaylistVideo(ctx context.Context, playlistID, videoID, actorID string) (models.Playlist, error)

	ToggleSubscription(ctx context.Context, actorID, channelID string) (bool, error)
	ListChannelSubscribers(ctx context.Context, channelID string) ([]models.UserSummary, error)
	ListSubscribedChannels(ctx context.Context, userID string) ([]models.UserSummary, error)

	ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error)
}

var (
	_ Repository = (*Storage)(nil)
	_ Repository = (*postgresRepository)(nil)
)

package models

import "time"

// LikeTarget identifies which kind of entity a like is attached to. A like
// always references exactly one target kind.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

// Valid reports whether the target kind is one of the supported values.
func (t LikeTarget) Valid() bool {
	switch t {
	case LikeTargetVideo, LikeTargetComment, LikeTargetTweet:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CoverURL     string    `json:"coverUrl,omitempty"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summary projects the public identity fields used when joining an owner
// onto another entity.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}

// UserSummary is the denormalized owner projection embedded in read
// responses: id, username and avatar only.
type UserSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type Video struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	VideoURL        string    `json:"videoUrl"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
	DurationSeconds int       `json:"durationSeconds"`
	Views           int64     `json:"views"`
	Published       bool      `json:"isPublished"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (v Video) OwnedBy() string { return v.OwnerID }

type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c Comment) OwnedBy() string { return c.OwnerID }

type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t Tweet) OwnedBy() string { return t.OwnerID }

// Playlist holds an ordered, deduplicated list of video ids. VideoIDs keeps
// insertion order; removing one entry preserves the order of the rest.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	VideoIDs    []string  `json:"videoIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p Playlist) OwnedBy() string { return p.OwnerID }

// Like records that a user liked exactly one target entity. Its existence is
// the liked state; there is no boolean flag. At most one Like may exist per
// (LikedByID, TargetKind, TargetID) triple.
type Like struct {
	ID         string     `json:"id"`
	LikedByID  string     `json:"likedById"`
	TargetKind LikeTarget `json:"targetKind"`
	TargetID   string     `json:"targetId"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Subscription records that SubscriberID follows the channel identified by
// ChannelID (a user id). At most one record may exist per pair, and a user
// can never subscribe to themselves.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// VideoWithOwner is a video joined with its owner's public identity.
type VideoWithOwner struct {
	Video
	Owner UserSummary `json:"owner"`
}

// CommentWithOwner is a comment joined with its owner's public identity.
type CommentWithOwner struct {
	Comment
	Owner UserSummary `json:"owner"`
}

// PlaylistSummary is the list projection for playlists: core fields plus
// derived totals over the member videos.
type PlaylistSummary struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	Owner         UserSummary `json:"owner"`
	TotalVideos   int         `json:"totalVideos"`
	TotalDuration int         `json:"totalDuration"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// PlaylistVideo is the member-video projection returned inside a playlist
// detail read.
type PlaylistVideo struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	ThumbnailURL    string `json:"thumbnailUrl,omitempty"`
	DurationSeconds int    `json:"durationSeconds"`
}

// PlaylistDetail is a playlist joined with its owner and member videos, in
// membership order.
type PlaylistDetail struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Owner       UserSummary     `json:"owner"`
	Videos      []PlaylistVideo `json:"videos"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ChannelStats aggregates the dashboard counters for a channel. The four
// values come from independent queries and form an eventually-consistent
// snapshot rather than a transactional one.
type ChannelStats struct {
	TotalVideos      int   `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int   `json:"totalSubscribers"`
	TotalLikes       int   `json:"totalLikes"`
}

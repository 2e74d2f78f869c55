package blog

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// PostStatus enumerates the publication states of a post.
type PostStatus string

const (
	// PostStatusDraft marks a post that is only visible to its author.
	PostStatusDraft PostStatus = "DRAFT"
	// PostStatusPublished marks a post that appears in the public feed.
	PostStatusPublished PostStatus = "PUBLISHED"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidPostID indicates that a post identifier is empty or exceeds storage bounds.
	ErrInvalidPostID = errors.New("blog: invalid post id")
	// ErrInvalidUserID indicates that a user identifier is empty or exceeds storage bounds.
	ErrInvalidUserID = errors.New("blog: invalid user id")
)

// PostID represents a validated post identifier.
type PostID string

// NewPostID validates raw input and returns a PostID.
func NewPostID(rawInput string) (PostID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPostID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidPostID, maxIdentifierLength)
	}
	return PostID(trimmed), nil
}

// String returns the underlying string identifier.
func (id PostID) String() string {
	return string(id)
}

// UserID represents a validated user identifier.
type UserID string

// NewUserID validates raw input and returns a UserID.
func NewUserID(rawInput string) (UserID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUserID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidUserID, maxIdentifierLength)
	}
	return UserID(trimmed), nil
}

// String returns the underlying string identifier.
func (id UserID) String() string {
	return string(id)
}

// Author is the identity snapshot threaded into mutating operations.
// An empty ID means no active session.
type Author struct {
	ID     string
	Name   string
	Avatar string
}

// Active reports whether the author represents a logged-in session.
func (a Author) Active() bool {
	return strings.TrimSpace(a.ID) != ""
}

// Post models a persisted blog post. Likes and CommentCount are
// denormalized counters maintained alongside the like and comment tables.
type Post struct {
	ID              string     `gorm:"column:post_id;primaryKey;size:190;not null" json:"id"`
	Title           string     `gorm:"column:title;size:512;not null;default:''" json:"title"`
	Excerpt         string     `gorm:"column:excerpt;type:text" json:"excerpt,omitempty"`
	Content         string     `gorm:"column:content;type:text;not null;default:''" json:"content"`
	Status          PostStatus `gorm:"column:status;size:32;not null" json:"status"`
	CreatedAtMillis int64      `gorm:"column:created_at_ms;not null;index:idx_posts_created" json:"created_at_ms"`
	UpdatedAtMillis int64      `gorm:"column:updated_at_ms;not null" json:"updated_at_ms"`
	AuthorID        string     `gorm:"column:author_id;size:190;not null" json:"author_id"`
	AuthorName      string     `gorm:"column:author_name;size:320" json:"author_name"`
	AuthorAvatar    string     `gorm:"column:author_avatar;size:512" json:"author_avatar"`
	Likes           int64      `gorm:"column:likes;not null;default:0" json:"likes"`
	CommentCount    int64      `gorm:"column:comment_count;not null;default:0" json:"comment_count"`
	ReadTime        string     `gorm:"column:read_time;size:32" json:"read_time,omitempty"`
	Tags            []string   `gorm:"column:tags;type:text;serializer:json" json:"tags,omitempty"`
	SEOTitle        string     `gorm:"column:seo_title;size:512" json:"seo_title,omitempty"`
	SEODescription  string     `gorm:"column:seo_description;type:text" json:"seo_description,omitempty"`
	SEOKeywords     []string   `gorm:"column:seo_keywords;type:text;serializer:json" json:"seo_keywords,omitempty"`
}

// TableName provides the explicit table binding for GORM.
func (Post) TableName() string {
	return "posts"
}

// Comment models a persisted comment. Comments are append-only: there is
// no update or delete path once created.
type Comment struct {
	ID              string `gorm:"column:comment_id;primaryKey;size:190;not null" json:"id"`
	PostID          string `gorm:"column:post_id;size:190;not null;index:idx_comments_post_time,priority:1" json:"post_id"`
	UserID          string `gorm:"column:user_id;size:190;not null" json:"user_id"`
	AuthorName      string `gorm:"column:author_name;size:320" json:"author_name"`
	AuthorAvatar    string `gorm:"column:author_avatar;size:512" json:"author_avatar"`
	Content         string `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAtMillis int64  `gorm:"column:created_at_ms;not null;index:idx_comments_post_time,priority:2" json:"created_at_ms"`
}

// TableName provides the explicit table binding for GORM.
func (Comment) TableName() string {
	return "comments"
}

// Like records that a user liked a post. Presence of the row is the
// liked state; at most one row exists per (user, post) pair.
type Like struct {
	UserID          string `gorm:"column:user_id;primaryKey;size:190;not null" json:"user_id"`
	PostID          string `gorm:"column:post_id;primaryKey;size:190;not null;index:idx_likes_post" json:"post_id"`
	CreatedAtMillis int64  `gorm:"column:created_at_ms;not null" json:"created_at_ms"`
}

// TableName provides the explicit table binding for GORM.
func (Like) TableName() string {
	return "likes"
}

// Bookmark records that a user saved a post to their reading list.
// Same composite identity and toggle semantics as Like, independent table.
type Bookmark struct {
	UserID          string `gorm:"column:user_id;primaryKey;size:190;not null;index:idx_bookmarks_user_time,priority:1" json:"user_id"`
	PostID          string `gorm:"column:post_id;primaryKey;size:190;not null" json:"post_id"`
	CreatedAtMillis int64  `gorm:"column:created_at_ms;not null;index:idx_bookmarks_user_time,priority:2" json:"created_at_ms"`
}

// TableName provides the explicit table binding for GORM.
func (Bookmark) TableName() string {
	return "bookmarks"
}

// AutoMigrate creates or updates every table the store owns, including
// the internal seed-state singleton.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Post{}, &Comment{}, &Like{}, &Bookmark{}, &seedState{})
}

// seedState is a singleton row recording whether the example catalog has
// been injected. The flag survives deletion of every post, so seeding
// happens at most once per database.
type seedState struct {
	ID             uint  `gorm:"column:id;primaryKey"`
	Seeded         bool  `gorm:"column:seeded;not null;default:false"`
	SeededAtMillis int64 `gorm:"column:seeded_at_ms;not null;default:0"`
}

// TableName provides the explicit table binding for GORM.
func (seedState) TableName() string {
	return "blog_seed_state"
}

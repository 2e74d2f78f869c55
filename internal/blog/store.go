package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/scribra-labs/scribra/internal/metrics"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()

	// ErrAuthRequired indicates an operation that needs an active session
	// was attempted without one.
	ErrAuthRequired = errors.New("blog: authentication required")
	// ErrPostNotFound indicates a lookup or mutation targeted a post that
	// does not exist.
	ErrPostNotFound = errors.New("blog: post not found")
)

// StoreError wraps storage failures with a dotted operation code.
type StoreError struct {
	code string
	err  error
}

func (e *StoreError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *StoreError) Unwrap() error {
	return e.err
}

func (e *StoreError) Code() string {
	return e.code
}

const (
	opStoreNew          = "blog.store.new"
	opListPosts         = "blog.list_posts"
	opGetPost           = "blog.get_post"
	opSavePost          = "blog.save_post"
	opDeletePost        = "blog.delete_post"
	opCreateEmptyPost   = "blog.create_empty_post"
	opToggleLike        = "blog.toggle_like"
	opHasLiked          = "blog.has_liked"
	opAddComment        = "blog.add_comment"
	opListComments      = "blog.list_comments"
	opToggleBookmark    = "blog.toggle_bookmark"
	opHasBookmarked     = "blog.has_bookmarked"
	opListBookmarked    = "blog.list_bookmarked_posts"
	opRecomputeCounters = "blog.recompute_counters"
)

func newStoreError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &StoreError{code: code, err: cause}
}

// IDProvider issues identifiers for new posts and comments.
type IDProvider interface {
	NewID() (string, error)
}

// StoreConfig describes the dependencies of the persistence store.
type StoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	// IDProvider issues fresh post and comment identifiers.
	IDProvider IDProvider
	Logger     *zap.Logger
	// DefaultAuthor is used when a mutating operation runs without an
	// active session, e.g. drafting before login.
	DefaultAuthor Author
	// SeedCatalog overrides the example posts injected on first run.
	// When nil the built-in catalog is used.
	SeedCatalog func(now time.Time) []Post
}

// Store owns the five persisted collections: the session user lives in
// the users package; posts, comments, likes and bookmarks live here.
type Store struct {
	db            *gorm.DB
	clock         func() time.Time
	idProvider    IDProvider
	logger        *zap.Logger
	defaultAuthor Author
	seedCatalog   func(now time.Time) []Post
}

// NewStore constructs the persistence store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, newStoreError(opStoreNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newStoreError(opStoreNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	seedCatalog := cfg.SeedCatalog
	if seedCatalog == nil {
		seedCatalog = defaultSeedCatalog
	}

	return &Store{
		db:            cfg.Database,
		clock:         clock,
		idProvider:    cfg.IDProvider,
		logger:        logger,
		defaultAuthor: cfg.DefaultAuthor,
		seedCatalog:   seedCatalog,
	}, nil
}

// ListPosts returns every post, newest first. The very first call on a
// fresh database injects the example catalog and records a persisted
// seed flag so seeding never repeats, even after every post is deleted.
func (s *Store) ListPosts(ctx context.Context) ([]Post, error) {
	if err := s.seedOnce(ctx); err != nil {
		return nil, err
	}

	var posts []Post
	if err := s.db.WithContext(ctx).
		Order("created_at_ms DESC").
		Find(&posts).Error; err != nil {
		s.logError(opListPosts, "query_failed", err)
		return nil, newStoreError(opListPosts, "query_failed", err)
	}
	return posts, nil
}

func (s *Store) seedOnce(ctx context.Context) error {
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state seedState
		err := tx.Take(&state).Error
		if err == nil && state.Seeded {
			return nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := s.clock().UTC()
		for _, post := range s.seedCatalog(now) {
			if err := tx.Create(&post).Error; err != nil {
				return err
			}
		}
		state.ID = 1
		state.Seeded = true
		state.SeededAtMillis = now.UnixMilli()
		return tx.Save(&state).Error
	})
	if txErr != nil {
		s.logError(opListPosts, "seed_failed", txErr)
		return newStoreError(opListPosts, "seed_failed", txErr)
	}
	return nil
}

// GetPost loads a single post by identifier.
func (s *Store) GetPost(ctx context.Context, postID PostID) (*Post, error) {
	var post Post
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID.String()).
		Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		s.logError(opGetPost, "query_failed", err, zap.String("post_id", postID.String()))
		return nil, newStoreError(opGetPost, "query_failed", err)
	}
	return &post, nil
}

// SavePost upserts a post by id. Inserts stamp createdAt and updatedAt
// with the current time; updates preserve the original createdAt,
// advance updatedAt, carry the stored like and comment counters over,
// and keep the stored status when the incoming one is empty. The author
// snapshot is filled from the acting user when the post does not
// already carry one, and the read-time label is rederived from the
// content on every save.
func (s *Store) SavePost(ctx context.Context, post *Post, actor Author) error {
	if post == nil {
		return newStoreError(opSavePost, "missing_post", errors.New("post is required"))
	}
	if _, err := NewPostID(post.ID); err != nil {
		return newStoreError(opSavePost, "invalid_post_id", err)
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock().UTC().UnixMilli()

		var existing Post
		err := tx.Where("post_id = ?", post.ID).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			post.CreatedAtMillis = now
			post.UpdatedAtMillis = now
		case err != nil:
			return err
		default:
			post.CreatedAtMillis = existing.CreatedAtMillis
			post.UpdatedAtMillis = now
			if post.UpdatedAtMillis < post.CreatedAtMillis {
				post.UpdatedAtMillis = post.CreatedAtMillis
			}
			// Counters belong to the interaction paths; a re-save must
			// never reset them.
			post.Likes = existing.Likes
			post.CommentCount = existing.CommentCount
			if post.Status == "" {
				post.Status = existing.Status
			}
		}

		if post.AuthorName == "" {
			author := s.resolveAuthor(actor)
			if post.AuthorID == "" {
				post.AuthorID = author.ID
			}
			post.AuthorName = author.Name
			post.AuthorAvatar = author.Avatar
		}
		if post.Status == "" {
			post.Status = PostStatusDraft
		}
		post.ReadTime = metrics.EstimateReadTime(metrics.CountWords(metrics.StripMarkdown(post.Content)))

		return tx.Save(post).Error
	})
	if txErr != nil {
		s.logError(opSavePost, "save_failed", txErr, zap.String("post_id", post.ID))
		return newStoreError(opSavePost, "save_failed", txErr)
	}
	return nil
}

// DeletePost removes a post together with its comments, likes and
// bookmarks in one transaction. Deleting an absent post is a no-op.
func (s *Store) DeletePost(ctx context.Context, postID PostID) error {
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID.String()).Delete(&Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID.String()).Delete(&Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID.String()).Delete(&Like{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", postID.String()).Delete(&Bookmark{}).Error
	})
	if txErr != nil {
		s.logError(opDeletePost, "delete_failed", txErr, zap.String("post_id", postID.String()))
		return newStoreError(opDeletePost, "delete_failed", txErr)
	}
	return nil
}

// CreateEmptyPost returns a fresh, unsaved draft attributed to the
// acting user, falling back to the configured default identity.
func (s *Store) CreateEmptyPost(actor Author) (*Post, error) {
	id, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreateEmptyPost, "id_generation_failed", err)
		return nil, newStoreError(opCreateEmptyPost, "id_generation_failed", err)
	}

	author := s.resolveAuthor(actor)
	now := s.clock().UTC().UnixMilli()
	return &Post{
		ID:              id,
		Status:          PostStatusDraft,
		CreatedAtMillis: now,
		UpdatedAtMillis: now,
		AuthorID:        author.ID,
		AuthorName:      author.Name,
		AuthorAvatar:    author.Avatar,
		ReadTime:        metrics.EstimateReadTime(0),
	}, nil
}

func (s *Store) resolveAuthor(actor Author) Author {
	if actor.Active() {
		return actor
	}
	return s.defaultAuthor
}

func (s *Store) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("blog store error", attrs...)
}

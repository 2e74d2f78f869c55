package blog

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ToggleLike flips membership of the (user, post) pair in the like table
// and adjusts the post's denormalized likes counter in the same
// transaction, clamped at zero. It returns the new liked state.
func (s *Store) ToggleLike(ctx context.Context, postID PostID, userID UserID) (bool, error) {
	liked := false
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Like
		err := tx.Where("post_id = ? AND user_id = ?", postID.String(), userID.String()).
			Take(&existing).Error
		switch {
		case err == nil:
			if err := tx.Where("post_id = ? AND user_id = ?", postID.String(), userID.String()).
				Delete(&Like{}).Error; err != nil {
				return err
			}
			liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := Like{
				UserID:          userID.String(),
				PostID:          postID.String(),
				CreatedAtMillis: s.clock().UTC().UnixMilli(),
			}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			liked = true
		default:
			return err
		}

		return adjustLikeCounter(tx, postID, liked)
	})
	if txErr != nil {
		s.logError(opToggleLike, "toggle_failed", txErr,
			zap.String("post_id", postID.String()),
			zap.String("user_id", userID.String()))
		return false, newStoreError(opToggleLike, "toggle_failed", txErr)
	}
	return liked, nil
}

// Counter adjustments only apply when the post row exists; a like on a
// vanished post keeps its membership row but has nothing to count against.
func adjustLikeCounter(tx *gorm.DB, postID PostID, liked bool) error {
	expr := gorm.Expr("likes + 1")
	if !liked {
		expr = gorm.Expr("CASE WHEN likes > 0 THEN likes - 1 ELSE 0 END")
	}
	return tx.Model(&Post{}).
		Where("post_id = ?", postID.String()).
		Update("likes", expr).Error
}

// HasLiked reports whether the user has liked the post.
func (s *Store) HasLiked(ctx context.Context, postID PostID, userID UserID) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Like{}).
		Where("post_id = ? AND user_id = ?", postID.String(), userID.String()).
		Count(&count).Error; err != nil {
		s.logError(opHasLiked, "query_failed", err, zap.String("post_id", postID.String()))
		return false, newStoreError(opHasLiked, "query_failed", err)
	}
	return count > 0, nil
}

// AddComment appends a comment from the acting user and increments the
// post's denormalized comment counter in the same transaction. It fails
// with ErrAuthRequired without an active session and ErrPostNotFound
// when the post does not exist, leaving no partial state behind.
func (s *Store) AddComment(ctx context.Context, postID PostID, actor Author, content string) (*Comment, error) {
	if !actor.Active() {
		return nil, ErrAuthRequired
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, newStoreError(opAddComment, "empty_content", errors.New("comment content is required"))
	}

	commentID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opAddComment, "id_generation_failed", err)
		return nil, newStoreError(opAddComment, "id_generation_failed", err)
	}

	comment := Comment{
		ID:              commentID,
		PostID:          postID.String(),
		UserID:          actor.ID,
		AuthorName:      actor.Name,
		AuthorAvatar:    actor.Avatar,
		Content:         trimmed,
		CreatedAtMillis: s.clock().UTC().UnixMilli(),
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post Post
		err := tx.Where("post_id = ?", postID.String()).Take(&post).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&Post{}).
			Where("post_id = ?", postID.String()).
			Update("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if txErr != nil {
		if errors.Is(txErr, ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		s.logError(opAddComment, "insert_failed", txErr, zap.String("post_id", postID.String()))
		return nil, newStoreError(opAddComment, "insert_failed", txErr)
	}
	return &comment, nil
}

// ListComments returns the comments on a post, newest first.
func (s *Store) ListComments(ctx context.Context, postID PostID) ([]Comment, error) {
	var comments []Comment
	if err := s.db.WithContext(ctx).
		Where("post_id = ?", postID.String()).
		Order("created_at_ms DESC").
		Find(&comments).Error; err != nil {
		s.logError(opListComments, "query_failed", err, zap.String("post_id", postID.String()))
		return nil, newStoreError(opListComments, "query_failed", err)
	}
	return comments, nil
}

// ToggleBookmark flips membership of the (user, post) pair in the
// bookmark table and returns the new bookmarked state. Bookmarks carry
// no denormalized counter.
func (s *Store) ToggleBookmark(ctx context.Context, postID PostID, userID UserID) (bool, error) {
	bookmarked := false
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Bookmark
		err := tx.Where("post_id = ? AND user_id = ?", postID.String(), userID.String()).
			Take(&existing).Error
		switch {
		case err == nil:
			bookmarked = false
			return tx.Where("post_id = ? AND user_id = ?", postID.String(), userID.String()).
				Delete(&Bookmark{}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			bookmarked = true
			return tx.Create(&Bookmark{
				UserID:          userID.String(),
				PostID:          postID.String(),
				CreatedAtMillis: s.clock().UTC().UnixMilli(),
			}).Error
		default:
			return err
		}
	})
	if txErr != nil {
		s.logError(opToggleBookmark, "toggle_failed", txErr,
			zap.String("post_id", postID.String()),
			zap.String("user_id", userID.String()))
		return false, newStoreError(opToggleBookmark, "toggle_failed", txErr)
	}
	return bookmarked, nil
}

// HasBookmarked reports whether the user has bookmarked the post.
func (s *Store) HasBookmarked(ctx context.Context, postID PostID, userID UserID) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Bookmark{}).
		Where("post_id = ? AND user_id = ?", postID.String(), userID.String()).
		Count(&count).Error; err != nil {
		s.logError(opHasBookmarked, "query_failed", err, zap.String("post_id", postID.String()))
		return false, newStoreError(opHasBookmarked, "query_failed", err)
	}
	return count > 0, nil
}

// ListBookmarkedPosts returns the posts in the user's reading list,
// most recently bookmarked first. Bookmarks whose post has since been
// removed are skipped.
func (s *Store) ListBookmarkedPosts(ctx context.Context, userID UserID) ([]Post, error) {
	var posts []Post
	if err := s.db.WithContext(ctx).Model(&Post{}).
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.post_id").
		Where("bookmarks.user_id = ?", userID.String()).
		Order("bookmarks.created_at_ms DESC").
		Find(&posts).Error; err != nil {
		s.logError(opListBookmarked, "query_failed", err, zap.String("user_id", userID.String()))
		return nil, newStoreError(opListBookmarked, "query_failed", err)
	}
	return posts, nil
}

// RecomputeCounters rederives both denormalized counters on a post from
// the interaction tables. It is the repair path for drift: normal
// operation maintains the counters transactionally and never needs it.
func (s *Store) RecomputeCounters(ctx context.Context, postID PostID) (*Post, error) {
	var post Post
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("post_id = ?", postID.String()).Take(&post).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		if err != nil {
			return err
		}

		var likeCount, commentCount int64
		if err := tx.Model(&Like{}).Where("post_id = ?", postID.String()).Count(&likeCount).Error; err != nil {
			return err
		}
		if err := tx.Model(&Comment{}).Where("post_id = ?", postID.String()).Count(&commentCount).Error; err != nil {
			return err
		}

		post.Likes = likeCount
		post.CommentCount = commentCount
		return tx.Model(&Post{}).
			Where("post_id = ?", postID.String()).
			Updates(map[string]interface{}{
				"likes":         likeCount,
				"comment_count": commentCount,
			}).Error
	})
	if txErr != nil {
		if errors.Is(txErr, ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		s.logError(opRecomputeCounters, "recompute_failed", txErr, zap.String("post_id", postID.String()))
		return nil, newStoreError(opRecomputeCounters, "recompute_failed", txErr)
	}
	return &post, nil
}

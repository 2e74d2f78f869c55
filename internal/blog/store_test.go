package blog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type staticIDGenerator struct {
	ids   []string
	index int
}

func (g *staticIDGenerator) NewID() (string, error) {
	if g.index >= len(g.ids) {
		return "", errors.New("exhausted ids")
	}
	id := g.ids[g.index]
	g.index++
	return id, nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

var testAuthor = Author{
	ID:     "user_123",
	Name:   "Alex Writer",
	Avatar: "https://api.dicebear.com/7.x/notionists/svg?seed=Alex",
}

func TestListPostsSeedsExactlyOnce(t *testing.T) {
	store, db, _ := newTestStore(t, nil)

	posts, err := store.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 5 {
		t.Fatalf("expected 5 seed posts on first run, got %d", len(posts))
	}
	for _, post := range posts {
		if post.Status != PostStatusPublished {
			t.Fatalf("seed post %s should be published, got %s", post.ID, post.Status)
		}
	}

	// Clearing every post must not trigger a second seed.
	if err := db.Where("1 = 1").Delete(&Post{}).Error; err != nil {
		t.Fatalf("failed to clear posts: %v", err)
	}
	posts, err = store.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("expected empty feed after clearing, got %d posts", len(posts))
	}
}

func TestListPostsReturnsNewestFirst(t *testing.T) {
	store, _, clock := newTestStore(t, []string{})

	first := &Post{ID: "post-1", Title: "First", Content: "one"}
	if err := store.SavePost(context.Background(), first, testAuthor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.Advance(time.Minute)
	second := &Post{ID: "post-2", Title: "Second", Content: "two"}
	if err := store.SavePost(context.Background(), second, testAuthor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	posts, err := store.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].ID != "post-2" || posts[1].ID != "post-1" {
		t.Fatalf("expected newest-first order, got %s then %s", posts[0].ID, posts[1].ID)
	}
}

func TestSavePostInsertStampsBothTimestamps(t *testing.T) {
	store, _, clock := newTestStore(t, []string{})

	post := &Post{ID: "post-1", Title: "Hello", Content: "Short note."}
	if err := store.SavePost(context.Background(), post, testAuthor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := clock.Now().UTC().UnixMilli()
	if post.CreatedAtMillis != now || post.UpdatedAtMillis != now {
		t.Fatalf("expected both timestamps to equal %d, got created=%d updated=%d",
			now, post.CreatedAtMillis, post.UpdatedAtMillis)
	}
	if post.AuthorName != testAuthor.Name {
		t.Fatalf("expected author snapshot to be filled, got %q", post.AuthorName)
	}
	if post.ReadTime != "1 min read" {
		t.Fatalf("expected read time label, got %q", post.ReadTime)
	}
}

func TestSavePostUpdatePreservesCreatedAt(t *testing.T) {
	store, _, clock := newTestStore(t, []string{})

	post := &Post{ID: "post-1", Title: "Hello", Content: "v1"}
	if err := store.SavePost(context.Background(), post, testAuthor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	createdAt := post.CreatedAtMillis

	clock.Advance(10 * time.Millisecond)
	post.Content = "v2"
	if err := store.SavePost(context.Background(), post, testAuthor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if post.CreatedAtMillis != createdAt {
		t.Fatalf("createdAt changed on update: %d -> %d", createdAt, post.CreatedAtMillis)
	}
	if post.UpdatedAtMillis != createdAt+10 {
		t.Fatalf("expected updatedAt to advance by 10ms, got %d", post.UpdatedAtMillis)
	}

	stored, err := store.GetPost(context.Background(), mustPostID(t, "post-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Content != "v2" {
		t.Fatalf("expected updated content, got %q", stored.Content)
	}
	if stored.UpdatedAtMillis < stored.CreatedAtMillis {
		t.Fatalf("updatedAt must never precede createdAt")
	}
}

func TestSavePostKeepsExistingAuthorSnapshot(t *testing.T) {
	store, _, _ := newTestStore(t, []string{})

	post := &Post{
		ID:           "post-1",
		Title:        "Guest post",
		AuthorID:     "auth_9",
		AuthorName:   "Guest Author",
		AuthorAvatar: "https://example.com/guest.png",
	}
	if err := store.SavePost(context.Background(), post, testAuthor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.AuthorName != "Guest Author" || post.AuthorID != "auth_9" {
		t.Fatalf("existing snapshot must be preserved, got %q/%q", post.AuthorID, post.AuthorName)
	}
}

func TestSavePostUpdateKeepsInteractionCounters(t *testing.T) {
	store, db, _ := newTestStore(t, []string{"comment-1"})

	post := &Post{ID: "post-1", Title: "Edited", Content: "v1", Status: PostStatusPublished}
	if err := store.SavePost(context.Background(), post, testAuthor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	postID := mustPostID(t, "post-1")

	if _, err := store.ToggleLike(context.Background(), postID, mustBlogUserID(t, "user_123")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.AddComment(context.Background(), postID, testAuthor, "nice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Re-save the way an editor submission arrives: content only, no
	// counters, no status.
	edited := &Post{ID: "post-1", Title: "Edited", Content: "v2"}
	if err := store.SavePost(context.Background(), edited, testAuthor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := store.GetPost(context.Background(), postID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Likes != 1 || stored.CommentCount != 1 {
		t.Fatalf("expected counters 1/1 to survive the re-save, got %d/%d", stored.Likes, stored.CommentCount)
	}

	var likeRows, commentRows int64
	if err := db.Model(&Like{}).Where("post_id = ?", "post-1").Count(&likeRows).Error; err != nil {
		t.Fatalf("failed to count likes: %v", err)
	}
	if err := db.Model(&Comment{}).Where("post_id = ?", "post-1").Count(&commentRows).Error; err != nil {
		t.Fatalf("failed to count comments: %v", err)
	}
	if stored.Likes != likeRows || stored.CommentCount != commentRows {
		t.Fatalf("counters %d/%d disagree with rows %d/%d", stored.Likes, stored.CommentCount, likeRows, commentRows)
	}
}

func TestSavePostUpdateKeepsPublishedStatus(t *testing.T) {
	store, _, _ := newTestStore(t, []string{})

	post := &Post{ID: "post-1", Title: "Live", Content: "v1", Status: PostStatusPublished}
	if err := store.SavePost(context.Background(), post, testAuthor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A payload without a status must not unpublish the post.
	edited := &Post{ID: "post-1", Title: "Live", Content: "v2"}
	if err := store.SavePost(context.Background(), edited, testAuthor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := store.GetPost(context.Background(), mustPostID(t, "post-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != PostStatusPublished {
		t.Fatalf("expected status to stay PUBLISHED, got %s", stored.Status)
	}

	// An explicit DRAFT still wins: unpublishing is a deliberate act.
	edited.Status = PostStatusDraft
	if err := store.SavePost(context.Background(), edited, testAuthor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, err = store.GetPost(context.Background(), mustPostID(t, "post-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != PostStatusDraft {
		t.Fatalf("expected explicit DRAFT to apply, got %s", stored.Status)
	}
}

func TestGetPostMissing(t *testing.T) {
	store, _, _ := newTestStore(t, []string{})

	_, err := store.GetPost(context.Background(), mustPostID(t, "missing"))
	if !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestCreateEmptyPostYieldsDistinctDrafts(t *testing.T) {
	store, _, _ := newTestStore(t, []string{"draft-1", "draft-2"})

	first, err := store.CreateEmptyPost(testAuthor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.CreateEmptyPost(testAuthor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ID == second.ID {
		t.Fatalf("expected distinct ids, both were %s", first.ID)
	}
	for _, draft := range []*Post{first, second} {
		if draft.Status != PostStatusDraft {
			t.Fatalf("expected DRAFT status, got %s", draft.Status)
		}
		if draft.Likes != 0 || draft.CommentCount != 0 {
			t.Fatalf("expected zeroed counters, got likes=%d comments=%d", draft.Likes, draft.CommentCount)
		}
	}
}

func TestCreateEmptyPostFallsBackToDefaultAuthor(t *testing.T) {
	store, _, _ := newTestStore(t, []string{"draft-1"})

	draft, err := store.CreateEmptyPost(Author{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.AuthorID != testAuthor.ID || draft.AuthorName != testAuthor.Name {
		t.Fatalf("expected default identity, got %q/%q", draft.AuthorID, draft.AuthorName)
	}
}

func TestDeletePostCascadesInteractions(t *testing.T) {
	store, db, _ := newTestStore(t, []string{"comment-1"})

	post := &Post{ID: "post-1", Title: "Doomed", Content: "bye"}
	if err := store.SavePost(context.Background(), post, testAuthor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	postID := mustPostID(t, "post-1")
	userID := mustBlogUserID(t, "user_123")

	if _, err := store.ToggleLike(context.Background(), postID, userID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.AddComment(context.Background(), postID, testAuthor, "so long"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.ToggleBookmark(context.Background(), postID, userID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.DeletePost(context.Background(), postID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, model := range []interface{}{&Post{}, &Comment{}, &Like{}, &Bookmark{}} {
		var count int64
		if err := db.Model(model).Where("post_id = ?", "post-1").Count(&count).Error; err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected cascade delete to remove %T rows, found %d", model, count)
		}
	}

	// Deleting again is a no-op.
	if err := store.DeletePost(context.Background(), postID); err != nil {
		t.Fatalf("repeat delete should be a no-op, got %v", err)
	}
}

func newTestStore(t *testing.T, ids []string) (*Store, *gorm.DB, *testClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:scribra_test_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Post{}, &Comment{}, &Like{}, &Bookmark{}, &seedState{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	clock := &testClock{now: time.Unix(1700000600, 0).UTC()}

	cfg := StoreConfig{
		Database:      db,
		Clock:         clock.Now,
		IDProvider:    &staticIDGenerator{ids: ids},
		DefaultAuthor: testAuthor,
	}
	if ids != nil {
		// Keep seeding out of interaction-focused tests.
		cfg.SeedCatalog = func(time.Time) []Post { return nil }
	}

	store, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("failed to construct store: %v", err)
	}

	return store, db, clock
}

func mustPostID(t *testing.T, value string) PostID {
	t.Helper()
	id, err := NewPostID(value)
	if err != nil {
		t.Fatalf("unexpected post id error: %v", err)
	}
	return id
}

func mustBlogUserID(t *testing.T, value string) UserID {
	t.Helper()
	id, err := NewUserID(value)
	if err != nil {
		t.Fatalf("unexpected user id error: %v", err)
	}
	return id
}

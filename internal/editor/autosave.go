// Package editor holds the server-side half of an editing session: the
// currently open draft and the background autosave loop that re-saves it
// while the session stays open.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scribra-labs/scribra/internal/blog"
)

const defaultAutosaveInterval = 30 * time.Second

var errMissingStore = errors.New("editor: post saver is required")

// PostSaver is the slice of the blog store the autosaver depends on.
type PostSaver interface {
	SavePost(ctx context.Context, post *blog.Post, actor blog.Author) error
}

// AutosaverConfig describes the dependencies of the autosave loop.
type AutosaverConfig struct {
	Store    PostSaver
	Interval time.Duration
	Logger   *zap.Logger
}

// Autosaver periodically re-saves the open draft. Manual saves go
// through Flush as well, so a periodic save never overlaps one in
// flight: both serialize behind the same mutex.
type Autosaver struct {
	store    PostSaver
	interval time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	draft *blog.Post
	actor blog.Author
}

// NewAutosaver constructs the autosave loop.
func NewAutosaver(cfg AutosaverConfig) (*Autosaver, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultAutosaveInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Autosaver{store: cfg.Store, interval: interval, logger: logger}, nil
}

// Open makes the given draft the active document of the editing session.
func (a *Autosaver) Open(draft *blog.Post, actor blog.Author) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft = draft
	a.actor = actor
}

// Update replaces the active draft content without saving. A draft for
// a different post than the open one is ignored.
func (a *Autosaver) Update(draft *blog.Post) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draft == nil || draft == nil || a.draft.ID != draft.ID {
		return
	}
	a.draft = draft
}

// Close ends the editing session. Subsequent ticks are no-ops.
func (a *Autosaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft = nil
	a.actor = blog.Author{}
}

// Flush saves the active draft now. With no active document it is a
// no-op.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draft == nil {
		return nil
	}
	return a.store.SavePost(ctx, a.draft, a.actor)
}

// Run drives the periodic autosave until the context is canceled.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Flush(ctx); err != nil {
				a.logger.Warn("autosave failed", zap.Error(err))
			}
		}
	}
}

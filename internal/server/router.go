package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/scribra-labs/scribra/internal/assistant"
	"github.com/scribra-labs/scribra/internal/blog"
	"github.com/scribra-labs/scribra/internal/editor"
	"github.com/scribra-labs/scribra/internal/metrics"
	"github.com/scribra-labs/scribra/internal/users"
)

const userIDContextKey = "scribra_user_id"

const heartbeatInterval = 15 * time.Second

var (
	errMissingTokenManager  = errors.New("token manager dependency required")
	errMissingUsersService  = errors.New("users service dependency required")
	errMissingBlogStore     = errors.New("blog store dependency required")
	errMissingGenerator     = errors.New("generator dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// SessionTokenManager issues and validates the bearer tokens handed out
// on login.
type SessionTokenManager interface {
	IssueSessionToken(ctx context.Context, subject string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// Dependencies wires the HTTP surface to the application services.
type Dependencies struct {
	TokenManager SessionTokenManager
	Users        *users.Service
	Blog         *blog.Store
	Generator    assistant.Generator
	// Autosaver is optional; without it draft staging responds 503.
	Autosaver *editor.Autosaver
	// Notifier is optional; a fresh dispatcher is created when nil.
	Notifier *NotificationDispatcher
	Logger   *zap.Logger
}

// NewHTTPHandler builds the gin router serving the full API surface.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Users == nil {
		return nil, errMissingUsersService
	}
	if deps.Blog == nil {
		return nil, errMissingBlogStore
	}
	if deps.Generator == nil {
		return nil, errMissingGenerator
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NewNotificationDispatcher()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:    deps.TokenManager,
		users:     deps.Users,
		blog:      deps.Blog,
		generator: deps.Generator,
		autosaver: deps.Autosaver,
		notifier:  notifier,
		logger:    logger,
	}

	router.POST("/auth/login", handler.handleLogin)
	router.GET("/posts", handler.handleListPosts)
	router.GET("/posts/:id", handler.handleGetPost)
	router.GET("/posts/:id/comments", handler.handleListComments)
	router.POST("/metrics/analyze", handler.handleAnalyzeContent)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/auth/logout", handler.handleLogout)
	protected.GET("/me", handler.handleCurrentUser)
	protected.PATCH("/me", handler.handleUpdateProfile)
	protected.POST("/posts", handler.handleCreateDraft)
	protected.PUT("/posts/:id", handler.handleSavePost)
	protected.PUT("/posts/:id/draft", handler.handleStageDraft)
	protected.DELETE("/posts/:id", handler.handleDeletePost)
	protected.POST("/posts/:id/like", handler.handleToggleLike)
	protected.POST("/posts/:id/comments", handler.handleAddComment)
	protected.POST("/posts/:id/bookmark", handler.handleToggleBookmark)
	protected.POST("/posts/:id/recount", handler.handleRecountPost)
	protected.GET("/posts/:id/viewer", handler.handleViewerState)
	protected.GET("/bookmarks", handler.handleListBookmarks)
	protected.POST("/assistant/generate", handler.handleGenerate)
	protected.GET("/events", handler.handleEvents)

	return router, nil
}

type httpHandler struct {
	tokens    SessionTokenManager
	users     *users.Service
	blog      *blog.Store
	generator assistant.Generator
	autosaver *editor.Autosaver
	notifier  *NotificationDispatcher
	logger    *zap.Logger
}

type loginResponsePayload struct {
	AccessToken string         `json:"access_token"`
	ExpiresIn   int64          `json:"expires_in"`
	TokenType   string         `json:"token_type"`
	User        *users.Profile `json:"user"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	profile, err := h.users.Login(c.Request.Context())
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login_failed"})
		return
	}

	token, expiresIn, err := h.tokens.IssueSessionToken(c.Request.Context(), profile.UserID)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, loginResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		User:        profile,
	})
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	if err := h.users.Logout(c.Request.Context()); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleCurrentUser(c *gin.Context) {
	profile, err := h.users.Current(c.Request.Context())
	if errors.Is(err, users.ErrNoActiveSession) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no_active_session"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_load_failed"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

type profileUpdatePayload struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	Avatar       *string `json:"avatar"`
	AvatarSource *string `json:"avatar_source"`
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	var request profileUpdatePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	update := users.ProfileUpdate{
		Name:   request.Name,
		Email:  request.Email,
		Avatar: request.Avatar,
	}
	if request.AvatarSource != nil {
		source := users.AvatarSource(strings.ToLower(strings.TrimSpace(*request.AvatarSource)))
		if source != users.AvatarSourceGoogle && source != users.AvatarSourceDefault {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_avatar_source"})
			return
		}
		update.AvatarSource = &source
	}

	profile, err := h.users.UpdateProfile(c.Request.Context(), update)
	if errors.Is(err, users.ErrNoActiveSession) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no_active_session"})
		return
	}
	if err != nil {
		h.logger.Error("failed to update profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_update_failed"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *httpHandler) handleListPosts(c *gin.Context) {
	posts, err := h.blog.ListPosts(c.Request.Context())
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *httpHandler) handleGetPost(c *gin.Context) {
	postID, ok := h.postIDParam(c)
	if !ok {
		return
	}
	post, err := h.blog.GetPost(c.Request.Context(), postID)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *httpHandler) handleCreateDraft(c *gin.Context) {
	actor := h.currentAuthor(c)
	draft, err := h.blog.CreateEmptyPost(actor)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	if h.autosaver != nil {
		h.autosaver.Open(draft, actor)
	}
	c.JSON(http.StatusCreated, draft)
}

type postPayload struct {
	Title          string   `json:"title"`
	Excerpt        string   `json:"excerpt"`
	Content        string   `json:"content"`
	Status         string   `json:"status"`
	Tags           []string `json:"tags"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
	SEOKeywords    []string `json:"seo_keywords"`
}

func (p postPayload) toPost(postID blog.PostID) (blog.Post, bool) {
	status := blog.PostStatus(strings.ToUpper(strings.TrimSpace(p.Status)))
	if status != "" && status != blog.PostStatusDraft && status != blog.PostStatusPublished {
		return blog.Post{}, false
	}
	return blog.Post{
		ID:             postID.String(),
		Title:          p.Title,
		Excerpt:        p.Excerpt,
		Content:        p.Content,
		Status:         status,
		Tags:           p.Tags,
		SEOTitle:       p.SEOTitle,
		SEODescription: p.SEODescription,
		SEOKeywords:    p.SEOKeywords,
	}, true
}

func (h *httpHandler) handleSavePost(c *gin.Context) {
	postID, ok := h.postIDParam(c)
	if !ok {
		return
	}
	var request postPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	post, ok := request.toPost(postID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
		return
	}

	actor := h.currentAuthor(c)
	if err := h.blog.SavePost(c.Request.Context(), &post, actor); err != nil {
		h.respondStoreError(c, err)
		return
	}
	if h.autosaver != nil {
		h.autosaver.Update(&post)
	}
	c.JSON(http.StatusOK, post)
}

// Staging replaces the editing session's draft without persisting it;
// the autosave loop writes it out on its next tick.
func (h *httpHandler) handleStageDraft(c *gin.Context) {
	if h.autosaver == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "autosave_unavailable"})
		return
	}
	postID, ok := h.postIDParam(c)
	if !ok {
		return
	}
	var request postPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	post, ok := request.toPost(postID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
		return
	}

	h.autosaver.Open(&post, h.currentAuthor(c))
	c.JSON(http.StatusAccepted, gin.H{"staged": true})
}

func (h *httpHandler) handleDeletePost(c *gin.Context) {
	postID, ok := h.postIDParam(c)
	if !ok {
		return
	}
	if err := h.blog.DeletePost(c.Request.Context(), postID); err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleToggleLike(c *gin.Context) {
	postID, ok := h.postIDParam(c)
	if !ok {
		return
	}
	userID, ok := h.sessionUserID(c)
	if !ok {
		return
	}

	liked, err := h.blog.ToggleLike(c.Request.Context(), postID, userID)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	var likes int64
	post, err := h.blog.GetPost(c.Request.Context(), postID)
	if err == nil {
		likes = post.Likes
		if liked && post.AuthorID != userID.String() {
			h.notifier.Publish(Notification{
				UserID:    post.AuthorID,
				EventType: NotificationEventPostLiked,
				PostID:    post.ID,
				PostTitle: post.Title,
				ActorName: h.currentAuthor(c).Name,
				Timestamp: time.Now().UTC(),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked, "likes": likes})
}

type commentPayload struct {
	Content string `json:"content"`
}

func (h *httpHandler) handleAddComment(c *gin.Context) {
	postID, ok := h.postIDParam(c)
	if !ok {
		return
	}
	var request commentPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	actor := h.currentAuthor(c)
	comment, err := h.blog.AddComment(c.Request.Context(), postID, actor, request.Content)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	if post, err := h.blog.GetPost(c.Request.Context(), postID); err == nil && post.AuthorID != actor.ID {
		h.notifier.Publish(Notification{
			UserID:    post.AuthorID,
			EventType: NotificationEventCommentAdded,
			PostID:    post.ID,
			PostTitle: post.Title,
			ActorName: actor.Name,
			Timestamp: time.Now().UTC(),
		})
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *httpHandler) handleListComments(c *gin.Context) {
	postID, ok := h.postIDParam(c)
	if !ok {
		return
	}
	comments, err := h.blog.ListComments(c.Request.Context(), postID)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *httpHandler) handleToggleBookmark(c *gin.Context) {
	postID, ok := h.postIDParam(c)
	if !ok {
		return
	}
	userID, ok := h.sessionUserID(c)
	if !ok {
		return
	}
	bookmarked, err := h.blog.ToggleBookmark(c.Request.Context(), postID, userID)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarked": bookmarked})
}

func (h *httpHandler) handleViewerState(c *gin.Context) {
	postID, ok := h.postIDParam(c)
	if !ok {
		return
	}
	userID, ok := h.sessionUserID(c)
	if !ok {
		return
	}
	liked, err := h.blog.HasLiked(c.Request.Context(), postID, userID)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	bookmarked, err := h.blog.HasBookmarked(c.Request.Context(), postID, userID)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "bookmarked": bookmarked})
}

func (h *httpHandler) handleListBookmarks(c *gin.Context) {
	userID, ok := h.sessionUserID(c)
	if !ok {
		return
	}
	posts, err := h.blog.ListBookmarkedPosts(c.Request.Context(), userID)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *httpHandler) handleRecountPost(c *gin.Context) {
	postID, ok := h.postIDParam(c)
	if !ok {
		return
	}
	post, err := h.blog.RecomputeCounters(c.Request.Context(), postID)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

type analyzeRequestPayload struct {
	Content string `json:"content"`
	Keyword string `json:"keyword"`
}

func (h *httpHandler) handleAnalyzeContent(c *gin.Context) {
	var request analyzeRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	c.JSON(http.StatusOK, metrics.Analyze(request.Content, request.Keyword))
}

type generateRequestPayload struct {
	Action      string `json:"action"`
	Context     string `json:"context"`
	Instruction string `json:"instruction"`
}

type generateResponsePayload struct {
	Text string               `json:"text"`
	SEO  *assistant.SEOReport `json:"seo,omitempty"`
}

func (h *httpHandler) handleGenerate(c *gin.Context) {
	var request generateRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	action, err := assistant.ParseAction(request.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_action"})
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), assistant.Request{
		Action:      action,
		Context:     request.Context,
		Instruction: request.Instruction,
	})
	if errors.Is(err, assistant.ErrMissingAPIKey) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant_unconfigured"})
		return
	}
	var generationErr *assistant.GenerationError
	if errors.As(err, &generationErr) {
		h.logger.Warn("generation rejected", zap.Int("status", generationErr.Status), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "generation_failed", "status": generationErr.Status})
		return
	}
	if err != nil {
		h.logger.Error("generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation_failed"})
		return
	}

	c.JSON(http.StatusOK, generateResponsePayload{Text: result.Text, SEO: result.SEO})
}

func (h *httpHandler) handleEvents(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	stream, cleanup := h.notifier.Subscribe(c.Request.Context(), userID)
	defer cleanup()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, open := <-stream:
			if !open {
				return false
			}
			c.SSEvent(message.EventType, message)
			return true
		case tick := <-heartbeat.C:
			c.SSEvent(notificationEventHeartbeat, tick.UTC().Format(time.RFC3339))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, subject)
	c.Next()
}

func (h *httpHandler) postIDParam(c *gin.Context) (blog.PostID, bool) {
	postID, err := blog.NewPostID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_post_id"})
		return "", false
	}
	return postID, true
}

func (h *httpHandler) sessionUserID(c *gin.Context) (blog.UserID, bool) {
	userID, err := blog.NewUserID(c.GetString(userIDContextKey))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return userID, true
}

// currentAuthor resolves the acting identity from the session slot. A
// missing profile degrades to the anonymous author; the store decides
// whether that is acceptable per operation.
func (h *httpHandler) currentAuthor(c *gin.Context) blog.Author {
	profile, err := h.users.Current(c.Request.Context())
	if err != nil {
		return blog.Author{}
	}
	return profile.Author()
}

func (h *httpHandler) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, blog.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found"})
	case errors.Is(err, blog.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth_required"})
	case errors.Is(err, blog.ErrInvalidPostID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_post_id"})
	default:
		var storeErr *blog.StoreError
		if errors.As(err, &storeErr) {
			h.logger.Error("blog operation failed", zap.String("code", storeErr.Code()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_failed", "code": storeErr.Code()})
			return
		}
		h.logger.Error("blog operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

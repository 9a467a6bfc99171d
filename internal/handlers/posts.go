package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/cheffry/backend/internal/feed"
	"github.com/emilythestrangee/cheffry/backend/internal/interactions"
	"github.com/emilythestrangee/cheffry/backend/internal/middleware"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
)

type PostHandler struct {
	store   store.Store
	feed    *feed.Service
	toggler *interactions.Toggler
}

func NewPostHandler(s store.Store, f *feed.Service, t *interactions.Toggler) *PostHandler {
	return &PostHandler{store: s, feed: f, toggler: t}
}

// GetPosts returns the ranked feed. The country query overrides the
// viewer's home country.
func (h *PostHandler) GetPosts(c *gin.Context) {
	posts, err := h.feed.Feed(c.Request.Context(), middleware.UserID(c), strings.TrimSpace(c.Query("country")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.feed.Post(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreatePost publishes a post. Without an explicit country the author's
// profile country is used.
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		badRequest(c, "Content is required")
		return
	}

	ctx := c.Request.Context()
	author, err := h.store.GetUser(ctx, middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	country, ok := countryField(input.Country)
	if !ok {
		badRequest(c, "Unknown country")
		return
	}
	if country == "" {
		country = author.Country
	}
	if country == "" {
		badRequest(c, "Country is required; set one in the post or on your profile")
		return
	}

	post := models.Post{
		UserID:    author.ID,
		Content:   content,
		MediaURLs: input.MediaURLs,
		Country:   country,
	}
	if err := h.store.CreatePost(ctx, &post); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.FeedPost{Post: post, Profile: author.Profile()})
}

// UpdatePost edits the content of the caller's own post.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var input models.UpdatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		badRequest(c, "Content is required")
		return
	}

	ctx := c.Request.Context()
	post, err := h.ownPost(c)
	if err != nil {
		writeError(c, err)
		return
	}
	post.Content = content
	if err := h.store.UpdatePost(ctx, post); err != nil {
		writeError(c, err)
		return
	}

	out, err := h.feed.Post(ctx, middleware.UserID(c), post.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// DeletePost removes the caller's own post with its comments and reactions.
func (h *PostHandler) DeletePost(c *gin.Context) {
	post, err := h.ownPost(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.store.DeletePost(c.Request.Context(), post.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// ToggleInteraction likes or dislikes a post; repeating a reaction clears it.
func (h *PostHandler) ToggleInteraction(c *gin.Context) {
	var input models.ToggleInteractionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Type must be like or dislike")
		return
	}
	state, err := h.toggler.Toggle(c.Request.Context(), middleware.UserID(c), c.Param("id"), input.Type)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *PostHandler) ownPost(c *gin.Context) (*models.Post, error) {
	post, err := h.store.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if post.UserID != middleware.UserID(c) {
		return nil, errForbidden
	}
	return post, nil
}

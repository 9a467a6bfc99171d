package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/cheffry/backend/internal/middleware"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
)

type CommentHandler struct {
	store store.Store
}

func NewCommentHandler(s store.Store) *CommentHandler {
	return &CommentHandler{store: s}
}

// GetComments returns a post's comments, newest first, with author profiles
func (h *CommentHandler) GetComments(c *gin.Context) {
	ctx := c.Request.Context()
	postID := c.Param("id")
	if _, err := h.store.GetPost(ctx, postID); err != nil {
		writeError(c, err)
		return
	}

	comments, err := h.store.ListComments(ctx, postID)
	if err != nil {
		writeError(c, err)
		return
	}

	ids := make([]string, 0, len(comments))
	seen := make(map[string]bool, len(comments))
	for _, cm := range comments {
		if !seen[cm.UserID] {
			seen[cm.UserID] = true
			ids = append(ids, cm.UserID)
		}
	}
	authors, err := h.store.GetUsers(ctx, ids)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]models.CommentView, 0, len(comments))
	for _, cm := range comments {
		out = append(out, models.CommentView{Comment: cm, Profile: authors[cm.UserID].Profile()})
	}
	c.JSON(http.StatusOK, out)
}

// CreateComment creates a new comment on a post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var input models.CreateCommentRequest
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
	postID := c.Param("id")
	if _, err := h.store.GetPost(ctx, postID); err != nil {
		writeError(c, err)
		return
	}
	author, err := h.store.GetUser(ctx, middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	comment := models.Comment{PostID: postID, UserID: author.ID, Content: content}
	if err := h.store.CreateComment(ctx, &comment); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.CommentView{Comment: comment, Profile: author.Profile()})
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/cheffry/backend/internal/feed"
	"github.com/emilythestrangee/cheffry/backend/internal/middleware"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
)

type UserHandler struct {
	store store.Store
	feed  *feed.Service
}

func NewUserHandler(s store.Store, f *feed.Service) *UserHandler {
	return &UserHandler{store: s, feed: f}
}

// GetUserProfile returns a user's public profile
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	user, err := h.store.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}

// GetUserPosts lists a user's posts, newest first
func (h *UserHandler) GetUserPosts(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := h.store.GetUser(ctx, id); err != nil {
		writeError(c, err)
		return
	}
	posts, err := h.feed.UserPosts(ctx, middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// UpdateProfile applies the settings form. Omitted fields are unchanged;
// an empty country or phone clears it.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var input models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.GetUser(ctx, middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			badRequest(c, "Name cannot be empty")
			return
		}
		user.Name = name
	}
	if input.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*input.AvatarURL)
	}
	if input.Country != nil {
		country, ok := countryField(*input.Country)
		if !ok {
			badRequest(c, "Unknown country")
			return
		}
		user.Country = country
	}
	if input.Phone != nil {
		phone, err := phoneField(*input.Phone)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		user.Phone = phone
	}

	if err := h.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/cheffry/backend/internal/chef"
	"github.com/emilythestrangee/cheffry/backend/internal/middleware"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
)

type ChefHandler struct {
	chef *chef.Manager
}

func NewChefHandler(m *chef.Manager) *ChefHandler {
	return &ChefHandler{chef: m}
}

func (h *ChefHandler) ListChats(c *gin.Context) {
	chats, err := h.chef.ListChats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

func (h *ChefHandler) CreateChat(c *gin.Context) {
	var input models.CreateChatRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	chat, err := h.chef.CreateChat(c.Request.Context(), middleware.UserID(c), input.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

func (h *ChefHandler) Messages(c *gin.Context) {
	chatID := c.Param("id")
	msgs, err := h.chef.Messages(c.Request.Context(), middleware.UserID(c), chatID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages":  msgs,
		"streaming": h.chef.Streaming(chatID),
	})
}

func (h *ChefHandler) DeleteChat(c *gin.Context) {
	if err := h.chef.DeleteChat(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat deleted successfully"})
}

// Send streams one assistant reply as server-sent events: "chat" first,
// then "delta" chunks, then "done" or "error". Failures before the stream
// opens are plain JSON errors.
func (h *ChefHandler) Send(c *gin.Context) {
	var input models.ChefRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	streaming := false
	res, err := h.chef.Send(ctx, chef.SendRequest{
		UserID:  middleware.UserID(c),
		ChatID:  input.ChatID,
		Content: input.Message,
		Country: input.Country,
	}, chef.StreamHandler{
		OnChat: func(chat *models.ChefChat) error {
			streaming = true
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
			c.SSEvent("chat", gin.H{"chatId": chat.ID, "title": chat.Title})
			c.Writer.Flush()
			return nil
		},
		OnDelta: func(chunk string) error {
			c.SSEvent("delta", gin.H{"content": chunk})
			c.Writer.Flush()
			return ctx.Err()
		},
	})
	if err != nil {
		if !streaming {
			writeError(c, err)
			return
		}
		_, msg := statusFor(err)
		_ = c.Error(err)
		c.SSEvent("error", gin.H{"error": msg})
		c.Writer.Flush()
		return
	}

	c.SSEvent("done", gin.H{"chat": res.Chat, "message": res.AssistantMessage})
	c.Writer.Flush()
}

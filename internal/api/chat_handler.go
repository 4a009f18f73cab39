package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillatlas/internal/api/middleware"
	"skillatlas/internal/chat"
)

// ChatHandler serves the mentor assistant.
type ChatHandler struct {
	Chat *chat.Service
}

func NewChatHandler(chatSvc *chat.Service) *ChatHandler {
	return &ChatHandler{Chat: chatSvc}
}

type chatRequest struct {
	Message    string `json:"message" binding:"required"`
	Skill      string `json:"skill"`
	TargetRole string `json:"target_role"`
}

// Send runs one chat turn for the authenticated user.
func (h *ChatHandler) Send(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		Unauthorized(c)
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	reply, err := h.Chat.Send(c.Request.Context(), chat.SendInput{
		UserID:     userID,
		Message:    req.Message,
		Skill:      req.Skill,
		TargetRole: req.TargetRole,
	})
	if err != nil {
		respondServiceError(c, middleware.LoggerFromContext(c), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"role":          reply.Role,
		"message":       reply.Message,
		"context_skill": reply.ContextSkill,
		"created_at":    reply.CreatedAt,
	})
}

// History returns the caller's log for one skill bucket, oldest first.
func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		Unauthorized(c)
		return
	}

	messages, err := h.Chat.History(c.Request.Context(), userID, c.Query("skill"))
	if err != nil {
		respondServiceError(c, middleware.LoggerFromContext(c), err)
		return
	}

	items := make([]gin.H, 0, len(messages))
	for _, m := range messages {
		items = append(items, gin.H{
			"role":          m.Role,
			"message":       m.Message,
			"context_skill": m.ContextSkill,
			"context_role":  m.ContextRole,
			"created_at":    m.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"messages": items})
}

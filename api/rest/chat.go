package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/missionboard/board"
	"github.com/kasuganosora/missionboard/chat"
	mw "github.com/kasuganosora/missionboard/middleware"
	"github.com/kasuganosora/missionboard/store"
	"go.uber.org/zap"
)

// ChatHandler serves mission chat.
type ChatHandler struct {
	chat     *chat.Store
	viewing  *board.Viewing
	brawlers *store.BrawlerStore
	logger   *zap.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(cs *chat.Store, viewing *board.Viewing, brawlers *store.BrawlerStore, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: cs, viewing: viewing, brawlers: brawlers, logger: logger}
}

// Messages handles GET /api/v1/chat/:id/messages.
func (h *ChatHandler) Messages(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.viewing.Get(ctx, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	msgs, err := h.chat.History(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

type sendRequest struct {
	Content string `json:"content" binding:"required"`
}

// Send handles POST /api/v1/chat/:id/messages.
func (h *ChatHandler) Send(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	if _, err := h.viewing.Get(ctx, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	sender, err := h.brawlers.FindByID(ctx, mw.GetBrawlerID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	name := sender.DisplayName
	if name == "" {
		name = sender.Username
	}
	msg, err := h.chat.Send(ctx, id, sender.ID, name, req.Content)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

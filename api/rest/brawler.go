package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/missionboard/board"
	"github.com/kasuganosora/missionboard/brawler"
	mw "github.com/kasuganosora/missionboard/middleware"
	"go.uber.org/zap"
)

// BrawlerHandler serves the /brawlers endpoints.
type BrawlerHandler struct {
	svc     *brawler.Service
	viewing *board.Viewing
	logger  *zap.Logger
}

// NewBrawlerHandler creates a BrawlerHandler.
func NewBrawlerHandler(svc *brawler.Service, viewing *board.Viewing, logger *zap.Logger) *BrawlerHandler {
	return &BrawlerHandler{svc: svc, viewing: viewing, logger: logger}
}

type registerRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=32"`
	Password    string `json:"password" binding:"required,min=4,max=64"`
	DisplayName string `json:"display_name" binding:"max=64"`
}

// Register handles POST /api/v1/brawlers/register.
func (h *BrawlerHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.Register(c.Request.Context(), brawler.Register{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if errors.Is(err, brawler.ErrUsernameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Me handles GET /api/v1/brawlers/me.
func (h *BrawlerHandler) Me(c *gin.Context) {
	me, err := h.svc.Me(c.Request.Context(), mw.GetBrawlerID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, me)
}

type profileRequest struct {
	DisplayName string `json:"display_name" binding:"required,max=64"`
}

// UpdateProfile handles PUT /api/v1/brawlers/profile.
func (h *BrawlerHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), mw.GetBrawlerID(c), req.DisplayName)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type avatarRequest struct {
	Base64String string `json:"base64_string" binding:"required"`
}

// UploadAvatar handles POST /api/v1/brawlers/avatar.
func (h *BrawlerHandler) UploadAvatar(c *gin.Context) {
	var req avatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	url, err := h.svc.UploadAvatar(c.Request.Context(), mw.GetBrawlerID(c), req.Base64String)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Leaderboard handles GET /api/v1/brawlers/leaderboard.
func (h *BrawlerHandler) Leaderboard(c *gin.Context) {
	entries, err := h.svc.Leaderboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// MyMissions handles GET /api/v1/brawlers/my-missions.
func (h *BrawlerHandler) MyMissions(c *gin.Context) {
	views, err := h.viewing.Joined(c.Request.Context(), mw.GetBrawlerID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

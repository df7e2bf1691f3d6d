package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/missionboard/brawler"
	mw "github.com/kasuganosora/missionboard/middleware"
	"go.uber.org/zap"
)

// AuthHandler handles authentication REST endpoints.
type AuthHandler struct {
	svc    *brawler.Service
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *brawler.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// Login handles POST /api/v1/authentication/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, brawler.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Logout handles POST /api/v1/authentication/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenStr, ok := mw.BearerToken(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	if err := h.svc.Logout(c.Request.Context(), tokenStr); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/v1/authentication/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	brawlerID := mw.GetBrawlerID(c)
	if brawlerID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	oldToken, _ := mw.BearerToken(c)
	p, err := h.svc.Refresh(c.Request.Context(), brawlerID, oldToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

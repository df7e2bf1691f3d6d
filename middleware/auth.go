package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/missionboard/cache"
	"github.com/kasuganosora/missionboard/config"
)

const BrawlerIDKey = "brawler_id"

// SessionPrefix prefixes the cache key that marks a token as live.
const SessionPrefix = "session:"

var (
	errInvalidToken   = errors.New("invalid token")
	errSessionExpired = errors.New("session expired")
)

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return tok, tok != ""
}

// Authenticate parses tokenStr and checks its session is still present in
// the cache. It returns the brawler the token was issued to.
func Authenticate(ctx context.Context, sec config.SecurityConfig, c cache.Cache, tokenStr string) (int64, error) {
	claims, err := ParseToken(tokenStr, sec.JWTSecret)
	if err != nil {
		return 0, errInvalidToken
	}
	cacheCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	exists, err := c.Exists(cacheCtx, SessionPrefix+tokenStr)
	if err != nil || !exists {
		return 0, errSessionExpired
	}
	return claims.BrawlerID, nil
}

// Auth validates the Bearer JWT token and checks the session cache.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenStr, ok := BearerToken(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		brawlerID, err := Authenticate(ctx.Request.Context(), sec, c, tokenStr)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		ctx.Set(BrawlerIDKey, brawlerID)
		ctx.Next()
	}
}

// GetBrawlerID retrieves the authenticated brawler ID from the Gin context.
func GetBrawlerID(c *gin.Context) int64 {
	if v, exists := c.Get(BrawlerIDKey); exists {
		return v.(int64)
	}
	return 0
}

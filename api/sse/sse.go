package sse

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/missionboard/cache"
	"github.com/kasuganosora/missionboard/chat"
	"github.com/kasuganosora/missionboard/config"
	"github.com/kasuganosora/missionboard/events"
	mw "github.com/kasuganosora/missionboard/middleware"
	"go.uber.org/zap"
)

const keepaliveInterval = 30 * time.Second

// eventNames maps pub/sub channels to SSE event names.
var eventNames = map[string]string{
	events.Channel: "board",
	chat.Channel:   "chat",
}

// Handler handles the SSE endpoint.
type Handler struct {
	pubsub  cache.PubSub
	c       cache.Cache
	sec     config.SecurityConfig
	origins map[string]bool
	logger  *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *Handler {
	origins := make(map[string]bool, len(sec.AllowedOrigins))
	for _, o := range sec.AllowedOrigins {
		origins[o] = true
	}
	return &Handler{pubsub: pubsub, c: c, sec: sec, origins: origins, logger: logger}
}

// ServeSSE handles GET /events?token=<jwt>.
// It streams mission events ("board") and chat messages ("chat") to
// authenticated clients.
func (h *Handler) ServeSSE(c *gin.Context) {
	if origin := c.GetHeader("Origin"); origin != "" && len(h.origins) > 0 && !h.origins[origin] {
		c.JSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
		return
	}
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr, _ = mw.BearerToken(c)
	}
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	brawlerID, err := mw.Authenticate(c.Request.Context(), h.sec, h.c, tokenStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	msgCh, unsub, err := h.pubsub.Subscribe(c.Request.Context(), events.Channel, chat.Channel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"brawler_id\":%d}\n\n", brawlerID)
	c.Writer.Flush()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			name, known := eventNames[msg.Channel]
			if !known {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", name, msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

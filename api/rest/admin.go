package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/missionboard/brawler"
	"github.com/kasuganosora/missionboard/scheduler"
	"go.uber.org/zap"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by the AdminAuth middleware.
type AdminHandler struct {
	sched    *scheduler.Scheduler
	brawlers *brawler.Service
	logger   *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(sched *scheduler.Scheduler, brawlers *brawler.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{sched: sched, brawlers: brawlers, logger: logger}
}

// ListSchedulerTasks returns all registered scheduler tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.List()})
}

// RunSchedulerTask runs a registered task immediately.
// POST /api/admin/scheduler/:name/run
func (h *AdminHandler) RunSchedulerTask(c *gin.Context) {
	name := c.Param("name")
	found, err := h.sched.RunNow(c.Request.Context(), name)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		h.logger.Error("admin task run failed", zap.String("task", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "task failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RebuildLeaderboard refills the cached ranking from the database.
// POST /api/admin/leaderboard/rebuild
func (h *AdminHandler) RebuildLeaderboard(c *gin.Context) {
	n, err := h.brawlers.RebuildLeaderboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Info("admin rebuilt leaderboard", zap.Int("entries", n))
	c.JSON(http.StatusOK, gin.H{"refreshed": n})
}

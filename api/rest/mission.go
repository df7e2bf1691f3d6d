package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/missionboard/board"
	mw "github.com/kasuganosora/missionboard/middleware"
	"github.com/kasuganosora/missionboard/model"
	"go.uber.org/zap"
)

// MissionHandler serves mission viewing, management, lifecycle and crew
// endpoints.
type MissionHandler struct {
	board  *board.Board
	logger *zap.Logger
}

// NewMissionHandler creates a MissionHandler.
func NewMissionHandler(b *board.Board, logger *zap.Logger) *MissionHandler {
	return &MissionHandler{board: b, logger: logger}
}

type listQuery struct {
	Name    string `form:"name"`
	Status  string `form:"status"`
	ChiefID int64  `form:"chief_id"`
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
}

// List handles GET /api/v1/view/gets?name=&status=&chief_id=&page=&limit=.
func (h *MissionHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter := board.Filter{Name: q.Name, ChiefID: q.ChiefID, Page: q.Page, Limit: q.Limit}
	if q.Status != "" {
		st, ok := model.ParseMissionStatus(q.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: " + q.Status})
			return
		}
		filter.Status = st
	}
	views, err := h.board.Viewing.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Get handles GET /api/v1/view/:id.
func (h *MissionHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.board.Viewing.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Crew handles GET /api/v1/view/count/:id.
func (h *MissionHandler) Crew(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	members, err := h.board.Viewing.Crew(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if members == nil {
		members = []model.Brawler{}
	}
	c.JSON(http.StatusOK, members)
}

// Add handles POST /api/v1/mission-management.
func (h *MissionHandler) Add(c *gin.Context) {
	var req board.AddMission
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.board.Catalog.Add(c.Request.Context(), mw.GetBrawlerID(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"mission_id": id})
}

// Edit handles PATCH /api/v1/mission-management/:id.
func (h *MissionHandler) Edit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req board.EditMission
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	missionID, err := h.board.Catalog.Edit(c.Request.Context(), id, mw.GetBrawlerID(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mission_id": missionID})
}

// Remove handles DELETE /api/v1/mission-management/:id.
func (h *MissionHandler) Remove(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.board.Catalog.Remove(c.Request.Context(), id, mw.GetBrawlerID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Start handles PATCH /api/v1/mission-operation/in-progress/:id.
func (h *MissionHandler) Start(c *gin.Context) {
	h.operate(c, h.board.Lifecycle.Start, model.MissionInProgress)
}

// Complete handles PATCH /api/v1/mission-operation/to-completed/:id.
func (h *MissionHandler) Complete(c *gin.Context) {
	h.operate(c, h.board.Lifecycle.Complete, model.MissionCompleted)
}

// Fail handles PATCH /api/v1/mission-operation/to-failed/:id.
func (h *MissionHandler) Fail(c *gin.Context) {
	h.operate(c, h.board.Lifecycle.Fail, model.MissionFailed)
}

// Join handles POST /api/v1/crew-operation/join/:id.
func (h *MissionHandler) Join(c *gin.Context) {
	h.operate(c, h.board.Crew.Join, "")
}

// Leave handles DELETE /api/v1/crew-operation/leave/:id.
func (h *MissionHandler) Leave(c *gin.Context) {
	h.operate(c, h.board.Crew.Leave, "")
}

type missionOp func(ctx context.Context, missionID, brawlerID int64) error

func (h *MissionHandler) operate(c *gin.Context, op missionOp, to model.MissionStatus) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := op(c.Request.Context(), id, mw.GetBrawlerID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	resp := gin.H{"mission_id": id}
	if to != "" {
		resp["status"] = to
	}
	c.JSON(http.StatusOK, resp)
}

package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/missionboard/board"
	mw "github.com/kasuganosora/missionboard/middleware"
	"go.uber.org/zap"
)

// statusOf maps a board error kind to its HTTP status.
func statusOf(kind board.Kind) int {
	switch kind {
	case board.KindValidation, board.KindState, board.KindCapacity:
		return http.StatusBadRequest
	case board.KindAuthorization:
		return http.StatusForbidden
	case board.KindLimit:
		return http.StatusTooManyRequests
	case board.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError writes err as a JSON error body. Infrastructure failures are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := board.KindOf(err)
	if kind == 0 {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("trace_id", mw.GetTraceID(c)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(statusOf(kind), gin.H{"error": err.Error(), "kind": kind.String()})
}

// paramID parses a positive int64 path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

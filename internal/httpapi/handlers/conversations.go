package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/vibemindai/assistant/internal/httpapi/middleware"
)

const defaultHistoryLimit = 50

func (h *Handler) ListConversations(c *gin.Context) {
	sessionID := c.Param("session_id")

	limit := defaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fail(c, http.StatusUnprocessableEntity, "limit must be an integer")
			return
		}
		limit = n
	}

	recs, err := h.Store.GetHistory(c.Request.Context(), sessionID, limit)
	if err != nil {
		log.Error().Err(err).
			Str("request_id", middleware.RequestIDFrom(c)).
			Str("session_id", sessionID).
			Msg("error fetching conversations")
		fail(c, http.StatusInternalServerError, "Error fetching conversations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":    sessionID,
		"conversations": recs,
	})
}

func (h *Handler) SessionStats(c *gin.Context) {
	sessionID := c.Param("session_id")

	stats, err := h.Store.GetSessionStats(c.Request.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).
			Str("request_id", middleware.RequestIDFrom(c)).
			Str("session_id", sessionID).
			Msg("error fetching session stats")
		fail(c, http.StatusInternalServerError, "Error fetching session stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

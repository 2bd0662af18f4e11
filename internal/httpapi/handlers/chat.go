package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/vibemindai/assistant/internal/chat"
	"github.com/vibemindai/assistant/internal/httpapi/middleware"
)

const (
	SessionHeader = "x-session-id"
	MaxMessageLen = 5000
)

// HeartbeatInterval is how often an idle stream gets a ": ping" comment.
var HeartbeatInterval = 15 * time.Second

type generateReq struct {
	Message string `json:"message" binding:"required,min=1,max=5000"`
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "VibeMind Solutions Assistant"})
}

func (h *Handler) Health(c *gin.Context) {
	database := "down"
	if h.Store.Ready() {
		database = "up"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": database})
}

// Generate streams one assistant turn as text/event-stream.
func (h *Handler) Generate(c *gin.Context) {
	sessionID := strings.TrimSpace(c.GetHeader(SessionHeader))
	if sessionID == "" {
		fail(c, http.StatusBadRequest, "Missing required header: x-session-id")
		return
	}

	var req generateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, fmt.Sprintf("message is required and must be between 1 and %d characters", MaxMessageLen))
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		fail(c, http.StatusUnprocessableEntity, "Message cannot be empty or contain only whitespace")
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	chunks, err := h.ChatSvc.Generate(ctx, sessionID, msg)
	if err != nil {
		if errors.Is(err, chat.ErrBadRequest) {
			fail(c, http.StatusBadRequest, "Missing required header: x-session-id")
			return
		}
		log.Error().Err(err).Str("request_id", middleware.RequestIDFrom(c)).Msg("generate failed to start")
		fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			if err := writeData(c.Writer, chunk); err != nil {
				return
			}
			c.Writer.Flush()
		case <-ticker.C:
			if _, err := io.WriteString(c.Writer, ": ping\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case <-ctx.Done():
			return
		}
	}
}

// writeData frames chunk as one SSE event, one data line per line of text.
// The payload after "data: " is written verbatim so leading spaces survive.
func writeData(w io.Writer, chunk string) error {
	chunk = strings.ReplaceAll(chunk, "\r\n", "\n")
	chunk = strings.ReplaceAll(chunk, "\r", "\n")

	var b strings.Builder
	for _, line := range strings.Split(chunk, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

package handlers

import (
	"context"

	"github.com/vibemindai/assistant/internal/chat"
	"github.com/vibemindai/assistant/internal/config"
)

// Generator runs one chat turn.
type Generator interface {
	Generate(ctx context.Context, sessionID, message string) (<-chan string, error)
}

// ConversationReader serves the read-only conversation endpoints.
type ConversationReader interface {
	Ready() bool
	GetHistory(ctx context.Context, sessionID string, limit int) ([]chat.Record, error)
	GetSessionStats(ctx context.Context, sessionID string) (chat.SessionStats, error)
}

type Handler struct {
	Cfg     config.Config
	Store   ConversationReader
	ChatSvc Generator
}

func NewHandler(cfg config.Config, store ConversationReader, svc Generator) *Handler {
	return &Handler{Cfg: cfg, Store: store, ChatSvc: svc}
}

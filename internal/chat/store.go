package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/vibemindai/assistant/internal/db"
	"gorm.io/gorm"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Store persists conversation records. It is safe for concurrent use; the
// connection pool bounds concurrency.
type Store struct {
	dsn  string
	pool db.PoolConfig

	mu sync.RWMutex
	db *gorm.DB
}

func NewStore(dsn string, pool db.PoolConfig) *Store {
	return &Store{dsn: dsn, pool: pool.Normalized()}
}

// Initialize opens the pool and creates the conversations table and its
// indexes. An error here means the database is unreachable.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	gdb, err := db.Open(ctx, s.dsn, s.pool)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if err := gdb.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		if sqlDB, derr := gdb.DB(); derr == nil {
			_ = sqlDB.Close()
		}
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, errors.Wrap(err, "migrate conversations"))
	}

	s.db = gdb
	log.Info().
		Str("component", "store").
		Int("min_conns", s.pool.MinConns).
		Int("max_conns", s.pool.MaxConns).
		Dur("command_timeout", s.pool.CommandTimeout).
		Msg("database connection established and tables created")
	return nil
}

// Shutdown releases the pool. Safe to call more than once.
func (s *Store) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	if err := sqlDB.Close(); err != nil {
		return errors.Wrap(err, "close pool")
	}
	log.Info().Str("component", "store").Msg("database connection closed")
	return nil
}

func (s *Store) Ready() bool {
	return s.conn() != nil
}

func (s *Store) conn() *gorm.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

func (s *Store) command(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.pool.CommandTimeout)
}

func (s *Store) InsertRequest(ctx context.Context, sessionID, userMessage string) (uint64, error) {
	gdb := s.conn()
	if gdb == nil {
		return 0, ErrStoreUnavailable
	}
	cctx, cancel := s.command(ctx)
	defer cancel()

	rec := &Record{SessionID: sessionID, UserMessage: userMessage}
	if err := gdb.WithContext(cctx).Create(rec).Error; err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("error saving request to database")
		return 0, errors.Wrap(err, "insert conversation")
	}
	return rec.ID, nil
}

// UpdateResponse records the outcome of a turn. It is best-effort: failures are
// logged here and returned wrapped in ErrDegraded so callers can carry on.
// errorMessage is only stored when isError is true.
func (s *Store) UpdateResponse(ctx context.Context, id uint64, response string, isError bool, errorMessage string) error {
	l := log.With().Str("component", "store").Uint64("conversation_id", id).Logger()

	gdb := s.conn()
	if gdb == nil {
		l.Warn().Msg("database pool not initialized, skipping response update")
		return errors.Wrap(ErrDegraded, "pool not ready")
	}
	if id == 0 {
		l.Warn().Msg("turn was not recorded, skipping response update")
		return errors.Wrap(ErrDegraded, "no conversation id")
	}

	var errMsg any
	if isError && errorMessage != "" {
		errMsg = errorMessage
	}

	cctx, cancel := s.command(ctx)
	defer cancel()

	res := gdb.WithContext(cctx).Model(&Record{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"assistant_response": response,
			"is_error":           isError,
			"error_message":      errMsg,
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		l.Error().Err(res.Error).Msg("error updating response in database")
		return errors.Wrapf(ErrDegraded, "update conversation: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		l.Warn().Msg("no conversation row to update")
		return errors.Wrap(ErrDegraded, "conversation not found")
	}
	return nil
}

// GetHistory returns the session's records newest first. Without a pool it
// returns an empty history.
func (s *Store) GetHistory(ctx context.Context, sessionID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	recs := make([]Record, 0)
	gdb := s.conn()
	if gdb == nil {
		log.Warn().Str("component", "store").Msg("database pool not initialized, returning empty history")
		return recs, nil
	}
	cctx, cancel := s.command(ctx)
	defer cancel()

	if err := gdb.WithContext(cctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "list conversations")
	}
	return recs, nil
}

func (s *Store) GetRecordByID(ctx context.Context, id uint64) (*Record, bool, error) {
	gdb := s.conn()
	if gdb == nil {
		return nil, false, nil
	}
	cctx, cancel := s.command(ctx)
	defer cancel()

	var rec Record
	err := gdb.WithContext(cctx).Take(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "get conversation")
	}
	return &rec, true, nil
}

func (s *Store) GetSessionStats(ctx context.Context, sessionID string) (SessionStats, error) {
	stats := SessionStats{SessionID: sessionID}
	gdb := s.conn()
	if gdb == nil {
		return stats, nil
	}
	cctx, cancel := s.command(ctx)
	defer cancel()

	q := func() *gorm.DB {
		return gdb.WithContext(cctx).Model(&Record{}).Where("session_id = ?", sessionID)
	}

	if err := q().Count(&stats.TotalConversations).Error; err != nil {
		return stats, errors.Wrap(err, "count conversations")
	}
	if stats.TotalConversations == 0 {
		return stats, nil
	}
	if err := q().Where("is_error = ?", true).Count(&stats.ErrorCount).Error; err != nil {
		return stats, errors.Wrap(err, "count error conversations")
	}

	var first, last Record
	if err := q().Select("id", "created_at").Order("created_at ASC").Order("id ASC").Take(&first).Error; err != nil {
		return stats, errors.Wrap(err, "first conversation")
	}
	if err := q().Select("id", "created_at").Order("created_at DESC").Order("id DESC").Take(&last).Error; err != nil {
		return stats, errors.Wrap(err, "last conversation")
	}
	stats.FirstConversation = &first.CreatedAt
	stats.LastConversation = &last.CreatedAt
	return stats, nil
}

// GetConversationCount never fails: without a pool, or on a query error, the
// count is 0.
func (s *Store) GetConversationCount(ctx context.Context, sessionID string) int64 {
	gdb := s.conn()
	if gdb == nil {
		return 0
	}
	cctx, cancel := s.command(ctx)
	defer cancel()

	var n int64
	if err := gdb.WithContext(cctx).Model(&Record{}).Where("session_id = ?", sessionID).Count(&n).Error; err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("error counting conversations")
		return 0
	}
	return n
}

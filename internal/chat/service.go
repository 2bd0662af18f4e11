package chat

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vibemindai/assistant/internal/ai"
	"github.com/vibemindai/assistant/internal/logging"
	"github.com/vibemindai/assistant/internal/metrics"
)

// ConversationStore is the part of *Store the service needs.
type ConversationStore interface {
	TurnCounter
	InsertRequest(ctx context.Context, sessionID, userMessage string) (uint64, error)
	UpdateResponse(ctx context.Context, id uint64, response string, isError bool, errorMessage string) error
}

type Service struct {
	store    ConversationStore
	limiter  *Limiter
	provider ai.StreamProvider
	metrics  *metrics.Collector
}

type Option func(*Service)

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) { s.metrics = c }
}

func NewService(store ConversationStore, limiter *Limiter, provider ai.StreamProvider, opts ...Option) *Service {
	if limiter == nil {
		limiter = NewLimiter(store, DefaultTurnLimit)
	}
	s := &Service{store: store, limiter: limiter, provider: provider}
	for _, o := range opts {
		o(s)
	}
	return s
}

// turn is the state of one Generate call.
type turn struct {
	ctx       context.Context
	out       chan<- string
	sessionID string
	message   string
	recordID  uint64
	log       zerolog.Logger
}

// emit sends a chunk unless the consumer has gone away.
func (t *turn) emit(chunk string) bool {
	if t.ctx.Err() != nil {
		return false
	}
	select {
	case t.out <- chunk:
		return true
	case <-t.ctx.Done():
		return false
	}
}

// Generate runs one turn and returns the chunks to relay to the client. The
// channel is closed when the turn is over; it always carries at least one
// chunk unless ctx is cancelled. Cancelling ctx stops the upstream call, and
// the turn's outcome is still persisted.
func (s *Service) Generate(ctx context.Context, sessionID, message string) (<-chan string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrBadRequest
	}

	out := make(chan string, 16)
	t := &turn{
		ctx:       ctx,
		out:       out,
		sessionID: sessionID,
		message:   message,
		log:       log.With().Str("component", "chat").Str("session_id", sessionID).Logger(),
	}
	go s.run(t, out)
	return out, nil
}

func (s *Service) run(t *turn, out chan string) {
	defer close(out)
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Uint64("conversation_id", t.recordID).
				Msg("error in generate")
			s.persist(t, InternalErrorMessage, true, fmt.Sprint(r))
			s.metrics.RecordTurn(metrics.OutcomeFailed)
			t.emit(InternalErrorMessage)
		}
	}()

	t.log.Info().Str("message", logging.Truncate(t.message, 100)).Msg("incoming request")

	if !s.limiter.Allow(t.ctx, t.sessionID) {
		t.log.Info().Int("limit", s.limiter.Ceiling()).Msg("conversation limit reached")
		s.metrics.RecordTurn(metrics.OutcomeLimited)
		t.emit(LimitMessage)
		return
	}

	id, err := s.store.InsertRequest(t.ctx, t.sessionID, t.message)
	if err != nil {
		t.log.Warn().Err(err).Msg("turn not recorded, continuing without persistence")
		s.metrics.RecordPersistFailure("insert")
	} else {
		t.recordID = id
		t.log = t.log.With().Uint64("conversation_id", id).Logger()
	}

	if ok, reason := ValidateInputQuality(t.message); !ok {
		resp := RejectionMessage(reason)
		t.log.Info().Str("reason", reason).Msg("input rejected")
		s.persist(t, resp, true, reason)
		s.metrics.RecordTurn(metrics.OutcomeRejected)
		t.emit(resp)
		return
	}

	s.stream(t)
}

func (s *Service) stream(t *turn) {
	start := time.Now()
	chunks, errs := s.provider.StreamChat(t.ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: SystemPrompt},
		{Role: ai.RoleUser, Content: t.message},
	})

	var b strings.Builder
	n := 0
	gone := false
	for c := range chunks {
		if gone {
			continue
		}
		b.WriteString(c)
		n++
		if !t.emit(c) {
			gone = true
		}
	}
	err := <-errs
	if err == nil && gone {
		err = fmt.Errorf("client disconnected: %w", t.ctx.Err())
	}
	s.metrics.ObserveUpstream(time.Since(start), n)

	if err != nil {
		t.log.Error().Err(err).Int("chunks", n).Msg("error in upstream completion call")
		s.persist(t, UpstreamFailureMessage, true, err.Error())
		s.metrics.RecordTurn(metrics.OutcomeFailed)
		t.emit(UpstreamFailureMessage)
		return
	}

	s.persist(t, b.String(), false, "")
	s.metrics.RecordTurn(metrics.OutcomeCompleted)
	t.log.Info().Int("chunks", n).Dur("elapsed", time.Since(start)).Msg("turn completed")
}

// persist records the turn's outcome. It outlives the request context and
// never fails the turn.
func (s *Service) persist(t *turn, response string, isError bool, errorMessage string) {
	if t.recordID == 0 {
		return
	}
	if err := s.store.UpdateResponse(context.WithoutCancel(t.ctx), t.recordID, response, isError, errorMessage); err != nil {
		t.log.Debug().Err(err).Msg("response not persisted")
		s.metrics.RecordPersistFailure("update")
	}
}

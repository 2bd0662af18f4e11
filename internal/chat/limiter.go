package chat

import "context"

const (
	DefaultTurnLimit = 15

	LimitMessage = "Maximum conversation limit reached. Please contact info@vibemindsolutions.ai or +918281442486"
)

// TurnCounter reports how many turns a session has recorded.
type TurnCounter interface {
	GetConversationCount(ctx context.Context, sessionID string) int64
}

// Limiter caps the number of recorded turns per session. Every recorded turn
// counts, including rejected and failed ones.
type Limiter struct {
	counter TurnCounter
	ceiling int64
}

func NewLimiter(counter TurnCounter, ceiling int) *Limiter {
	if ceiling <= 0 {
		ceiling = DefaultTurnLimit
	}
	return &Limiter{counter: counter, ceiling: int64(ceiling)}
}

func (l *Limiter) Ceiling() int { return int(l.ceiling) }

// Allow is false once the session has ceiling or more recorded turns.
func (l *Limiter) Allow(ctx context.Context, sessionID string) bool {
	return l.counter.GetConversationCount(ctx, sessionID) < l.ceiling
}

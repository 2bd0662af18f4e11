package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedCounter int64

func (c fixedCounter) GetConversationCount(context.Context, string) int64 { return int64(c) }

func TestLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	require.True(t, NewLimiter(fixedCounter(0), 15).Allow(ctx, "s1"))
	require.True(t, NewLimiter(fixedCounter(14), 15).Allow(ctx, "s1"))
	require.False(t, NewLimiter(fixedCounter(15), 15).Allow(ctx, "s1"))
	require.False(t, NewLimiter(fixedCounter(40), 15).Allow(ctx, "s1"))
}

func TestLimiter_DefaultCeiling(t *testing.T) {
	l := NewLimiter(fixedCounter(0), 0)
	require.Equal(t, DefaultTurnLimit, l.Ceiling())
}

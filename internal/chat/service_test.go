package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/vibemindai/assistant/internal/ai"
	"github.com/vibemindai/assistant/internal/db"
	"github.com/vibemindai/assistant/internal/metrics"
)

// scriptedProvider streams fixed deltas, then optionally fails.
type scriptedProvider struct {
	deltas []string
	err    error

	mu    sync.Mutex
	calls int
	last  []ai.Message
}

func (p *scriptedProvider) StreamChat(ctx context.Context, messages []ai.Message) (<-chan string, <-chan error) {
	p.mu.Lock()
	p.calls++
	p.last = append([]ai.Message(nil), messages...)
	p.mu.Unlock()

	chunks := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		for _, d := range p.deltas {
			select {
			case chunks <- d:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if p.err != nil {
			errs <- p.err
		}
	}()
	return chunks, errs
}

func (p *scriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// hangingProvider sends one delta and then waits for cancellation.
type hangingProvider struct{}

func (hangingProvider) StreamChat(ctx context.Context, _ []ai.Message) (<-chan string, <-chan error) {
	chunks := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		select {
		case chunks <- "first":
		case <-ctx.Done():
		}
		<-ctx.Done()
		errs <- ctx.Err()
	}()
	return chunks, errs
}

type panickingProvider struct{}

func (panickingProvider) StreamChat(context.Context, []ai.Message) (<-chan string, <-chan error) {
	panic("provider misconfigured")
}

// brokenUpdates behaves like the real store except that every update fails.
type brokenUpdates struct {
	*Store
	attempts int
}

func (b *brokenUpdates) UpdateResponse(context.Context, uint64, string, bool, string) error {
	b.attempts++
	return errors.New("connection reset by peer")
}

func drain(t *testing.T, ch <-chan string) []string {
	t.Helper()
	var out []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, c)
		case <-timeout:
			t.Fatal("stream did not close")
		}
	}
}

func onlyRecord(t *testing.T, s *Store, sessionID string) Record {
	t.Helper()
	recs, err := s.GetHistory(context.Background(), sessionID, 50)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	return recs[0]
}

func TestGenerate_StreamsAndRecordsCompletion(t *testing.T) {
	store := openTestStore(t)
	prov := &scriptedProvider{deltas: []string{"We build ", "AI ", "solutions."}}
	col := metrics.NewCollector("test", nil)
	svc := NewService(store, NewLimiter(store, 15), prov, WithMetrics(col))

	ch, err := svc.Generate(context.Background(), "s1", "Tell me about your services")
	require.NoError(t, err)
	chunks := drain(t, ch)
	require.Equal(t, []string{"We build ", "AI ", "solutions."}, chunks)

	rec := onlyRecord(t, store, "s1")
	require.Equal(t, "Tell me about your services", rec.UserMessage)
	require.False(t, rec.IsError)
	require.Nil(t, rec.ErrorMessage)
	require.NotNil(t, rec.AssistantResponse)
	require.Equal(t, "We build AI solutions.", *rec.AssistantResponse)

	require.Len(t, prov.last, 2)
	require.Equal(t, ai.Message{Role: ai.RoleSystem, Content: SystemPrompt}, prov.last[0])
	require.Equal(t, ai.Message{Role: ai.RoleUser, Content: "Tell me about your services"}, prov.last[1])

	require.NoError(t, testutil.GatherAndCompare(col.Registry(), strings.NewReader(`
# HELP test_turns_total Chat turns by outcome.
# TYPE test_turns_total counter
test_turns_total{outcome="completed"} 1
`), "test_turns_total"))
}

func TestGenerate_MissingSession(t *testing.T) {
	store := openTestStore(t)
	svc := NewService(store, nil, &scriptedProvider{})

	for _, sid := range []string{"", "   "} {
		ch, err := svc.Generate(context.Background(), sid, "hello there")
		require.ErrorIs(t, err, ErrBadRequest)
		require.Nil(t, ch)
	}
	require.Equal(t, int64(0), store.GetConversationCount(context.Background(), ""))
}

func TestGenerate_LimitReached(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	prov := &scriptedProvider{deltas: []string{"ok"}}
	svc := NewService(store, NewLimiter(store, 15), prov)

	for i := 0; i < 14; i++ {
		_, err := store.InsertRequest(ctx, "s1", "earlier turn")
		require.NoError(t, err)
	}

	// 15th turn still goes through
	chunks := drain(t, mustGenerate(t, svc, "s1", "Tell me about your services"))
	require.Equal(t, []string{"ok"}, chunks)
	require.Equal(t, int64(15), store.GetConversationCount(ctx, "s1"))

	// 16th is refused without a new record
	chunks = drain(t, mustGenerate(t, svc, "s1", "Tell me about your services"))
	require.Equal(t, []string{LimitMessage}, chunks)
	require.Equal(t, int64(15), store.GetConversationCount(ctx, "s1"))
	require.Equal(t, 1, prov.Calls())
}

func mustGenerate(t *testing.T, svc *Service, sessionID, msg string) <-chan string {
	t.Helper()
	ch, err := svc.Generate(context.Background(), sessionID, msg)
	require.NoError(t, err)
	return ch
}

func TestGenerate_QualityRejectedIsRecorded(t *testing.T) {
	store := openTestStore(t)
	prov := &scriptedProvider{deltas: []string{"never"}}
	svc := NewService(store, nil, prov)

	chunks := drain(t, mustGenerate(t, svc, "s1", "!!!!@@@@####"))
	want := RejectionMessage(ReasonGibberish)
	require.Equal(t, []string{want}, chunks)
	require.Zero(t, prov.Calls())

	rec := onlyRecord(t, store, "s1")
	require.True(t, rec.IsError)
	require.Equal(t, want, *rec.AssistantResponse)
	require.Equal(t, ReasonGibberish, *rec.ErrorMessage)
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	store := openTestStore(t)
	prov := &scriptedProvider{deltas: []string{"Partial"}, err: errors.New("openai: stream recv: unexpected EOF")}
	svc := NewService(store, nil, prov)

	chunks := drain(t, mustGenerate(t, svc, "s1", "What do you offer?"))
	require.Equal(t, []string{"Partial", UpstreamFailureMessage}, chunks)

	rec := onlyRecord(t, store, "s1")
	require.True(t, rec.IsError)
	require.Equal(t, UpstreamFailureMessage, *rec.AssistantResponse)
	require.Equal(t, "openai: stream recv: unexpected EOF", *rec.ErrorMessage)
}

func TestGenerate_UpdateFailureDoesNotBreakStream(t *testing.T) {
	store := openTestStore(t)
	broken := &brokenUpdates{Store: store}
	col := metrics.NewCollector("test", nil)
	svc := NewService(broken, nil, &scriptedProvider{deltas: []string{"Hello", " there"}}, WithMetrics(col))

	chunks := drain(t, mustGenerate(t, svc, "s1", "Tell me about your services"))
	require.Equal(t, "Hello there", strings.Join(chunks, ""))
	require.Equal(t, 1, broken.attempts)

	rec := onlyRecord(t, store, "s1")
	require.Nil(t, rec.AssistantResponse)
	require.NoError(t, testutil.GatherAndCompare(col.Registry(), strings.NewReader(`
# HELP test_persistence_failures_total Best-effort persistence operations that did not complete.
# TYPE test_persistence_failures_total counter
test_persistence_failures_total{op="update"} 1
`), "test_persistence_failures_total"))
}

func TestGenerate_StoreDownStillAnswers(t *testing.T) {
	store := NewStore("file:store_down?mode=memory&cache=shared", db.DefaultPoolConfig())
	svc := NewService(store, nil, &scriptedProvider{deltas: []string{"still here"}})

	chunks := drain(t, mustGenerate(t, svc, "s1", "Tell me about your services"))
	require.Equal(t, []string{"still here"}, chunks)
}

func TestGenerate_ClientCancelStillPersists(t *testing.T) {
	store := openTestStore(t)
	svc := NewService(store, nil, hangingProvider{})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := svc.Generate(ctx, "s1", "Tell me about your services")
	require.NoError(t, err)

	require.Equal(t, "first", <-ch)
	cancel()
	drain(t, ch)

	rec := onlyRecord(t, store, "s1")
	require.True(t, rec.IsError)
	require.Equal(t, UpstreamFailureMessage, *rec.AssistantResponse)
	require.Contains(t, *rec.ErrorMessage, context.Canceled.Error())
}

func TestGenerate_PanicIsRecovered(t *testing.T) {
	store := openTestStore(t)
	svc := NewService(store, nil, panickingProvider{})

	chunks := drain(t, mustGenerate(t, svc, "s1", "Tell me about your services"))
	require.Equal(t, []string{InternalErrorMessage}, chunks)

	rec := onlyRecord(t, store, "s1")
	require.True(t, rec.IsError)
	require.Equal(t, InternalErrorMessage, *rec.AssistantResponse)
	require.Equal(t, "provider misconfigured", *rec.ErrorMessage)
}

package agent_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/sdr"
	"github.com/fwojciec/sdr/agent"
	"github.com/fwojciec/sdr/mock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder collects events emitted by an agent.
type recorder struct {
	mu     sync.Mutex
	events []sdr.Event
}

func (r *recorder) handle(e sdr.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		switch ev := e.(type) {
		case sdr.EventTurn:
			out = append(out, "turn:"+string(ev.Turn.Speaker))
		case sdr.EventTerminal:
			out = append(out, "terminal")
		case sdr.EventReset:
			out = append(out, "reset")
		}
	}
	return out
}

// sequentialIDs returns an ID generator yielding t1, t2, ...
func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("t%d", n.Add(1)) }
}

// gate is a clock whose Sleep blocks until released or cancelled.
type gate struct {
	mock.Clock
	entered chan time.Duration
	release chan struct{}
}

func newGate() *gate {
	g := &gate{
		entered: make(chan time.Duration, 1),
		release: make(chan struct{}),
	}
	g.SleepFn = func(ctx context.Context, d time.Duration) error {
		g.entered <- d
		select {
		case <-g.release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return g
}

// noSend is a client that fails the test if the external session is used.
func noSend(t *testing.T) *mock.Client {
	return &mock.Client{
		SendFn: func(ctx context.Context, text string) (string, error) {
			t.Error("external session should not be called")
			return "", nil
		},
	}
}

func newAgent(client agent.Client, rec *recorder, opts ...agent.Option) *agent.Agent {
	base := []agent.Option{
		agent.WithClock(&mock.Clock{}),
		agent.WithIDGenerator(sequentialIDs()),
		agent.WithEventHandler(rec.handle),
	}
	return agent.New(client, sdr.DefaultConfig(), append(base, opts...)...)
}

func texts(s sdr.Snapshot) []string {
	out := make([]string, len(s.Turns))
	for i, t := range s.Turns {
		out[i] = t.Text
	}
	return out
}

func TestAgent_Send(t *testing.T) {
	t.Parallel()

	t.Run("canned phrase answers locally after delay", func(t *testing.T) {
		t.Parallel()
		var slept []time.Duration
		clock := &mock.Clock{SleepFn: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}}
		rec := &recorder{}
		a := newAgent(noSend(t), rec, agent.WithClock(clock))

		got, err := a.Send(context.Background(), sdr.PhraseM2M)
		require.NoError(t, err)

		cfg := sdr.DefaultConfig()
		assert.Equal(t, cfg.Policy.Canned[sdr.PhraseM2M], got.Text)
		assert.Equal(t, sdr.SpeakerAssistant, got.Speaker)
		assert.Equal(t, []time.Duration{1200 * time.Millisecond}, slept)

		want := []string{sdr.PhraseM2M, cfg.Policy.Canned[sdr.PhraseM2M]}
		if diff := cmp.Diff(want, texts(a.Snapshot())); diff != "" {
			t.Errorf("turns mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, []string{"turn:counterpart", "turn:assistant"}, rec.kinds())
		assert.False(t, a.Busy())
	})

	t.Run("trigger hands off and locks the conversation", func(t *testing.T) {
		t.Parallel()
		var slept time.Duration
		clock := &mock.Clock{SleepFn: func(ctx context.Context, d time.Duration) error {
			slept = d
			return nil
		}}
		rec := &recorder{}
		a := newAgent(noSend(t), rec, agent.WithClock(clock))

		got, err := a.Send(context.Background(), "QUERO COMPRAR JA")
		require.NoError(t, err)
		assert.Equal(t, sdr.DefaultConfig().Policy.HandoffReply, got.Text)
		assert.Equal(t, 1500*time.Millisecond, slept)

		snap := a.Snapshot()
		assert.True(t, snap.Terminal)
		assert.Equal(t, sdr.StateTerminal, snap.State)
		require.Len(t, snap.Turns, 2)
		assert.Equal(t, got, snap.Turns[1])
		assert.Equal(t, []string{"turn:counterpart", "terminal", "turn:assistant"}, rec.kinds())

		_, err = a.Send(context.Background(), "hello")
		assert.ErrorIs(t, err, sdr.ErrTerminal)
		assert.Len(t, a.Snapshot().Turns, 2)
	})

	t.Run("terminal is visible before the hand-off reply", func(t *testing.T) {
		t.Parallel()
		g := newGate()
		a := newAgent(noSend(t), &recorder{}, agent.WithClock(g))

		done := make(chan error, 1)
		go func() {
			_, err := a.Send(context.Background(), sdr.PhrasePurchase)
			done <- err
		}()
		<-g.entered

		snap := a.Snapshot()
		assert.True(t, snap.Terminal)
		assert.Len(t, snap.Turns, 1)
		_, err := a.Send(context.Background(), "oi")
		assert.ErrorIs(t, err, sdr.ErrTerminal)

		close(g.release)
		require.NoError(t, <-done)
		assert.Len(t, a.Snapshot().Turns, 2)
	})

	t.Run("free text is forwarded exactly once", func(t *testing.T) {
		t.Parallel()
		var calls []string
		client := &mock.Client{SendFn: func(ctx context.Context, text string) (string, error) {
			calls = append(calls, text)
			return "Entendi. Quantas linhas vocês usam hoje?", nil
		}}
		a := newAgent(client, &recorder{})

		got, err := a.Send(context.Background(), "Tenho 80 caminhões")
		require.NoError(t, err)
		assert.Equal(t, []string{"Tenho 80 caminhões"}, calls)
		assert.Equal(t, "Entendi. Quantas linhas vocês usam hoje?", got.Text)
		assert.Equal(t, sdr.StateOpen, a.Snapshot().State)
	})

	t.Run("forwarded replies are formatted", func(t *testing.T) {
		t.Parallel()
		client := &mock.Client{SendFn: func(ctx context.Context, text string) (string, error) {
			return "**ok**", nil
		}}
		a := newAgent(client, &recorder{}, agent.WithFormatter(func(s string) string {
			return strings.ReplaceAll(s, "**", "*")
		}))
		got, err := a.Send(context.Background(), "oi")
		require.NoError(t, err)
		assert.Equal(t, "*ok*", got.Text)
	})

	t.Run("missing session yields unavailable reply", func(t *testing.T) {
		t.Parallel()
		client := &mock.Client{SendFn: func(ctx context.Context, text string) (string, error) {
			return "", fmt.Errorf("send: %w", sdr.ErrSessionNotInitialized)
		}}
		a := newAgent(client, &recorder{})
		got, err := a.Send(context.Background(), "oi")
		require.NoError(t, err)
		assert.Equal(t, sdr.DefaultConfig().Policy.UnavailableReply, got.Text)
	})

	t.Run("blank text is rejected without effect", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		a := newAgent(noSend(t), rec)
		for _, text := range []string{"", "   ", "\n\t"} {
			_, err := a.Send(context.Background(), text)
			assert.ErrorIs(t, err, sdr.ErrEmptyMessage)
		}
		assert.Empty(t, a.Snapshot().Turns)
		assert.Empty(t, rec.kinds())
	})

	t.Run("concurrent send is rejected while one is in flight", func(t *testing.T) {
		t.Parallel()
		g := newGate()
		a := newAgent(noSend(t), &recorder{}, agent.WithClock(g))

		done := make(chan error, 1)
		go func() {
			_, err := a.Send(context.Background(), sdr.PhraseTracking)
			done <- err
		}()
		<-g.entered
		assert.True(t, a.Busy())

		_, err := a.Send(context.Background(), sdr.PhraseCoverage)
		assert.ErrorIs(t, err, sdr.ErrBusy)

		close(g.release)
		require.NoError(t, <-done)
		assert.False(t, a.Busy())
		assert.Len(t, a.Snapshot().Turns, 2)
	})

	t.Run("caller cancellation drops the reply", func(t *testing.T) {
		t.Parallel()
		g := newGate()
		a := newAgent(noSend(t), &recorder{}, agent.WithClock(g))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := a.Send(ctx, sdr.PhraseMeeting)
			done <- err
		}()
		<-g.entered
		cancel()

		err := <-done
		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, a.Snapshot().Turns, 1)
		assert.False(t, a.Busy())
	})

	t.Run("caller cancellation still completes the hand-off", func(t *testing.T) {
		t.Parallel()
		g := newGate()
		rec := &recorder{}
		a := newAgent(noSend(t), rec, agent.WithClock(g))

		ctx, cancel := context.WithCancel(context.Background())
		type result struct {
			turn sdr.Turn
			err  error
		}
		done := make(chan result, 1)
		go func() {
			turn, err := a.Send(ctx, sdr.PhrasePurchase)
			done <- result{turn, err}
		}()
		<-g.entered
		cancel()

		res := <-done
		require.NoError(t, res.err)
		assert.Equal(t, sdr.DefaultConfig().Policy.HandoffReply, res.turn.Text)

		snap := a.Snapshot()
		assert.True(t, snap.Terminal)
		assert.Equal(t, []string{sdr.PhrasePurchase, sdr.DefaultConfig().Policy.HandoffReply}, texts(snap))
		assert.Equal(t, []string{"turn:counterpart", "terminal", "turn:assistant"}, rec.kinds())
		assert.False(t, a.Busy())
	})

	t.Run("turns carry clock time and generated ids", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
		clock := &mock.Clock{NowFn: func() time.Time { return now }}
		a := newAgent(noSend(t), &recorder{}, agent.WithClock(clock))
		_, err := a.Send(context.Background(), sdr.PhraseCoverage)
		require.NoError(t, err)

		turns := a.Snapshot().Turns
		require.Len(t, turns, 2)
		assert.Equal(t, "t1", turns[0].ID)
		assert.Equal(t, "t2", turns[1].ID)
		assert.Equal(t, now, turns[1].SentAt)
	})
}

func TestAgent_Select(t *testing.T) {
	t.Parallel()

	lead := sdr.Lead{ID: "3", Name: "Carlos Mendes", Company: "Frota Segura", Segment: sdr.SegmentHot}

	t.Run("starts a session with the target instruction", func(t *testing.T) {
		t.Parallel()
		var instructions []string
		client := &mock.Client{StartFn: func(ctx context.Context, in string) {
			instructions = append(instructions, in)
		}}
		rec := &recorder{}
		a := newAgent(client, rec)

		a.Select(context.Background(), sdr.Outreach(lead))
		a.Select(context.Background(), sdr.Inbound())

		cfg := sdr.DefaultConfig()
		assert.Equal(t, []string{cfg.Personas.Outreach[sdr.SegmentHot], cfg.Personas.Inbound}, instructions)
		assert.Equal(t, sdr.ModeInbound, a.Target().Mode)
		assert.Equal(t, []string{"reset", "reset"}, rec.kinds())
	})

	t.Run("does not hold the agent while the session starts", func(t *testing.T) {
		t.Parallel()
		entered := make(chan struct{})
		release := make(chan struct{})
		client := &mock.Client{StartFn: func(ctx context.Context, in string) {
			close(entered)
			<-release
		}}
		a := newAgent(client, &recorder{})

		done := make(chan struct{})
		go func() {
			a.Select(context.Background(), sdr.Outreach(lead))
			close(done)
		}()
		<-entered

		assert.Equal(t, lead.ID, a.Target().Lead.ID)
		assert.False(t, a.Busy())
		assert.Empty(t, a.Snapshot().Turns)

		close(release)
		<-done
	})

	t.Run("clears a handed-off conversation", func(t *testing.T) {
		t.Parallel()
		a := newAgent(noSend(t), &recorder{})
		_, err := a.Send(context.Background(), sdr.PhrasePurchase)
		require.NoError(t, err)
		require.True(t, a.Snapshot().Terminal)

		a.Select(context.Background(), sdr.Outreach(lead))
		snap := a.Snapshot()
		assert.False(t, snap.Terminal)
		assert.Empty(t, snap.Turns)
		assert.Equal(t, uint64(1), snap.Generation)
	})

	t.Run("pending delayed reply is discarded", func(t *testing.T) {
		t.Parallel()
		g := newGate()
		a := newAgent(noSend(t), &recorder{}, agent.WithClock(g))

		done := make(chan error, 1)
		go func() {
			_, err := a.Send(context.Background(), sdr.PhraseM2M)
			done <- err
		}()
		<-g.entered

		a.Select(context.Background(), sdr.Outreach(lead))
		assert.ErrorIs(t, <-done, sdr.ErrStale)
		assert.Empty(t, a.Snapshot().Turns)
		assert.False(t, a.Busy())
	})

	t.Run("pending hand-off is discarded", func(t *testing.T) {
		t.Parallel()
		g := newGate()
		a := newAgent(noSend(t), &recorder{}, agent.WithClock(g))

		done := make(chan error, 1)
		go func() {
			_, err := a.Send(context.Background(), sdr.PhrasePurchase)
			done <- err
		}()
		<-g.entered

		a.Select(context.Background(), sdr.Inbound())
		assert.ErrorIs(t, <-done, sdr.ErrStale)
		snap := a.Snapshot()
		assert.False(t, snap.Terminal)
		assert.Empty(t, snap.Turns)
	})

	t.Run("pending forwarded reply is discarded", func(t *testing.T) {
		t.Parallel()
		entered := make(chan struct{})
		client := &mock.Client{SendFn: func(ctx context.Context, text string) (string, error) {
			close(entered)
			<-ctx.Done()
			return "Desculpe, houve uma instabilidade momentânea. Pode repetir?", nil
		}}
		a := newAgent(client, &recorder{})

		done := make(chan error, 1)
		go func() {
			_, err := a.Send(context.Background(), "Tenho 80 caminhões")
			done <- err
		}()
		<-entered

		a.Select(context.Background(), sdr.Inbound())
		assert.ErrorIs(t, <-done, sdr.ErrStale)
		assert.Empty(t, a.Snapshot().Turns)

		_, err := a.Greet()
		require.NoError(t, err)
	})
}

func TestAgent_Greet(t *testing.T) {
	t.Parallel()

	t.Run("inbound greeting", func(t *testing.T) {
		t.Parallel()
		a := newAgent(noSend(t), &recorder{})
		got, err := a.Greet()
		require.NoError(t, err)
		assert.Equal(t, sdr.DefaultGreeting, got.Text)
		assert.True(t, got.FromAssistant())
	})

	t.Run("outreach opener by segment", func(t *testing.T) {
		t.Parallel()
		a := newAgent(noSend(t), &recorder{})
		for _, seg := range sdr.Segments() {
			a.Select(context.Background(), sdr.Outreach(sdr.Lead{Name: "X", Company: "Y", Segment: seg}))
			got, err := a.Greet()
			require.NoError(t, err)
			assert.Equal(t, sdr.DefaultConfig().Personas.Openers[seg], got.Text)
		}
	})

	t.Run("only on an empty conversation", func(t *testing.T) {
		t.Parallel()
		a := newAgent(noSend(t), &recorder{})
		_, err := a.Greet()
		require.NoError(t, err)
		_, err = a.Greet()
		assert.ErrorIs(t, err, sdr.ErrConversationStarted)
		assert.Len(t, a.Snapshot().Turns, 1)
	})
}

func TestAgent_Telemetry(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	client := &mock.Client{SendFn: func(ctx context.Context, text string) (string, error) {
		return "", errors.New("boom")
	}}
	a := newAgent(client, &recorder{},
		agent.WithTracer(tp.Tracer("test")),
		agent.WithMeter(mp.Meter("test")),
	)

	_, err := a.Send(context.Background(), sdr.PhraseM2M)
	require.NoError(t, err)
	_, err = a.Send(context.Background(), "oi")
	require.NoError(t, err)
	_, err = a.Send(context.Background(), "tudo bem?")
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 3)
	var routes []string
	for _, s := range spans {
		assert.Equal(t, "agent.send", s.Name())
		for _, kv := range s.Attributes() {
			if kv.Key == "route" {
				routes = append(routes, kv.Value.AsString())
			}
		}
	}
	assert.Equal(t, []string{"canned", "forward", "forward"}, routes)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "sdr.routes", m.Name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("route"))
		counts[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"canned": 1, "forward": 2}, counts)
}

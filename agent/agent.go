// Package agent routes counterpart messages and drives one conversation.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/sdr"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/fwojciec/sdr/agent"

// Client is the session contract the agent drives. It is satisfied by
// *session.Client.
type Client interface {
	Start(ctx context.Context, instruction string)
	Send(ctx context.Context, text string) (string, error)
}

// Agent owns a Conversation and answers counterpart turns according to the
// routing policy: the trigger phrase hands off, canned phrases are answered
// locally, and everything else is forwarded to the external session.
//
// At most one send is in flight at a time. Selecting a new target cancels
// the pending send and bumps the conversation generation, so its reply is
// discarded.
type Agent struct {
	client  Client
	config  sdr.Config
	clock   sdr.Clock
	logger  zerolog.Logger
	tracer  trace.Tracer
	meter   metric.Meter
	routes  metric.Int64Counter
	onEvent func(sdr.Event)
	format  func(string) string
	newID   func() string

	conv sdr.Conversation

	// selectMu serializes Select. mu is not held across client.Start.
	selectMu sync.Mutex

	mu      sync.Mutex
	target  sdr.Target
	pending *op
}

// op is a send that has not produced its assistant turn yet.
type op struct {
	gen    uint64
	cancel context.CancelFunc
}

// Option configures an [Agent].
type Option func(*Agent)

// WithClock sets the clock used for timestamps and reply delays.
func WithClock(c sdr.Clock) Option {
	return func(a *Agent) { a.clock = c }
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithTracer sets the tracer. Default is the global tracer provider's.
func WithTracer(t trace.Tracer) Option {
	return func(a *Agent) { a.tracer = t }
}

// WithMeter sets the meter. Default is the global meter provider's.
func WithMeter(m metric.Meter) Option {
	return func(a *Agent) { a.meter = m }
}

// WithEventHandler sets a callback that receives every conversation event.
// It is called synchronously, possibly from a goroutine other than the
// caller's, and must not block.
func WithEventHandler(h func(sdr.Event)) Option {
	return func(a *Agent) { a.onEvent = h }
}

// WithFormatter sets a function applied to replies from the external
// session before they are appended. Canned and hand-off replies are
// appended verbatim.
func WithFormatter(f func(string) string) Option {
	return func(a *Agent) { a.format = f }
}

// WithIDGenerator sets the turn ID generator. Default is random UUIDs.
func WithIDGenerator(f func() string) Option {
	return func(a *Agent) { a.newID = f }
}

// New creates an Agent targeting inbound visitors. No session is started
// until Select or the first forwarded Send.
func New(client Client, cfg sdr.Config, opts ...Option) *Agent {
	a := &Agent{
		client: client,
		config: cfg,
		clock:  sdr.SystemClock(),
		logger: zerolog.Nop(),
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
		newID:  uuid.NewString,
		target: sdr.Inbound(),
	}
	for _, o := range opts {
		o(a)
	}
	routes, err := a.meter.Int64Counter(
		"sdr.routes",
		metric.WithDescription("Counterpart messages by routing decision"),
	)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to create route counter")
	}
	a.routes = routes
	return a
}

// Select switches the conversation to target. It cancels any pending send,
// clears the conversation, and starts a new session with the target's
// instruction. Busy, Target and Snapshot do not wait for the session to
// start.
func (a *Agent) Select(ctx context.Context, target sdr.Target) {
	a.selectMu.Lock()
	defer a.selectMu.Unlock()

	a.mu.Lock()
	gen := a.conv.Reset()
	if a.pending != nil {
		a.pending.cancel()
		a.pending = nil
	}
	a.target = target
	a.mu.Unlock()

	a.client.Start(ctx, a.config.Personas.Instruction(target))

	a.logger.Info().
		Str("mode", target.Mode.String()).
		Str("lead_id", target.Lead.ID).
		Str("segment", string(target.Lead.Segment)).
		Uint64("generation", gen).
		Msg("conversation selected")
	a.emit(sdr.EventReset{Target: target, Generation: gen})
}

// Greet appends the opening line for the current target: the inbound
// greeting or the outreach opener for the lead's segment. The opener is
// not sent to the external session. It fails with
// [sdr.ErrConversationStarted] unless the conversation is empty.
func (a *Agent) Greet() (sdr.Turn, error) {
	a.mu.Lock()
	if a.pending != nil {
		a.mu.Unlock()
		return sdr.Turn{}, fmt.Errorf("greet: %w", sdr.ErrBusy)
	}
	if a.conv.State() != sdr.StateEmpty {
		a.mu.Unlock()
		return sdr.Turn{}, fmt.Errorf("greet: %w", sdr.ErrConversationStarted)
	}
	turn := a.turn(sdr.SpeakerAssistant, a.config.Personas.Opening(a.target))
	err := a.conv.Append(a.conv.Generation(), turn)
	a.mu.Unlock()
	if err != nil {
		return sdr.Turn{}, fmt.Errorf("greet: %w", err)
	}
	a.emit(sdr.EventTurn{Turn: turn})
	return turn, nil
}

// Send appends a counterpart turn and blocks until the assistant reply is
// appended, returning that reply.
//
// Blank text fails with [sdr.ErrEmptyMessage], a handed-off conversation
// with [sdr.ErrTerminal], and a second concurrent send with [sdr.ErrBusy];
// none of these append anything. When the conversation is reset before the
// reply lands, the reply is dropped and Send returns [sdr.ErrStale].
func (a *Agent) Send(ctx context.Context, text string) (sdr.Turn, error) {
	if strings.TrimSpace(text) == "" {
		return sdr.Turn{}, fmt.Errorf("send: %w", sdr.ErrEmptyMessage)
	}

	a.mu.Lock()
	if a.conv.Terminal() {
		a.mu.Unlock()
		return sdr.Turn{}, fmt.Errorf("send: %w", sdr.ErrTerminal)
	}
	if a.pending != nil {
		a.mu.Unlock()
		return sdr.Turn{}, fmt.Errorf("send: %w", sdr.ErrBusy)
	}
	gen := a.conv.Generation()
	decision := a.config.Policy.Classify(text)
	route := sdr.RouteName(decision)

	ctx, span := a.tracer.Start(ctx, "agent.send", trace.WithAttributes(
		attribute.String("route", route),
		attribute.Int64("generation", int64(gen)),
	))
	defer span.End()
	ctx, cancel := context.WithCancel(ctx)
	p := &op{gen: gen, cancel: cancel}
	a.pending = p

	in := a.turn(sdr.SpeakerCounterpart, text)
	if err := a.conv.Append(gen, in); err != nil {
		a.pending = nil
		a.mu.Unlock()
		cancel()
		return sdr.Turn{}, fmt.Errorf("send: %w", err)
	}
	a.mu.Unlock()
	defer a.finish(p)

	a.emit(sdr.EventTurn{Turn: in})
	if a.routes != nil {
		a.routes.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
	}
	a.logger.Info().
		Str("route", route).
		Uint64("generation", gen).
		Str("text", sdr.Preview(text, 40)).
		Msg("message routed")

	var (
		out sdr.Turn
		err error
	)
	switch d := decision.(type) {
	case sdr.Handoff:
		out, err = a.handoff(ctx, gen, d)
	case sdr.Canned:
		out, err = a.reply(ctx, gen, d.Delay, d.Reply)
	default:
		out, err = a.forward(ctx, gen, text)
	}
	if err != nil {
		if errors.Is(err, sdr.ErrStale) {
			a.logger.Debug().Str("route", route).Uint64("generation", gen).Msg("reply discarded")
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return sdr.Turn{}, fmt.Errorf("send: %w", err)
	}
	return out, nil
}

// finish clears p as the pending send unless a Select already replaced it.
func (a *Agent) finish(p *op) {
	a.mu.Lock()
	if a.pending == p {
		a.pending = nil
	}
	a.mu.Unlock()
	p.cancel()
}

// handoff flips the conversation to terminal at once, then appends the
// hand-off reply after the delay. A terminal conversation always ends with
// the hand-off reply: a caller cancellation only cuts the delay short, and
// only a Select drops the reply.
func (a *Agent) handoff(ctx context.Context, gen uint64, d sdr.Handoff) (sdr.Turn, error) {
	if err := a.conv.MarkTerminal(gen); err != nil {
		return sdr.Turn{}, err
	}
	a.emit(sdr.EventTerminal{})
	a.logger.Info().Uint64("generation", gen).Msg("conversation handed off")

	if err := a.wait(ctx, gen, d.Delay); err != nil {
		if errors.Is(err, sdr.ErrStale) {
			return sdr.Turn{}, err
		}
		a.logger.Debug().Err(err).Uint64("generation", gen).Msg("hand-off delay cut short")
	}
	out := a.turn(sdr.SpeakerAssistant, d.Reply)
	if err := a.conv.AppendHandoff(gen, out); err != nil {
		return sdr.Turn{}, err
	}
	a.emit(sdr.EventTurn{Turn: out})
	return out, nil
}

// reply appends text as the assistant turn after delay.
func (a *Agent) reply(ctx context.Context, gen uint64, delay time.Duration, text string) (sdr.Turn, error) {
	if err := a.wait(ctx, gen, delay); err != nil {
		return sdr.Turn{}, err
	}
	return a.appendReply(gen, text)
}

// forward performs exactly one exchange with the external session.
func (a *Agent) forward(ctx context.Context, gen uint64, text string) (sdr.Turn, error) {
	reply, err := a.client.Send(ctx, text)
	if ierr := a.interrupted(ctx, gen); ierr != nil {
		return sdr.Turn{}, ierr
	}
	if err != nil {
		a.logger.Error().Err(err).Uint64("generation", gen).Msg("external session unavailable")
		return a.appendReply(gen, a.config.Policy.UnavailableReply)
	}
	if a.format != nil {
		reply = a.format(reply)
	}
	return a.appendReply(gen, reply)
}

func (a *Agent) appendReply(gen uint64, text string) (sdr.Turn, error) {
	out := a.turn(sdr.SpeakerAssistant, text)
	if err := a.conv.Append(gen, out); err != nil {
		return sdr.Turn{}, err
	}
	a.emit(sdr.EventTurn{Turn: out})
	return out, nil
}

// wait sleeps for d unless the send is cancelled first.
func (a *Agent) wait(ctx context.Context, gen uint64, d time.Duration) error {
	if err := a.clock.Sleep(ctx, d); err != nil {
		if ierr := a.interrupted(ctx, gen); ierr != nil {
			return ierr
		}
		return err
	}
	return a.interrupted(ctx, gen)
}

// interrupted reports ErrStale when the conversation moved past gen, or the
// context error when the caller gave up.
func (a *Agent) interrupted(ctx context.Context, gen uint64) error {
	if a.conv.Generation() != gen {
		return sdr.ErrStale
	}
	return ctx.Err()
}

func (a *Agent) turn(speaker sdr.Speaker, text string) sdr.Turn {
	return sdr.Turn{
		ID:      a.newID(),
		Text:    text,
		Speaker: speaker,
		SentAt:  a.clock.Now(),
	}
}

func (a *Agent) emit(e sdr.Event) {
	if a.onEvent != nil {
		a.onEvent(e)
	}
}

// Snapshot returns a copy of the conversation.
func (a *Agent) Snapshot() sdr.Snapshot {
	return a.conv.Snapshot()
}

// Target returns the current conversation target.
func (a *Agent) Target() sdr.Target {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target
}

// Busy reports whether a send is in flight.
func (a *Agent) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

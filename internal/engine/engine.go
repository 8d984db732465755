package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gyaneshwarpardhi/easyaudit/internal/audit"
	"github.com/gyaneshwarpardhi/easyaudit/internal/config"
	"github.com/gyaneshwarpardhi/easyaudit/internal/event"
	"github.com/gyaneshwarpardhi/easyaudit/internal/identity"
	"github.com/gyaneshwarpardhi/easyaudit/internal/metrics"
)

// Result is the outcome of processing a single event.
type Result struct {
	EventID    string       `json:"event_id"`
	EventName  string       `json:"event_name"`
	Skipped    bool         `json:"skipped,omitempty"`
	Entry      *audit.Entry `json:"entry,omitempty"`
	DurationMs int64        `json:"duration_ms"`
	Error      string       `json:"error,omitempty"`
}

// Engine resolves events into audit entries and emits them.
type Engine struct {
	plan   atomic.Pointer[Plan]
	sink   audit.Sink
	pool   *workerPool[*eventWork]
	conf   config.EngineConf
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

type eventWork struct {
	env     *event.Envelope
	token   identity.Token // identity of the submitting request
	resultC chan *Result
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithClock sets the time stamped on events that carry neither an
// occurrence nor a receipt time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine using conf and starts the worker pool.
func New(ctx context.Context, plan *Plan, sink audit.Sink, conf config.EngineConf, opts ...Option) *Engine {
	e := &Engine{
		sink:   sink,
		conf:   conf,
		logger: slog.Default(),
		tracer: otel.Tracer("github.com/gyaneshwarpardhi/easyaudit/internal/engine"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.plan.Store(plan)

	e.pool = newWorkerPool[*eventWork](ctx, conf.EventWorkers, conf.QueueDepth,
		func(ctx context.Context, w *eventWork) {
			res := e.process(ctx, w)
			if w.resultC != nil {
				w.resultC <- res
			}
		},
	)
	return e
}

// SwapPlan atomically replaces the plan (used on hot-reload).
func (e *Engine) SwapPlan(p *Plan) {
	e.plan.Store(p)
}

// Plan returns the plan currently in effect.
func (e *Engine) Plan() *Plan {
	return e.plan.Load()
}

// ProcessSync processes an event synchronously and returns the result.
// The identity token found in ctx is used for resolution.
func (e *Engine) ProcessSync(ctx context.Context, env *event.Envelope) (*Result, error) {
	w := &eventWork{
		env:     env,
		token:   identity.TokenFromContext(ctx),
		resultC: make(chan *Result, 1),
	}
	if !e.pool.Submit(w) {
		metrics.EventsDropped.Inc()
		return nil, fmt.Errorf("event queue full (capacity %d)", e.conf.QueueDepth)
	}
	metrics.EventsEnqueued.Inc()

	timeout := time.Duration(e.conf.EventTimeoutMs) * time.Millisecond
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-w.resultC:
		return res, nil
	case <-timer.C:
		return nil, fmt.Errorf("event processing timeout after %v", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProcessAsync enqueues an event for background processing. Returns false if the queue is full.
// The identity token found in ctx is captured before ctx goes away.
func (e *Engine) ProcessAsync(ctx context.Context, env *event.Envelope) bool {
	w := &eventWork{env: env, token: identity.TokenFromContext(ctx)}
	if !e.pool.Submit(w) {
		metrics.EventsDropped.Inc()
		return false
	}
	metrics.EventsEnqueued.Inc()
	return true
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown stops accepting events and drains the queue.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}

func (e *Engine) process(ctx context.Context, w *eventWork) *Result {
	start := time.Now()
	env := w.env
	ctx = identity.WithToken(ctx, w.token)
	ctx, span := e.tracer.Start(ctx, "easyaudit.process",
		trace.WithAttributes(attribute.String("event.name", env.Name)))
	defer span.End()

	res := &Result{EventID: env.ID, EventName: env.Name}
	defer func() {
		d := time.Since(start)
		res.DurationMs = d.Milliseconds()
		metrics.EventProcessingDuration.Observe(float64(d) / float64(time.Millisecond))
	}()

	plan := e.plan.Load()
	if !plan.Audits(env.Name) {
		res.Skipped = true
		metrics.EventsSkipped.Inc()
		span.SetAttributes(attribute.Bool("event.skipped", true))
		return res
	}

	payload, err := env.Payload()
	if err != nil {
		return e.fail(span, res, err)
	}
	rec, err := plan.Resolver(env.Name).Resolve(ctx, payload, env.Name)
	if err != nil {
		e.logger.ErrorContext(ctx, "event resolution failed", "event", env.Name, "id", env.ID, "err", err)
		return e.fail(span, res, err)
	}
	span.SetAttributes(attribute.String("audit.type", rec.Type))

	entry := audit.NewEntry(env.Name, rec, e.eventTime(env))
	entry.EventID = env.ID
	entry.User = actor(w.token, payload)
	entry.ClientIP = env.ClientIP
	entry.Source = env.Source
	entry.Meta = env.Meta

	if err := e.sink.Emit(ctx, entry); err != nil {
		metrics.SinkErrors.Inc()
		span.RecordError(err)
		e.logger.WarnContext(ctx, "audit sink failed", "event", env.Name, "id", entry.ID, "err", err)
	} else {
		metrics.EntriesEmitted.WithLabelValues(rec.Type).Inc()
	}
	res.Entry = &entry
	return res
}

func (e *Engine) fail(span trace.Span, res *Result, err error) *Result {
	metrics.ResolveErrors.WithLabelValues(res.EventName).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	res.Error = err.Error()
	return res
}

func (e *Engine) eventTime(env *event.Envelope) time.Time {
	if !env.OccurredAt.IsZero() {
		return env.OccurredAt
	}
	if !env.ReceivedAt.IsZero() {
		return env.ReceivedAt
	}
	return e.now()
}

// actor names who an entry is about: the authenticated user if there is
// one, else whoever the event itself names.
func actor(tok identity.Token, payload event.Event) string {
	if tok != nil {
		if u := tok.User(); u != nil {
			return u.Username()
		}
	}
	switch p := payload.(type) {
	case event.UserCarrier:
		if u := p.User(); u != nil {
			return u.Username()
		}
	case event.FailureCarrier:
		return p.Username()
	}
	return ""
}

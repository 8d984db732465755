package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/easyaudit/internal/config"
	"github.com/gyaneshwarpardhi/easyaudit/internal/engine"
	"github.com/gyaneshwarpardhi/easyaudit/internal/event"
	"github.com/gyaneshwarpardhi/easyaudit/internal/identity"
	"github.com/gyaneshwarpardhi/easyaudit/internal/metrics"
)

const maxBatchSize = 100

// PlanBuilder turns a freshly loaded config into an engine plan.
type PlanBuilder func(*config.AuditConfig) (*engine.Plan, error)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng       *engine.Engine
	loader    *config.Loader
	buildPlan PlanBuilder
	verifier  *identity.JWTVerifier
	logger    *slog.Logger
	mux       *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithVerifier enables bearer-token identities. Without one the
// Authorization header is ignored and every request is anonymous.
func WithVerifier(v *identity.JWTVerifier) Option {
	return func(h *Handler) { h.verifier = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader *config.Loader, build PlanBuilder, opts ...Option) http.Handler {
	h := &Handler{
		eng:       eng,
		loader:    loader,
		buildPlan: build,
		logger:    slog.Default(),
		mux:       http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("POST /v1/events", h.ingestEvent)
	h.mux.HandleFunc("POST /v1/events/batch", h.ingestBatch)
	h.mux.HandleFunc("GET /v1/resolvers", h.listResolvers)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return withRecover(withLogging(h.logger, withIdentity(h.verifier, h.mux)))
}

// POST /v1/events — synchronous single-event ingestion.
func (h *Handler) ingestEvent(w http.ResponseWriter, r *http.Request) {
	var env event.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if msg := prepare(&env, time.Now()); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := h.eng.ProcessSync(r.Context(), &env)
	if err != nil {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	status := http.StatusOK
	if res.Error != "" {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

// POST /v1/events/batch — async batch ingestion (up to 100 events).
func (h *Handler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	var envs []*event.Envelope
	if err := json.NewDecoder(r.Body).Decode(&envs); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(envs) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one event")
		return
	}
	if len(envs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(envs), maxBatchSize))
		return
	}

	now := time.Now()
	queued := 0
	for _, env := range envs {
		if env == nil || prepare(env, now) != "" {
			continue
		}
		if h.eng.ProcessAsync(r.Context(), env) {
			queued++
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   uuid.New().String(),
		"total":    len(envs),
		"queued":   queued,
		"rejected": len(envs) - queued,
	})
}

// prepare stamps an envelope and returns a client error message, if any.
func prepare(env *event.Envelope, now time.Time) string {
	if env.Name == "" {
		return "event name is required"
	}
	if _, err := env.Payload(); err != nil {
		return err.Error()
	}
	if env.ID == "" {
		env.ID = uuid.New().String()
	}
	env.ReceivedAt = now
	return ""
}

// GET /v1/resolvers — audited events and resolver bindings.
func (h *Handler) listResolvers(w http.ResponseWriter, r *http.Request) {
	plan := h.eng.Plan()
	events := plan.Events()
	all := events == nil
	if all {
		events = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":          plan.Version(),
		"audit_all":        all,
		"events":           events,
		"default_resolver": plan.DefaultResolver(),
		"bound_events":     plan.Bindings(),
	})
}

// POST /v1/config/reload — reload the config from disk.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, config.ErrInvalid) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	plan, err := h.buildPlan(cfg)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.eng.SwapPlan(plan)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":     true,
		"events_count": len(cfg.Events),
	})
}

// GET /healthz — always 200 (liveness check).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if event queue >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

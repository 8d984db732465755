package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/easyaudit/internal/api"
	"github.com/gyaneshwarpardhi/easyaudit/internal/audit"
	"github.com/gyaneshwarpardhi/easyaudit/internal/config"
	"github.com/gyaneshwarpardhi/easyaudit/internal/engine"
	"github.com/gyaneshwarpardhi/easyaudit/internal/identity"
)

func main() {
	var env config.ServerEnv
	if err := config.ParseEnv(&env); err != nil {
		slog.Error("failed to read environment", "err", err)
		os.Exit(1)
	}
	addr := flag.String("addr", env.Addr, "HTTP listen address")
	cfgPath := flag.String("config", env.ConfigPath, "Path to audit YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(env.LogLevel)}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	// ── Identity ──────────────────────────────────────────────────────────────
	// Without a JWT secret there is no security capability and interactive
	// logins cannot be resolved.
	var (
		verifier *identity.JWTVerifier
		tokens   identity.TokenStorage
	)
	if env.JWTSecret != "" {
		verifier, err = identity.NewJWTVerifier(env.JWTSecret, env.JWTIssuer)
		if err != nil {
			slog.Error("failed to build JWT verifier", "err", err)
			os.Exit(1)
		}
		tokens = identity.ContextTokenStorage{}
	} else {
		slog.Warn("EASYAUDIT_JWT_SECRET not set: security capability disabled")
	}
	buildPlan := func(c *config.AuditConfig) (*engine.Plan, error) {
		return engine.NewPlan(c, tokens)
	}

	// ── Plan and sinks ────────────────────────────────────────────────────────
	plan, err := buildPlan(cfg)
	if err != nil {
		slog.Error("failed to build plan", "err", err)
		os.Exit(1)
	}
	slog.Info("plan built", "audit_all", cfg.AuditsAll(), "events", len(cfg.Events), "bound", len(plan.Bindings()))

	sinks, err := audit.BuildSinks(cfg.Sinks, logger, os.Stdout)
	if err != nil {
		slog.Error("failed to open sinks", "err", err)
		os.Exit(1)
	}
	defer sinks.Close()

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, plan, sinks, cfg.Engine, engine.WithLogger(logger))

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	// Sinks and engine sizing are fixed at startup; reloads only swap the plan.
	// The loader only calls back with configs that passed validation.
	loader.OnChange(func(newCfg *config.AuditConfig) {
		p, err := buildPlan(newCfg)
		if err != nil {
			slog.Warn("hot-reload skipped: plan build failed", "err", err)
			return
		}
		eng.SwapPlan(p)
		slog.Info("plan hot-reloaded", "events", len(newCfg.Events), "bound", len(p.Bindings()))
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, loader, buildPlan, api.WithVerifier(verifier), api.WithLogger(logger))
	srv := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	eng.Shutdown() // drain queued events before the sinks close
	cancel()
	slog.Info("goodbye")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

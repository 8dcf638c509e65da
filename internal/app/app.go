// Package app assembles the editor server from configuration. Both
// cmd/server and "tabedit serve" run it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/tabedit/internal/audit"
	"github.com/JonMunkholm/tabedit/internal/config"
	"github.com/JonMunkholm/tabedit/internal/core"
	"github.com/JonMunkholm/tabedit/internal/tabfile"
	"github.com/JonMunkholm/tabedit/internal/web"
)

// ServiceConfig maps configuration onto the session service.
// SESSION_UNDO_DEPTH=0 turns undo off.
func ServiceConfig(cfg *config.Config) core.ServiceConfig {
	undo := cfg.Session.UndoDepth
	if undo == 0 {
		undo = -1
	}
	return core.ServiceConfig{
		SessionTTL:           cfg.Session.TTL,
		MaxSessions:          cfg.Session.MaxSessions,
		UndoDepth:            undo,
		PreviewLimit:         cfg.Editor.PreviewLimit,
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		MaxUploadWait:        cfg.Upload.MaxWaitTime,
		MaxFileSize:          cfg.Upload.MaxFileSize,
	}
}

// Run serves until ctx is cancelled, then drains decodes in progress and
// shuts the server down within the configured timeout.
func Run(ctx context.Context, cfg *config.Config) error {
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"session_ttl", cfg.Session.TTL,
		"audit_enabled", cfg.Audit.Enabled(),
	)

	var recorder core.AuditRecorder
	var auditDB *audit.Recorder
	if cfg.Audit.Enabled() {
		r, err := audit.Open(ctx, audit.PoolConfig{
			URL:             cfg.Audit.URL,
			MaxConns:        cfg.Audit.MaxConns,
			MinConns:        cfg.Audit.MinConns,
			MaxConnLifetime: cfg.Audit.MaxConnLifetime,
			MaxConnIdleTime: cfg.Audit.MaxConnIdleTime,
		})
		if err != nil {
			return err
		}
		defer r.Close()
		auditDB, recorder = r, r
		slog.Info("connected to audit database", "name", databaseName(cfg.Audit.URL))
	}

	service := core.NewService(ServiceConfig(cfg), tabfile.Codec{}, recorder)
	server := web.NewServer(service, cfg)
	if auditDB != nil {
		server.AddHealthCheck("audit", auditDB.Ping)
	}

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	go service.StartSessionSweeper(jobCtx, cfg.Session.SweepInterval)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Server.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	cancelJobs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	limiter := service.Limiter()
	if status := limiter.Status(); status.Active > 0 {
		slog.Info("waiting for uploads to complete", "active", status.Active)
		if err := limiter.WaitForDrain(shutdownCtx); err != nil {
			slog.Warn("uploads did not complete in time", "error", err)
		} else {
			slog.Info("all uploads completed")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func databaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

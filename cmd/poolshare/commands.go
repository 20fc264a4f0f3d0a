package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/poolshare/internal/api"
	"github.com/mtlprog/poolshare/internal/config"
	"github.com/mtlprog/poolshare/internal/database"
	"github.com/mtlprog/poolshare/internal/export"
	"github.com/mtlprog/poolshare/internal/fund"
	"github.com/mtlprog/poolshare/internal/store"
	"github.com/mtlprog/poolshare/internal/worker"
)

// openStore picks the backend from the config: PostgreSQL, SQLite, bbolt, then memory.
// PostgreSQL migrations are applied before the store is returned.
func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return store.NewPgStore(pool), nil
	case cfg.SQLitePath != "":
		return store.OpenSQLite(ctx, cfg.SQLitePath)
	case cfg.BoltPath != "":
		return store.OpenBolt(cfg.BoltPath)
	default:
		return store.NewMemoryStore(), nil
	}
}

func runMigrations(ctx context.Context, cfg config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for migrations")
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	return migrate(ctx, pool)
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	return database.RunMigrations(ctx, pool, migrationsSub)
}

func newFundService(st store.Store, cfg config.Config) *fund.Service {
	return fund.NewService(st, fund.Options{
		DefaultCommissionRate: cfg.DefaultCommissionRate,
		HistoryLimit:          cfg.HistoryLimit,
	})
}

// withFund loads the config, opens the store and hands a fund service to fn.
func withFund(ctx context.Context, fn func(config.Config, *fund.Service) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Warn("closing store", "error", err)
		}
	}()
	return fn(cfg, newFundService(st, cfg))
}

func serveCmd(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withFund(ctx, func(cfg config.Config, svc *fund.Service) error {
		backupsDone, err := startBackups(ctx, cfg, svc)
		if err != nil {
			return err
		}
		// The store closes after this returns, so a running backup must finish first.
		defer func() { <-backupsDone }()

		srv := api.NewServer(cfg.HTTPPort, svc)
		go func() {
			slog.Info("HTTP server listening", "port", cfg.HTTPPort)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("HTTP server error", "error", err)
				stop()
			}
		}()

		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}

		slog.Info("shutdown complete")
		return nil
	})
}

// startBackups runs the scheduled backup worker when BACKUP_DIR is set.
// The returned channel is closed once the worker has stopped.
func startBackups(ctx context.Context, cfg config.Config, svc *fund.Service) (<-chan struct{}, error) {
	done := make(chan struct{})
	if cfg.BackupDir == "" {
		slog.Warn("BACKUP_DIR not set, scheduled backups disabled")
		close(done)
		return done, nil
	}

	hook, err := newExportHook(ctx, cfg, svc)
	if err != nil {
		return nil, err
	}
	backupWorker, err := worker.NewBackupWorker(svc, cfg.BackupDir, cfg.BackupCron, hook)
	if err != nil {
		return nil, err
	}
	go func() {
		defer close(done)
		backupWorker.Run(ctx)
	}()
	return done, nil
}

// newExportHook returns the Sheets export when it is configured, or nil.
func newExportHook(ctx context.Context, cfg config.Config, svc *fund.Service) (worker.AfterBackupHook, error) {
	if cfg.SheetsSpreadsheetID == "" || cfg.GoogleCredentialsJSON == "" {
		return nil, nil
	}
	writer, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.GoogleCredentialsJSON)
	if err != nil {
		return nil, fmt.Errorf("creating sheets writer: %w", err)
	}
	return export.NewService(svc, writer), nil
}

func migrateCmd(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := runMigrations(c.Context, cfg); err != nil {
		return err
	}
	slog.Info("migrations applied")
	return nil
}

func backupCmd(c *cli.Context) error {
	return withFund(c.Context, func(cfg config.Config, svc *fund.Service) error {
		dir := c.String("dir")
		if dir == "" {
			dir = cfg.BackupDir
		}
		if dir == "" {
			dir = "."
		}

		w, err := worker.NewBackupWorker(svc, dir, cfg.BackupCron, nil)
		if err != nil {
			return err
		}
		paths, err := w.RunOnce(c.Context)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(c.App.Writer, p)
		}
		return nil
	})
}

func metricsCmd(c *cli.Context) error {
	return withFund(c.Context, func(_ config.Config, svc *fund.Service) error {
		p, err := svc.Portfolio(c.Context)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, p)
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

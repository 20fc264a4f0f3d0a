package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"

	"github.com/mtlprog/poolshare/internal/backup"
)

// BackupSource defines the interface for reading a full pool dump.
type BackupSource interface {
	Backup(ctx context.Context) (backup.Data, error)
}

// AfterBackupHook is called after each successful backup.
type AfterBackupHook interface {
	Export(ctx context.Context) error
}

// BackupWorker writes JSON and XLSX backups on a cron schedule.
type BackupWorker struct {
	source   BackupSource
	dir      string
	schedule cron.Schedule
	spec     string
	hook     AfterBackupHook // optional
}

// NewBackupWorker creates a new BackupWorker. spec is a standard five-field cron expression.
func NewBackupWorker(source BackupSource, dir, spec string, hook AfterBackupHook) (*BackupWorker, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing backup schedule %q: %w", spec, err)
	}
	return &BackupWorker{
		source:   source,
		dir:      dir,
		schedule: schedule,
		spec:     spec,
		hook:     hook,
	}, nil
}

// RunOnce writes one backup in every format, then calls the hook.
// It returns the written file paths.
func (w *BackupWorker) RunOnce(ctx context.Context) ([]string, error) {
	data, err := w.source.Backup(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading backup: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup dir: %w", err)
	}

	writers := []struct {
		format backup.Format
		write  func(io.Writer, backup.Data) error
	}{
		{backup.FormatJSON, backup.WriteJSON},
		{backup.FormatXLSX, backup.WriteXLSX},
	}

	paths := make([]string, 0, len(writers))
	for _, bw := range writers {
		path := filepath.Join(w.dir, backup.FileName(bw.format, data.ExportedAt))
		if err := writeFileAtomic(path, func(f io.Writer) error { return bw.write(f, data) }); err != nil {
			return paths, fmt.Errorf("writing %s backup: %w", bw.format, err)
		}
		paths = append(paths, path)
	}

	w.runHook(ctx)
	return paths, nil
}

// runHook calls the post-backup hook if one is configured.
func (w *BackupWorker) runHook(ctx context.Context) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx); err != nil {
		slog.Error("BackupWorker: export hook failed", "error", err)
	} else {
		slog.Info("BackupWorker: export hook completed")
	}
}

func (w *BackupWorker) tick(ctx context.Context) {
	if paths, err := w.RunOnce(ctx); err != nil {
		slog.Error("BackupWorker: backup failed", "error", err)
	} else {
		slog.Info("BackupWorker: backup completed", "files", paths)
	}
}

// Run starts the backup schedule. It blocks until the context is cancelled
// and waits for a running backup to finish before returning.
func (w *BackupWorker) Run(ctx context.Context) {
	slog.Info("BackupWorker: starting", "schedule", w.spec, "dir", w.dir)

	c := cron.New()
	c.Schedule(w.schedule, cron.FuncJob(func() { w.tick(ctx) }))
	c.Start()

	<-ctx.Done()
	slog.Info("BackupWorker: shutting down")
	<-c.Stop().Done()
}

// writeFileAtomic writes through a temporary file in the same directory and renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

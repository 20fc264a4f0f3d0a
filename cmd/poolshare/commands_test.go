package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/poolshare/internal/config"
	"github.com/mtlprog/poolshare/internal/database"
	"github.com/mtlprog/poolshare/internal/fund"
	"github.com/mtlprog/poolshare/internal/store"
)

func TestOpenStoreBackends(t *testing.T) {
	ctx := context.Background()

	mem, err := openStore(ctx, config.Config{})
	if err != nil {
		t.Fatalf("openStore(memory) error = %v", err)
	}
	if _, ok := mem.(*store.MemoryStore); !ok {
		t.Errorf("store = %T, want *store.MemoryStore", mem)
	}

	lite, err := openStore(ctx, config.Config{SQLitePath: filepath.Join(t.TempDir(), "pool.db")})
	if err != nil {
		t.Fatalf("openStore(sqlite) error = %v", err)
	}
	defer lite.Close()
	if _, ok := lite.(*store.SQLiteStore); !ok {
		t.Errorf("store = %T, want *store.SQLiteStore", lite)
	}

	bolt, err := openStore(ctx, config.Config{BoltPath: filepath.Join(t.TempDir(), "pool.bolt")})
	if err != nil {
		t.Fatalf("openStore(bolt) error = %v", err)
	}
	defer bolt.Close()
	if _, ok := bolt.(*store.BoltStore); !ok {
		t.Errorf("store = %T, want *store.BoltStore", bolt)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("fs.Sub() error = %v", err)
	}
	pending, err := database.PendingMigrations(sub, nil)
	if err != nil {
		t.Fatalf("PendingMigrations() error = %v", err)
	}
	want := []string{"001_init.up.sql", "002_pool_totals_scale.up.sql"}
	if !slices.Equal(pending, want) {
		t.Errorf("pending = %v, want %v", pending, want)
	}
}

func TestMigrationsStorePoolTotalsAtFullScale(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/002_pool_totals_scale.up.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	sql := string(data)
	for _, col := range []string{"total_capital", "initial_capital"} {
		if !strings.Contains(sql, "ALTER COLUMN "+col) {
			t.Errorf("migration does not alter %s", col)
		}
	}
	if strings.Count(sql, "NUMERIC(30, 16)") != 2 {
		t.Errorf("migration = %q, want both totals widened to NUMERIC(30, 16)", sql)
	}
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POOLSHARE_CONFIG", "")

	err := newApp().Run([]string{"poolshare", "migrate"})
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error = %v, want DATABASE_URL required", err)
	}
}

func TestBackupAndMetricsCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "pool.db")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POOLSHARE_CONFIG", "")
	t.Setenv("SQLITE_PATH", dbPath)

	ctx := context.Background()
	st, err := store.OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	svc := fund.NewService(st, fund.Options{})
	if _, err := svc.AddInvestor(ctx, fund.NewInvestor{Name: "Alice", Capital: decimal.NewFromInt(1000)}); err != nil {
		t.Fatalf("AddInvestor() error = %v", err)
	}
	st.Close()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	backupDir := filepath.Join(dir, "backups")
	if err := app.Run([]string{"poolshare", "backup", "--dir", backupDir}); err != nil {
		t.Fatalf("backup command error = %v", err)
	}
	lines := strings.Fields(out.String())
	if len(lines) != 2 || !strings.HasSuffix(lines[0], ".json") || !strings.HasSuffix(lines[1], ".xlsx") {
		t.Errorf("backup output = %q, want json and xlsx paths", out.String())
	}

	out.Reset()
	app = newApp()
	app.Writer = &out
	if err := app.Run([]string{"poolshare", "metrics"}); err != nil {
		t.Fatalf("metrics command error = %v", err)
	}
	var p fund.Portfolio
	if err := json.Unmarshal(out.Bytes(), &p); err != nil {
		t.Fatalf("decoding metrics output: %v", err)
	}
	if len(p.Investors) != 1 || p.Investors[0].Name != "Alice" {
		t.Errorf("investors = %+v, want Alice", p.Investors)
	}
}

func TestStartBackupsStopsWithContext(t *testing.T) {
	cfg := config.Config{BackupDir: t.TempDir(), BackupCron: "* * * * *"}
	svc := newFundService(store.NewMemoryStore(), cfg)
	ctx, cancel := context.WithCancel(context.Background())

	done, err := startBackups(ctx, cfg, svc)
	if err != nil {
		t.Fatalf("startBackups() error = %v", err)
	}
	select {
	case <-done:
		t.Fatal("worker stopped before the context was cancelled")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestStartBackupsDisabledWithoutDir(t *testing.T) {
	cfg := config.Config{}
	done, err := startBackups(context.Background(), cfg, newFundService(store.NewMemoryStore(), cfg))
	if err != nil {
		t.Fatalf("startBackups() error = %v", err)
	}
	select {
	case <-done:
	default:
		t.Error("done channel open, want closed when backups are disabled")
	}
}

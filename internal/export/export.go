// Package export publishes the pool's investor table to an external spreadsheet.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/poolshare/internal/fund"
)

// PortfolioSource provides the portfolio to publish.
type PortfolioSource interface {
	Portfolio(ctx context.Context) (fund.Portfolio, error)
}

// Report is one published view of the pool.
type Report struct {
	At        time.Time
	Portfolio fund.Portfolio
}

// SheetWriter writes a report to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, report Report) error
}

// Service loads the portfolio and delegates writing to a SheetWriter.
type Service struct {
	source PortfolioSource
	writer SheetWriter
	now    func() time.Time
}

// NewService creates a new export Service.
func NewService(source PortfolioSource, writer SheetWriter) *Service {
	return &Service{source: source, writer: writer, now: time.Now}
}

// Export publishes the current portfolio. Implements worker.AfterBackupHook.
func (s *Service) Export(ctx context.Context) error {
	p, err := s.source.Portfolio(ctx)
	if err != nil {
		return fmt.Errorf("loading portfolio: %w", err)
	}

	report := Report{At: s.now().UTC(), Portfolio: p}
	if err := s.writer.Write(ctx, report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	slog.Info("portfolio exported", "investors", len(p.Investors), "total", p.TotalCapital)
	return nil
}

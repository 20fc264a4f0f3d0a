// Package backup serializes a full dump of the pool for download and archiving.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/poolshare/internal/domain"
)

// Format is a backup file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// Data is everything needed to restore the pool by hand.
type Data struct {
	ExportedAt time.Time             `json:"exportedAt"`
	Pool       domain.PoolState      `json:"pool"`
	Investors  []domain.Investor     `json:"investors"`
	History    []domain.HistoryEntry `json:"history"`
}

// FileName returns the download name for a backup taken on the given date.
func FileName(format Format, date time.Time) string {
	return fmt.Sprintf("portfolio-backup-%s.%s", date.UTC().Format(time.DateOnly), format)
}

// WriteJSON writes data as indented JSON.
func WriteJSON(w io.Writer, data Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

const (
	sheetPool      = "Pool"
	sheetInvestors = "Investors"
	sheetHistory   = "History"
)

// WriteXLSX writes data as a workbook with one sheet per section.
func WriteXLSX(w io.Writer, data Data) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetPool); err != nil {
		return fmt.Errorf("renaming default sheet: %w", err)
	}
	for _, name := range []string{sheetInvestors, sheetHistory} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	if err := writeRows(f, sheetPool, poolRows(data)); err != nil {
		return err
	}
	if err := writeRows(f, sheetInvestors, investorRows(data.Investors)); err != nil {
		return err
	}
	if err := writeRows(f, sheetHistory, historyRows(data.History)); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("addressing %s row %d: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func poolRows(data Data) [][]any {
	return [][]any{
		{"Field", "Value"},
		{"Exported at", data.ExportedAt.UTC().Format(time.RFC3339)},
		{"Total capital", data.Pool.TotalCapital.String()},
		{"Initial capital", data.Pool.InitialCapital.String()},
	}
}

func investorRows(investors []domain.Investor) [][]any {
	rows := [][]any{{"ID", "Name", "Capital", "Entry ratio", "Commission rate", "Mode", "Created at"}}
	for _, inv := range investors {
		rows = append(rows, []any{
			inv.ID,
			inv.Name,
			inv.Capital.String(),
			optional(inv.EntryRatio),
			optional(inv.CommissionRate),
			string(inv.Mode),
			inv.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}

func historyRows(history []domain.HistoryEntry) [][]any {
	rows := [][]any{{"ID", "Type", "Investor", "Amount", "Date"}}
	for _, e := range history {
		rows = append(rows, []any{
			e.ID,
			string(e.Type),
			lo.FromPtr(e.InvestorName),
			e.Amount.String(),
			e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}

func optional(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

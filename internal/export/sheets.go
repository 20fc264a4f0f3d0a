package export

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/mtlprog/poolshare/internal/fund"
)

const (
	investorsSheet  = "INVESTORS"
	monitoringSheet = "MONITORING"
)

// SheetsWriter implements SheetWriter using the Google Sheets API.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Write rewrites the investor table, then appends a row to the monitoring log.
func (w *SheetsWriter) Write(ctx context.Context, report Report) error {
	meta, err := w.ensureSheets(ctx, investorsSheet, monitoringSheet)
	if err != nil {
		return err
	}

	_, err = w.svc.Spreadsheets.Values.Clear(
		w.spreadsheetID,
		investorsSheet+"!A:J",
		&sheets.ClearValuesRequest{},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing %s: %w", investorsSheet, err)
	}

	_, err = w.svc.Spreadsheets.Values.Update(
		w.spreadsheetID,
		investorsSheet+"!A1",
		&sheets.ValueRange{Values: buildInvestorRows(report.Portfolio)},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing %s: %w", investorsSheet, err)
	}

	return w.appendMonitoring(ctx, meta[monitoringSheet], report)
}

// buildInvestorRows builds the INVESTORS sheet data.
// Columns: Name | Mode | Capital | Rate % | Entry ratio | Current ratio | Value | Gains | Commission | Share %
func buildInvestorRows(p fund.Portfolio) [][]any {
	data := make([][]any, 0, len(p.Investors)+1)
	data = append(data, []any{
		"Name", "Mode", "Capital", "Rate %", "Entry ratio",
		"Current ratio", "Value", "Gains", "Commission", "Share %",
	})

	for _, inv := range p.Investors {
		m := inv.Metrics
		data = append(data, []any{
			inv.Name,
			string(inv.Mode),
			toFloat(inv.Capital),
			ptrFloat(inv.CommissionRate),
			toFloat(m.EntryRatio),
			toFloat(m.CurrentRatio),
			toFloat(m.CurrentValue),
			toFloat(m.Gains),
			toFloat(m.Commission),
			toFloat(m.Share),
		})
	}

	return data
}

type sheetMeta struct {
	id int64
}

// ensureSheets creates any of the named sheets that do not already exist
// and returns the metadata of all of them.
func (w *SheetsWriter) ensureSheets(ctx context.Context, names ...string) (map[string]sheetMeta, error) {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	existing := make(map[string]sheetMeta, len(spreadsheet.Sheets))
	for _, s := range spreadsheet.Sheets {
		existing[s.Properties.Title] = sheetMeta{id: s.Properties.SheetId}
	}

	var requests []*sheets.Request
	for _, name := range names {
		if _, ok := existing[name]; !ok {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			})
		}
	}

	if len(requests) == 0 {
		return existing, nil
	}

	resp, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests},
	).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating sheets: %w", err)
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			p := reply.AddSheet.Properties
			existing[p.Title] = sheetMeta{id: p.SheetId}
		}
	}

	return existing, nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}

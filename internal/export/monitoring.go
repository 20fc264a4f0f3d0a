package export

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/mtlprog/poolshare/internal/fund"
)

// monitoringCol describes one column in the MONITORING sheet.
type monitoringCol struct {
	header string
	value  func(fund.Portfolio) decimal.Decimal
}

// monitoringColumns defines the data columns after the date, in order.
var monitoringColumns = []monitoringCol{
	{header: "Total capital", value: func(p fund.Portfolio) decimal.Decimal { return p.TotalCapital }},
	{header: "Initial capital", value: func(p fund.Portfolio) decimal.Decimal { return p.InitialCapital }},
	{header: "Ratio", value: func(p fund.Portfolio) decimal.Decimal { return p.CurrentRatio }},
	{header: "Investors", value: func(p fund.Portfolio) decimal.Decimal { return decimal.NewFromInt(int64(p.Totals.InvestorCount)) }},
	{header: "Investor value", value: func(p fund.Portfolio) decimal.Decimal { return p.Totals.CurrentValue }},
	{header: "Gains", value: func(p fund.Portfolio) decimal.Decimal { return p.Totals.Gains }},
	{header: "Commission due", value: func(p fund.Portfolio) decimal.Decimal { return p.Totals.Commission }},
}

// monitoringRange spans the date column plus every data column.
var monitoringRange = fmt.Sprintf("%s!A:%c", monitoringSheet, 'A'+len(monitoringColumns))

// buildMonitoringRows builds the header row and a single data row for the MONITORING sheet.
func buildMonitoringRows(p fund.Portfolio, at time.Time) (headerRow, dataRow []any) {
	headerRow = make([]any, 1+len(monitoringColumns))
	headerRow[0] = "Date"
	for i, col := range monitoringColumns {
		headerRow[i+1] = col.header
	}

	dataRow = make([]any, 1+len(monitoringColumns))
	dataRow[0] = at.UTC().Format("02.01.2006")
	for i, col := range monitoringColumns {
		dataRow[i+1] = toFloat(col.value(p))
	}

	return headerRow, dataRow
}

// appendMonitoring writes the header row if the sheet is empty, then appends one data row.
func (w *SheetsWriter) appendMonitoring(ctx context.Context, mon sheetMeta, report Report) error {
	headerRow, dataRow := buildMonitoringRows(report.Portfolio, report.At)

	existing, err := w.svc.Spreadsheets.Values.Get(
		w.spreadsheetID, monitoringSheet+"!A1",
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading %s header: %w", monitoringSheet, err)
	}

	if len(existing.Values) == 0 {
		_, err = w.svc.Spreadsheets.Values.Update(
			w.spreadsheetID,
			monitoringSheet+"!A1",
			&sheets.ValueRange{Values: [][]any{headerRow}},
		).ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("writing %s header: %w", monitoringSheet, err)
		}
		if err := w.freezeHeader(ctx, mon); err != nil {
			return fmt.Errorf("formatting %s: %w", monitoringSheet, err)
		}
	}

	_, err = w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID,
		monitoringRange,
		&sheets.ValueRange{Values: [][]any{dataRow}},
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending %s row: %w", monitoringSheet, err)
	}

	return nil
}

// freezeHeader bolds and freezes the header row and formats the date column.
func (w *SheetsWriter) freezeHeader(ctx context.Context, mon sheetMeta) error {
	totalCols := int64(1 + len(monitoringColumns))

	reqs := []*sheets.Request{
		cellFormatReq(mon.id, 0, 1, 0, totalCols,
			&sheets.CellFormat{
				TextFormat:          &sheets.TextFormat{Bold: true},
				HorizontalAlignment: "CENTER",
			},
			"userEnteredFormat(textFormat,horizontalAlignment)"),
		cellFormatReq(mon.id, 1, 10000, 0, 1,
			&sheets.CellFormat{NumberFormat: &sheets.NumberFormat{Type: "DATE", Pattern: "d.m.yyyy"}},
			"userEnteredFormat.numberFormat"),
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        mon.id,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: reqs},
	).Context(ctx).Do()
	return err
}

func cellFormatReq(sheetID, startRow, endRow, startCol, endCol int64, format *sheets.CellFormat, fields string) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    startRow,
				EndRowIndex:      endRow,
				StartColumnIndex: startCol,
				EndColumnIndex:   endCol,
			},
			Cell:   &sheets.CellData{UserEnteredFormat: format},
			Fields: fields,
		},
	}
}

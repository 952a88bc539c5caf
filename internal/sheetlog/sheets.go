package sheetlog

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const defaultSheetsRange = "Sheet1!A:F"

// SheetsSink appends entries as rows through the Google Sheets API.
type SheetsSink struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	writeRange    string
}

// NewSheetsSink builds a sink for one spreadsheet. opts typically carry
// option.WithCredentialsFile.
func NewSheetsSink(ctx context.Context, spreadsheetID, writeRange string, opts ...option.ClientOption) (*SheetsSink, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheetlog: spreadsheet id is required")
	}
	if writeRange == "" {
		writeRange = defaultSheetsRange
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheetlog: create sheets service: %w", err)
	}
	return &SheetsSink{
		values:        sheets.NewSpreadsheetsValuesService(svc),
		spreadsheetID: spreadsheetID,
		writeRange:    writeRange,
	}, nil
}

func (s *SheetsSink) Append(ctx context.Context, entry Entry) error {
	row := &sheets.ValueRange{Values: [][]interface{}{entry.Payload().Row()}}
	_, err := s.values.Append(s.spreadsheetID, s.writeRange, row).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheetlog: append row: %w", err)
	}
	return nil
}

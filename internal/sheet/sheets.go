package sheet

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// statusColumn is the A1-notation column letter of the status cell
// (ColStatus, 0-based 3).
const statusColumn = "D"

// SheetsBackend implements Backend against a Google Sheets worksheet.
type SheetsBackend struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
	headerRows    int
	limiter       *rate.Limiter
}

// NewSheetsBackend builds a Sheets client from a service-account
// credentials file. Calls are rate-limited well under the per-minute
// quota so a large pass cannot trip it.
func NewSheetsBackend(ctx context.Context, credentialsFile, spreadsheetID, worksheet string, headerRows int) (*SheetsBackend, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &SheetsBackend{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		headerRows:    headerRows,
		limiter:       rate.NewLimiter(rate.Limit(1), 2),
	}, nil
}

func (s *SheetsBackend) Fetch(ctx context.Context) (*Snapshot, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// FORMULA rendering keeps the HYPERLINK title cells intact so the
	// snapshot can split display text from URL. Under FORMULA rendering
	// date cells default to serial numbers; ask for formatted strings
	// so they stay parseable dates.
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, s.rangeAll()).
		ValueRenderOption("FORMULA").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets get %s: %w", s.rangeAll(), err)
	}

	values := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		values = append(values, row)
	}
	return ParseSnapshot(values, s.headerRows), nil
}

func (s *SheetsBackend) Append(ctx context.Context, rows [][]any) (int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	resp, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.rangeAll(), &sheets.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets append: %w", err)
	}
	if resp.Updates == nil {
		return 0, nil
	}
	return int(resp.Updates.UpdatedRows), nil
}

func (s *SheetsBackend) UpdateStatus(ctx context.Context, updates []CellUpdate) (int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", s.worksheet, statusColumn, u.Row),
			Values: [][]any{{u.Status}},
		})
	}

	resp, err := s.svc.Spreadsheets.Values.
		BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data:             data,
		}).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets batch update: %w", err)
	}
	return int(resp.TotalUpdatedCells), nil
}

func (s *SheetsBackend) rangeAll() string {
	return fmt.Sprintf("%s!A:F", s.worksheet)
}

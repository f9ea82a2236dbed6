package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/johnchik/llm-expense-tracker/internal/service"
)

// Store implements service.TableStore on one Google spreadsheet. Each
// logical table is a sheet; row IDs are 1-based sheet row numbers, which are
// stable between calls because access to the spreadsheet is serialized
// through this process.
type Store struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetIDs      map[string]int64
}

// NewStore creates a store over the configured spreadsheet.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	svc, err := createService(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Store{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetIDs:      make(map[string]int64),
	}
	if err := s.loadSheetIDs(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func createService(ctx context.Context, cfg Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if cfg.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(cfg.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}
		tokenSource = oauthConfig.TokenSource(ctx, &oauth2.Token{
			RefreshToken: cfg.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return svc, nil
}

func (s *Store) loadSheetIDs(ctx context.Context) error {
	spreadsheet, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to access spreadsheet %s: %w", s.spreadsheetID, err)
	}
	for _, sheet := range spreadsheet.Sheets {
		s.sheetIDs[sheet.Properties.Title] = sheet.Properties.SheetId
	}
	return nil
}

// Close implements service.TableStore. The sheets service holds no
// resources that need releasing.
func (s *Store) Close() error {
	return nil
}

// GetOrCreate opens the named sheet, creating it with a header row when
// absent. An existing header narrower than requested is widened in place.
func (s *Store) GetOrCreate(ctx context.Context, name string, headers []string) (service.Table, error) {
	if name == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("headers cannot be empty")
	}

	sheetID, exists := s.sheetIDs[name]
	if !exists {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			}},
		}
		resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
		s.sheetIDs[name] = sheetID

		if err := s.writeHeaders(ctx, name, headers); err != nil {
			return nil, err
		}
		return &sheetTable{store: s, name: name, sheetID: sheetID, headers: append([]string(nil), headers...)}, nil
	}

	stored, err := s.readHeaders(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		stored = headers
		if err := s.writeHeaders(ctx, name, stored); err != nil {
			return nil, err
		}
	} else if len(stored) < len(headers) {
		stored = append(append([]string(nil), stored...), headers[len(stored):]...)
		if err := s.writeHeaders(ctx, name, stored); err != nil {
			return nil, err
		}
	}

	return &sheetTable{store: s, name: name, sheetID: sheetID, headers: stored}, nil
}

func (s *Store) readHeaders(ctx context.Context, name string) ([]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, name+"!1:1").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read headers of %q: %w", name, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	headers := make([]string, 0, len(resp.Values[0]))
	for _, v := range resp.Values[0] {
		headers = append(headers, fmt.Sprint(v))
	}
	return headers, nil
}

func (s *Store) writeHeaders(ctx context.Context, name string, headers []string) error {
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, name+"!A1", &sheets.ValueRange{
		Values: [][]any{row},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write headers of %q: %w", name, err)
	}
	return nil
}

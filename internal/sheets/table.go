package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/sheets/v4"

	"github.com/johnchik/llm-expense-tracker/internal/service"
)

// sheetTable is a handle to one sheet.
type sheetTable struct {
	store   *Store
	name    string
	headers []string
	sheetID int64
}

func (t *sheetTable) Name() string {
	return t.name
}

func (t *sheetTable) Headers() []string {
	return append([]string(nil), t.headers...)
}

func (t *sheetTable) AppendRows(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		values = append(values, cells)
	}

	_, err := t.store.svc.Spreadsheets.Values.Append(t.store.spreadsheetID, t.dataRange(), &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append rows to %q: %w", t.name, err)
	}
	return nil
}

func (t *sheetTable) ReadAll(ctx context.Context) ([]service.Row, error) {
	resp, err := t.store.svc.Spreadsheets.Values.Get(t.store.spreadsheetID, t.dataRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", t.name, err)
	}

	rows := make([]service.Row, 0, len(resp.Values))
	for i, raw := range resp.Values {
		cells := make([]string, 0, len(t.headers))
		for _, v := range raw {
			cells = append(cells, fmt.Sprint(v))
		}
		for len(cells) < len(t.headers) {
			cells = append(cells, "")
		}
		// Sheet row number: data starts on row 2.
		rows = append(rows, service.Row{ID: int64(i + 2), Cells: cells})
	}
	return rows, nil
}

func (t *sheetTable) ReadTail(ctx context.Context, n int) ([]service.Row, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := t.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	return rows, nil
}

func (t *sheetTable) UpdateRows(ctx context.Context, updated []service.Row) error {
	if len(updated) == 0 {
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(updated))
	for _, row := range updated {
		cells := make([]any, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c
		}
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!A%d", t.name, row.ID),
			Values: [][]any{cells},
		})
	}

	_, err := t.store.svc.Spreadsheets.Values.BatchUpdate(t.store.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update rows in %q: %w", t.name, err)
	}
	return nil
}

func (t *sheetTable) SetColumn(ctx context.Context, rowIDs []int64, column int, value string) error {
	if column < 0 || column >= len(t.headers) {
		return fmt.Errorf("column %d out of range for table %q", column, t.name)
	}
	if len(rowIDs) == 0 {
		return nil
	}

	letter := columnLetter(column)
	data := make([]*sheets.ValueRange, 0, len(rowIDs))
	for _, id := range rowIDs {
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", t.name, letter, id),
			Values: [][]any{{value}},
		})
	}

	_, err := t.store.svc.Spreadsheets.Values.BatchUpdate(t.store.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to set column in %q: %w", t.name, err)
	}
	return nil
}

func (t *sheetTable) DeleteOldest(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	count, err := t.RowCount(ctx)
	if err != nil {
		return 0, err
	}
	if n > count {
		n = count
	}
	if n == 0 {
		return 0, nil
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    t.sheetID,
					Dimension:  "ROWS",
					StartIndex: 1,
					EndIndex:   int64(1 + n),
				},
			},
		}},
	}
	if _, err := t.store.svc.Spreadsheets.BatchUpdate(t.store.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("failed to delete rows from %q: %w", t.name, err)
	}
	return n, nil
}

func (t *sheetTable) SortByColumn(ctx context.Context, column int, ascending bool) error {
	if column < 0 || column >= len(t.headers) {
		return fmt.Errorf("column %d out of range for table %q", column, t.name)
	}

	order := "ASCENDING"
	if !ascending {
		order = "DESCENDING"
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			SortRange: &sheets.SortRangeRequest{
				Range: &sheets.GridRange{
					SheetId:       t.sheetID,
					StartRowIndex: 1,
				},
				SortSpecs: []*sheets.SortSpec{{
					DimensionIndex: int64(column),
					SortOrder:      order,
				}},
			},
		}},
	}
	if _, err := t.store.svc.Spreadsheets.BatchUpdate(t.store.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to sort %q: %w", t.name, err)
	}
	return nil
}

func (t *sheetTable) RowCount(ctx context.Context) (int, error) {
	rows, err := t.ReadAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (t *sheetTable) dataRange() string {
	return fmt.Sprintf("%s!A2:%s", t.name, columnLetter(len(t.headers)-1))
}

// columnLetter converts a zero-based column index to A1 notation.
func columnLetter(column int) string {
	var out []byte
	column++
	for column > 0 {
		column--
		out = append(out, byte('A'+column%26))
		column /= 26
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

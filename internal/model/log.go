package model

import (
	"fmt"
	"time"
)

// LogHeaders is the column schema of the staging log.
var LogHeaders = []string{
	"Datetime", "Title", "Raw Text", "Source App", "Notification ID", "Type", "Classification", "Synced",
}

// Log column indexes.
const (
	LogColDatetime = iota
	LogColTitle
	LogColRawText
	LogColSourceApp
	LogColNotificationID
	LogColType
	LogColPayload
	LogColSynced
)

// Synced column values.
const (
	SyncedYes = "Yes"
	SyncedNo  = "No"
)

// LogRecord is the durable record of one classified, non-duplicate
// notification. It is written once by intake and never deleted; Synced
// transitions No to Yes exactly once, by the reconciler.
type LogRecord struct {
	Datetime       time.Time
	Title          string
	RawText        string
	SourceApp      string
	NotificationID string
	Type           string
	Payload        string
	RowID          int64
	Synced         bool
}

// Cells renders the record as a log table row.
func (r *LogRecord) Cells() []string {
	synced := SyncedNo
	if r.Synced {
		synced = SyncedYes
	}
	return []string{
		r.Datetime.Format(DatetimeLayout),
		r.Title,
		r.RawText,
		r.SourceApp,
		r.NotificationID,
		r.Type,
		r.Payload,
		synced,
	}
}

// LogRecordFromCells parses a stored log row.
func LogRecordFromCells(rowID int64, cells []string) (LogRecord, error) {
	if len(cells) < len(LogHeaders) {
		return LogRecord{}, fmt.Errorf("log row %d has %d cells, want %d", rowID, len(cells), len(LogHeaders))
	}
	return LogRecord{
		RowID:          rowID,
		Datetime:       parseDatetime(cells[LogColDatetime]),
		Title:          cells[LogColTitle],
		RawText:        cells[LogColRawText],
		SourceApp:      cells[LogColSourceApp],
		NotificationID: cells[LogColNotificationID],
		Type:           cells[LogColType],
		Payload:        cells[LogColPayload],
		Synced:         cells[LogColSynced] == SyncedYes,
	}, nil
}

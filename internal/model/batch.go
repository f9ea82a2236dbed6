package model

// ItemStatus is the terminal outcome for one notification in a batch.
type ItemStatus string

// Per-item batch outcomes.
const (
	StatusLogged    ItemStatus = "logged"
	StatusSkipped   ItemStatus = "skipped"
	StatusDuplicate ItemStatus = "duplicate"
	StatusError     ItemStatus = "error"
)

// ItemResult reports the outcome for one notification.
type ItemResult struct {
	ID      string     `json:"id"`
	Type    string     `json:"type,omitempty"`
	Status  ItemStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}

// BatchResult summarizes one intake batch. Results holds an entry for every
// item, including skips and duplicates; the HTTP layer reports only logged
// and error entries to the caller.
type BatchResult struct {
	Results    []ItemResult
	New        int
	Duplicates int
	Errors     int
}

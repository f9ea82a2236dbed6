// Package model defines the core domain types used throughout the application.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/johnchik/llm-expense-tracker/internal/normalize"
)

// GroupedID is the sentinel notification ID used by sources that collapse
// several events into one grouped notification (e.g. email clients).
const GroupedID = "0"

// Notification is one raw mobile notification as forwarded by the companion
// client. It is transient: only classified, non-duplicate notifications leave
// a durable trace.
type Notification struct {
	ID        string
	App       string
	Title     string
	Text      string
	Timestamp int64 // unix seconds
}

// UnmarshalJSON accepts `_id` as either a JSON number or a string, since the
// companion client is not consistent about it.
func (n *Notification) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID        json.RawMessage `json:"_id"`
		App       string          `json:"app"`
		Title     string          `json:"title"`
		Text      string          `json:"text"`
		Timestamp int64           `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	n.App = aux.App
	n.Title = aux.Title
	n.Text = aux.Text
	n.Timestamp = aux.Timestamp

	n.ID = ""
	if len(aux.ID) > 0 {
		var s string
		if err := json.Unmarshal(aux.ID, &s); err == nil {
			n.ID = s
		} else {
			var num json.Number
			if err := json.Unmarshal(aux.ID, &num); err != nil {
				return fmt.Errorf("invalid _id %s: %w", string(aux.ID), err)
			}
			n.ID = num.String()
		}
	}
	return nil
}

// Time returns the notification's timestamp as a time.Time.
func (n *Notification) Time() time.Time {
	return time.Unix(n.Timestamp, 0)
}

// IsGrouped reports whether this is a grouped/unattributed notification.
func (n *Notification) IsGrouped() bool {
	return n.ID == GroupedID
}

// Valid reports whether the notification carries the fields required for
// intake.
func (n *Notification) Valid() bool {
	return strings.TrimSpace(n.App) != "" &&
		strings.TrimSpace(n.Text) != "" &&
		n.Timestamp > 0
}

// Fingerprint derives the composite duplicate-detection key. Two
// notifications with the same id, app, and normalized text are the same
// logical event regardless of arrival time or title formatting.
func (n *Notification) Fingerprint() string {
	return n.ID + "|" + n.App + "|" + normalize.Text(n.Text)
}

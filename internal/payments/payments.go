// Package payments tracks per-event, per-user payment status in the local
// ledger. It is a best-effort cache for display purposes, not a system of
// record: absence of a record means unpaid, and writes are last-write-wins.
package payments

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"gatherly/internal/ledger"
)

type Status string

const (
	StatusPaid   Status = "paid"
	StatusUnpaid Status = "unpaid"
)

const (
	statusKey = "payment_statuses"
	logKey    = "payment_notifications"

	maxLogEntries = 50
)

type Store struct {
	ledger *ledger.Ledger
	log    zerolog.Logger
	now    func() time.Time
}

func NewStore(l *ledger.Ledger, log zerolog.Logger) *Store {
	return &Store{ledger: l, log: log, now: time.Now}
}

// Status returns the recorded payment status for the (event, user) pair,
// defaulting to unpaid when no record exists.
func (s *Store) Status(eventID, userID string) Status {
	statuses := s.readStatuses()
	if byUser, ok := statuses[eventID]; ok {
		if status, ok := byUser[userID]; ok {
			return status
		}
	}
	return StatusUnpaid
}

// SetStatus upserts the record for the (event, user) pair.
func (s *Store) SetStatus(eventID, userID string, status Status) {
	if eventID == "" || userID == "" {
		return
	}
	statuses := s.readStatuses()
	byUser := statuses[eventID]
	if byUser == nil {
		byUser = map[string]Status{}
		statuses[eventID] = byUser
	}
	byUser[userID] = status
	s.ledger.Write(statusKey, statuses)
}

// ClearStatus removes the record for the (event, user) pair if present.
func (s *Store) ClearStatus(eventID, userID string) {
	statuses := s.readStatuses()
	byUser, ok := statuses[eventID]
	if !ok {
		return
	}
	if _, ok := byUser[userID]; !ok {
		return
	}
	delete(byUser, userID)
	if len(byUser) == 0 {
		delete(statuses, eventID)
	}
	s.ledger.Write(statusKey, statuses)
}

// Attendee is one entry of an event's attendee list as returned by the API.
// The list mixes bare id strings with user objects, so it unmarshals both.
type Attendee struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (a *Attendee) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*a = Attendee{ID: id}
		return nil
	}
	type attendee Attendee
	var obj attendee
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*a = Attendee(obj)
	return nil
}

type SummaryRow struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}

type Summary struct {
	Rows        []SummaryRow `json:"rows"`
	PaidCount   int          `json:"paidCount"`
	UnpaidCount int          `json:"unpaidCount"`
}

// Summarize resolves a display name and payment status for every attendee
// of the event. Display names fall back from full name to username to email
// to a positional placeholder. Entries with no resolvable id are counted as
// unpaid without consulting the ledger.
func (s *Store) Summarize(eventID string, attendees []Attendee) Summary {
	summary := Summary{Rows: make([]SummaryRow, 0, len(attendees))}
	for i, attendee := range attendees {
		row := SummaryRow{
			UserID: attendee.ID,
			Name:   displayName(attendee, i),
			Status: StatusUnpaid,
		}
		if attendee.ID != "" {
			row.Status = s.Status(eventID, attendee.ID)
		}
		if row.Status == StatusPaid {
			summary.PaidCount++
		} else {
			summary.UnpaidCount++
		}
		summary.Rows = append(summary.Rows, row)
	}
	return summary
}

func displayName(a Attendee, index int) string {
	switch {
	case a.FirstName != "" && a.LastName != "":
		return a.FirstName + " " + a.LastName
	case a.FirstName != "":
		return a.FirstName
	case a.Username != "":
		return a.Username
	case a.Email != "":
		return a.Email
	default:
		return fmt.Sprintf("Attendee %d", index+1)
	}
}

type LogEntry struct {
	EventID    string    `json:"eventId"`
	UserID     string    `json:"userId"`
	Status     Status    `json:"status"`
	EventTitle string    `json:"eventTitle,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LogNotification prepends a status-change entry to the payment log. The log
// keeps the 50 most recent entries, newest first; older entries are dropped.
func (s *Store) LogNotification(eventID, userID string, status Status, eventTitle string) {
	entries := s.readLog()
	entry := LogEntry{
		EventID:    eventID,
		UserID:     userID,
		Status:     status,
		EventTitle: eventTitle,
		CreatedAt:  s.now(),
	}
	entries = append([]LogEntry{entry}, entries...)
	if len(entries) > maxLogEntries {
		entries = entries[:maxLogEntries]
	}
	s.ledger.Write(logKey, entries)
}

// Notifications returns the payment log newest first, optionally filtered
// to a single event. Pass an empty eventID for the full log.
func (s *Store) Notifications(eventID string) []LogEntry {
	entries := s.readLog()
	if eventID == "" {
		return entries
	}
	filtered := make([]LogEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.EventID == eventID {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

func (s *Store) readStatuses() map[string]map[string]Status {
	statuses := map[string]map[string]Status{}
	s.ledger.Read(statusKey, &statuses)
	return statuses
}

func (s *Store) readLog() []LogEntry {
	var entries []LogEntry
	s.ledger.Read(logKey, &entries)
	return entries
}

// Package sheetlog records conversation turns in the operations spreadsheet.
package sheetlog

import (
	"context"
	"errors"
	"time"
)

const (
	SenderUser = "User"
	SenderBot  = "Bot"

	dateLayout = "02-01-2006"
	timeLayout = "15:04:05"
)

// Entry is one logged turn.
type Entry struct {
	At          time.Time
	PhoneNumber string
	Name        string
	Sender      string
	Message     string
}

// Payload is the wire shape shared by every sink.
type Payload struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name"`
	Sender      string `json:"sender"`
	Message     string `json:"message"`
}

// Payload formats the entry in local time. A zero At means now.
func (e Entry) Payload() Payload {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	return Payload{
		Date:        at.Format(dateLayout),
		Time:        at.Format(timeLayout),
		PhoneNumber: e.PhoneNumber,
		Name:        e.Name,
		Sender:      e.Sender,
		Message:     e.Message,
	}
}

// Row is the payload as a spreadsheet row in column order.
func (p Payload) Row() []interface{} {
	return []interface{}{p.Date, p.Time, p.PhoneNumber, p.Name, p.Sender, p.Message}
}

// Sink appends entries somewhere durable. Callers treat failures as
// diagnostics only.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}

// NopSink drops every entry.
type NopSink struct{}

func (NopSink) Append(context.Context, Entry) error { return nil }

// Multi fans an entry out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Append(ctx context.Context, entry Entry) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Append(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

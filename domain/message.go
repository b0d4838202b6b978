// Package domain contains core concepts of the chat feed.
// This file defines Message values and the rules turning raw store
// records into an ordered feed.
package domain

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// OrderBySentAt is the only order field a feed subscription asks for.
const OrderBySentAt = "sentAt"

var validate = validator.New()

// Message represents an immutable chat entry.
type Message struct {
	Sender string `validate:"required"`
	Body   string `validate:"required"`
	SentAt time.Time
}

// Record is the store-side shape of a message before validation.
// A nil field was absent from the stored document.
type Record struct {
	Sender *string
	Body   *string
	// SentAt holds seconds since the Unix epoch, fraction included.
	SentAt *float64
}

// Draft is what a sender hands to the store; the store stamps the time.
type Draft struct {
	Sender string
	Body   string
}

// RoomID names the shared collection a feed reads and writes.
type RoomID string

func (r RoomID) String() string { return string(r) }

// ToMessage validates a record. Records missing a field, carrying a blank
// body or a non-finite time are reported as not ok.
func (r Record) ToMessage() (Message, bool) {
	if r.Sender == nil || r.Body == nil || r.SentAt == nil {
		return Message{}, false
	}
	// A non-finite time cannot be ordered.
	if math.IsNaN(*r.SentAt) || math.IsInf(*r.SentAt, 0) {
		return Message{}, false
	}
	if strings.TrimSpace(*r.Body) == "" {
		return Message{}, false
	}
	m := Message{
		Sender: *r.Sender,
		Body:   *r.Body,
		SentAt: SecondsToTime(*r.SentAt),
	}
	if err := validate.Struct(m); err != nil {
		return Message{}, false
	}
	return m, true
}

// Materialize turns one delivery into the feed's ordered list.
// Malformed records are dropped; the rest is stable-sorted by SentAt so
// equal timestamps keep the store's order.
func Materialize(records []Record) []Message {
	messages := lo.FilterMap(records, func(r Record, _ int) (Message, bool) {
		return r.ToMessage()
	})
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].SentAt.Before(messages[j].SentAt)
	})
	return messages
}

// NewRecord builds a complete record, mostly for stores and tests.
func NewRecord(sender, body string, sentAt float64) Record {
	return Record{Sender: &sender, Body: &body, SentAt: &sentAt}
}

func SecondsToTime(seconds float64) time.Time {
	sec, frac := math.Modf(seconds)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}

func TimeToSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

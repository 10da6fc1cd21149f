package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ResponseStatus is the outcome of one checklist point.
type ResponseStatus string

const (
	ResponseOK  ResponseStatus = "OK"
	ResponseNOK ResponseStatus = "NOK"
)

// TicketStatus tracks resolution of NOK records and support tickets.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "OPEN"
	TicketInProgress TicketStatus = "IN_PROGRESS"
	TicketResolved   TicketStatus = "RESOLVED"
)

var ErrInvalidTransition = errors.New("invalid status transition")

var ticketRank = map[TicketStatus]int{
	TicketOpen:       0,
	TicketInProgress: 1,
	TicketResolved:   2,
}

// IsValidTicketStatus checks if a ticket status is known
func IsValidTicketStatus(s TicketStatus) bool {
	_, ok := ticketRank[s]
	return ok
}

// CanTransition reports whether a ticket may move from one status to the next.
// Tickets only move forward; staying in place is allowed so notes can be edited.
func (s TicketStatus) CanTransition(next TicketStatus) bool {
	from, ok := ticketRank[s]
	if !ok {
		from = 0
	}
	to, ok := ticketRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// Record is one answered checklist point within a session.
type Record struct {
	ID           int64          `json:"id" bson:"_id"`
	SessionID    int64          `json:"session_id" bson:"session_id"`
	PointID      int64          `json:"point_id" bson:"point_id"`
	Status       ResponseStatus `json:"status" bson:"status"`
	Value        *string        `json:"value,omitempty" bson:"value,omitempty"`
	Explanation  *string        `json:"explanation,omitempty" bson:"explanation,omitempty"`
	PhotoPath    *string        `json:"photo_path,omitempty" bson:"photo_path,omitempty"`
	TicketStatus TicketStatus   `json:"ticket_status,omitempty" bson:"ticket_status,omitempty"`
	TicketNote   *string        `json:"ticket_note,omitempty" bson:"ticket_note,omitempty"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
}

// Check enforces the record invariants for a point of the given answer type.
func (r Record) Check(t AnswerType) error {
	switch r.Status {
	case ResponseNOK:
		if r.Explanation == nil || strings.TrimSpace(*r.Explanation) == "" {
			return fmt.Errorf("point %d: NOK record requires an explanation", r.PointID)
		}
		if r.Value != nil {
			return fmt.Errorf("point %d: NOK record must not carry a value", r.PointID)
		}
	case ResponseOK:
		if t.IsPassFail() && r.Value != nil {
			return fmt.Errorf("point %d: pass/fail record must not carry a value", r.PointID)
		}
		if !t.IsPassFail() && r.Value == nil {
			return fmt.Errorf("point %d: %s record requires a value", r.PointID, t)
		}
	default:
		return fmt.Errorf("point %d: unknown response status %q", r.PointID, r.Status)
	}
	return nil
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package models

import (
	"strings"
	"time"
)

// SessionKind distinguishes maintenance passes from shift logbook entries.
type SessionKind string

const (
	KindMaintenance SessionKind = "MAINTENANCE"
	KindLogbook     SessionKind = "LOGBOOK"
)

// Shift is the logbook shift code.
type Shift string

const (
	ShiftPS Shift = "PS"
	ShiftMT Shift = "MT"
)

// IsValidShift checks if a shift code is known
func IsValidShift(s Shift) bool {
	return s == ShiftPS || s == ShiftMT
}

// SessionStatus is the lifecycle status of a session.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
)

// TaskDateLayout is the calendar date format technicians type.
const TaskDateLayout = "2006-01-02"

// Session is one maintenance pass or logbook entry by a technician pair.
type Session struct {
	ID          int64         `json:"id" bson:"_id"`
	Technician1 string        `json:"technician_1" bson:"technician_1"`
	Technician2 string        `json:"technician_2,omitempty" bson:"technician_2,omitempty"`
	TaskDate    string        `json:"task_date" bson:"task_date"`
	Kind        SessionKind   `json:"kind" bson:"kind"`
	EquipmentID *int64        `json:"equipment_id,omitempty" bson:"equipment_id,omitempty"`
	Shift       Shift         `json:"shift,omitempty" bson:"shift,omitempty"`
	Summary     string        `json:"summary,omitempty" bson:"summary,omitempty"`
	Photos      []string      `json:"photos" bson:"photos"`
	Status      SessionStatus `json:"status" bson:"status"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// JoinPhotos renders a photo list the way the relational schema stores it.
func JoinPhotos(paths []string) string {
	return strings.Join(paths, ",")
}

// SplitPhotos parses a comma-joined photo column, dropping empty entries.
func SplitPhotos(joined string) []string {
	out := []string{}
	for _, p := range strings.Split(joined, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SessionFilter narrows dashboard session listings.
type SessionFilter struct {
	Kind   SessionKind
	Status SessionStatus
}

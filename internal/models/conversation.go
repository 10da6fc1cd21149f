package models

import (
	"time"
)

// Step is the position of a conversation in the checklist flow.
type Step string

const (
	StepTechnician1     Step = "technician_1"
	StepTechnician2     Step = "technician_2"
	StepTaskDate        Step = "task_date"
	StepChooseKind      Step = "choose_kind"
	StepChooseEquipment Step = "choose_equipment"
	StepChooseShift     Step = "choose_shift"
	StepAnswering       Step = "answering"
	StepNOKReason       Step = "nok_reason"
	StepNOKPhoto        Step = "nok_photo"
	StepSummary         Step = "summary"
	StepLogbookNote     Step = "logbook_note"
	StepSessionPhoto    Step = "session_photo"

	StepTicketReporter    Step = "ticket_reporter"
	StepTicketCategory    Step = "ticket_category"
	StepTicketDescription Step = "ticket_description"
	StepTicketPhoto       Step = "ticket_photo"
)

// Conversation is the checkpointed engine state of one technician chat.
type Conversation struct {
	ChatID      int64       `json:"chat_id" bson:"_id"`
	Step        Step        `json:"step" bson:"step"`
	Technician1 string      `json:"technician_1,omitempty" bson:"technician_1,omitempty"`
	Technician2 string      `json:"technician_2,omitempty" bson:"technician_2,omitempty"`
	TaskDate    string      `json:"task_date,omitempty" bson:"task_date,omitempty"`
	Kind        SessionKind `json:"kind,omitempty" bson:"kind,omitempty"`
	EquipmentID int64       `json:"equipment_id,omitempty" bson:"equipment_id,omitempty"`
	Shift       Shift       `json:"shift,omitempty" bson:"shift,omitempty"`
	SessionID   int64       `json:"session_id,omitempty" bson:"session_id,omitempty"`

	// Point awaiting an answer while in StepAnswering.
	PointID    int64      `json:"point_id,omitempty" bson:"point_id,omitempty"`
	AnswerType AnswerType `json:"answer_type,omitempty" bson:"answer_type,omitempty"`
	// Point whose NOK explanation or photo is being collected.
	PendingNOK int64 `json:"pending_nok,omitempty" bson:"pending_nok,omitempty"`

	Photos []string `json:"photos,omitempty" bson:"photos,omitempty"`

	TicketReporter    string `json:"ticket_reporter,omitempty" bson:"ticket_reporter,omitempty"`
	TicketCategory    string `json:"ticket_category,omitempty" bson:"ticket_category,omitempty"`
	TicketDescription string `json:"ticket_description,omitempty" bson:"ticket_description,omitempty"`

	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Clone returns a deep copy so a turn can be abandoned without side effects.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	if c.Photos != nil {
		out.Photos = append([]string(nil), c.Photos...)
	}
	return &out
}

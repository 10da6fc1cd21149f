package models

import (
	"strings"
)

// Equipment represents a piece of station equipment with its own checklist.
type Equipment struct {
	ID   int64  `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

// AnswerType is the declared answer type of a checklist point.
type AnswerType string

const (
	AnswerPassFail   AnswerType = "OK/NOK"
	AnswerVoltageAC  AnswerType = "Vac"
	AnswerVoltageDC  AnswerType = "Vdc"
	AnswerCurrent    AnswerType = "A"
	AnswerPercentage AnswerType = "%"
	AnswerHours      AnswerType = "Jam"
	AnswerText       AnswerType = "TEXT"
)

// ParseAnswerType maps a stored answer type label to its canonical form.
// Unknown labels are returned unchanged and treated as free text.
func ParseAnswerType(raw string) AnswerType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ok/nok":
		return AnswerPassFail
	case "vac":
		return AnswerVoltageAC
	case "vdc":
		return AnswerVoltageDC
	case "a":
		return AnswerCurrent
	case "%":
		return AnswerPercentage
	case "jam", "jam(s)":
		return AnswerHours
	case "text", "":
		return AnswerText
	default:
		return AnswerType(strings.TrimSpace(raw))
	}
}

// IsPassFail reports whether the point is answered with the pass/fail buttons.
func (t AnswerType) IsPassFail() bool {
	return t == AnswerPassFail
}

// IsNumeric reports whether answers of this type must be decimal numbers.
func (t AnswerType) IsNumeric() bool {
	switch t {
	case AnswerVoltageAC, AnswerVoltageDC, AnswerCurrent, AnswerPercentage, AnswerHours:
		return true
	default:
		return false
	}
}

// ChecklistPoint is one question of an equipment's inspection template.
type ChecklistPoint struct {
	ID          int64      `json:"id" bson:"_id"`
	EquipmentID int64      `json:"equipment_id" bson:"equipment_id"`
	Section     string     `json:"section" bson:"section"`
	Question    string     `json:"question" bson:"question"`
	AnswerType  AnswerType `json:"answer_type" bson:"answer_type"`
	OrderNumber int        `json:"order_number" bson:"order_number"`
}

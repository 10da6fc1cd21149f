package models

// RecordView is a record joined with its checklist point.
type RecordView struct {
	Record
	Section     string     `json:"section"`
	Question    string     `json:"question"`
	AnswerType  AnswerType `json:"answer_type"`
	OrderNumber int        `json:"order_number"`
}

// SessionDetail is a session with its equipment name and ordered records.
type SessionDetail struct {
	Session       Session      `json:"session"`
	EquipmentName string       `json:"equipment_name,omitempty"`
	Records       []RecordView `json:"records"`
}

// Issue is a NOK record as listed on the dashboard issues page.
type Issue struct {
	RecordView
	TaskDate      string `json:"task_date"`
	EquipmentName string `json:"equipment_name"`
	Technician1   string `json:"technician_1"`
	Technician2   string `json:"technician_2,omitempty"`
}

// LogbookDay groups the two shift entries of one task date.
type LogbookDay struct {
	Date string   `json:"date"`
	PS   *Session `json:"ps,omitempty"`
	MT   *Session `json:"mt,omitempty"`
}

package models

import (
	"reflect"
	"testing"
)

func TestParseAnswerType(t *testing.T) {
	tests := []struct {
		raw      string
		expected AnswerType
	}{
		{"OK/NOK", AnswerPassFail},
		{" ok/nok ", AnswerPassFail},
		{"Vac", AnswerVoltageAC},
		{"VDC", AnswerVoltageDC},
		{"A", AnswerCurrent},
		{"%", AnswerPercentage},
		{"Jam", AnswerHours},
		{"", AnswerText},
		{"Text", AnswerText},
		{"kg", AnswerType("kg")},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseAnswerType(tt.raw); got != tt.expected {
				t.Errorf("ParseAnswerType(%q) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestAnswerType_Kinds(t *testing.T) {
	if !AnswerPassFail.IsPassFail() || AnswerPassFail.IsNumeric() {
		t.Error("OK/NOK should be pass/fail only")
	}
	for _, at := range []AnswerType{AnswerVoltageAC, AnswerVoltageDC, AnswerCurrent, AnswerPercentage, AnswerHours} {
		if !at.IsNumeric() || at.IsPassFail() {
			t.Errorf("%s should be numeric", at)
		}
	}
	if AnswerText.IsNumeric() || AnswerType("kg").IsNumeric() {
		t.Error("free text types should not be numeric")
	}
}

func TestTicketStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     TicketStatus
		to       TicketStatus
		expected bool
	}{
		{"open to in progress", TicketOpen, TicketInProgress, true},
		{"open to resolved", TicketOpen, TicketResolved, true},
		{"in progress to resolved", TicketInProgress, TicketResolved, true},
		{"same status", TicketInProgress, TicketInProgress, true},
		{"resolved to open", TicketResolved, TicketOpen, false},
		{"in progress to open", TicketInProgress, TicketOpen, false},
		{"unset to open", "", TicketOpen, true},
		{"unknown target", TicketOpen, "CLOSED", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.expected {
				t.Errorf("%s.CanTransition(%s) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestIsValidTicketStatus(t *testing.T) {
	for _, s := range []TicketStatus{TicketOpen, TicketInProgress, TicketResolved} {
		if !IsValidTicketStatus(s) {
			t.Errorf("IsValidTicketStatus(%s) = false", s)
		}
	}
	if IsValidTicketStatus("DONE") {
		t.Error("IsValidTicketStatus(DONE) = true")
	}
}

func TestRecord_Check(t *testing.T) {
	reason := "lamp off"
	blank := "  "
	value := "220.0"

	tests := []struct {
		name    string
		record  Record
		at      AnswerType
		wantErr bool
	}{
		{"ok pass/fail", Record{Status: ResponseOK}, AnswerPassFail, false},
		{"ok pass/fail with value", Record{Status: ResponseOK, Value: &value}, AnswerPassFail, true},
		{"ok numeric", Record{Status: ResponseOK, Value: &value}, AnswerVoltageAC, false},
		{"ok numeric without value", Record{Status: ResponseOK}, AnswerVoltageAC, true},
		{"nok with reason", Record{Status: ResponseNOK, Explanation: &reason}, AnswerPassFail, false},
		{"nok without reason", Record{Status: ResponseNOK}, AnswerPassFail, true},
		{"nok blank reason", Record{Status: ResponseNOK, Explanation: &blank}, AnswerPassFail, true},
		{"nok with value", Record{Status: ResponseNOK, Explanation: &reason, Value: &value}, AnswerPassFail, true},
		{"unknown status", Record{Status: "MAYBE"}, AnswerPassFail, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Check(tt.at)
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPhotosJoinSplit(t *testing.T) {
	paths := []string{"uploads/1_a.jpg", "uploads/1_b.jpg"}
	joined := JoinPhotos(paths)
	if joined != "uploads/1_a.jpg,uploads/1_b.jpg" {
		t.Errorf("JoinPhotos = %q", joined)
	}
	if got := SplitPhotos(joined); !reflect.DeepEqual(got, paths) {
		t.Errorf("SplitPhotos = %v", got)
	}
	if got := SplitPhotos(" , ,"); len(got) != 0 || got == nil {
		t.Errorf("SplitPhotos of blanks = %#v, want empty non-nil", got)
	}
}

func TestConversation_Clone(t *testing.T) {
	orig := &Conversation{ChatID: 1, Step: StepSessionPhoto, Photos: []string{"a.jpg"}}
	cp := orig.Clone()
	cp.Photos = append(cp.Photos, "b.jpg")
	cp.Photos[0] = "changed.jpg"
	cp.Step = StepSummary

	if orig.Step != StepSessionPhoto || len(orig.Photos) != 1 || orig.Photos[0] != "a.jpg" {
		t.Errorf("Clone shares state with original: %+v", orig)
	}
	var nilConv *Conversation
	if nilConv.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestShiftsAndCategories(t *testing.T) {
	if !IsValidShift(ShiftPS) || !IsValidShift(ShiftMT) || IsValidShift("XX") {
		t.Error("IsValidShift mismatch")
	}
	if !IsValidCategory("Network") || IsValidCategory("network") {
		t.Error("IsValidCategory mismatch")
	}
}

func TestStringPtr(t *testing.T) {
	if StringPtr("") != nil {
		t.Error("StringPtr(\"\") should be nil")
	}
	if p := StringPtr("x"); p == nil || *p != "x" {
		t.Error("StringPtr(\"x\") mismatch")
	}
}

// Package validation maps a checklist point's declared answer type to an
// accept/reject decision and a canonical stored value.
package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Djimarr/projek-maintenance/internal/models"
)

var (
	ErrChoiceOnly  = errors.New("answer must be given with the OK/NOK buttons")
	ErrNotNumeric  = errors.New("answer is not a number")
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")
	ErrEmptyAnswer = errors.New("answer is empty")
)

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Answer validates raw text against the declared answer type and returns the
// value to store.
func Answer(raw string, t models.AnswerType) (string, error) {
	switch {
	case t.IsPassFail():
		return "", ErrChoiceOnly
	case t.IsNumeric():
		return Number(raw)
	default:
		return raw, nil
	}
}

// Number accepts a decimal number, treating a comma as the decimal separator.
func Number(raw string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if normalized == "" {
		return "", ErrEmptyAnswer
	}
	if !decimalPattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return "", fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}
	return Canonical(v), nil
}

// Canonical renders v as its shortest decimal string with at least one
// fractional digit, e.g. 220 -> "220.0", 12.5 -> "12.5".
func Canonical(v float64) string {
	if v == 0 {
		v = 0 // drop negative zero
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// TaskDate parses a manually typed calendar date and returns it in
// YYYY-MM-DD form.
func TaskDate(raw string) (string, error) {
	d, err := time.Parse(models.TaskDateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidDate
	}
	return d.Format(models.TaskDateLayout), nil
}

package validator

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := period.ParseDate(dateStr)
	return date, err == nil
}

// IsValidPeriod accepts a YYYY-MM payroll period.
func IsValidPeriod(s string) (period.Period, bool) {
	p, err := period.Parse(s)
	return p, err == nil
}

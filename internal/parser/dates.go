package parser

import (
	"regexp"
	"time"
)

var (
	dateShapeRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	datetimeShapeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)
)

// ValidDate reports whether s is an exact YYYY-MM-DD date that exists on
// the calendar (leap years included).
func ValidDate(s string) bool {
	if !dateShapeRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ValidDatetime reports whether s is a strict ISO-8601 timestamp: date,
// 'T', time, optional fractional seconds, then 'Z' or a ±HH:MM offset.
// Any deviation fails.
func ValidDatetime(s string) bool {
	if !datetimeShapeRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

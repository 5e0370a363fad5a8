package services

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format of notes and orders
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(dateStr string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, dateStr)
	}
	return parsed, nil
}

// resolveDate returns the trimmed date, or today when it is empty
func resolveDate(date string, today func() string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return today(), nil
	}
	if _, err := ParseDate(date); err != nil {
		return "", err
	}
	return date, nil
}

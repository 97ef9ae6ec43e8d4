package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DayStart is the first bookable minute of the day (09:00).
	DayStart = 9 * 60
	// DayEnd is the end of the bookable window (20:00).
	DayEnd = 20 * 60
	// SlotStep is the granularity of the picker grid.
	SlotStep = 30
)

// MalformedTimeError reports a wall-clock value that is not a valid HH:MM time.
type MalformedTimeError struct {
	Value string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed time %q: expected HH:MM", e.Value)
}

// TimeToMinutes converts an "HH:MM" wall-clock string into minutes since midnight.
func TimeToMinutes(value string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, &MalformedTimeError{Value: value}
	}
	hour, err := parseDigits(hh)
	if err != nil || hour > 23 {
		return 0, &MalformedTimeError{Value: value}
	}
	minute, err := parseDigits(mm)
	if err != nil || minute > 59 {
		return 0, &MalformedTimeError{Value: value}
	}
	return hour*60 + minute, nil
}

// MinutesToTime renders minutes since midnight as zero-padded "HH:MM".
// Values of 1440 and above yield an hour of 24 or more; negative values yield "".
func MinutesToTime(minutes int) string {
	if minutes < 0 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeTime parses value and re-renders it in canonical zero-padded form.
func NormalizeTime(value string) (string, error) {
	minutes, err := TimeToMinutes(value)
	if err != nil {
		return "", err
	}
	return MinutesToTime(minutes), nil
}

// TimeSlots returns the bookable picker grid from DayStart to DayEnd inclusive.
func TimeSlots() []string {
	slots := make([]string, 0, (DayEnd-DayStart)/SlotStep+1)
	for m := DayStart; m <= DayEnd; m += SlotStep {
		slots = append(slots, MinutesToTime(m))
	}
	return slots
}

func parseDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

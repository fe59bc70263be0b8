package timer

import (
	"fmt"
	"time"
)

// DateTime is a wall-clock reading as provided by the real-time clock.
type DateTime struct {
	// Hour 0-23.
	Hour uint8
	// Minute 0-59.
	Minute uint8
	// Second 0-59.
	Second uint8
	// Day of month 1-31.
	Day uint8
	// Month 1-12.
	Month uint8
	// Year with century, e.g. 2026.
	Year uint16
	// Weekday index, 1 = Sunday ... 7 = Saturday.
	Weekday uint8
}

// DateTimeOf converts a time.Time into a DateTime using the standard weekday.
func DateTimeOf(t time.Time) DateTime {
	//nolint:gosec // All calendar fields fit their target types.
	return DateTime{
		Hour:    uint8(t.Hour()),
		Minute:  uint8(t.Minute()),
		Second:  uint8(t.Second()),
		Day:     uint8(t.Day()),
		Month:   uint8(t.Month()),
		Year:    uint16(t.Year()),
		Weekday: WeekdayIndex(t.Weekday()),
	}
}

// MinuteOfDay returns the reading as minutes since midnight.
func (d DateTime) MinuteOfDay() int {
	return int(d.Hour)*60 + int(d.Minute)
}

// String renders the reading as "YYYY-MM-DD HH:MM:SS (weekday N)".
func (d DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d (weekday %d)",
		d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, d.Weekday)
}

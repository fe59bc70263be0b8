package timer

import (
	"errors"
	"fmt"
	"time"
)

const (
	// MaxAlarms is the maximum number of alarms a configuration can hold.
	MaxAlarms = 40
	// AlarmEntrySize is the encoded size of one AlarmEntry.
	AlarmEntrySize = 4
	// MaxHour, MaxMinute and MaxDuration are the exclusive upper bounds of alarm fields.
	MaxHour     = 24
	MaxMinute   = 60
	MaxDuration = 100

	// flagEnabled is the bit marking an alarm as active.
	flagEnabled = 1 << 0
)

var (
	// ErrInvalidAlarm is returned when an alarm field is out of range.
	ErrInvalidAlarm = errors.New("invalid alarm")
	// ErrTooManyAlarms is returned when more than MaxAlarms entries are supplied.
	ErrTooManyAlarms = errors.New("too many alarms")
	// ErrMalformedAlarms is returned when encoded alarms are not a multiple of AlarmEntrySize.
	ErrMalformedAlarms = errors.New("malformed alarm list")
)

// AlarmEntry is a single scheduled actuation.
//
// Duration is read as a countdown length in countdown mode and as an on/off
// flag (0 = on) in toggle mode.
type AlarmEntry struct {
	// Hour of the alarm, 0-23.
	Hour uint8
	// Minute of the alarm, 0-59.
	Minute uint8
	// Duration is 0-99, see the type comment.
	Duration uint8
	// Flags holds the enabled bit (bit 0) and the weekday mask (bits 1-7).
	Flags uint8
}

// WeekdayBit returns the flag bit for weekday index 1 (Sunday) to 7 (Saturday).
// Index 1 maps to bit 7 and index 7 to bit 1. Other indexes yield 0.
func WeekdayBit(weekday uint8) uint8 {
	if weekday < 1 || weekday > 7 {
		return 0
	}

	return 1 << (8 - weekday)
}

// WeekdayIndex converts a time.Weekday into the 1-based index used by the clock.
func WeekdayIndex(day time.Weekday) uint8 {
	return uint8(day) + 1 //nolint:gosec // time.Weekday is 0-6.
}

// NewFlags builds a flags byte from the enabled state and the active days.
func NewFlags(enabled bool, days ...time.Weekday) uint8 {
	var flags uint8
	if enabled {
		flags |= flagEnabled
	}

	for _, day := range days {
		flags |= WeekdayBit(WeekdayIndex(day))
	}

	return flags
}

// Enabled reports whether the alarm is active.
func (a AlarmEntry) Enabled() bool {
	return a.Flags&flagEnabled != 0
}

// ActiveOn reports whether the alarm applies on the given weekday index.
func (a AlarmEntry) ActiveOn(weekday uint8) bool {
	return a.Flags&WeekdayBit(weekday) != 0
}

// Days returns the weekdays the alarm applies on, Sunday first.
func (a AlarmEntry) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)

	for day := time.Sunday; day <= time.Saturday; day++ {
		if a.ActiveOn(WeekdayIndex(day)) {
			days = append(days, day)
		}
	}

	return days
}

// Matches reports whether an enabled alarm fires at the given wall-clock reading.
func (a AlarmEntry) Matches(now DateTime) bool {
	return a.Enabled() &&
		a.ActiveOn(now.Weekday) &&
		a.Hour == now.Hour &&
		a.Minute == now.Minute
}

// MinuteOfDay returns the scheduled time as minutes since midnight.
func (a AlarmEntry) MinuteOfDay() int {
	return int(a.Hour)*60 + int(a.Minute)
}

// Validate checks field ranges. Flags are not validated, every bit pattern is legal.
func (a AlarmEntry) Validate() error {
	switch {
	case a.Hour >= MaxHour:
		return fmt.Errorf("hour %d: %w", a.Hour, ErrInvalidAlarm)
	case a.Minute >= MaxMinute:
		return fmt.Errorf("minute %d: %w", a.Minute, ErrInvalidAlarm)
	case a.Duration >= MaxDuration:
		return fmt.Errorf("duration %d: %w", a.Duration, ErrInvalidAlarm)
	}

	return nil
}

// String renders the alarm as "HH:MM +duration [flags]".
func (a AlarmEntry) String() string {
	return fmt.Sprintf("%02d:%02d +%d [%08b]", a.Hour, a.Minute, a.Duration, a.Flags)
}

// AppendAlarms appends the 4-byte encoding of every alarm to dst.
func AppendAlarms(dst []byte, alarms []AlarmEntry) []byte {
	for _, a := range alarms {
		dst = append(dst, a.Hour, a.Minute, a.Duration, a.Flags)
	}

	return dst
}

// EncodeAlarms returns exactly AlarmEntrySize*len(alarms) bytes.
func EncodeAlarms(alarms []AlarmEntry) []byte {
	return AppendAlarms(make([]byte, 0, len(alarms)*AlarmEntrySize), alarms)
}

// DecodeAlarms parses encoded alarms and validates every entry.
func DecodeAlarms(data []byte) ([]AlarmEntry, error) {
	if len(data)%AlarmEntrySize != 0 {
		return nil, fmt.Errorf("%d bytes: %w", len(data), ErrMalformedAlarms)
	}

	count := len(data) / AlarmEntrySize
	if count > MaxAlarms {
		return nil, fmt.Errorf("%d entries: %w", count, ErrTooManyAlarms)
	}

	alarms := make([]AlarmEntry, 0, count)

	for i := 0; i < len(data); i += AlarmEntrySize {
		entry := AlarmEntry{
			Hour:     data[i],
			Minute:   data[i+1],
			Duration: data[i+2],
			Flags:    data[i+3],
		}

		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i/AlarmEntrySize, err)
		}

		alarms = append(alarms, entry)
	}

	return alarms, nil
}

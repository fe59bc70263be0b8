package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestWeekdayBit verifies the reversed weekday mapping used on the wire.
func TestWeekdayBit(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint8(0b1000_0000), WeekdayBit(1))
	require.Equal(t, uint8(0b0100_0000), WeekdayBit(2))
	require.Equal(t, uint8(0b0000_0010), WeekdayBit(7))
	require.Zero(t, WeekdayBit(0))
	require.Zero(t, WeekdayBit(8))
}

// TestNewFlags checks flag construction from weekdays and the enabled bit.
func TestNewFlags(t *testing.T) {
	t.Parallel()

	flags := NewFlags(true, time.Sunday, time.Saturday)
	require.Equal(t, uint8(0b1000_0011), flags)

	entry := AlarmEntry{Flags: flags}
	require.True(t, entry.Enabled())
	require.True(t, entry.ActiveOn(1))
	require.True(t, entry.ActiveOn(7))
	require.False(t, entry.ActiveOn(2))
	require.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, entry.Days())

	require.Equal(t, uint8(0b0100_0000), NewFlags(false, time.Monday))
}

// TestAlarmEntryValidate covers the exclusive upper bounds of every field.
func TestAlarmEntryValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, AlarmEntry{Hour: 23, Minute: 59, Duration: 99, Flags: 0xFF}.Validate())
	require.ErrorIs(t, AlarmEntry{Hour: 24}.Validate(), ErrInvalidAlarm)
	require.ErrorIs(t, AlarmEntry{Minute: 60}.Validate(), ErrInvalidAlarm)
	require.ErrorIs(t, AlarmEntry{Duration: 100}.Validate(), ErrInvalidAlarm)
}

// TestAlarmEntryMatches checks the enabled, weekday, hour and minute conditions.
func TestAlarmEntryMatches(t *testing.T) {
	t.Parallel()

	entry := AlarmEntry{Hour: 8, Minute: 30, Flags: NewFlags(true, time.Monday)}
	monday := DateTime{Hour: 8, Minute: 30, Weekday: WeekdayIndex(time.Monday)}

	require.True(t, entry.Matches(monday))

	tuesday := monday
	tuesday.Weekday = WeekdayIndex(time.Tuesday)
	require.False(t, entry.Matches(tuesday))

	later := monday
	later.Minute = 31
	require.False(t, entry.Matches(later))

	disabled := entry
	disabled.Flags &^= 1
	require.False(t, disabled.Matches(monday))
}

// TestEncodeDecodeAlarms ensures the 4-byte layout and validation on decode.
func TestEncodeDecodeAlarms(t *testing.T) {
	t.Parallel()

	alarms := []AlarmEntry{
		{Hour: 8, Minute: 30, Duration: 5, Flags: 0xC3},
		{Hour: 23, Minute: 0, Duration: 0, Flags: 0x01},
	}

	data := EncodeAlarms(alarms)
	require.Equal(t, []byte{8, 30, 5, 0xC3, 23, 0, 0, 0x01}, data)

	decoded, err := DecodeAlarms(data)
	require.NoError(t, err)
	require.Equal(t, alarms, decoded)

	_, err = DecodeAlarms([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrMalformedAlarms)

	_, err = DecodeAlarms([]byte{24, 0, 0, 0})
	require.ErrorIs(t, err, ErrInvalidAlarm)

	_, err = DecodeAlarms(make([]byte, (MaxAlarms+1)*AlarmEntrySize))
	require.ErrorIs(t, err, ErrTooManyAlarms)
}

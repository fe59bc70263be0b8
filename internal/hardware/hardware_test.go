package hardware

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/opentimer/internal/domain/timer"
)

// newFrozenClock returns a clock stuck at the given instant.
func newFrozenClock(at time.Time) *SoftClock {
	c := NewSoftClock(19.5)
	c.now = func() time.Time { return at }

	return c
}

// TestSoftClock_Now reports system time with the calendar weekday.
func TestSoftClock_Now(t *testing.T) {
	t.Parallel()

	c := newFrozenClock(time.Date(2026, time.October, 15, 13, 37, 5, 0, time.UTC))

	require.Equal(t, timer.DateTime{
		Hour: 13, Minute: 37, Second: 5, Day: 15, Month: 10, Year: 2026,
		Weekday: timer.WeekdayIndex(time.Thursday),
	}, c.Now())
	require.InDelta(t, 19.5, c.Temperature(), 0)
}

// TestSoftClock_Setters shift the reported time without touching others.
func TestSoftClock_Setters(t *testing.T) {
	t.Parallel()

	c := newFrozenClock(time.Date(2026, time.January, 31, 13, 37, 5, 0, time.UTC))

	require.NoError(t, c.SetHour(6))
	require.NoError(t, c.SetMinute(7))
	require.NoError(t, c.SetSecond(8))
	require.NoError(t, c.SetYear(27))

	now := c.Now()
	require.Equal(t, uint8(6), now.Hour)
	require.Equal(t, uint8(7), now.Minute)
	require.Equal(t, uint8(8), now.Second)
	require.Equal(t, uint16(2027), now.Year)

	// February clamps the 31st.
	require.NoError(t, c.SetMonth(2))
	require.Equal(t, uint8(28), c.Now().Day)

	require.NoError(t, c.SetDay(14))
	require.Equal(t, uint8(14), c.Now().Day)
	require.Equal(t, uint8(2), c.Now().Month)

	require.ErrorIs(t, c.SetHour(24), ErrInvalidClockValue)
	require.ErrorIs(t, c.SetDay(0), ErrInvalidClockValue)
	require.ErrorIs(t, c.SetMonth(13), ErrInvalidClockValue)
	require.ErrorIs(t, c.SetDayOfWeek(8), ErrInvalidClockValue)
}

// TestSoftClock_WeekdayRegister is independent of the calendar and advances with it.
func TestSoftClock_WeekdayRegister(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.October, 15, 23, 59, 0, 0, time.UTC)
	c := NewSoftClock(0)
	c.now = func() time.Time { return at }

	require.NoError(t, c.SetDayOfWeek(1))
	require.Equal(t, uint8(1), c.Now().Weekday)

	// One day later the register has advanced by one.
	at = at.Add(24 * time.Hour)
	require.Equal(t, uint8(2), c.Now().Weekday)

	at = at.Add(6 * 24 * time.Hour)
	require.Equal(t, uint8(1), c.Now().Weekday)
}

// TestRelay_WritesTransitions writes the value file only on changes.
func TestRelay_WritesTransitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "value")
	r := NewRelay(path)

	r.SetOutput(ctx, false)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "0\n", string(data))

	r.SetOutput(ctx, true)
	require.True(t, r.On())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "1\n", string(data))

	// A repeated level leaves the file alone.
	require.NoError(t, os.Remove(path))
	r.SetOutput(ctx, true)
	require.NoFileExists(t, path)
}

// TestLogDisplay_Last remembers the most recent event.
func TestLogDisplay_Last(t *testing.T) {
	t.Parallel()

	d := NewLogDisplay(nil)

	_, ok := d.Last()
	require.False(t, ok)

	d.Notify(context.Background(), timer.Event{Kind: timer.EventUnknownOpcode, Code: 99})
	d.Notify(context.Background(), timer.Event{Kind: timer.EventTimeout})

	last, ok := d.Last()
	require.True(t, ok)
	require.Equal(t, timer.EventTimeout, last.Kind)
}

package hardware

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/opentimer/internal/domain/timer"
)

// ErrInvalidClockValue is returned by a setter given a value the register cannot hold.
var ErrInvalidClockValue = errors.New("invalid clock value")

// daysPerWeek is the length of the weekday cycle.
const daysPerWeek = 7

// SoftClock emulates a battery-backed RTC on top of the system clock.
//
// Setters shift an offset instead of touching the system time. The weekday is a
// separate register, as on the hardware, and advances with the date.
type SoftClock struct {
	// now reads the system time.
	now func() time.Time
	// temperature is reported by Temperature.
	temperature float64
	// mu protects the fields below.
	mu sync.Mutex
	// offset is added to the system time.
	offset time.Duration
	// weekdayShift is added to the calendar weekday.
	weekdayShift int
}

// NewSoftClock creates a clock running at system time.
func NewSoftClock(temperature float64) *SoftClock {
	return &SoftClock{
		now:         time.Now,
		temperature: temperature,
	}
}

// Now returns the current register values.
func (c *SoftClock) Now() timer.DateTime {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.read()
}

// Temperature returns the configured sensor reading in degrees Celsius.
func (c *SoftClock) Temperature() float64 {
	return c.temperature
}

// SetHour sets the hour register.
func (c *SoftClock) SetHour(v uint8) error {
	return c.adjust(v, 23, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), int(v), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	})
}

// SetMinute sets the minute register.
func (c *SoftClock) SetMinute(v uint8) error {
	return c.adjust(v, 59, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), int(v), t.Second(), t.Nanosecond(), t.Location())
	})
}

// SetSecond sets the second register.
func (c *SoftClock) SetSecond(v uint8) error {
	return c.adjust(v, 59, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), int(v), 0, t.Location())
	})
}

// SetDay sets the day of month, clamped to the length of the current month.
func (c *SoftClock) SetDay(v uint8) error {
	if v == 0 {
		return fmt.Errorf("day %d: %w", v, ErrInvalidClockValue)
	}

	return c.adjust(v, 31, func(t time.Time) time.Time {
		return withDate(t, t.Year(), t.Month(), int(v))
	})
}

// SetMonth sets the month, clamping the day to the length of the new month.
func (c *SoftClock) SetMonth(v uint8) error {
	if v == 0 {
		return fmt.Errorf("month %d: %w", v, ErrInvalidClockValue)
	}

	return c.adjust(v, 12, func(t time.Time) time.Time {
		return withDate(t, t.Year(), time.Month(v), t.Day())
	})
}

// SetYear sets the two-digit year of the 21st century.
func (c *SoftClock) SetYear(v uint8) error {
	return c.adjust(v, 99, func(t time.Time) time.Time {
		return withDate(t, 2000+int(v), t.Month(), t.Day())
	})
}

// SetDayOfWeek sets the weekday register, 1 being Sunday.
func (c *SoftClock) SetDayOfWeek(v uint8) error {
	if v < 1 || v > daysPerWeek {
		return fmt.Errorf("weekday %d: %w", v, ErrInvalidClockValue)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	calendar := int(timer.WeekdayIndex(c.now().Add(c.offset).Weekday()))
	c.weekdayShift = ((int(v)-calendar)%daysPerWeek + daysPerWeek) % daysPerWeek

	return nil
}

// adjust moves the offset so that the current time becomes set(current).
func (c *SoftClock) adjust(v, maxValue uint8, set func(time.Time) time.Time) error {
	if v > maxValue {
		return fmt.Errorf("%d exceeds %d: %w", v, maxValue, ErrInvalidClockValue)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	system := c.now()
	current := system.Add(c.offset)
	c.offset = set(current).Sub(system)

	return nil
}

// read returns the registers; the caller holds mu.
func (c *SoftClock) read() timer.DateTime {
	dt := timer.DateTimeOf(c.now().Add(c.offset))
	dt.Weekday = uint8((int(dt.Weekday)-1+c.weekdayShift)%daysPerWeek + 1) //nolint:gosec // 1..7.

	return dt
}

// withDate replaces the date of t, clamping day to the month length.
func withDate(t time.Time, year int, month time.Month, day int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, t.Location()).Day()

	return time.Date(year, month, min(day, lastDay), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

package schedule

import (
	"context"

	"github.com/oshokin/opentimer/internal/domain/timer"
	"github.com/oshokin/opentimer/internal/logger"
	"github.com/oshokin/opentimer/internal/metrics"
)

// noAlarm marks the absence of a triggered entry.
const noAlarm = -1

// Actuator drives the switched output.
type Actuator interface {
	SetOutput(ctx context.Context, on bool)
}

// Display receives fire-and-forget user notifications.
type Display interface {
	Notify(ctx context.Context, event timer.Event)
}

// Engine matches alarms against the clock and actuates the output.
//
// It reads the configuration without locking; callers invoke it from the
// goroutine that owns the configuration.
type Engine struct {
	// cfg is the live configuration.
	cfg *timer.Configuration
	// actuator receives output changes.
	actuator Actuator
	// display receives alarm notifications.
	display Display
	// recorder receives schedule metrics.
	recorder metrics.Recorder
	// lastMinute is the minute seen by the previous tick, or -1 before the first.
	lastMinute int
	// countdown is the remaining countdown in ticks.
	countdown uint8
	// triggered is the index of the last actuated entry.
	triggered int
}

// NewEngine creates an engine over cfg.
func NewEngine(cfg *timer.Configuration, actuator Actuator, display Display, recorder metrics.Recorder) *Engine {
	return &Engine{
		cfg:        cfg,
		actuator:   actuator,
		display:    display,
		recorder:   metrics.OrNoop(recorder),
		lastMinute: -1,
		triggered:  noAlarm,
	}
}

// Countdown returns the countdown register.
func (e *Engine) Countdown() uint8 {
	return e.countdown
}

// Triggered returns the index of the last actuated entry, or -1.
func (e *Engine) Triggered() int {
	return e.triggered
}

// Boot records the current minute and, in toggle mode, restores the output
// of the entry in effect at now.
func (e *Engine) Boot(ctx context.Context, now timer.DateTime) {
	e.lastMinute = int(now.Minute)
	e.recorder.SetArmed(e.cfg.Armed())

	if e.cfg.ProgramType != timer.ProgramToggle {
		return
	}

	index := inEffect(e.cfg.Alarms, now.MinuteOfDay())
	if index == noAlarm {
		return
	}

	entry := e.cfg.Alarms[index]
	if !entry.Enabled() {
		logger.DebugKV(ctx, "Entry in effect is disabled", "index", index, "alarm", entry)

		return
	}

	logger.InfoKV(ctx, "Restoring output of entry in effect", "index", index, "alarm", entry)

	e.triggered = index
	e.setOutput(ctx, entry.Duration == 0)
}

// Tick evaluates one time unit.
func (e *Engine) Tick(ctx context.Context, now timer.DateTime) {
	armed := e.cfg.Armed()
	e.recorder.SetArmed(armed)

	if int(now.Minute) != e.lastMinute {
		e.lastMinute = int(now.Minute)

		if armed {
			if index := firstMatch(e.cfg.Alarms, now); index != noAlarm {
				e.actuate(ctx, index)
			}
		}
	}

	if e.cfg.ProgramType != timer.ProgramCountdown {
		return
	}

	active := e.countdown > 0
	if active {
		e.countdown--
	}

	e.recorder.SetCountdown(int(e.countdown))
	e.setOutput(ctx, active)
}

// actuate applies the entry at index according to the program type.
func (e *Engine) actuate(ctx context.Context, index int) {
	entry := e.cfg.Alarms[index]

	logger.InfoKV(ctx, "Alarm triggered", "index", index, "alarm", entry, "program_type", e.cfg.ProgramType)

	e.triggered = index
	e.display.Notify(ctx, timer.Event{Kind: timer.EventAlarmTriggered, Code: index})
	e.recorder.IncAlarmTriggered()

	if e.cfg.ProgramType == timer.ProgramCountdown {
		e.countdown = entry.Duration

		return
	}

	e.setOutput(ctx, entry.Duration == 0)
}

// setOutput forwards the output level.
func (e *Engine) setOutput(ctx context.Context, on bool) {
	e.actuator.SetOutput(ctx, on)
	e.recorder.SetOutput(on)
}

// firstMatch returns the first entry in stored order that matches now.
// Later entries are not considered even if they also match.
func firstMatch(alarms []timer.AlarmEntry, now timer.DateTime) int {
	for i, a := range alarms {
		if a.Matches(now) {
			return i
		}
	}

	return noAlarm
}

// inEffect returns the entry before the first one scheduled after minutes,
// wrapping to the last entry. Entries are taken in stored order, not sorted.
func inEffect(alarms []timer.AlarmEntry, minutes int) int {
	if len(alarms) == 0 {
		return noAlarm
	}

	stop := len(alarms)

	for i, a := range alarms {
		if minutes < a.MinuteOfDay() {
			stop = i

			break
		}
	}

	if stop == 0 {
		return len(alarms) - 1
	}

	return stop - 1
}

package hardware

import (
	"context"
	"sync"

	"github.com/oshokin/opentimer/internal/domain/timer"
	"github.com/oshokin/opentimer/internal/logger"
	"github.com/oshokin/opentimer/internal/metrics"
)

// LogDisplay renders notifications as log lines.
type LogDisplay struct {
	// recorder counts events by kind.
	recorder metrics.Recorder
	// mu protects last.
	mu sync.Mutex
	// last is the most recent event.
	last *timer.Event
}

// NewLogDisplay creates a display reporting to recorder.
func NewLogDisplay(recorder metrics.Recorder) *LogDisplay {
	return &LogDisplay{
		recorder: metrics.OrNoop(recorder),
	}
}

// Notify logs the event.
func (d *LogDisplay) Notify(ctx context.Context, event timer.Event) {
	d.mu.Lock()
	d.last = &event
	d.mu.Unlock()

	d.recorder.IncDisplayEvent(event.Kind.String())

	switch event.Kind {
	case timer.EventUnknownOpcode:
		logger.WarnKV(ctx, "Display: unknown opcode", "opcode", event.Code)
	case timer.EventAlarmTriggered:
		logger.InfoKV(ctx, "Display: alarm triggered", "index", event.Code)
	case timer.EventBadRequest, timer.EventBufferOverflow, timer.EventError, timer.EventTimeout,
		timer.EventWrongPassword:
		logger.WarnKV(ctx, "Display: "+event.Kind.String())
	default:
		logger.InfoKV(ctx, "Display: "+event.Kind.String())
	}
}

// Last returns the most recent event.
func (d *LogDisplay) Last() (timer.Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.last == nil {
		return timer.Event{}, false
	}

	return *d.last, true
}

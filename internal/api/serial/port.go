package serial

import (
	"context"

	"github.com/oshokin/opentimer/internal/domain/timer"
)

// Port is the non-blocking byte stream the receiver polls.
type Port interface {
	// Buffered returns the number of bytes that can be read without blocking.
	Buffered() int
	// ReadByte removes one buffered byte.
	ReadByte() (byte, error)
	// Read removes up to len(p) buffered bytes without blocking.
	Read(p []byte) (int, error)
	// Discard drops all buffered input.
	Discard()
	// Write sends p to the peer.
	Write(p []byte) (int, error)
}

// Clock is the real-time clock read by getters and adjusted by setters.
type Clock interface {
	Now() timer.DateTime
	Temperature() float64
	SetHour(v uint8) error
	SetMinute(v uint8) error
	SetSecond(v uint8) error
	SetDayOfWeek(v uint8) error
	SetDay(v uint8) error
	SetMonth(v uint8) error
	SetYear(v uint8) error
}

// Display receives fire-and-forget user notifications.
type Display interface {
	Notify(ctx context.Context, event timer.Event)
}

// Settings persists configuration field groups.
type Settings interface {
	SaveAlarms(ctx context.Context, cfg *timer.Configuration) error
	ReloadAlarms(ctx context.Context, cfg *timer.Configuration) error
	SavePassword(ctx context.Context, cfg *timer.Configuration) error
	SaveDescription(ctx context.Context, cfg *timer.Configuration) error
	SaveAuthor(ctx context.Context, cfg *timer.Configuration) error
	SaveState(ctx context.Context, cfg *timer.Configuration) error
	SaveProgramType(ctx context.Context, cfg *timer.Configuration) error
}

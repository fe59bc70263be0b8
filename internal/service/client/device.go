package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/opentimer/internal/domain/timer"
	"github.com/oshokin/opentimer/internal/protocol"
)

// yearBase is added to the two-digit year reported by the device.
const yearBase = 2000

// ErrMissingField is returned when the response lacks an expected field.
var ErrMissingField = errors.New("response field missing")

// statusQuery lists the getters answered by Status.
//
//nolint:gochecknoglobals // Read-only request template.
var statusQuery = []protocol.Opcode{
	protocol.GetState,
	protocol.GetProgramType,
	protocol.GetHour,
	protocol.GetMinute,
	protocol.GetSecond,
	protocol.GetDayOfWeek,
	protocol.GetDay,
	protocol.GetMonth,
	protocol.GetYear,
	protocol.GetTemperature,
	protocol.GetDescription,
	protocol.GetAuthor,
}

// Status is a snapshot of the device.
type Status struct {
	// State is the raw armed register.
	State uint8
	// ProgramType selects countdown or toggle actuation.
	ProgramType timer.ProgramType
	// Clock is the device real-time clock reading.
	Clock timer.DateTime
	// Temperature in whole degrees Celsius.
	Temperature int8
	// Description of the loaded program.
	Description string
	// Author of the loaded program.
	Author string
}

// Armed reports whether the device evaluates alarms.
func (s Status) Armed() bool {
	return s.State != 0
}

// Status reads the device state, clock and program metadata.
func (s *Session) Status(ctx context.Context) (*Status, error) {
	fields, err := s.Exchange(ctx, protocol.NewRequest().Get(statusQuery...))
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	status := new(Status)

	for _, f := range fields {
		switch f.Opcode {
		case protocol.SetState:
			status.State = f.Byte()
		case protocol.SetProgramType:
			status.ProgramType = timer.ProgramType(f.Byte())
		case protocol.SetHour:
			status.Clock.Hour = f.Byte()
		case protocol.SetMinute:
			status.Clock.Minute = f.Byte()
		case protocol.SetSecond:
			status.Clock.Second = f.Byte()
		case protocol.SetDayOfWeek:
			status.Clock.Weekday = f.Byte()
		case protocol.SetDay:
			status.Clock.Day = f.Byte()
		case protocol.SetMonth:
			status.Clock.Month = f.Byte()
		case protocol.SetYear:
			status.Clock.Year = yearBase + uint16(f.Byte())
		case protocol.SetTemperature:
			status.Temperature = int8(f.Byte()) //nolint:gosec // Two's complement on the wire.
		case protocol.SetDescription:
			status.Description = string(f.Data)
		case protocol.SetAuthor:
			status.Author = string(f.Data)
		default:
		}
	}

	return status, nil
}

// Alarms reads the stored alarm list.
func (s *Session) Alarms(ctx context.Context) ([]timer.AlarmEntry, error) {
	fields, err := s.Exchange(ctx, protocol.NewRequest().Get(protocol.GetAlarms))
	if err != nil {
		return nil, fmt.Errorf("alarms: %w", err)
	}

	field, err := find(fields, protocol.SetAlarms)
	if err != nil {
		return nil, fmt.Errorf("alarms: %w", err)
	}

	return timer.DecodeAlarms(field.Data)
}

// SetArmed arms or disarms the device and returns the confirmed state.
func (s *Session) SetArmed(ctx context.Context, armed bool) (bool, error) {
	var state uint8
	if armed {
		state = 1
	}

	req := s.authenticate(protocol.PostPassword).
		SetByte(protocol.SetState, state).
		Get(protocol.GetState)

	fields, err := s.Exchange(ctx, req)
	if err != nil {
		return false, fmt.Errorf("set state: %w", err)
	}

	field, err := find(fields, protocol.SetState)
	if err != nil {
		return false, fmt.Errorf("set state: %w", err)
	}

	return field.Byte() != 0, nil
}

// SyncTime sets the device clock to t, second precision.
func (s *Session) SyncTime(ctx context.Context, t time.Time) error {
	now := timer.DateTimeOf(t)

	req := s.authenticate(protocol.PostPassword).
		SetByte(protocol.SetYear, uint8(now.Year%100)). //nolint:gosec // Bounded by modulo.
		SetByte(protocol.SetMonth, now.Month).
		SetByte(protocol.SetDay, now.Day).
		SetByte(protocol.SetDayOfWeek, now.Weekday).
		SetByte(protocol.SetHour, now.Hour).
		SetByte(protocol.SetMinute, now.Minute).
		SetByte(protocol.SetSecond, now.Second)

	if _, err := s.Exchange(ctx, req); err != nil {
		return fmt.Errorf("sync time: %w", err)
	}

	return nil
}

// ChangePassword replaces the device password. The session keeps using the new one.
func (s *Session) ChangePassword(ctx context.Context, newPassword string) error {
	digest := timer.HashPassword(newPassword)

	req := s.authenticate(protocol.PostPasswordChange).SetPassword(digest)

	if _, err := s.Exchange(ctx, req); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.password = digest

	return nil
}

// Upload replaces the program on the device.
//
// A full program does not fit one frame, so it is sent as two frames that
// authenticate separately: alarms with the program type, then the metadata.
func (s *Session) Upload(ctx context.Context, program *Program) error {
	schedule := s.authenticate(protocol.PostPasswordUpload).
		SetAlarms(program.Alarms).
		SetByte(protocol.SetProgramType, uint8(program.Type)).
		Get(protocol.GetProgramType)

	if _, err := s.Exchange(ctx, schedule); err != nil {
		return fmt.Errorf("upload alarms: %w", err)
	}

	metadata := s.authenticate(protocol.PostPasswordUpload).
		SetDescription([]byte(program.Description)).
		SetAuthor([]byte(program.Author)).
		Get(protocol.GetState)

	if _, err := s.Exchange(ctx, metadata); err != nil {
		return fmt.Errorf("upload metadata: %w", err)
	}

	return nil
}

// find returns the first field with opcode op.
func find(fields []protocol.Field, op protocol.Opcode) (protocol.Field, error) {
	for _, f := range fields {
		if f.Opcode == op {
			return f, nil
		}
	}

	return protocol.Field{}, fmt.Errorf("%s: %w", op, ErrMissingField)
}

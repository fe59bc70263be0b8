package serial

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/oshokin/opentimer/internal/domain/timer"
	"github.com/oshokin/opentimer/internal/logger"
	"github.com/oshokin/opentimer/internal/protocol"
)

// errOutOfRange is wrapped by bad requests carrying an invalid field value.
var errOutOfRange = errors.New("value out of range")

// clockField describes one RTC register.
type clockField struct {
	// get reads the register from a timestamp.
	get func(now timer.DateTime) uint8
	// set writes the register.
	set func(c Clock, v uint8) error
	// minValue and maxValue bound accepted values.
	minValue, maxValue uint8
}

// handlerTable builds the opcode table.
func (d *Dispatcher) handlerTable() map[protocol.Opcode]handler {
	table := map[protocol.Opcode]handler{
		protocol.Connected:          d.lifecycle(timer.EventConnected),
		protocol.Disconnected:       d.lifecycle(timer.EventDisconnected),
		protocol.GetAlarms:          d.getAlarms,
		protocol.GetDescription:     d.getDescription,
		protocol.GetAuthor:          d.getAuthor,
		protocol.GetTemperature:     d.getTemperature,
		protocol.GetState:           d.getState,
		protocol.GetProgramType:     d.getProgramType,
		protocol.SetPassword:        d.setPassword,
		protocol.SetAlarms:          d.setAlarms,
		protocol.SetDescription:     d.setDescription,
		protocol.SetAuthor:          d.setAuthor,
		protocol.SetTemperature:     d.setTemperature,
		protocol.SetState:           d.setState,
		protocol.SetProgramType:     d.setProgramType,
		protocol.PostPassword:       d.postPassword(protocol.PostPassword),
		protocol.PostPasswordChange: d.postPassword(protocol.PostPasswordChange),
		protocol.PostPasswordUpload: d.postPassword(protocol.PostPasswordUpload),
	}

	fields := map[protocol.Opcode]struct {
		getter protocol.Opcode
		field  clockField
	}{
		protocol.SetHour: {protocol.GetHour, clockField{
			get: func(n timer.DateTime) uint8 { return n.Hour },
			set: Clock.SetHour, maxValue: timer.MaxHour - 1,
		}},
		protocol.SetMinute: {protocol.GetMinute, clockField{
			get: func(n timer.DateTime) uint8 { return n.Minute },
			set: Clock.SetMinute, maxValue: timer.MaxMinute - 1,
		}},
		protocol.SetSecond: {protocol.GetSecond, clockField{
			get: func(n timer.DateTime) uint8 { return n.Second },
			set: Clock.SetSecond, maxValue: timer.MaxMinute - 1,
		}},
		protocol.SetDayOfWeek: {protocol.GetDayOfWeek, clockField{
			get: func(n timer.DateTime) uint8 { return n.Weekday },
			set: Clock.SetDayOfWeek, minValue: 1, maxValue: 7,
		}},
		protocol.SetDay: {protocol.GetDay, clockField{
			get: func(n timer.DateTime) uint8 { return n.Day },
			set: Clock.SetDay, minValue: 1, maxValue: 31,
		}},
		protocol.SetMonth: {protocol.GetMonth, clockField{
			get: func(n timer.DateTime) uint8 { return n.Month },
			set: Clock.SetMonth, minValue: 1, maxValue: 12,
		}},
		protocol.SetYear: {protocol.GetYear, clockField{
			get: func(n timer.DateTime) uint8 { return uint8(n.Year % 100) }, //nolint:gosec // Bounded by modulo.
			set: Clock.SetYear, maxValue: 99,
		}},
	}

	for setter, entry := range fields {
		table[entry.getter] = d.getClock(setter, entry.field)
		table[setter] = d.setClock(setter, entry.field)
	}

	return table
}

// lifecycle returns a handler that only notifies the display.
func (d *Dispatcher) lifecycle(kind timer.EventKind) handler {
	return func(ctx context.Context, _ *frame) error {
		d.display.Notify(ctx, timer.Event{Kind: kind})

		return nil
	}
}

func (d *Dispatcher) getAlarms(_ context.Context, f *frame) error {
	data := timer.EncodeAlarms(d.cfg.Alarms)

	return appendLengthPrefixed(f, protocol.SetAlarms, data)
}

func (d *Dispatcher) getDescription(_ context.Context, f *frame) error {
	return appendLengthPrefixed(f, protocol.SetDescription, d.cfg.Description)
}

func (d *Dispatcher) getAuthor(_ context.Context, f *frame) error {
	return appendLengthPrefixed(f, protocol.SetAuthor, d.cfg.Author)
}

func (d *Dispatcher) getTemperature(_ context.Context, f *frame) error {
	celsius := math.Round(d.clock.Temperature())
	celsius = max(math.MinInt8, min(math.MaxInt8, celsius))

	return f.response.AppendOpcode(protocol.SetTemperature, byte(int8(celsius)))
}

func (d *Dispatcher) getState(_ context.Context, f *frame) error {
	return f.response.AppendOpcode(protocol.SetState, d.cfg.State)
}

func (d *Dispatcher) getProgramType(_ context.Context, f *frame) error {
	return f.response.AppendOpcode(protocol.SetProgramType, byte(d.cfg.ProgramType))
}

// getClock answers an RTC getter with the matching setter opcode.
func (d *Dispatcher) getClock(setter protocol.Opcode, field clockField) handler {
	return func(_ context.Context, f *frame) error {
		return f.response.AppendOpcode(setter, field.get(d.clock.Now()))
	}
}

// setClock validates the value before the authorization check, as the hardware does.
func (d *Dispatcher) setClock(op protocol.Opcode, field clockField) handler {
	return func(ctx context.Context, f *frame) error {
		v, err := f.reader.ReadByte()
		if err != nil {
			return badRequest(op, err)
		}

		if v < field.minValue || v > field.maxValue {
			return badRequest(op, fmt.Errorf("%d: %w", v, errOutOfRange))
		}

		if !f.authorized {
			return nil
		}

		if err = field.set(d.clock, v); err != nil {
			return persistence(op, err)
		}

		logger.InfoKV(ctx, "Clock adjusted", "field", op, "value", v)

		return nil
	}
}

func (d *Dispatcher) setTemperature(_ context.Context, f *frame) error {
	if _, err := f.reader.ReadByte(); err != nil {
		return badRequest(protocol.SetTemperature, err)
	}

	return nil
}

func (d *Dispatcher) setState(ctx context.Context, f *frame) error {
	v, err := f.reader.ReadByte()
	if err != nil {
		return badRequest(protocol.SetState, err)
	}

	if !f.authorized {
		return nil
	}

	previous := d.cfg.State
	d.cfg.State = v

	if err = d.settings.SaveState(ctx, d.cfg); err != nil {
		d.cfg.State = previous

		return persistence(protocol.SetState, err)
	}

	logger.InfoKV(ctx, "State changed", "armed", d.cfg.Armed())

	return nil
}

func (d *Dispatcher) setProgramType(ctx context.Context, f *frame) error {
	v, err := f.reader.ReadByte()
	if err != nil {
		return badRequest(protocol.SetProgramType, err)
	}

	if !f.authorized {
		return nil
	}

	previous := d.cfg.ProgramType
	d.cfg.ProgramType = timer.ProgramType(v)

	if err = d.settings.SaveProgramType(ctx, d.cfg); err != nil {
		d.cfg.ProgramType = previous

		return persistence(protocol.SetProgramType, err)
	}

	logger.InfoKV(ctx, "Program type changed", "program_type", d.cfg.ProgramType)

	return nil
}

func (d *Dispatcher) setPassword(ctx context.Context, f *frame) error {
	digest, err := f.reader.Next(timer.PasswordLen)
	if err != nil {
		return badRequest(protocol.SetPassword, err)
	}

	if !f.authorized {
		return nil
	}

	previous := d.cfg.Password
	copy(d.cfg.Password[:], digest)

	if err = d.settings.SavePassword(ctx, d.cfg); err != nil {
		d.cfg.Password = previous

		return persistence(protocol.SetPassword, err)
	}

	logger.Info(ctx, "Password changed")

	return nil
}

func (d *Dispatcher) setAlarms(ctx context.Context, f *frame) error {
	data, err := readLengthPrefixed(f, protocol.SetAlarms, timer.MaxAlarms*timer.AlarmEntrySize)
	if err != nil {
		return err
	}

	if len(data)%timer.AlarmEntrySize != 0 {
		return badRequest(protocol.SetAlarms, fmt.Errorf("%d bytes: %w", len(data), timer.ErrMalformedAlarms))
	}

	if !f.authorized {
		return nil
	}

	snapshot := slices.Clone(d.cfg.Alarms)

	alarms, err := timer.DecodeAlarms(data)
	if err == nil {
		err = d.cfg.SetAlarms(alarms)
	}

	if err != nil {
		d.rollbackAlarms(ctx, snapshot)

		return badRequest(protocol.SetAlarms, err)
	}

	if err = d.settings.SaveAlarms(ctx, d.cfg); err != nil {
		d.cfg.Alarms = append(d.cfg.Alarms[:0], snapshot...)

		return persistence(protocol.SetAlarms, err)
	}

	logger.InfoKV(ctx, "Alarms replaced", "count", len(d.cfg.Alarms))

	return nil
}

// rollbackAlarms restores the alarm list from storage, or from snapshot if that fails.
func (d *Dispatcher) rollbackAlarms(ctx context.Context, snapshot []timer.AlarmEntry) {
	err := d.settings.ReloadAlarms(ctx, d.cfg)
	if err == nil {
		return
	}

	logger.WarnKV(ctx, "Failed to reload alarms, restoring snapshot", "error", err)

	d.cfg.Alarms = append(d.cfg.Alarms[:0], snapshot...)
}

func (d *Dispatcher) setDescription(ctx context.Context, f *frame) error {
	data, err := readLengthPrefixed(f, protocol.SetDescription, timer.MaxDescriptionLen)
	if err != nil {
		return err
	}

	if !f.authorized {
		return nil
	}

	previous := slices.Clone(d.cfg.Description)

	if err = d.cfg.SetDescription(data); err != nil {
		return badRequest(protocol.SetDescription, err)
	}

	if err = d.settings.SaveDescription(ctx, d.cfg); err != nil {
		d.cfg.Description = append(d.cfg.Description[:0], previous...)

		return persistence(protocol.SetDescription, err)
	}

	logger.InfoKV(ctx, "Description changed", "length", len(data))

	return nil
}

func (d *Dispatcher) setAuthor(ctx context.Context, f *frame) error {
	data, err := readLengthPrefixed(f, protocol.SetAuthor, timer.MaxAuthorLen)
	if err != nil {
		return err
	}

	if !f.authorized {
		return nil
	}

	previous := slices.Clone(d.cfg.Author)

	if err = d.cfg.SetAuthor(data); err != nil {
		return badRequest(protocol.SetAuthor, err)
	}

	if err = d.settings.SaveAuthor(ctx, d.cfg); err != nil {
		d.cfg.Author = append(d.cfg.Author[:0], previous...)

		return persistence(protocol.SetAuthor, err)
	}

	logger.InfoKV(ctx, "Author changed", "length", len(data))

	return nil
}

// postPassword returns the handler of one password presentation variant.
func (d *Dispatcher) postPassword(variant protocol.Opcode) handler {
	return func(ctx context.Context, f *frame) error {
		digest, err := f.reader.Next(timer.PasswordLen)
		if err != nil {
			return badRequest(variant, err)
		}

		correct := d.cfg.CheckPassword(digest)

		f.authorized = correct
		f.presented = true
		f.accepted = correct && variant == protocol.PostPassword

		d.recorder.IncPasswordCheck(correct)
		logger.DebugKV(ctx, "Password presented", "variant", variant, "correct", correct)

		return f.response.AppendOpcode(protocol.PostPasswordResponse, byte(protocol.PasswordResponseFor(variant, correct)))
	}
}

// readLengthPrefixed reads a declared length and that many bytes, bounded by maxLen.
func readLengthPrefixed(f *frame, op protocol.Opcode, maxLen int) ([]byte, error) {
	length, err := f.reader.ReadByte()
	if err != nil {
		return nil, badRequest(op, err)
	}

	if int(length) > f.reader.Remaining() {
		return nil, badRequest(op, fmt.Errorf("declared %d bytes, %d left: %w",
			length, f.reader.Remaining(), protocol.ErrShortPayload))
	}

	if int(length) > maxLen {
		return nil, badRequest(op, fmt.Errorf("declared %d bytes, limit %d: %w", length, maxLen, errOutOfRange))
	}

	data, err := f.reader.Next(int(length))
	if err != nil {
		return nil, badRequest(op, err)
	}

	return data, nil
}

// appendLengthPrefixed writes [op][len][data] to the response.
func appendLengthPrefixed(f *frame, op protocol.Opcode, data []byte) error {
	if err := f.response.AppendOpcode(op, byte(len(data))); err != nil {
		return err
	}

	return f.response.Append(data...)
}

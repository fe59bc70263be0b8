package protocol

import (
	"errors"
	"fmt"
)

// ErrUnexpectedOpcode is returned when a response contains an opcode the device never sends.
var ErrUnexpectedOpcode = errors.New("unexpected opcode in response")

// Field is one opcode group of a response payload.
type Field struct {
	// Opcode of the group.
	Opcode Opcode
	// Data holds the arguments, without the length byte for length-prefixed groups.
	Data []byte
}

// Byte returns the first argument byte, or 0 for argument-less groups.
func (f Field) Byte() byte {
	if len(f.Data) == 0 {
		return 0
	}

	return f.Data[0]
}

// DecodeResponse splits a response payload into fields.
func DecodeResponse(payload []byte) ([]Field, error) {
	var (
		reader = NewPayloadReader(payload)
		fields []Field
	)

	for reader.Remaining() > 0 {
		code, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}

		op := Opcode(code)

		var data []byte

		switch op {
		case SetAlarms, SetDescription, SetAuthor:
			length, err := reader.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("%s length: %w", op, err)
			}

			data, err = reader.Next(int(length))
			if err != nil {
				return nil, fmt.Errorf("%s data: %w", op, err)
			}
		case SetHour, SetMinute, SetSecond, SetDayOfWeek, SetDay, SetMonth, SetYear,
			SetTemperature, SetState, SetProgramType, PostPasswordResponse:
			data, err = reader.Next(1)
			if err != nil {
				return nil, fmt.Errorf("%s argument: %w", op, err)
			}
		case BufferOverflow, BadRequest, Timeout, Error:
		default:
			return nil, fmt.Errorf("%s: %w", op, ErrUnexpectedOpcode)
		}

		fields = append(fields, Field{Opcode: op, Data: data})
	}

	return fields, nil
}

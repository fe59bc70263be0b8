package protocol

import (
	"fmt"

	"github.com/oshokin/opentimer/internal/domain/timer"
)

// Request builds a request payload for the device.
// Builder methods record the first error and turn later calls into no-ops.
type Request struct {
	// payload accumulates opcode groups.
	payload []byte
	// err is the first construction error.
	err error
}

// NewRequest returns an empty request.
func NewRequest() *Request {
	return &Request{
		payload: make([]byte, 0, MaxPayload),
	}
}

// Get appends argument-less opcodes such as GetState or Connected.
func (r *Request) Get(ops ...Opcode) *Request {
	for _, op := range ops {
		r.append(byte(op))
	}

	return r
}

// Authenticate appends a password presentation.
// variant must be PostPassword, PostPasswordChange or PostPasswordUpload.
func (r *Request) Authenticate(variant Opcode, digest timer.Digest) *Request {
	switch variant {
	case PostPassword, PostPasswordChange, PostPasswordUpload:
	default:
		r.fail(fmt.Errorf("opcode %s is not a password presentation", variant))
		return r
	}

	r.append(byte(variant))
	r.append(digest[:]...)

	return r
}

// SetByte appends a single-argument setter such as SetState or SetHour.
func (r *Request) SetByte(op Opcode, value uint8) *Request {
	r.append(byte(op), value)

	return r
}

// SetPassword appends a new password digest.
func (r *Request) SetPassword(digest timer.Digest) *Request {
	r.append(byte(SetPassword))
	r.append(digest[:]...)

	return r
}

// SetAlarms appends the whole alarm list.
func (r *Request) SetAlarms(alarms []timer.AlarmEntry) *Request {
	if len(alarms) > timer.MaxAlarms {
		r.fail(fmt.Errorf("%d alarms: %w", len(alarms), timer.ErrTooManyAlarms))
		return r
	}

	r.append(byte(SetAlarms), byte(len(alarms)*timer.AlarmEntrySize))
	r.append(timer.EncodeAlarms(alarms)...)

	return r
}

// SetDescription appends a description.
func (r *Request) SetDescription(description []byte) *Request {
	return r.setString(SetDescription, description, timer.MaxDescriptionLen)
}

// SetAuthor appends an author.
func (r *Request) SetAuthor(author []byte) *Request {
	return r.setString(SetAuthor, author, timer.MaxAuthorLen)
}

// Len returns the current payload length.
func (r *Request) Len() int {
	return len(r.payload)
}

// Frame returns the encoded frame or the first construction error.
func (r *Request) Frame() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	return EncodeFrame(r.payload)
}

// setString appends a length-prefixed string argument.
func (r *Request) setString(op Opcode, value []byte, maxLen int) *Request {
	if len(value) > maxLen {
		r.fail(fmt.Errorf("%s argument of %d bytes exceeds %d", op, len(value), maxLen))
		return r
	}

	r.append(byte(op), byte(len(value)))
	r.append(value...)

	return r
}

// append adds bytes unless an error was recorded.
func (r *Request) append(values ...byte) {
	if r.err != nil {
		return
	}

	r.payload = append(r.payload, values...)
}

// fail records the first error.
func (r *Request) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

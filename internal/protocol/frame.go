package protocol

import (
	"errors"
	"fmt"
)

const (
	// MaxPayload is the largest payload a single length byte can declare.
	MaxPayload = 255
	// ResponseCapacity is the size of the response buffer including its length byte.
	ResponseCapacity = 200
)

var (
	// ErrShortPayload is returned when a frame ends before the requested bytes.
	ErrShortPayload = errors.New("payload exhausted")
	// ErrBufferOverflow is returned when a response would exceed its capacity.
	ErrBufferOverflow = errors.New("response buffer overflow")
	// ErrFrameTooLarge is returned when a payload does not fit one length byte.
	ErrFrameTooLarge = errors.New("frame too large")
)

// EncodeFrame prefixes payload with its length.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%d bytes: %w", len(payload), ErrFrameTooLarge)
	}

	frame := make([]byte, 0, len(payload)+1)
	frame = append(frame, byte(len(payload)))

	return append(frame, payload...), nil
}

// Notification returns the single-opcode frame used for error notifications.
func Notification(op Opcode) []byte {
	return []byte{1, byte(op)}
}

// ResponseBuffer accumulates a response payload behind a reserved length byte.
type ResponseBuffer struct {
	// buf holds the length byte followed by the payload.
	buf []byte
	// capacity bounds len(buf).
	capacity int
}

// NewResponseBuffer creates a buffer holding at most capacity bytes, length byte included.
func NewResponseBuffer(capacity int) *ResponseBuffer {
	if capacity < 1 || capacity > MaxPayload+1 {
		capacity = ResponseCapacity
	}

	buf := make([]byte, 1, capacity)

	return &ResponseBuffer{
		buf:      buf,
		capacity: capacity,
	}
}

// Append adds bytes one by one, stopping with ErrBufferOverflow at capacity.
func (b *ResponseBuffer) Append(values ...byte) error {
	for _, v := range values {
		if len(b.buf) >= b.capacity {
			return ErrBufferOverflow
		}

		b.buf = append(b.buf, v)
	}

	return nil
}

// AppendOpcode adds an opcode followed by its arguments.
func (b *ResponseBuffer) AppendOpcode(op Opcode, args ...byte) error {
	if err := b.Append(byte(op)); err != nil {
		return err
	}

	return b.Append(args...)
}

// Len returns the payload length.
func (b *ResponseBuffer) Len() int {
	return len(b.buf) - 1
}

// Frame fills in the length byte and returns the frame, or nil for an empty payload.
func (b *ResponseBuffer) Frame() []byte {
	if b.Len() == 0 {
		return nil
	}

	b.buf[0] = byte(b.Len())

	return b.buf
}

// PayloadReader is a forward-only cursor over a frame payload.
type PayloadReader struct {
	// data is the payload.
	data []byte
	// pos is the index of the next unread byte.
	pos int
}

// NewPayloadReader returns a cursor at the start of payload.
func NewPayloadReader(payload []byte) *PayloadReader {
	return &PayloadReader{data: payload}
}

// Remaining returns the number of unread bytes.
func (r *PayloadReader) Remaining() int {
	return len(r.data) - r.pos
}

// Consumed returns the number of bytes read so far.
func (r *PayloadReader) Consumed() int {
	return r.pos
}

// ReadByte returns the next byte.
func (r *PayloadReader) ReadByte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, ErrShortPayload
	}

	v := r.data[r.pos]
	r.pos++

	return v, nil
}

// Next returns the next n bytes without copying.
func (r *PayloadReader) Next(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrShortPayload
	}

	v := r.data[r.pos : r.pos+n]
	r.pos += n

	return v, nil
}

// Skip discards the next n bytes.
func (r *PayloadReader) Skip(n int) error {
	_, err := r.Next(n)

	return err
}

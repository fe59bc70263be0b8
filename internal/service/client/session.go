package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oshokin/opentimer/internal/config"
	"github.com/oshokin/opentimer/internal/domain/timer"
	"github.com/oshokin/opentimer/internal/logger"
	"github.com/oshokin/opentimer/internal/protocol"
	"github.com/oshokin/opentimer/internal/transport"
)

var (
	// ErrRejected is returned when the device answers BAD_REQUEST.
	ErrRejected = errors.New("device rejected the request")
	// ErrOverflow is returned when the response did not fit the device buffer.
	ErrOverflow = errors.New("device response buffer overflow")
	// ErrDeviceFailure is returned when the device failed to persist a change.
	ErrDeviceFailure = errors.New("device failed to store the change")
	// ErrDeviceTimeout is returned when the device gave up waiting for the frame.
	ErrDeviceTimeout = errors.New("device timed out waiting for the frame")
	// ErrWrongPassword is returned when the device refused the presented password.
	ErrWrongPassword = errors.New("wrong password")
	// ErrConnectionClosed is returned when the connection ends before a full response.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrEmptyFrame is returned for a response frame declaring no payload.
	ErrEmptyFrame = errors.New("empty response frame")
)

// notificationErrors maps error notifications to the errors returned for them.
//
//nolint:gochecknoglobals // Read-only lookup table.
var notificationErrors = map[protocol.Opcode]error{
	protocol.BadRequest:     ErrRejected,
	protocol.BufferOverflow: ErrOverflow,
	protocol.Error:          ErrDeviceFailure,
	protocol.Timeout:        ErrDeviceTimeout,
}

// Session exchanges frames with one device.
type Session struct {
	// link buffers the device output.
	link *transport.Link
	// ready is signalled whenever the link received bytes.
	ready chan struct{}
	// password is the digest presented by authenticated requests.
	password timer.Digest
	// timeout bounds each exchange.
	timeout time.Duration
}

// Option configures a Session.
type Option func(*Session)

// WithPassword sets the clear-text password presented to the device.
func WithPassword(password string) Option {
	return func(s *Session) {
		s.password = timer.HashPassword(password)
	}
}

// WithTimeout bounds every exchange. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// NewSession starts a session over an open connection.
func NewSession(ctx context.Context, conn io.ReadWriteCloser, opts ...Option) *Session {
	s := &Session{
		ready:    make(chan struct{}, 1),
		password: timer.DefaultPasswordDigest,
		timeout:  config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.link = transport.NewLink(ctx, conn, s.signal)

	return s
}

// Open dials the device described by transportOpts and starts a session.
func Open(ctx context.Context, transportOpts transport.Options, opts ...Option) (*Session, error) {
	conn, err := transport.Dial(ctx, transportOpts)
	if err != nil {
		return nil, err
	}

	return NewSession(ctx, conn, opts...), nil
}

// Close ends the session.
func (s *Session) Close() error {
	return s.link.Close()
}

// Exchange sends req and returns the decoded response.
// Error notifications and refused passwords are returned as errors.
func (s *Session) Exchange(ctx context.Context, req *protocol.Request) ([]protocol.Field, error) {
	frame, err := req.Frame()
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Anything still buffered belongs to an earlier exchange.
	s.link.Discard()

	if _, err = s.link.Write(frame); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	logger.DebugKV(ctx, "Request sent", "bytes", len(frame))

	payload, err := s.readFrame(ctx)
	if err != nil {
		return nil, err
	}

	fields, err := protocol.DecodeResponse(payload)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if err = checkResponse(fields); err != nil {
		return nil, err
	}

	return fields, nil
}

// readFrame waits for one complete response frame and returns its payload.
func (s *Session) readFrame(ctx context.Context) ([]byte, error) {
	if err := s.await(ctx, 1); err != nil {
		return nil, err
	}

	size, err := s.link.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read frame size: %w", err)
	}

	if size == 0 {
		return nil, ErrEmptyFrame
	}

	if err = s.await(ctx, int(size)); err != nil {
		return nil, err
	}

	payload := make([]byte, size)
	if _, err = s.link.Read(payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}

	return payload, nil
}

// await blocks until at least n bytes are buffered.
func (s *Session) await(ctx context.Context, n int) error {
	for s.link.Buffered() < n {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for response: %w", ctx.Err())
		case <-s.link.Done():
			if s.link.Buffered() >= n {
				return nil
			}

			return fmt.Errorf("%w: %w", ErrConnectionClosed, s.link.Err())
		case <-s.ready:
		}
	}

	return nil
}

// signal wakes a waiting exchange without blocking the link pump.
func (s *Session) signal() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// authenticate starts a request with the session password.
func (s *Session) authenticate(variant protocol.Opcode) *protocol.Request {
	return protocol.NewRequest().Authenticate(variant, s.password)
}

// checkResponse turns notifications and refused passwords into errors.
func checkResponse(fields []protocol.Field) error {
	for _, f := range fields {
		if err, ok := notificationErrors[f.Opcode]; ok {
			return err
		}

		if f.Opcode == protocol.PostPasswordResponse &&
			protocol.PasswordResponse(f.Byte()) == protocol.PasswordIncorrect {
			return ErrWrongPassword
		}
	}

	return nil
}

package serial

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/opentimer/internal/domain/timer"
	"github.com/oshokin/opentimer/internal/logger"
	"github.com/oshokin/opentimer/internal/metrics"
	"github.com/oshokin/opentimer/internal/protocol"
)

// Outcome is the result class of one dispatched frame.
type Outcome uint8

const (
	// OutcomeApplied means every opcode group was decoded.
	OutcomeApplied Outcome = iota
	// OutcomeBadRequest means a group was truncated or out of range.
	OutcomeBadRequest
	// OutcomeCapacityError means the response did not fit the output buffer.
	OutcomeCapacityError
	// OutcomePersistenceError means a store write failed.
	OutcomePersistenceError
)

// String returns a short name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeBadRequest:
		return "bad_request"
	case OutcomeCapacityError:
		return "capacity_error"
	case OutcomePersistenceError:
		return "persistence_error"
	default:
		return fmt.Sprintf("outcome-%d", uint8(o))
	}
}

var (
	// ErrBadRequest marks a malformed or out-of-range opcode group.
	ErrBadRequest = errors.New("bad request")
	// ErrPersistence marks a failed write of an accepted change.
	ErrPersistence = errors.New("persistence failure")
)

// Result describes one dispatched frame.
type Result struct {
	// Outcome is the result class.
	Outcome Outcome
	// Response is the full response frame, length byte included, or nil.
	Response []byte
	// Consumed is the number of payload bytes decoded before the frame ended or aborted.
	Consumed int
	// Authorized is the authorization flag at the end of the frame.
	Authorized bool
}

// handler decodes the arguments of one opcode group.
type handler func(ctx context.Context, f *frame) error

// frame is the per-invocation decode state.
type frame struct {
	// reader walks the payload.
	reader *protocol.PayloadReader
	// response accumulates the answer.
	response *protocol.ResponseBuffer
	// authorized permits mutating opcodes; it never outlives the frame.
	authorized bool
	// presented is set once any password was presented.
	presented bool
	// accepted is set when a plain password presentation matched.
	accepted bool
}

// Dispatcher decodes request payloads against the configuration.
//
// It is not safe for concurrent use; the configuration is owned by the caller's goroutine.
type Dispatcher struct {
	// cfg is the live configuration.
	cfg *timer.Configuration
	// settings persists accepted changes.
	settings Settings
	// clock serves the RTC opcodes.
	clock Clock
	// display receives user notifications.
	display Display
	// recorder receives metrics.
	recorder metrics.Recorder
	// handlers maps opcodes to their decoders.
	handlers map[protocol.Opcode]handler
}

// NewDispatcher creates a dispatcher over cfg.
func NewDispatcher(
	cfg *timer.Configuration,
	settings Settings,
	clock Clock,
	display Display,
	recorder metrics.Recorder,
) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		settings: settings,
		clock:    clock,
		display:  display,
		recorder: metrics.OrNoop(recorder),
	}

	d.handlers = d.handlerTable()

	return d
}

// Dispatch decodes payload and returns the response to send.
func (d *Dispatcher) Dispatch(ctx context.Context, payload []byte) Result {
	started := time.Now()
	defer func() {
		d.recorder.ObserveDispatchDuration(time.Since(started))
	}()

	f := &frame{
		reader:   protocol.NewPayloadReader(payload),
		response: protocol.NewResponseBuffer(protocol.ResponseCapacity),
	}

	for f.reader.Remaining() > 0 {
		code, _ := f.reader.ReadByte()

		op := protocol.Opcode(code)

		h, ok := d.handlers[op]
		if !ok {
			logger.DebugKV(ctx, "Unknown opcode ignored", "opcode", op)
			d.display.Notify(ctx, timer.Event{Kind: timer.EventUnknownOpcode, Code: int(code)})

			continue
		}

		if err := h(ctx, f); err != nil {
			return d.abort(ctx, f, op, err)
		}
	}

	d.notifyPassword(ctx, f)
	d.recorder.IncFrame(metrics.FrameApplied)

	return Result{
		Outcome:    OutcomeApplied,
		Response:   f.response.Frame(),
		Consumed:   f.reader.Consumed(),
		Authorized: f.authorized,
	}
}

// abort replaces the response with the notification matching err.
func (d *Dispatcher) abort(ctx context.Context, f *frame, op protocol.Opcode, err error) Result {
	var (
		outcome      Outcome
		notification protocol.Opcode
		event        timer.EventKind
		frameOutcome metrics.FrameOutcome
	)

	switch {
	case errors.Is(err, protocol.ErrBufferOverflow):
		outcome, notification, event, frameOutcome = OutcomeCapacityError, protocol.BufferOverflow,
			timer.EventBufferOverflow, metrics.FrameOverflow
	case errors.Is(err, ErrPersistence):
		outcome, notification, event, frameOutcome = OutcomePersistenceError, protocol.Error,
			timer.EventError, metrics.FramePersistenceError
	default:
		outcome, notification, event, frameOutcome = OutcomeBadRequest, protocol.BadRequest,
			timer.EventBadRequest, metrics.FrameBadRequest
	}

	logger.WarnKV(ctx, "Frame aborted", "opcode", op, "outcome", outcome, "error", err)

	d.notifyPassword(ctx, f)
	d.display.Notify(ctx, timer.Event{Kind: event})
	d.recorder.IncFrame(frameOutcome)

	return Result{
		Outcome:    outcome,
		Response:   protocol.Notification(notification),
		Consumed:   f.reader.Consumed(),
		Authorized: f.authorized,
	}
}

// notifyPassword reports the password result of the frame on the display.
func (d *Dispatcher) notifyPassword(ctx context.Context, f *frame) {
	switch {
	case !f.presented:
	case !f.authorized:
		d.display.Notify(ctx, timer.Event{Kind: timer.EventWrongPassword})
	case f.accepted:
		d.display.Notify(ctx, timer.Event{Kind: timer.EventPasswordAccepted})
	}
}

// badRequest wraps err as a protocol error.
func badRequest(op protocol.Opcode, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err)
}

// persistence wraps err as a persistence error.
func persistence(op protocol.Opcode, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

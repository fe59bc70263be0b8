package serial

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/oshokin/opentimer/internal/domain/timer"
	"github.com/oshokin/opentimer/internal/logger"
	"github.com/oshokin/opentimer/internal/metrics"
	"github.com/oshokin/opentimer/internal/protocol"
)

// State is the receiver's frame accumulation state.
type State uint8

const (
	// StateIdle waits for a size byte.
	StateIdle State = iota
	// StateAccumulating waits for the declared payload.
	StateAccumulating
	// StateComplete holds a full payload ready for dispatch.
	StateComplete
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state-%d", uint8(s))
	}
}

// FrameHandler turns a request payload into a result.
type FrameHandler interface {
	Dispatch(ctx context.Context, payload []byte) Result
}

// Receiver splits the port's byte stream into frames.
//
// Poll never blocks: an incomplete frame stays buffered in the port until a
// later poll finds all declared bytes or the watchdog expires.
type Receiver struct {
	// port is the byte stream.
	port Port
	// watchdog bounds the time a frame may stay incomplete.
	watchdog *Watchdog
	// handler decodes complete payloads.
	handler FrameHandler
	// display receives timeout notifications.
	display Display
	// recorder receives timeout metrics.
	recorder metrics.Recorder
	// mu serializes polling with watchdog expiry.
	mu sync.Mutex
	// state is the accumulation state.
	state State
	// expected is the declared payload size of the current frame.
	expected int
	// sequence numbers frames so a late expiry can be recognized.
	sequence uint64
	// frameCtx carries the current frame's logger.
	frameCtx context.Context //nolint:containedctx // Scoped to a single frame.
}

// NewReceiver creates a receiver reading from port.
func NewReceiver(port Port, watchdog *Watchdog, handler FrameHandler, display Display, recorder metrics.Recorder) *Receiver {
	return &Receiver{
		port:     port,
		watchdog: watchdog,
		handler:  handler,
		display:  display,
		recorder: metrics.OrNoop(recorder),
		state:    StateIdle,
	}
}

// State returns the current accumulation state.
func (r *Receiver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// Poll processes every complete frame buffered in the port.
// It returns only write errors; the receiver is back in Idle when it does.
func (r *Receiver) Poll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		switch r.state {
		case StateIdle:
			if r.port.Buffered() == 0 {
				return nil
			}

			size, err := r.port.ReadByte()
			if err != nil {
				return nil //nolint:nilerr // Nothing buffered after all.
			}

			r.begin(ctx, size)
		case StateAccumulating:
			if r.port.Buffered() < r.expected {
				return nil
			}

			r.watchdog.Disarm()
			r.state = StateComplete
		case StateComplete:
			err := r.complete()

			r.state = StateIdle
			r.frameCtx = nil

			if err != nil {
				return err
			}
		}
	}
}

// begin starts a frame of size payload bytes and arms the watchdog.
func (r *Receiver) begin(ctx context.Context, size byte) {
	r.sequence++
	r.expected = int(size)
	r.state = StateAccumulating
	r.frameCtx = logger.WithKV(ctx, "frame_id", uuid.NewString())

	sequence, frameCtx := r.sequence, r.frameCtx

	r.watchdog.Arm(func() {
		r.expire(frameCtx, sequence)
	})

	logger.DebugKV(r.frameCtx, "Frame started", "size", size)
}

// complete reads the payload, dispatches it and writes the response.
func (r *Receiver) complete() error {
	ctx := r.frameCtx

	payload := make([]byte, r.expected)
	for read := 0; read < len(payload); {
		n, err := r.port.Read(payload[read:])
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}

		if n == 0 {
			return fmt.Errorf("read payload: %w", io.ErrUnexpectedEOF)
		}

		read += n
	}

	result := r.handler.Dispatch(ctx, payload)

	logger.DebugKV(ctx, "Frame dispatched",
		"outcome", result.Outcome,
		"consumed", result.Consumed,
		"authorized", result.Authorized,
		"response_size", len(result.Response))

	if len(result.Response) == 0 {
		return nil
	}

	if _, err := r.port.Write(result.Response); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

// expire resets an incomplete frame identified by sequence.
func (r *Receiver) expire(ctx context.Context, sequence uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sequence != sequence || r.state != StateAccumulating {
		return
	}

	logger.WarnKV(ctx, "Frame timed out", "expected", r.expected, "buffered", r.port.Buffered())

	r.port.Discard()
	r.state = StateIdle
	r.frameCtx = nil

	if _, err := r.port.Write(protocol.Notification(protocol.Timeout)); err != nil {
		logger.ErrorKV(ctx, "Failed to send timeout notification", "error", err)
	}

	r.display.Notify(ctx, timer.Event{Kind: timer.EventTimeout})
	r.recorder.IncFrame(metrics.FrameTimeout)
}

package transport

import (
	"context"
	"io"
	"sync"

	"github.com/oshokin/opentimer/internal/logger"
)

// Endpoint is a pollable port whose connection can be replaced.
type Endpoint struct {
	// ready receives a token whenever there may be something to poll.
	ready chan struct{}
	// mu protects link.
	mu sync.Mutex
	// link is the current connection, if any.
	link *Link
}

// NewEndpoint creates an endpoint without a connection.
func NewEndpoint() *Endpoint {
	return &Endpoint{
		ready: make(chan struct{}, 1),
	}
}

// Attach replaces the current connection with conn and returns its link.
func (e *Endpoint) Attach(ctx context.Context, conn io.ReadWriteCloser) *Link {
	link := NewLink(ctx, conn, e.signal)

	e.mu.Lock()
	previous := e.link
	e.link = link
	e.mu.Unlock()

	if previous != nil {
		logger.Info(ctx, "Replacing previous connection")

		if err := previous.Close(); err != nil {
			logger.DebugKV(ctx, "Failed to close previous connection", "error", err)
		}
	}

	return link
}

// Detach closes link if it is still the current connection.
func (e *Endpoint) Detach(link *Link) error {
	e.mu.Lock()
	if e.link != link {
		e.mu.Unlock()

		return nil
	}

	e.link = nil
	e.mu.Unlock()

	return link.Close()
}

// Ready signals that bytes arrived or a connection changed.
func (e *Endpoint) Ready() <-chan struct{} {
	return e.ready
}

// Buffered returns the number of unread bytes of the current connection.
func (e *Endpoint) Buffered() int {
	if link := e.current(); link != nil {
		return link.Buffered()
	}

	return 0
}

// ReadByte removes one buffered byte.
func (e *Endpoint) ReadByte() (byte, error) {
	if link := e.current(); link != nil {
		return link.ReadByte()
	}

	return 0, ErrEmpty
}

// Read removes up to len(p) buffered bytes without blocking.
func (e *Endpoint) Read(p []byte) (int, error) {
	if link := e.current(); link != nil {
		return link.Read(p)
	}

	return 0, nil
}

// Discard drops every buffered byte.
func (e *Endpoint) Discard() {
	if link := e.current(); link != nil {
		link.Discard()
	}
}

// Write sends p on the current connection.
func (e *Endpoint) Write(p []byte) (int, error) {
	if link := e.current(); link != nil {
		return link.Write(p)
	}

	return 0, ErrNotConnected
}

// Close closes the current connection.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	link := e.link
	e.link = nil
	e.mu.Unlock()

	if link == nil {
		return nil
	}

	return link.Close()
}

// current returns the attached link.
func (e *Endpoint) current() *Link {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.link
}

// signal posts a ready token without blocking.
func (e *Endpoint) signal() {
	select {
	case e.ready <- struct{}{}:
	default:
	}
}

package transport

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/oshokin/opentimer/internal/logger"
)

// DefaultMaxBuffered bounds the receive buffer of a link.
const DefaultMaxBuffered = 4096

// readChunkSize is the size of a single read from the connection.
const readChunkSize = 256

var (
	// ErrEmpty is returned by ReadByte on an empty buffer.
	ErrEmpty = errors.New("receive buffer is empty")
	// ErrNotConnected is returned when writing without an attached connection.
	ErrNotConnected = errors.New("not connected")
)

// Link buffers the bytes received on a connection.
type Link struct {
	// conn is the underlying connection.
	conn io.ReadWriteCloser
	// notify is called after bytes were buffered or the connection ended.
	notify func()
	// maxBuffered bounds buf; older bytes are dropped beyond it.
	maxBuffered int
	// mu protects buf and err.
	mu sync.Mutex
	// buf holds received, unread bytes.
	buf []byte
	// err is the error that ended the pump.
	err error
	// writeMu serializes writers.
	writeMu sync.Mutex
	// done is closed when the pump stops.
	done chan struct{}
	// closeOnce guards Close.
	closeOnce sync.Once
}

// NewLink starts pumping conn. notify may be nil.
func NewLink(ctx context.Context, conn io.ReadWriteCloser, notify func()) *Link {
	if notify == nil {
		notify = func() {}
	}

	l := &Link{
		conn:        conn,
		notify:      notify,
		maxBuffered: DefaultMaxBuffered,
		buf:         make([]byte, 0, readChunkSize),
		done:        make(chan struct{}),
	}

	go l.pump(ctx)

	return l
}

// Buffered returns the number of unread bytes.
func (l *Link) Buffered() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.buf)
}

// ReadByte removes one buffered byte.
func (l *Link) ReadByte() (byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.buf) == 0 {
		return 0, ErrEmpty
	}

	b := l.buf[0]
	l.buf = l.buf[1:]

	return b, nil
}

// Read removes up to len(p) buffered bytes. It never blocks.
func (l *Link) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := copy(p, l.buf)
	l.buf = l.buf[n:]

	return n, nil
}

// Discard drops every buffered byte.
func (l *Link) Discard() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf = l.buf[:0]
}

// Write sends p. Concurrent writers never interleave.
func (l *Link) Write(p []byte) (int, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	return l.conn.Write(p)
}

// Done is closed when the connection has ended.
func (l *Link) Done() <-chan struct{} {
	return l.done
}

// Err returns the error that ended the connection, or nil while it is open.
func (l *Link) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.err
}

// Close closes the connection and waits for the pump to stop.
func (l *Link) Close() error {
	var err error

	l.closeOnce.Do(func() {
		err = l.conn.Close()
	})

	<-l.done

	return err
}

// pump copies from the connection into the buffer until it fails.
func (l *Link) pump(ctx context.Context) {
	defer close(l.done)
	defer l.notify()

	chunk := make([]byte, readChunkSize)

	for {
		n, err := l.conn.Read(chunk)
		if n > 0 {
			l.store(ctx, chunk[:n])
			l.notify()
		}

		if err != nil {
			l.mu.Lock()
			l.err = err
			l.mu.Unlock()

			if errors.Is(err, io.EOF) {
				logger.Debug(ctx, "Connection closed by peer")
			} else {
				logger.DebugKV(ctx, "Connection read stopped", "error", err)
			}

			return
		}
	}
}

// store appends data, dropping the oldest bytes beyond maxBuffered.
func (l *Link) store(ctx context.Context, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf = append(l.buf, data...)

	if excess := len(l.buf) - l.maxBuffered; excess > 0 {
		logger.WarnKV(ctx, "Receive buffer full, dropping bytes", "dropped", excess)

		l.buf = append(l.buf[:0], l.buf[excess:]...)
	}
}

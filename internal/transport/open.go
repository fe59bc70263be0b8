package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	goserial "go.bug.st/serial"

	"github.com/oshokin/opentimer/internal/logger"
)

// Transport kinds.
const (
	KindSerial = "serial"
	KindTCP    = "tcp"
)

// reopenDelay is the pause before reopening a serial device that went away.
const reopenDelay = time.Second

// ErrUnknownKind is returned for a transport kind other than serial or tcp.
var ErrUnknownKind = errors.New("unknown transport kind")

// Options selects and configures a transport.
type Options struct {
	// Kind is KindSerial or KindTCP.
	Kind string
	// Device is the serial device path.
	Device string
	// BaudRate of the serial device.
	BaudRate int
	// Address is the TCP address to listen on or dial.
	Address string
}

// OpenSerial opens device in 8N1 mode.
func OpenSerial(device string, baudRate int) (io.ReadWriteCloser, error) {
	port, err := goserial.Open(device, &goserial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial device %s: %w", device, err)
	}

	return port, nil
}

// Dial opens the client side of a transport.
func Dial(ctx context.Context, opts Options) (io.ReadWriteCloser, error) {
	switch opts.Kind {
	case KindSerial:
		return OpenSerial(opts.Device, opts.BaudRate)
	case KindTCP:
		var dialer net.Dialer

		conn, err := dialer.DialContext(ctx, "tcp", opts.Address)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", opts.Address, err)
		}

		return conn, nil
	default:
		return nil, fmt.Errorf("%q: %w", opts.Kind, ErrUnknownKind)
	}
}

// Serve attaches device-side connections to e until ctx is done.
func Serve(ctx context.Context, opts Options, e *Endpoint) error {
	switch opts.Kind {
	case KindSerial:
		return serveSerial(ctx, opts, e)
	case KindTCP:
		var lc net.ListenConfig

		listener, err := lc.Listen(ctx, "tcp", opts.Address)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", opts.Address, err)
		}

		return ServeListener(ctx, listener, e)
	default:
		return fmt.Errorf("%q: %w", opts.Kind, ErrUnknownKind)
	}
}

// ServeListener accepts connections from listener, each replacing the previous one.
func ServeListener(ctx context.Context, listener net.Listener, e *Endpoint) error {
	ctx = logger.WithName(ctx, "tcp")

	logger.InfoKV(ctx, "Listening for controller connections", "address", listener.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		_ = listener.Close()
	})
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				_ = e.Close()

				return nil
			}

			return fmt.Errorf("accept: %w", err)
		}

		connCtx := logger.WithKV(ctx, "peer", conn.RemoteAddr().String())
		logger.Info(connCtx, "Controller connected")

		e.Attach(connCtx, conn)
	}
}

// serveSerial keeps the serial device attached, reopening it when it fails.
func serveSerial(ctx context.Context, opts Options, e *Endpoint) error {
	ctx = logger.WithKV(logger.WithName(ctx, "serial"), "device", opts.Device)

	for {
		conn, err := OpenSerial(opts.Device, opts.BaudRate)
		if err != nil {
			logger.WarnKV(ctx, "Serial device unavailable", "error", err)
		} else {
			logger.InfoKV(ctx, "Serial device opened", "baud_rate", opts.BaudRate)

			link := e.Attach(ctx, conn)

			select {
			case <-ctx.Done():
				return e.Detach(link)
			case <-link.Done():
				logger.WarnKV(ctx, "Serial device closed", "error", link.Err())

				_ = e.Detach(link)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reopenDelay):
		}
	}
}

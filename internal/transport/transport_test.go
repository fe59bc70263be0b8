package transport

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// waitBuffered waits until p holds n bytes.
func waitBuffered(t *testing.T, p interface{ Buffered() int }, n int) {
	t.Helper()

	require.Eventually(t, func() bool { return p.Buffered() == n }, time.Second, time.Millisecond)
}

// TestLink_BuffersAndWrites pumps peer bytes and writes back.
func TestLink_BuffersAndWrites(t *testing.T) {
	t.Parallel()

	local, remote := net.Pipe()
	t.Cleanup(func() { _ = remote.Close() })

	notified := make(chan struct{}, 16)
	link := NewLink(context.Background(), local, func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})

	_, err := remote.Write([]byte{3, 1, 2, 3})
	require.NoError(t, err)
	waitBuffered(t, link, 4)
	require.NotEmpty(t, notified)

	b, err := link.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(3), b)

	payload := make([]byte, 8)
	n, err := link.Read(payload)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, payload[:n])

	_, err = link.ReadByte()
	require.ErrorIs(t, err, ErrEmpty)

	go func() {
		_, _ = link.Write([]byte{2, 9, 9})
	}()

	reply := make([]byte, 3)
	_, err = io.ReadFull(remote, reply)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 9, 9}, reply)

	require.NoError(t, link.Close())
	require.Error(t, link.Err())
}

// TestLink_Discard drops pending bytes.
func TestLink_Discard(t *testing.T) {
	t.Parallel()

	local, remote := net.Pipe()
	t.Cleanup(func() { _ = remote.Close() })

	link := NewLink(context.Background(), local, nil)
	t.Cleanup(func() { _ = link.Close() })

	_, err := remote.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	waitBuffered(t, link, 3)

	link.Discard()
	require.Zero(t, link.Buffered())
}

// TestLink_PeerClose ends the pump.
func TestLink_PeerClose(t *testing.T) {
	t.Parallel()

	local, remote := net.Pipe()
	link := NewLink(context.Background(), local, nil)

	require.NoError(t, remote.Close())

	select {
	case <-link.Done():
	case <-time.After(time.Second):
		t.Fatal("pump did not stop")
	}

	require.ErrorIs(t, link.Err(), io.EOF)
}

// TestEndpoint_ServeListener attaches each new connection, replacing the old one.
func TestEndpoint_ServeListener(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	endpoint := NewEndpoint()
	served := make(chan error, 1)

	go func() {
		served <- ServeListener(ctx, listener, endpoint)
	}()

	_, err = endpoint.Write([]byte{1})
	require.ErrorIs(t, err, ErrNotConnected)

	first, err := Dial(ctx, Options{Kind: KindTCP, Address: listener.Addr().String()})
	require.NoError(t, err)

	_, err = first.Write([]byte{1, 12})
	require.NoError(t, err)

	select {
	case <-endpoint.Ready():
	case <-time.After(time.Second):
		t.Fatal("no ready signal")
	}

	waitBuffered(t, endpoint, 2)

	// A second controller takes over the endpoint.
	second, err := Dial(ctx, Options{Kind: KindTCP, Address: listener.Addr().String()})
	require.NoError(t, err)

	_, err = second.Write([]byte{7})
	require.NoError(t, err)
	waitBuffered(t, endpoint, 1)

	_, err = endpoint.Write([]byte{2, 13, 1})
	require.NoError(t, err)

	reply := make([]byte, 3)
	_, err = io.ReadFull(second, reply)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 13, 1}, reply)

	// The replaced connection was closed by the device.
	_, err = first.Read(make([]byte, 1))
	require.Error(t, err)

	cancel()
	require.NoError(t, <-served)
	require.NoError(t, second.Close())
}

// TestDial_UnknownKind rejects an unsupported transport.
func TestDial_UnknownKind(t *testing.T) {
	t.Parallel()

	_, err := Dial(context.Background(), Options{Kind: "carrier-pigeon"})
	require.ErrorIs(t, err, ErrUnknownKind)

	err = Serve(context.Background(), Options{Kind: "carrier-pigeon"}, NewEndpoint())
	require.ErrorIs(t, err, ErrUnknownKind)
}

// TestOpenSerial_MissingDevice reports the device path.
func TestOpenSerial_MissingDevice(t *testing.T) {
	t.Parallel()

	_, err := OpenSerial("/dev/does-not-exist-opentimer", 9600)
	require.ErrorContains(t, err, "/dev/does-not-exist-opentimer")
}

package serial

import (
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
)

// TestWatchdog_Expires runs the callback once after the timeout.
func TestWatchdog_Expires(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var fired atomic.Int32

		w := NewWatchdog(2 * time.Second)
		require.True(t, w.Arm(func() { fired.Add(1) }))
		require.True(t, w.Pending())

		time.Sleep(time.Second)
		synctest.Wait()
		require.Zero(t, fired.Load())

		time.Sleep(time.Second + time.Millisecond)
		synctest.Wait()
		require.Equal(t, int32(1), fired.Load())
		require.False(t, w.Pending())
	})
}

// TestWatchdog_ArmWhilePending keeps the first deadline.
func TestWatchdog_ArmWhilePending(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var first, second atomic.Int32

		w := NewWatchdog(2 * time.Second)
		require.True(t, w.Arm(func() { first.Add(1) }))

		time.Sleep(time.Second)
		require.False(t, w.Arm(func() { second.Add(1) }))

		// The first deadline still fires at two seconds.
		time.Sleep(time.Second + time.Millisecond)
		synctest.Wait()
		require.Equal(t, int32(1), first.Load())
		require.Zero(t, second.Load())
	})
}

// TestWatchdog_Disarm cancels the callback deterministically.
func TestWatchdog_Disarm(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var fired atomic.Int32

		w := NewWatchdog(0)
		require.Equal(t, DefaultWatchdogTimeout, w.Timeout())
		require.False(t, w.Disarm())

		w.Arm(func() { fired.Add(1) })
		time.Sleep(DefaultWatchdogTimeout - time.Millisecond)
		require.True(t, w.Disarm())

		time.Sleep(time.Minute)
		synctest.Wait()
		require.Zero(t, fired.Load())

		// Re-arming after a disarm starts a fresh deadline.
		require.True(t, w.Arm(func() { fired.Add(1) }))
		time.Sleep(DefaultWatchdogTimeout + time.Millisecond)
		synctest.Wait()
		require.Equal(t, int32(1), fired.Load())
	})
}

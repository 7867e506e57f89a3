// ABOUTME: Tests for desktop bridges and the polling helper
// ABOUTME: Commands are captured instead of executed
package desktop

import (
	"context"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemBridgeOpenURL(t *testing.T) {
	var gotName string
	var gotArgs []string
	b := &SystemBridge{run: func(name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}}

	require.NoError(t, b.OpenURL("https://accounts.example.com/auth"))

	switch runtime.GOOS {
	case "darwin":
		assert.Equal(t, "open", gotName)
	case "windows":
		assert.Equal(t, "cmd", gotName)
	default:
		assert.Equal(t, "xdg-open", gotName)
	}
	assert.Equal(t, "https://accounts.example.com/auth", gotArgs[len(gotArgs)-1])
}

func TestNoopBridgePrintsURL(t *testing.T) {
	var out strings.Builder
	b := NoopBridge{Out: &out}
	require.NoError(t, b.OpenURL("https://example.com/consent"))

	assert.Contains(t, out.String(), "https://example.com/consent")
	assert.False(t, b.IsDesktop())
	assert.NoError(t, b.Notify("t", "b"))
}

func TestWaitForImmediate(t *testing.T) {
	err := WaitFor(context.Background(), time.Second, 10*time.Millisecond, func() bool { return true })
	assert.NoError(t, err)
}

func TestWaitForEventually(t *testing.T) {
	var calls atomic.Int32
	err := WaitFor(context.Background(), time.Second, 5*time.Millisecond, func() bool {
		return calls.Add(1) >= 3
	})
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWaitForTimeout(t *testing.T) {
	start := time.Now()
	err := WaitFor(context.Background(), 30*time.Millisecond, 5*time.Millisecond, func() bool { return false })
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWaitForCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitFor(ctx, time.Second, 5*time.Millisecond, func() bool { return false })
	assert.ErrorIs(t, err, context.Canceled)
}

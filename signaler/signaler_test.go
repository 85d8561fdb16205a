package signaler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raise(t *testing.T, sig os.Signal) {
	t.Helper()
	proc, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	if err := proc.Signal(sig); err != nil {
		if runtime.GOOS == "windows" {
			t.Skipf("cannot raise %s on windows: %v", sig, err)
		}
		require.NoError(t, err)
	}
}

// Signals are process wide so these tests do not run in parallel
func TestWaitForInterrupt(t *testing.T) {
	sigC := WaitForInterrupt()
	defer signal.Stop(sigC)
	for _, sig := range []os.Signal{syscall.SIGTERM, os.Interrupt} {
		raise(t, sig)
		select {
		case got := <-sigC:
			assert.Equal(t, sig, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("%s not received", sig)
		}
	}
}

func TestWithInterrupt(t *testing.T) {
	ctx, cancel := WithInterrupt(context.Background())
	defer cancel()
	require.NoError(t, ctx.Err())

	raise(t, syscall.SIGTERM)
	select {
	case <-ctx.Done():
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by interrupt")
	}

	ctx, cancel = WithInterrupt(context.Background())
	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

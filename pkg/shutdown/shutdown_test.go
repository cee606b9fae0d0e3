package shutdown

import (
	"bytes"
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/psantana5/gpu-keepalive/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logging.Logger {
	l := logging.NewLogger(logging.DEBUG, false)
	l.SetOutput(&bytes.Buffer{})
	return l
}

func TestShutdownRunsInReverseOrder(t *testing.T) {
	m := New(time.Second, quietLogger())

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		m.Register(func(context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	m.Shutdown()
	assert.Equal(t, []int{2, 1, 0}, order)
}

func TestShutdownContinuesAfterError(t *testing.T) {
	m := New(time.Second, quietLogger())

	ran := false
	m.Register(func(context.Context) error {
		ran = true
		return nil
	})
	m.Register(func(context.Context) error {
		return errors.New("boom")
	})

	m.Shutdown()
	assert.True(t, ran)
}

type fakeCloser struct{ err error }

func (f fakeCloser) Close() error { return f.err }

func TestCloseResourceWrapsError(t *testing.T) {
	err := CloseResource(fakeCloser{err: errors.New("busy")}, "log")(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to close log")

	assert.NoError(t, CloseResource(fakeCloser{}, "log")(context.Background()))
}

func TestNotifyContextCancelsOnSignal(t *testing.T) {
	m := New(time.Second, quietLogger())

	ctx, cancel := m.NotifyContext(context.Background())
	defer cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
}

package core

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatedStdin(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	g := newGatedStdin(int(r.Fd()))
	_, err = w.Write([]byte("typed"))
	require.NoError(t, err)

	// Shut: the read must not consume anything before Close.
	done := make(chan error, 1)
	go func() {
		_, err := g.Read(make([]byte, 16))
		done <- err
	}()
	time.Sleep(3 * pollInterval)
	require.NoError(t, g.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(2 * time.Second):
		t.Fatal("read did not return after Close")
	}

	g = newGatedStdin(int(r.Fd()))
	g.Open()
	buf := make([]byte, 16)
	n, err := g.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "typed", string(buf[:n]))
}

func TestGatedStdin_EOF(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, w.Close())

	g := newGatedStdin(int(r.Fd()))
	g.Open()

	_, err = g.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"pricesync/internal/domain/port"
)

func TestWaitForExit(t *testing.T) {
	t.Run("signal", func(t *testing.T) {
		sigCh := make(chan os.Signal, 1)
		sigCh <- syscall.SIGTERM
		assert.NoError(t, waitForExit(sigCh, make(chan error)))
	})

	t.Run("server failure", func(t *testing.T) {
		serverErr := make(chan error, 1)
		serverErr <- errors.New("address already in use")
		assert.EqualError(t, waitForExit(make(chan os.Signal), serverErr), "address already in use")
	})
}

// The embedded interfaces are nil; shutdown only calls Close.
type fakeCache struct {
	port.HotCache
	closed int
}

func (c *fakeCache) Close() error {
	c.closed++
	return nil
}

type fakeCold struct {
	port.ColdStore
	closed int
}

func (c *fakeCold) Close() error {
	c.closed++
	return nil
}

func TestShutdownClosesStores(t *testing.T) {
	cache, cold := &fakeCache{}, &fakeCold{}
	cancelled := false
	app := &App{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cache:  cache,
		cold:   cold,
		cancel: func() { cancelled = true },
	}

	app.shutdown()

	assert.True(t, cancelled)
	assert.Equal(t, 1, cache.closed)
	assert.Equal(t, 1, cold.closed)
}

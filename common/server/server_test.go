package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/compressor/common/logger"
)

func TestWriteTimeoutExceedsJobDeadline(t *testing.T) {
	s := New("test", 0, http.NotFoundHandler(), 5*time.Minute, logger.Discard())

	assert.Greater(t, s.WriteTimeout(), 5*time.Minute)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := New("test", 0, http.NotFoundHandler(), time.Second, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Debug(string, ...interface{}) {}

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), nopLogger{})
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSetGetBytes(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SetBytes(ctx, "k", []byte{0x00, 0xff, 0x10}, time.Minute))

	got, found, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte{0x00, 0xff, 0x10}, got)
}

func TestGetBytesMissing(t *testing.T) {
	c, _ := newTestClient(t)

	got, found, err := c.GetBytes(context.Background(), "absent")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestExpiryAndDelete(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SetBytes(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "b", []byte("2"), time.Minute))

	ttl, err := c.TTL(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(2 * time.Minute)
	_, found, err := c.GetBytes(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetBytes(ctx, "c", []byte("3"), 0))
	require.NoError(t, c.Delete(ctx, "c"))
	assert.False(t, mr.Exists("c"))
}

func TestDialFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Dial(ctx, addr, "", 0, nopLogger{})
	assert.Error(t, err)
}

func TestDialPings(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := Dial(context.Background(), mr.Addr(), "", 0, nopLogger{})
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.Ping(context.Background()))
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(&Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()

	ok, err := client.AcquireLock(ctx, "lock:stock:p-1", "a", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.AcquireLock(ctx, "lock:stock:p-1", "b", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	// Another holder's token does not release the key.
	require.NoError(t, client.ReleaseLock(ctx, "lock:stock:p-1", "b"))
	assert.True(t, mr.Exists("lock:stock:p-1"))

	require.NoError(t, client.ReleaseLock(ctx, "lock:stock:p-1", "a"))
	assert.False(t, mr.Exists("lock:stock:p-1"))
}

func TestLockExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(&Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ok, err := client.AcquireLock(context.Background(), "k", "a", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	ok, err = client.AcquireLock(context.Background(), "k", "b", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(&Config{Addr: addr})
	assert.Error(t, err)
}

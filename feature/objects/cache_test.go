package objects

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetOrLoad(t *testing.T) {
	c := NewCache(time.Minute)
	var loads int32
	load := func(context.Context) (any, error) {
		atomic.AddInt32(&loads, 1)
		return "rows", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad(context.Background(), "k", load)
		require.NoError(t, err)
		assert.Equal(t, "rows", v)
	}
	assert.Equal(t, int32(1), loads)

	c.Invalidate("k")
	_, err := c.GetOrLoad(context.Background(), "k", load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads)
}

func TestCache_ZeroTTLAlwaysLoads(t *testing.T) {
	c := NewCache(0)
	var loads int32
	for i := 0; i < 3; i++ {
		_, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) {
			atomic.AddInt32(&loads, 1)
			return 1, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), loads)
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c := NewCache(time.Minute)
	_, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) {
		return nil, errors.New("catalog down")
	})
	require.Error(t, err)

	v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCache_ConcurrentMissesShareOneLoad(t *testing.T) {
	c := NewCache(time.Minute)
	var loads int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) {
				atomic.AddInt32(&loads, 1)
				<-release
				return "rows", nil
			})
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), loads)
}

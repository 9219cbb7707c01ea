package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(NewRedisBackend(client)), mr
}

func TestKey_Deterministic(t *testing.T) {
	k1 := KeyBytes("mi_analysis", []byte("I hear that you're not sure about cutting back."))
	k2 := KeyBytes("mi_analysis", []byte("I hear that you're not sure about cutting back."))
	k3 := KeyBytes("mi_analysis", []byte("Something else entirely."))

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Regexp(t, `^mi_analysis_[0-9a-f]{64}\.json$`, k1)
}

func TestKey_CompoundPayload(t *testing.T) {
	payload := map[string]any{
		"current_persona": map[string]any{"name": "Marcus"},
		"session_data":    "discussed drinking triggers",
	}
	k1, err := Key("persona_update", payload)
	require.NoError(t, err)
	k2, err := Key("persona_update", payload)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestCache_GetBeforePutIsMiss(t *testing.T) {
	c, _ := setupRedisCache(t)
	_, found, err := c.Get(context.Background(), "mi_analysis_missing.json")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_PutThenGet(t *testing.T) {
	c, _ := setupRedisCache(t)
	ctx := context.Background()
	key := KeyBytes("mi_analysis", []byte("sample message"))

	require.NoError(t, c.Put(ctx, key, []byte(`{"overallAdherenceScore":72}`)))

	val, found, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"overallAdherenceScore":72}`, string(val))
}

func TestCache_BackendFailureIsBackendError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c := New(NewRedisBackend(client))

	mr.Close() // backing store goes away

	_, _, err := c.Get(context.Background(), "anykey")
	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)

	err = c.Put(context.Background(), "anykey", []byte("v"))
	require.ErrorAs(t, err, &backendErr)
}

func TestCache_JSONRoundTrip(t *testing.T) {
	c := New(NewMemoryBackend())
	ctx := context.Background()

	type result struct {
		Score int `json:"score"`
	}
	require.NoError(t, c.PutJSON(ctx, "k", result{Score: 88}))

	var out result
	found, err := c.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 88, out.Score)
}

func TestMemoryBackend_ConcurrentAccess(t *testing.T) {
	c := New(NewMemoryBackend())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := KeyBytes("mi_analysis", []byte{byte(n % 4)})
			_ = c.Put(ctx, key, []byte("value"))
			_, _, _ = c.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	val, found, err := c.Get(ctx, KeyBytes("mi_analysis", []byte{0}))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), val)
}

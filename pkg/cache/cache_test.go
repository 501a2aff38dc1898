package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storeadmin/pkg/cache"
)

// fakeRedis implements the three commands the store uses; any other
// command panics through the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewStringCmd(ctx)
	if v, ok := f.data[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(n)
	return cmd
}

type def struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestRedis_RoundTripAndForget(t *testing.T) {
	ctx := context.Background()
	store := cache.NewRedis(newFakeRedis())

	var got []def
	assert.False(t, store.Get(ctx, "schema:category:5", &got))

	require.NoError(t, store.Set(ctx, "schema:category:5", []def{{ID: 1, Name: "Color"}}, time.Minute))
	require.True(t, store.Get(ctx, "schema:category:5", &got))
	assert.Equal(t, []def{{ID: 1, Name: "Color"}}, got)

	require.NoError(t, store.Forget(ctx, "schema:category:5", "missing"))
	assert.False(t, store.Get(ctx, "schema:category:5", &got))
}

func TestNop_AlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var store cache.Store = cache.Nop{}

	require.NoError(t, store.Set(ctx, "k", 1, time.Minute))
	var v int
	assert.False(t, store.Get(ctx, "k", &v))
	assert.NoError(t, store.Forget(ctx, "k"))
}

func TestConnect_NoneDriver(t *testing.T) {
	store, err := cache.Connect("none")
	require.NoError(t, err)
	assert.IsType(t, cache.Nop{}, store)
}

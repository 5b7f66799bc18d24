package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memBackend struct {
	data   map[string]string
	getErr error
	sets   int
}

func newMemBackend() *memBackend { return &memBackend{data: map[string]string{}} }

func (m *memBackend) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memBackend) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.sets++
	m.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func TestLookupCachesSuccess(t *testing.T) {
	backend := newMemBackend()
	c := New(backend, "catalog:", time.Minute, zaptest.NewLogger(t))
	calls := 0
	load := func(context.Context) (int64, error) {
		calls++
		return 42, nil
	}

	v, err := Lookup(context.Background(), c, "state:activo", load)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = Lookup(context.Background(), c, "state:activo", load)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
	assert.Equal(t, 1, calls)
	assert.Contains(t, backend.data, "catalog:state:activo")
}

func TestLookupDoesNotCacheErrors(t *testing.T) {
	backend := newMemBackend()
	c := New(backend, "", time.Minute, zaptest.NewLogger(t))
	boom := errors.New("boom")

	_, err := Lookup(context.Background(), c, "k", func(context.Context) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, backend.sets)
}

func TestLookupFallsThroughOnRedisError(t *testing.T) {
	backend := newMemBackend()
	backend.getErr = errors.New("connection refused")
	c := New(backend, "", time.Minute, zaptest.NewLogger(t))

	v, err := Lookup(context.Background(), c, "k", func(context.Context) (string, error) { return "Operador de campo", nil })
	require.NoError(t, err)
	assert.Equal(t, "Operador de campo", v)
}

func TestLookupNilCache(t *testing.T) {
	v, err := Lookup(context.Background(), nil, "k", func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenantID = "3f2a1c9e-0000-4000-8000-000000000001"

type fakeDirectory struct {
	active bool
	err    error
	calls  int
}

func (f *fakeDirectory) IsActive(context.Context, string) (bool, error) {
	f.calls++
	return f.active, f.err
}

func setupRedis(t *testing.T, next *fakeDirectory) (*miniredis.Miniredis, *RedisDirectory) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisDirectory(client, next, time.Minute, nil)
}

func TestRedisDirectory_CacheaElResultado(t *testing.T) {
	next := &fakeDirectory{active: true}
	mr, dir := setupRedis(t, next)
	ctx := context.Background()

	ok, err := dir.IsActive(ctx, tenantID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.IsActive(ctx, tenantID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, next.calls, "la segunda consulta debe salir de la caché")

	val, err := mr.Get("ims:tenant:" + tenantID + ":active")
	require.NoError(t, err)
	assert.Equal(t, "1", val)
	assert.Equal(t, time.Minute, mr.TTL("ims:tenant:"+tenantID+":active"))
}

func TestRedisDirectory_CacheaInactivoEInvalida(t *testing.T) {
	next := &fakeDirectory{active: false}
	_, dir := setupRedis(t, next)
	ctx := context.Background()

	ok, err := dir.IsActive(ctx, tenantID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, dir.Invalidate(ctx, tenantID))
	next.active = true

	ok, err = dir.IsActive(ctx, tenantID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, next.calls)
}

func TestRedisDirectory_ExpiraPorTTL(t *testing.T) {
	next := &fakeDirectory{active: true}
	mr, dir := setupRedis(t, next)
	ctx := context.Background()

	_, err := dir.IsActive(ctx, tenantID)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = dir.IsActive(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestRedisDirectory_RedisCaidoConsultaElAlmacen(t *testing.T) {
	next := &fakeDirectory{active: true}
	mr, dir := setupRedis(t, next)
	mr.Close()

	ok, err := dir.IsActive(context.Background(), tenantID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, next.calls)
}

func TestRedisDirectory_ErrorDelAlmacenNoSeCachea(t *testing.T) {
	next := &fakeDirectory{err: errors.New("db caída")}
	mr, dir := setupRedis(t, next)

	_, err := dir.IsActive(context.Background(), tenantID)
	assert.Error(t, err)
	assert.False(t, mr.Exists("ims:tenant:"+tenantID+":active"))
}

package kvstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, found, err := store.Get(ctx, "quote_cart:a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "quote_cart:a", "[]"))
	v, found, err := store.Get(ctx, "quote_cart:a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", v)
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemory()
	require.ErrorIs(t, store.Set(ctx, "k", "v"), context.Canceled)
	_, _, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemoryExpiresKeys(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryWithTTL(time.Hour)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "quote_cart:old", "[]"))
	now = now.Add(30 * time.Minute)
	require.NoError(t, store.Set(ctx, "quote_cart:new", "[]"))

	now = now.Add(45 * time.Minute)
	_, found, err := store.Get(ctx, "quote_cart:old")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = store.Get(ctx, "quote_cart:new")
	require.NoError(t, err)
	assert.True(t, found)

	removed, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Len(t, store.values, 1)
}

type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func (f *fakeRedis) Lookup(_ context.Context, key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func TestRedisForwardsTTL(t *testing.T) {
	ctx := context.Background()
	client := &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
	store, err := NewRedis(client, 48*time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "quote_cart:s1", `[{"id":"x"}]`))
	assert.Equal(t, 48*time.Hour, client.ttls["quote_cart:s1"])

	v, found, err := store.Get(ctx, "quote_cart:s1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"x"}]`, v)

	client.err = errors.New("down")
	_, _, err = store.Get(ctx, "quote_cart:s1")
	assert.Error(t, err)

	_, err = NewRedis(nil, time.Hour)
	assert.Error(t, err)
}

func newGormStore(t *testing.T, ttl time.Duration) (*Gorm, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&Entry{}))

	store, err := NewGorm(conn, ttl)
	require.NoError(t, err)
	return store, conn
}

func TestGormUpsertsAndReads(t *testing.T) {
	ctx := context.Background()
	store, conn := newGormStore(t, 0)

	_, found, err := store.Get(ctx, "quote_cart:s1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "quote_cart:s1", "[]"))
	require.NoError(t, store.Set(ctx, "quote_cart:s1", `[{"id":"a"}]`))

	v, found, err := store.Get(ctx, "quote_cart:s1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"a"}]`, v)

	var count int64
	require.NoError(t, conn.Model(&Entry{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGormExpiredRowsReadAsMissing(t *testing.T) {
	ctx := context.Background()
	store, _ := newGormStore(t, time.Hour)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	require.NoError(t, store.Set(ctx, "quote_cart:s1", "[]"))

	_, found, err := store.Get(ctx, "quote_cart:s1")
	require.NoError(t, err)
	assert.True(t, found)

	now = now.Add(2 * time.Hour)
	_, found, err = store.Get(ctx, "quote_cart:s1")
	require.NoError(t, err)
	assert.False(t, found)

	removed, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}

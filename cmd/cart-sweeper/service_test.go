package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/quotecart/pkg/kvstore"
	"github.com/angelmondragon/quotecart/pkg/logger"
	"github.com/angelmondragon/quotecart/pkg/metrics"
)

type fakeDB struct{ err error }

func (f fakeDB) Ping(context.Context) error { return f.err }

type fakeExpirer struct {
	results []int64
	errs    []error
	calls   int
}

func (f *fakeExpirer) DeleteExpired(context.Context) (int64, error) {
	i := f.calls
	f.calls++
	var n int64
	var err error
	if i < len(f.results) {
		n = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return n, err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
}

// recordingSleep stops the loop after n waits and records each requested delay.
func recordingSleep(cancel context.CancelFunc, n int, waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		if len(*waits) >= n {
			cancel()
			return ctx.Err()
		}
		return nil
	}
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{DB: fakeDB{}, Store: &fakeExpirer{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: testLogger(), Store: &fakeExpirer{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: testLogger(), DB: fakeDB{}})
	assert.Error(t, err)
}

func TestRunFailsWhenDatabaseDown(t *testing.T) {
	svc, err := NewService(ServiceParams{Logger: testLogger(), DB: fakeDB{err: errors.New("refused")}, Store: &fakeExpirer{}})
	require.NoError(t, err)
	assert.Error(t, svc.Run(context.Background()))
}

func TestRunSweepsAndBacksOff(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := &fakeExpirer{
		results: []int64{4, 0, 0, 2},
		errs:    []error{nil, errors.New("locked"), errors.New("locked"), nil},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var waits []time.Duration
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		DB:       fakeDB{},
		Store:    store,
		Metrics:  metrics.NewCartMetrics(reg),
		Interval: 30 * time.Minute,
		Sleep:    recordingSleep(cancel, 4, &waits),
	})
	require.NoError(t, err)

	err = svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, store.calls)

	require.Len(t, waits, 4)
	assert.GreaterOrEqual(t, waits[0], 30*time.Minute)
	assert.Less(t, waits[1], 2*time.Minute, "first failure retries after about a minute")
	assert.GreaterOrEqual(t, waits[2], 2*time.Minute)
	assert.GreaterOrEqual(t, waits[3], 30*time.Minute, "success resets to the interval")

	assert.Equal(t, float64(6), expiredTotal(t, reg))
}

func TestBackoffCaps(t *testing.T) {
	assert.Equal(t, retryBase, backoff(1))
	assert.Equal(t, 2*retryBase, backoff(2))
	assert.Equal(t, maxBackoff, backoff(10))
}

func TestSweepRemovesExpiredGormEntries(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&kvstore.Entry{}))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, conn.Create(&kvstore.Entry{Key: "quote_cart:old", Value: "[]", ExpiresAt: &past}).Error)
	require.NoError(t, conn.Create(&kvstore.Entry{Key: "quote_cart:live", Value: "[]"}).Error)

	store, err := kvstore.NewGorm(conn, time.Hour)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{Logger: testLogger(), DB: fakeDB{}, Store: store})
	require.NoError(t, err)

	require.NoError(t, svc.sweep(context.Background()))

	var keys []string
	require.NoError(t, conn.Model(&kvstore.Entry{}).Pluck("storage_key", &keys).Error)
	assert.Equal(t, []string{"quote_cart:live"}, keys)
}

func expiredTotal(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "quote_cart_expired_entries_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("expired counter not registered")
	return 0
}

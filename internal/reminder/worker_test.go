package reminder

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/lock"
)

type fakeDispatchStore struct {
	calls  int
	marked int64
	lastAt time.Time
	err    error
}

func (f *fakeDispatchStore) MarkDueAsSent(ctx context.Context, today time.Time) (int64, error) {
	f.calls++
	f.lastAt = today
	return f.marked, f.err
}

func newDispatcher(t *testing.T, store *fakeDispatchStore) *Dispatcher {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Dispatcher{
		Store:   store,
		Locker:  lock.Locker{R: rdb, RetryBackoff: time.Millisecond},
		Log:     zerolog.Nop(),
		LockTTL: time.Second,
	}
}

func TestTickMarksDueReminders(t *testing.T) {
	store := &fakeDispatchStore{marked: 3}
	d := newDispatcher(t, store)
	fixed := time.Date(2026, time.August, 31, 10, 15, 0, 0, time.UTC)
	d.Now = func() time.Time { return fixed }

	require.NoError(t, d.Tick(context.Background()))
	require.Equal(t, 1, store.calls)
	require.Equal(t, time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC), store.lastAt,
		"dispatch uses midnight so date-only due dates match")
}

func TestTickPropagatesStoreError(t *testing.T) {
	store := &fakeDispatchStore{err: context.DeadlineExceeded}
	d := newDispatcher(t, store)
	require.Error(t, d.Tick(context.Background()))
}

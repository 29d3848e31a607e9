package reminder

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-salon/internal/lock"
	"github.com/noah-isme/backend-salon/internal/obs"
)

const dispatchLockKey = "reminder:dispatch"

// Dispatcher marks due reminders as sent on a schedule. A Redis lock keeps
// the tick single-flight across worker replicas.
type Dispatcher struct {
	Store interface {
		MarkDueAsSent(ctx context.Context, today time.Time) (int64, error)
	}
	Locker  lock.Locker
	Log     zerolog.Logger
	LockTTL time.Duration
	// Now is swappable for tests.
	Now func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Tick runs one dispatch pass.
func (d *Dispatcher) Tick(ctx context.Context) error {
	ttl := d.LockTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return d.Locker.WithLock(ctx, dispatchLockKey, ttl, func(ctx context.Context) error {
		now := d.now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		n, err := d.Store.MarkDueAsSent(ctx, today)
		if err != nil {
			if obs.RemindersDispatchedTotal != nil {
				obs.RemindersDispatchedTotal.WithLabelValues("error").Inc()
			}
			return err
		}
		if obs.RemindersDispatchedTotal != nil {
			obs.RemindersDispatchedTotal.WithLabelValues("ok").Add(float64(n))
		}
		if n > 0 {
			d.Log.Info().Int64("count", n).Msg("reminders dispatched")
		}
		return nil
	})
}

// Schedule registers the dispatcher on the cron runner with the given spec,
// e.g. "*/5 * * * *".
func (d *Dispatcher) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := d.Tick(ctx); err != nil {
			d.Log.Error().Err(err).Msg("reminder dispatch tick failed")
		}
	})
}

package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultJanitorSchedule runs the session janitor every day at 00:05.
const DefaultJanitorSchedule = "5 0 * * *"

// Purger deletes sessions untouched since a cutoff.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartSessionJanitor schedules RunSessionJanitor. Callers stop the returned
// scheduler on shutdown.
func StartSessionJanitor(store Purger, retention time.Duration, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultJanitorSchedule
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		log.Println("Running session janitor...")
		if _, err := RunSessionJanitor(context.Background(), store, retention, time.Now()); err != nil {
			log.Println("Error purging sessions:", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// RunSessionJanitor removes sessions idle for longer than retention. A
// non-positive retention keeps every session.
func RunSessionJanitor(ctx context.Context, store Purger, retention time.Duration, now time.Time) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	n, err := store.Purge(ctx, now.Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("Purged %d idle sessions", n)
	}
	return n, nil
}

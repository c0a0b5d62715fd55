package scheduler

import (
	"context"
	"log"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task immediately, then on every tick until ctx is done. Runs
// never overlap: a tick that fires during a run is dropped.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	run := func() {
		if err := task(ctx); err != nil {
			log.Printf("[%s] error: %v", name, err)
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}

package poll

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofrs/flock"

	"springwatch/internal/scheduler"
)

var ErrLocked = errors.New("another run holds the lock")

// Lock takes an exclusive, non-blocking file lock on path.
func Lock(path string) (unlock func() error, err error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}
	return fl.Unlock, nil
}

// Watch runs the pipeline now and then every interval until ctx is done.
// A failed run is reported to onRun and does not stop the loop.
func Watch(ctx context.Context, interval time.Duration, d Deps, onRun func(Summary, error)) {
	scheduler.Every(ctx, interval, "poll", func(ctx context.Context) error {
		sum, err := RunOnce(ctx, d)
		if onRun != nil {
			onRun(sum, err)
		}
		if err == nil {
			log.Printf("[poll] ok total=%d new=%d notified=%v", sum.Total, len(sum.New), sum.Notified)
		}
		return err
	})
}

package trackr

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

type scrollPlan struct {
	Pause          time.Duration
	StagnantRounds int
	MaxScrolls     int
	Timeout        time.Duration
}

// scrollUntilStagnant triggers infinite scroll until size has not grown for
// StagnantRounds consecutive rounds, MaxScrolls rounds have run, or Timeout
// has elapsed. Only the last two are bounds; reaching them is not an error.
func scrollUntilStagnant(parent context.Context, p scrollPlan, scroll func(context.Context) error, size func() int) (rounds int, err error) {
	ctx, cancel := context.WithTimeout(parent, p.Timeout)
	defer cancel()

	lim := rate.NewLimiter(rate.Every(p.Pause), 1)
	lim.Allow() // first wait should last a full pause

	seen, stagnant := 0, 0
	for rounds < p.MaxScrolls {
		if err := scroll(ctx); err != nil {
			if parent.Err() == nil && ctx.Err() != nil {
				break
			}
			return rounds, err
		}
		rounds++

		if err := lim.Wait(ctx); err != nil {
			if parent.Err() != nil {
				return rounds, parent.Err()
			}
			break
		}

		now := size()
		if now == seen {
			stagnant++
		} else {
			stagnant = 0
			seen = now
		}
		if stagnant >= p.StagnantRounds {
			break
		}
	}
	return rounds, nil
}

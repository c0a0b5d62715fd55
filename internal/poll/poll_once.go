package poll

import (
	"context"
	"fmt"
	"log"
	"time"

	"springwatch/internal/domain"
	"springwatch/internal/reconcile"
	"springwatch/internal/scrape/types"
	"springwatch/internal/store"
)

type Notifier interface {
	Notify(ctx context.Context, newer, older []domain.Listing, recipients []string, attachPath string) error
}

type History interface {
	RecordRun(ctx context.Context, run store.Run, listings []domain.Listing) (int64, error)
}

type Deps struct {
	Fetcher types.Fetcher

	// Notifier is nil in dry-run mode: listings are persisted, nothing is sent.
	Notifier Notifier
	History  History

	ListingsCSV string
	MailingCSV  string

	// LockPath, when set, guards the run against concurrent ones.
	LockPath string

	Now func() time.Time
}

type Summary struct {
	Source     string
	Raw        int
	Total      int
	New        []domain.Listing
	Old        []domain.Listing
	Path       string
	Notified   bool
	StartedAt  time.Time
	FinishedAt time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// RunOnce scrapes, reconciles against the previous listings file, rewrites
// it and emails the new listings if there are any.
func RunOnce(ctx context.Context, d Deps) (sum Summary, err error) {
	sum.StartedAt = d.now()

	if d.LockPath != "" {
		unlock, err := Lock(d.LockPath)
		if err != nil {
			return sum, err
		}
		defer func() { _ = unlock() }()
	}

	log.Printf("[%s] Running...", d.Fetcher.Name())
	res, err := d.Fetcher.Fetch(ctx)
	if err != nil {
		return sum, fmt.Errorf("%s fetch: %w", d.Fetcher.Name(), err)
	}
	sum.Source, sum.Raw, sum.Total = res.Source, res.Raw, len(res.Listings)

	prev, err := store.ReadRows(d.ListingsCSV)
	if err != nil {
		return sum, fmt.Errorf("read previous listings: %w", err)
	}
	sum.New, sum.Old = reconcile.Partition(res.Listings, reconcile.KnownCompanies(prev))
	log.Printf("[poll] got source=%s raw=%d open=%d new=%d old=%d",
		res.Source, res.Raw, sum.Total, len(sum.New), len(sum.Old))

	path, _, err := store.WriteListings(d.ListingsCSV, res.Listings)
	if err != nil {
		return sum, fmt.Errorf("write listings: %w", err)
	}
	sum.Path = path

	switch {
	case len(sum.New) == 0:
		log.Printf("[poll] no new listings detected")
	case d.Notifier == nil:
		log.Printf("[poll] dry run: %d new listings not emailed", len(sum.New))
	default:
		recipients, err := store.ReadMailingList(d.MailingCSV)
		if err != nil {
			return sum, fmt.Errorf("read mailing list: %w", err)
		}
		if err := d.Notifier.Notify(ctx, sum.New, sum.Old, recipients, path); err != nil {
			return sum, err
		}
		sum.Notified = true
	}

	sum.FinishedAt = d.now()
	if d.History != nil {
		run := store.Run{
			StartedAt:  sum.StartedAt,
			FinishedAt: sum.FinishedAt,
			Total:      sum.Total,
			New:        len(sum.New),
			Notified:   sum.Notified,
		}
		if _, err := d.History.RecordRun(ctx, run, res.Listings); err != nil {
			log.Printf("[poll] history not recorded: %v", err)
		}
	}
	return sum, nil
}

package types

import (
	"context"

	"springwatch/internal/domain"
)

type ScrapeResult struct {
	Source   string
	Listings []domain.Listing

	// Raw is how many records were captured before dedupe/filtering.
	Raw int
}

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (ScrapeResult, error)
}

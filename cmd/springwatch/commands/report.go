package commands

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"springwatch/internal/domain"
	"springwatch/internal/poll"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// firstSeenFunc looks up when a listing was first recorded; zero means unknown.
type firstSeenFunc func(domain.Listing) time.Time

// printSummary renders both listing groups. seen may be nil when history is off.
func printSummary(w io.Writer, sum poll.Summary, seen firstSeenFunc) {
	t := newTable(w)
	t.SetTitle("%s: %d open, %d new", sum.Source, sum.Total, len(sum.New))
	t.AppendHeader(table.Row{"", "Company", "Title", "Category", "Url", "First seen"})
	appendListings(t, "new", sum.New, seen)
	if len(sum.New) > 0 && len(sum.Old) > 0 {
		t.AppendSeparator()
	}
	appendListings(t, "", sum.Old, seen)

	status := "not sent"
	if sum.Notified {
		status = "sent"
	}
	t.AppendFooter(table.Row{"", "email", status, "", sum.Path, ""})
	t.Render()
}

func appendListings(t table.Writer, mark string, ls []domain.Listing, seen firstSeenFunc) {
	for _, l := range ls {
		first := ""
		if seen != nil {
			if at := seen(l); !at.IsZero() {
				first = at.Local().Format("2006-01-02")
			}
		}
		t.AppendRow(table.Row{mark, l.Company, l.Title, l.Category, l.URL, first})
	}
}

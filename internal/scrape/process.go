package scrape

import (
	"log"

	"springwatch/internal/domain"
	"springwatch/internal/scrape/util"
)

var (
	urlKeys      = []string{"url", "applyUrl", "link"}
	titleKeys    = []string{"name", "title"}
	categoryKeys = []string{"category", "programmeType"}
	openingKeys  = []string{"openingDate", "openDate", "opening_date"}
)

// Key identifies a record across payloads: its trimmed URL, or
// "company|title" when it has no URL. Records with none of these get "".
// URLs are compared verbatim; query strings are never rewritten.
func Key(rec domain.RawRecord) string {
	if u := util.FirstString(rec, urlKeys...); u != "" {
		return u
	}
	company, title := companyOf(rec), util.FirstString(rec, titleKeys...)
	if company == "" && title == "" {
		return ""
	}
	return company + "|" + title
}

// Dedupe keeps the first record seen for each key, in encounter order.
// Records without a key are dropped.
func Dedupe(recs []domain.RawRecord) []domain.RawRecord {
	seen := make(map[string]bool, len(recs))
	out := make([]domain.RawRecord, 0, len(recs))
	dropped := 0
	for _, r := range recs {
		k := Key(r)
		if k == "" {
			dropped++
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	if dropped > 0 {
		log.Printf("[scrape] dropped %d records without url, company or title", dropped)
	}
	return out
}

// HasOpeningDate is true when any opening-date spelling holds a non-null
// value. An empty string still counts.
func HasOpeningDate(rec domain.RawRecord) bool {
	return util.HasAny(rec, openingKeys...)
}

// ToListing projects a record onto the four listing columns.
func ToListing(rec domain.RawRecord) domain.Listing {
	return domain.Listing{
		Company:  companyOf(rec),
		Title:    util.FirstString(rec, titleKeys...),
		Category: util.FirstString(rec, categoryKeys...),
		URL:      util.FirstString(rec, urlKeys...),
	}
}

// Project turns captured records into the listings that are currently open.
func Project(recs []domain.RawRecord) []domain.Listing {
	uniq := Dedupe(recs)
	out := make([]domain.Listing, 0, len(uniq))
	for _, r := range uniq {
		if !HasOpeningDate(r) {
			continue
		}
		out = append(out, ToListing(r))
	}
	return out
}

// companyOf reads "company" either as {"name"|"title": ...} or as a plain string.
func companyOf(rec domain.RawRecord) string {
	switch c := rec["company"].(type) {
	case map[string]any:
		return util.FirstString(c, "name", "title")
	case string:
		return util.FirstString(rec, "company")
	}
	return ""
}

// Package reconcile splits the current listings into ones we have already
// reported and ones we have not.
package reconcile

import (
	"strings"

	"springwatch/internal/domain"
)

// KnownCompanies reads the Company column of previously persisted rows.
func KnownCompanies(rows []map[string]string) map[string]bool {
	out := make(map[string]bool, len(rows))
	for _, r := range rows {
		out[strings.TrimSpace(r["Company"])] = true
	}
	return out
}

// Partition puts a listing in older iff its company is in known, keeping
// input order within each group.
func Partition(listings []domain.Listing, known map[string]bool) (newer, older []domain.Listing) {
	for _, l := range listings {
		if known[l.Company] {
			older = append(older, l)
		} else {
			newer = append(newer, l)
		}
	}
	return newer, older
}

// Reconciling a freshly parsed record against the tracked table.
//
// The matcher narrows a candidate set with progressively looser
// filters and never guesses: zero or multiple survivors after every
// tie-break is an error the caller must handle.
package match

import (
	"errors"
	"strings"

	"jobtrack-engine/internal/domain"
	"jobtrack-engine/internal/sheet"
)

var (
	ErrNotFound  = errors.New("no tracked row matches the record")
	ErrAmbiguous = errors.New("multiple tracked rows match the record")
)

// FindRow locates the single tracked row a status-change record refers
// to and returns its 0-based data-row index.
//
// Filters run in order: company (full or shortened form), then title
// (full or shortened form), each by normalized equality. A filter that
// would empty a non-empty candidate set is skipped, so one noisy field
// cannot zero out the match. Remaining ties go through substring
// containment on the same fields, then minimal date distance.
func FindRow(rec domain.Record, snap *sheet.Snapshot) (int, error) {
	if len(snap.Rows) == 0 {
		return 0, ErrNotFound
	}

	cand := make([]sheet.TrackedRow, len(snap.Rows))
	copy(cand, snap.Rows)

	// narrow applies one filter unless it would eliminate every
	// remaining candidate, in which case it is skipped: a single noisy
	// field must not zero out a previously-narrowed set. applied counts
	// the filters that took effect; a record that matched on no field
	// at all is not-found, not a full-table tie.
	applied := 0
	narrow := func(keep func(sheet.TrackedRow) bool) {
		var next []sheet.TrackedRow
		for _, r := range cand {
			if keep(r) {
				next = append(next, r)
			}
		}
		if len(next) > 0 {
			cand = next
			applied++
		}
	}

	narrow(func(r sheet.TrackedRow) bool {
		return equalsAny(r.Company, rec.Company, rec.ShortCompany)
	})
	narrow(func(r sheet.TrackedRow) bool {
		return equalsAny(r.Title, rec.Title, rec.ShortTitle)
	})

	if applied == 0 || len(cand) > 1 {
		narrow(func(r sheet.TrackedRow) bool {
			return containsAny(r.Company, rec.Company, rec.ShortCompany)
		})
		narrow(func(r sheet.TrackedRow) bool {
			return containsAny(r.Title, rec.Title, rec.ShortTitle)
		})
	}

	if applied == 0 {
		return 0, ErrNotFound
	}

	if len(cand) > 1 {
		cand = closestByDate(cand, rec)
	}

	switch len(cand) {
	case 1:
		return cand[0].Index, nil
	default:
		return 0, ErrAmbiguous
	}
}

func closestByDate(rows []sheet.TrackedRow, rec domain.Record) []sheet.TrackedRow {
	best := -1
	var keep []sheet.TrackedRow
	for _, r := range rows {
		if r.Date.IsZero() {
			continue
		}
		d := rec.Date.Sub(r.Date)
		if d < 0 {
			d = -d
		}
		dist := int(d.Hours())
		switch {
		case best < 0 || dist < best:
			best = dist
			keep = []sheet.TrackedRow{r}
		case dist == best:
			keep = append(keep, r)
		}
	}
	if len(keep) == 0 {
		return rows
	}
	return keep
}

func equalsAny(value string, accepted ...string) bool {
	v := norm(value)
	for _, a := range accepted {
		if a != "" && v == norm(a) {
			return true
		}
	}
	return false
}

func containsAny(value string, accepted ...string) bool {
	v := norm(value)
	if v == "" {
		return false
	}
	for _, a := range accepted {
		n := norm(a)
		if n == "" {
			continue
		}
		if strings.Contains(v, n) || strings.Contains(n, v) {
			return true
		}
	}
	return false
}

func norm(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

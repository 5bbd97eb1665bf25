package services

import (
	"sort"

	"pdroll/internal/core"
)

// Allocation is the result of distributing a deduplicated record set over
// the two segments.
type Allocation struct {
	Older  []core.Record
	Latest []core.Record
	Window []core.Month // distinct months retained, ascending
}

// AllocateWindow computes the new window and segment membership from a
// deduplicated record set. Months beyond the window capacity are dropped
// oldest-first together with their records. With six or fewer months the
// older segment stays empty and everything goes to the latest segment.
// Pure function, no side effects.
func AllocateWindow(records []core.Record) Allocation {
	months := distinctMonths(records)

	if len(months) > core.WindowCapacity {
		months = months[len(months)-core.WindowCapacity:]
	}

	var olderMonths, latestMonths []core.Month
	if len(months) <= core.LatestCapacity {
		latestMonths = months
	} else {
		split := len(months) - core.LatestCapacity
		olderMonths = months[:split]
		latestMonths = months[split:]
		if len(olderMonths) > core.OlderCapacity {
			// Unreachable under the 13-month cap, but truncate rather
			// than overfill if it ever happens.
			olderMonths = olderMonths[len(olderMonths)-core.OlderCapacity:]
		}
	}

	window := append(append([]core.Month(nil), olderMonths...), latestMonths...)

	alloc := Allocation{
		Older:  filterByMonths(records, olderMonths),
		Latest: filterByMonths(records, latestMonths),
		Window: window,
	}
	core.SortRecords(alloc.Older)
	core.SortRecords(alloc.Latest)
	return alloc
}

// distinctMonths returns the distinct months present in the record set,
// ascending. The representative date of the first record seen for each
// month is kept.
func distinctMonths(records []core.Record) []core.Month {
	seen := make(map[int]core.Month, len(records))
	for _, r := range records {
		if r.Month.IsZero() {
			continue
		}
		idx := r.Month.Year()*12 + int(r.Month.Month())
		if _, ok := seen[idx]; !ok {
			seen[idx] = r.Month
		}
	}
	months := make([]core.Month, 0, len(seen))
	for _, m := range seen {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool {
		return core.CompareMonths(months[i], months[j]) < 0
	})
	return months
}

func filterByMonths(records []core.Record, months []core.Month) []core.Record {
	if len(months) == 0 {
		return nil
	}
	member := make(map[int]bool, len(months))
	for _, m := range months {
		member[m.Year()*12+int(m.Month())] = true
	}
	var out []core.Record
	for _, r := range records {
		if member[r.Month.Year()*12+int(r.Month.Month())] {
			out = append(out, r)
		}
	}
	return out
}

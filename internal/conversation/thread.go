package conversation

import (
	"sort"
	"time"
)

// ForPeer returns the entries of one conversation, oldest first. Entries
// with equal timestamps keep their input order.
func ForPeer[T Entry](entries []T, self, peer string) []T {
	out := make([]T, 0)
	for _, e := range entries {
		if e.Peer(self) == peer {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return older(out[i].Time(), out[j].Time())
	})
	return out
}

// older orders timestamps ascending with zero times at the end.
func older(a, b time.Time) bool {
	if a.IsZero() != b.IsZero() {
		return b.IsZero()
	}
	return a.Before(b)
}

// Day is one date bucket of a thread.
type Day[T Entry] struct {
	// Date is the local calendar day (midnight). Zero for entries without
	// a usable timestamp.
	Date    time.Time
	Entries []T
}

// Label renders the bucket header.
func (d Day[T]) Label(now time.Time) string {
	if d.Date.IsZero() {
		return "Unknown date"
	}
	today := midnight(now)
	switch {
	case d.Date.Equal(today):
		return "Today"
	case d.Date.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return d.Date.Format("Mon, Jan 2 2006")
	}
}

// GroupByDay splits a thread into local-date buckets. The thread is sorted
// ascending first; buckets keep that order.
func GroupByDay[T Entry](entries []T) []Day[T] {
	sorted := make([]T, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return older(sorted[i].Time(), sorted[j].Time())
	})

	var days []Day[T]
	for _, e := range sorted {
		var date time.Time
		if ts := e.Time(); !ts.IsZero() {
			date = midnight(ts)
		}
		if n := len(days); n > 0 && days[n-1].Date.Equal(date) {
			days[n-1].Entries = append(days[n-1].Entries, e)
			continue
		}
		days = append(days, Day[T]{Date: date, Entries: []T{e}})
	}
	return days
}

func midnight(t time.Time) time.Time {
	local := t.Local()
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

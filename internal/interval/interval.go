package interval

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// New returns the interval [start, end) with both ends normalized to UTC.
func New(start, end time.Time) Interval {
	return Interval{Start: start.UTC(), End: end.UTC()}
}

// Valid reports whether the interval is non-empty.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Duration returns the length of the interval. Invalid intervals have zero length.
func (i Interval) Duration() time.Duration {
	if !i.Valid() {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Overlaps reports whether two intervals share any instant.
// Touching intervals ([a,b) and [b,c)) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// Equal reports whether both bounds denote the same instants.
func (i Interval) Equal(other Interval) bool {
	return i.Start.Equal(other.Start) && i.End.Equal(other.End)
}

// Expand widens the interval by buffer on both sides.
func (i Interval) Expand(buffer time.Duration) Interval {
	return Interval{Start: i.Start.Add(-buffer), End: i.End.Add(buffer)}
}

// Clip restricts the interval to [lo, hi). The second return value is false
// when nothing of the interval remains.
func (i Interval) Clip(lo, hi time.Time) (Interval, bool) {
	out := i
	if out.Start.Before(lo) {
		out.Start = lo
	}
	if out.End.After(hi) {
		out.End = hi
	}
	return out, out.Valid()
}

// Merge sorts intervals by start and folds overlapping or adjacent ones.
// Invalid intervals are dropped. The input slice is not modified.
func Merge(intervals []Interval) []Interval {
	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Valid() {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return nil
	}

	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Start.Before(sorted[b].Start)
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// FreeWithin returns the gaps of [start, end) not covered by merged.
// merged must be sorted and non-overlapping, as returned by Merge.
func FreeWithin(start, end time.Time, merged []Interval) []Interval {
	var free []Interval
	cursor := start
	for _, busy := range merged {
		if !busy.End.After(cursor) {
			continue
		}
		if busy.Start.After(cursor) {
			gapEnd := busy.Start
			if gapEnd.After(end) {
				gapEnd = end
			}
			if cursor.Before(gapEnd) {
				free = append(free, Interval{Start: cursor, End: gapEnd})
			}
		}
		cursor = busy.End
		if !cursor.Before(end) {
			break
		}
	}
	if cursor.Before(end) {
		free = append(free, Interval{Start: cursor, End: end})
	}
	return free
}

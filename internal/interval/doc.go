// Package interval implements arithmetic over half-open time intervals.
//
// It is the lowest layer of the meeting-time engine: busy blocks from the
// free/busy feed, buffers around them and lunch carve-outs are all expressed
// as Interval values, folded with Merge and inverted with FreeWithin.
//
// Example usage:
//
//	busy := interval.Merge([]interval.Interval{a.Expand(10 * time.Minute), b})
//	free := interval.FreeWithin(dayStart, dayEnd, busy)
package interval

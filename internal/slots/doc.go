// Package slots generates candidate meeting slots.
//
// For each local date of the search window the generator takes the policy's
// work window, removes busy time (each busy interval padded by a buffer) and
// the padded lunch break, and walks every remaining gap on a fixed step,
// emitting one slot per position where the full duration still fits.
//
// Slots are a list of options, not a partition of the free time: with a
// 30-minute duration and 15-minute step, consecutive slots overlap.
package slots

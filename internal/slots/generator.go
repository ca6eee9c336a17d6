package slots

import (
	"time"

	"github.com/teemow/inboxcal/internal/interval"
	"github.com/teemow/inboxcal/internal/workinghours"
)

const (
	// DefaultBuffer is the padding added around every busy interval and the lunch break.
	DefaultBuffer = 10 * time.Minute

	// DefaultStep is the distance between the starts of consecutive candidate slots.
	DefaultStep = 15 * time.Minute
)

// Generator enumerates fixed-duration meeting slots that fit a working-hours
// policy and avoid (buffered) busy time.
type Generator struct {
	policy *workinghours.Policy
	buffer time.Duration
	step   time.Duration
}

// Option configures a Generator.
type Option func(*Generator)

// WithBuffer overrides DefaultBuffer.
func WithBuffer(buffer time.Duration) Option {
	return func(g *Generator) {
		if buffer >= 0 {
			g.buffer = buffer
		}
	}
}

// WithStep overrides DefaultStep. Non-positive steps are ignored.
func WithStep(step time.Duration) Option {
	return func(g *Generator) {
		if step > 0 {
			g.step = step
		}
	}
}

// NewGenerator creates a Generator for the given policy.
func NewGenerator(policy *workinghours.Policy, opts ...Option) *Generator {
	g := &Generator{
		policy: policy,
		buffer: DefaultBuffer,
		step:   DefaultStep,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns every slot of the given duration inside window, in
// chronological order. Slots start at the beginning of each free gap and
// advance by the step, so consecutive slots may overlap each other.
func (g *Generator) Generate(window interval.Interval, busy []interval.Interval, duration time.Duration) []interval.Interval {
	if duration <= 0 || !window.Valid() {
		return nil
	}

	var out []interval.Interval
	loc := g.policy.Location()
	first := window.Start.In(loc)
	last := window.End.In(loc)
	lastY, lastM, lastD := last.Date()
	lastDay := time.Date(lastY, lastM, lastD, 0, 0, 0, 0, loc)

	y, m, d := first.Date()
	for i := 0; ; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		if day.After(lastDay) {
			break
		}
		if !g.policy.IsWorkingDay(day.Weekday()) {
			continue
		}

		dayWindow, ok := g.policy.DayWindow(day).Clip(window.Start, window.End)
		if !ok {
			continue
		}

		for _, free := range interval.FreeWithin(dayWindow.Start, dayWindow.End, g.DayBusy(day, dayWindow, busy)) {
			for start := free.Start; !start.Add(duration).After(free.End); start = start.Add(g.step) {
				out = append(out, interval.Interval{Start: start, End: start.Add(duration)})
			}
		}
	}
	return out
}

// DayBusy returns the merged blocked time inside dayWindow: every busy
// interval widened by the buffer, plus the buffered lunch break of day.
func (g *Generator) DayBusy(day time.Time, dayWindow interval.Interval, busy []interval.Interval) []interval.Interval {
	blocked := make([]interval.Interval, 0, len(busy)+1)
	for _, b := range busy {
		if clipped, ok := b.Expand(g.buffer).Clip(dayWindow.Start, dayWindow.End); ok {
			blocked = append(blocked, clipped)
		}
	}
	if lunch, ok := g.policy.LunchWindow(day); ok {
		if clipped, ok := lunch.Expand(g.buffer).Clip(dayWindow.Start, dayWindow.End); ok {
			blocked = append(blocked, clipped)
		}
	}
	return interval.Merge(blocked)
}

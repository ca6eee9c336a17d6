package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teemow/inboxcal/internal/calendar"
	"github.com/teemow/inboxcal/internal/candidate"
	"github.com/teemow/inboxcal/internal/interval"
	"github.com/teemow/inboxcal/internal/logging"
)

var errEmptyBusyPeriod = errors.New("busy period does not end after it starts")

func parsePeriod(p calendar.BusyPeriod) (interval.Interval, error) {
	start, err := candidate.ParseInstant(p.Start)
	if err != nil {
		return interval.Interval{}, fmt.Errorf("start: %w", err)
	}
	end, err := candidate.ParseInstant(p.End)
	if err != nil {
		return interval.Interval{}, fmt.Errorf("end: %w", err)
	}
	iv := interval.New(start, end)
	if !iv.Valid() {
		return interval.Interval{}, errEmptyBusyPeriod
	}
	return iv, nil
}

// parseBusy converts raw busy periods into intervals. Entries with a missing
// or unparsable bound, or with end not after start, are logged and skipped.
func parseBusy(ctx context.Context, logger *slog.Logger, raw []calendar.BusyPeriod) (busy []interval.Interval, dropped int) {
	busy = make([]interval.Interval, 0, len(raw))
	for i, p := range raw {
		iv, err := parsePeriod(p)
		if err != nil {
			dropped++
			logger.WarnContext(ctx, "skipping malformed busy entry",
				logging.Operation("suggest.parse_busy"),
				slog.Int("index", i),
				logging.Err(err))
			continue
		}
		busy = append(busy, iv)
	}
	return busy, dropped
}

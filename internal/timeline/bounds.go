package timeline

import (
	"time"

	"github.com/hovden/spanlane/internal/domain"
)

// Bounds is the shared time window every bar position is normalized against.
type Bounds struct {
	EarliestStart time.Time
	LatestEnd     time.Time
	TotalSpan     time.Duration
}

// Degenerate reports whether the window has no usable width. Placement and
// marker generation short-circuit when this is true.
func (b Bounds) Degenerate() bool {
	return b.TotalSpan <= 0
}

// ComputeBounds derives the shared window from all activities. An empty list
// yields a zero-span window centered on now, which callers render as an empty
// state instead of attempting placement.
func ComputeBounds(activities []domain.Activity, now time.Time) Bounds {
	if len(activities) == 0 {
		ts := now.UTC()
		return Bounds{EarliestStart: ts, LatestEnd: ts}
	}

	earliest := activities[0].Start
	latest := activities[0].End
	for _, a := range activities[1:] {
		if a.Start.Before(earliest) {
			earliest = a.Start
		}
		if a.End.After(latest) {
			latest = a.End
		}
	}
	return Bounds{
		EarliestStart: earliest,
		LatestEnd:     latest,
		TotalSpan:     latest.Sub(earliest),
	}
}

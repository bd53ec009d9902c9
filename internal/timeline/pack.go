package timeline

import (
	"sort"
	"time"

	"github.com/hovden/spanlane/internal/domain"
)

// PlacedActivity is the render-ready placement for one activity. XPercent and
// WidthPercent are in [0, 100] with XPercent+WidthPercent <= 100; Row is the
// zero-based lane index assigned by the packer. Placements are recomputed in
// full on every change, never patched incrementally.
type PlacedActivity struct {
	ID              string
	XPercent        float64
	WidthPercent    float64
	Row             int
	ConflictIDs     []string
	ProgressPercent int
}

// assignRows packs activities into lanes with a greedy first-fit scan:
// activities are walked in ascending start order (stable, so input order
// breaks ties) and each one takes the lowest row that is free by the time it
// begins. A tie on start alone never forces a new row, only true overlap
// does. Returns row index per input position and the number of rows used.
func assignRows(activities []domain.Activity) ([]int, int) {
	order := make([]int, len(activities))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return activities[order[i]].Start.Before(activities[order[j]].Start)
	})

	rows := make([]int, len(activities))
	var rowEnds []time.Time
	for _, idx := range order {
		a := activities[idx]
		assigned := -1
		for r, end := range rowEnds {
			if !end.After(a.Start) {
				assigned = r
				break
			}
		}
		if assigned == -1 {
			rowEnds = append(rowEnds, a.End)
			assigned = len(rowEnds) - 1
		} else if a.End.After(rowEnds[assigned]) {
			rowEnds[assigned] = a.End
		}
		rows[idx] = assigned
	}
	return rows, len(rowEnds)
}

// place computes the normalized horizontal position of one activity within
// the bounds. The right-edge clamp on width is a display-safety rule only;
// packing and conflict detection always use the unclamped interval. A
// degenerate window places every bar at full width.
func place(a domain.Activity, bounds Bounds) (xPercent, widthPercent float64) {
	if bounds.Degenerate() {
		return 0, 100
	}
	span := float64(bounds.TotalSpan)
	xPercent = clampPercent(float64(a.Start.Sub(bounds.EarliestStart)) / span * 100)
	widthPercent = float64(a.End.Sub(a.Start)) / span * 100
	if widthPercent < 0 {
		widthPercent = 0
	}
	if xPercent+widthPercent > 100 {
		widthPercent = 100 - xPercent
	}
	return xPercent, widthPercent
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

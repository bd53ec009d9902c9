// Package timeline is the pure layout engine behind the Gantt view: shared
// time axis, greedy row packing, pairwise conflict detection, month-boundary
// axis markers, and dependency connector routing. Everything here is
// side-effect free and recomputed in full from the complete activity list on
// every change, which keeps the output internally consistent at the cost of
// a from-scratch pass (tens of activities, well under a frame budget).
package timeline

import (
	"time"

	"github.com/hovden/spanlane/internal/domain"
)

// Config carries the inputs the engine does not own: vertical row geometry
// from the renderer, and the reference instant used to center the window when
// the activity list is empty. A zero Now falls back to the wall clock; tests
// pin it for deterministic output.
type Config struct {
	Metrics RowMetrics
	Now     time.Time
}

// Layout is the complete render-ready result of one computation pass.
type Layout struct {
	Bounds     Bounds
	Placed     []PlacedActivity
	Markers    []Marker
	Connectors []Connector
	Rows       int
}

// Empty reports whether there is nothing to draw.
func (l Layout) Empty() bool {
	return len(l.Placed) == 0
}

// Compute runs the full pipeline: bounds, row packing, conflict detection,
// axis markers, connector routing. It treats the input slice as immutable and
// is deterministic: the same activity list yields an identical layout.
func Compute(activities []domain.Activity, cfg Config) Layout {
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}

	bounds := ComputeBounds(activities, now)
	if len(activities) == 0 {
		return Layout{Bounds: bounds}
	}

	rows, rowCount := assignRows(activities)
	conflicts := detectConflicts(activities)

	placed := make([]PlacedActivity, len(activities))
	for i, a := range activities {
		x, width := place(a, bounds)
		placed[i] = PlacedActivity{
			ID:              a.ID,
			XPercent:        x,
			WidthPercent:    width,
			Row:             rows[i],
			ConflictIDs:     conflicts[i],
			ProgressPercent: a.Progress,
		}
	}

	return Layout{
		Bounds:     bounds,
		Placed:     placed,
		Markers:    monthMarkers(bounds),
		Connectors: routeConnectors(activities, placed, cfg.Metrics),
		Rows:       rowCount,
	}
}

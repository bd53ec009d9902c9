package timeline

import "time"

// Marker is one month-boundary tick on the shared axis.
type Marker struct {
	PositionPercent float64
	Label           string
}

// markerLabelLayout renders month boundaries as "Jan 2026".
const markerLabelLayout = "Jan 2006"

// monthMarkers produces one marker per calendar-month boundary from the month
// containing the earliest start through the month containing the latest end,
// inclusive. Positions are normalized against the bounds and clamped, so the
// first boundary (usually before EarliestStart) pins to 0. A degenerate
// window has no axis.
func monthMarkers(bounds Bounds) []Marker {
	if bounds.Degenerate() {
		return nil
	}

	start := bounds.EarliestStart
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	span := float64(bounds.TotalSpan)

	var markers []Marker
	for boundary := first; !boundary.After(bounds.LatestEnd); boundary = boundary.AddDate(0, 1, 0) {
		markers = append(markers, Marker{
			PositionPercent: clampPercent(float64(boundary.Sub(bounds.EarliestStart)) / span * 100),
			Label:           boundary.Format(markerLabelLayout),
		})
	}
	return markers
}

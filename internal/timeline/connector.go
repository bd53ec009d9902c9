package timeline

import "github.com/hovden/spanlane/internal/domain"

// RowMetrics is the vertical geometry the rendering layer supplies: the
// router computes anchor heights from it but does not own the constants.
type RowMetrics struct {
	RowHeight float64
	TopOffset float64
}

// center returns the vertical midpoint of one row.
func (m RowMetrics) center(row int) float64 {
	return m.TopOffset + float64(row)*m.RowHeight + m.RowHeight/2
}

// Connector is one routed dependency edge: from the right edge of the
// dependency's bar to the left edge of the dependent's bar. X values are
// percentages on the shared axis; Y values are in the renderer's units per
// the supplied RowMetrics.
type Connector struct {
	FromID string
	ToID   string
	FromX  float64
	FromY  float64
	ToX    float64
	ToY    float64
}

// routeConnectors computes one connector per dependency edge. Edges whose
// dependency id is not among the current placements (a stale reference) are
// skipped without error; the UI may warn but the router's contract is skip
// and continue.
func routeConnectors(activities []domain.Activity, placed []PlacedActivity, metrics RowMetrics) []Connector {
	byID := make(map[string]PlacedActivity, len(placed))
	for _, p := range placed {
		byID[p.ID] = p
	}

	var connectors []Connector
	for i, a := range activities {
		dependent := placed[i]
		for _, depID := range a.Dependencies {
			dependency, ok := byID[depID]
			if !ok {
				continue
			}
			connectors = append(connectors, Connector{
				FromID: dependency.ID,
				ToID:   dependent.ID,
				FromX:  dependency.XPercent + dependency.WidthPercent,
				FromY:  metrics.center(dependency.Row),
				ToX:    dependent.XPercent,
				ToY:    metrics.center(dependent.Row),
			})
		}
	}
	return connectors
}

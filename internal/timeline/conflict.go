package timeline

import (
	"slices"

	"github.com/hovden/spanlane/internal/domain"
)

// overlaps applies the half-open interval test: [s1,e1) and [s2,e2) overlap
// iff s1 < e2 and s2 < e1. Zero-length spans therefore never overlap
// anything, including an identical zero-length span.
func overlaps(a, b domain.Activity) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// detectConflicts computes, per activity, the ids of every other activity
// whose interval overlaps it. Conflicts are independent of row assignment:
// packing only guarantees no overlap within a row, so two conflicting
// activities normally sit in different rows yet still conflict. The result
// is advisory (UI emphasis), never a validation error. O(n²), acceptable at
// the tens-of-activities scale this runs at.
func detectConflicts(activities []domain.Activity) [][]string {
	conflicts := make([][]string, len(activities))
	for i := range activities {
		for j := i + 1; j < len(activities); j++ {
			if overlaps(activities[i], activities[j]) {
				conflicts[i] = append(conflicts[i], activities[j].ID)
				conflicts[j] = append(conflicts[j], activities[i].ID)
			}
		}
	}
	for i := range conflicts {
		slices.Sort(conflicts[i])
	}
	return conflicts
}

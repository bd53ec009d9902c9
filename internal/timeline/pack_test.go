package timeline

import (
	"testing"
	"time"

	"github.com/hovden/spanlane/internal/domain"
)

func TestAssignRowsFirstFit(t *testing.T) {
	tests := []struct {
		name     string
		spans    [][2]int // day-of-January start/end per activity, input order
		wantRows []int
	}{
		{
			name:     "disjoint chain shares one row",
			spans:    [][2]int{{1, 5}, {5, 10}, {10, 15}},
			wantRows: []int{0, 0, 0},
		},
		{
			name:     "full overlap stacks",
			spans:    [][2]int{{1, 10}, {1, 10}, {1, 10}},
			wantRows: []int{0, 1, 2},
		},
		{
			name:     "freed row is reused before opening a new one",
			spans:    [][2]int{{1, 10}, {5, 15}, {11, 20}},
			wantRows: []int{0, 1, 0},
		},
		{
			name:     "start tie alone does not force a new row",
			spans:    [][2]int{{1, 1}, {1, 5}},
			wantRows: []int{0, 0},
		},
		{
			name:     "start tie with overlap stacks in input order",
			spans:    [][2]int{{1, 5}, {1, 3}},
			wantRows: []int{0, 1},
		},
		{
			// Zero-length spans never overlap under the half-open test, so
			// same-instant milestones all land in the first row.
			name:     "same-instant zero-length spans share row 0",
			spans:    [][2]int{{3, 3}, {3, 3}, {3, 3}},
			wantRows: []int{0, 0, 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			activities := make([]domain.Activity, len(tc.spans))
			for i, span := range tc.spans {
				activities[i] = act(t, string(rune('a'+i)), day(span[0]), day(span[1]))
			}

			rows, _ := assignRows(activities)
			for i, want := range tc.wantRows {
				if rows[i] != want {
					t.Errorf("activity %d: row = %d, want %d (all rows %v)", i, rows[i], want, rows)
				}
			}
		})
	}
}

func TestAssignRowsUnsortedInput(t *testing.T) {
	// The packer sorts a working copy; the input slice must stay untouched and
	// row indexes must map back to input positions.
	late := act(t, "late", day(11), day(20))
	early := act(t, "early", day(1), day(10))
	mid := act(t, "mid", day(5), day(15))

	activities := []domain.Activity{late, early, mid}
	rows, count := assignRows(activities)

	if activities[0].ID != "late" {
		t.Fatalf("input order mutated")
	}
	// Sorted order: early(row 0), mid(row 1), late(row 0 freed by early).
	if rows[1] != 0 || rows[2] != 1 || rows[0] != 0 {
		t.Fatalf("rows = %v, want late=0 early=0 mid=1", rows)
	}
	if count != 2 {
		t.Fatalf("row count = %d, want 2", count)
	}
}

func TestPlaceClampsRightEdge(t *testing.T) {
	bounds := Bounds{
		EarliestStart: day(1),
		LatestEnd:     day(11),
		TotalSpan:     day(11).Sub(day(1)),
	}
	a := act(t, "a", day(6), day(11))

	x, width := place(a, bounds)
	if x != 50 {
		t.Fatalf("x = %v, want 50", x)
	}
	if x+width > 100 {
		t.Fatalf("bar overflows: x=%v w=%v", x, width)
	}
}

func TestPlaceZeroWidthInsideWindow(t *testing.T) {
	bounds := Bounds{
		EarliestStart: day(1),
		LatestEnd:     day(11),
		TotalSpan:     day(11).Sub(day(1)),
	}
	a := act(t, "a", day(6), day(6))

	x, width := place(a, bounds)
	if x != 50 || width != 0 {
		t.Fatalf("zero-length span: x=%v w=%v, want x=50 w=0", x, width)
	}
}

func TestComputeBoundsSingleActivity(t *testing.T) {
	a := act(t, "a", day(2), day(9))

	bounds := ComputeBounds([]domain.Activity{a}, testNow)

	if !bounds.EarliestStart.Equal(day(2)) || !bounds.LatestEnd.Equal(day(9)) {
		t.Fatalf("bounds = %+v", bounds)
	}
	if bounds.TotalSpan != 7*24*time.Hour {
		t.Fatalf("span = %v, want 168h", bounds.TotalSpan)
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	tests := []struct {
		name string
		a, b [2]int
		want bool
	}{
		{name: "touching intervals do not overlap", a: [2]int{1, 5}, b: [2]int{5, 10}, want: false},
		{name: "nested intervals overlap", a: [2]int{1, 10}, b: [2]int{3, 4}, want: true},
		{name: "identical zero-length spans do not overlap", a: [2]int{3, 3}, b: [2]int{3, 3}, want: false},
		{name: "zero-length span inside interval overlaps", a: [2]int{1, 10}, b: [2]int{5, 5}, want: true},
		{name: "disjoint intervals", a: [2]int{1, 2}, b: [2]int{8, 9}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := act(t, "x", day(tc.a[0]), day(tc.a[1]))
			b := act(t, "y", day(tc.b[0]), day(tc.b[1]))
			if got := overlaps(a, b); got != tc.want {
				t.Fatalf("overlaps = %v, want %v", got, tc.want)
			}
			if got := overlaps(b, a); got != tc.want {
				t.Fatalf("overlaps (swapped) = %v, want %v", got, tc.want)
			}
		})
	}
}

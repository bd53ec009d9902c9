package domain

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestNewActivityNormalizes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a, err := NewActivity(ActivityInput{
		ID:           " act-1 ",
		Name:         "  Migrate cluster A  ",
		Start:        time.Date(2026, 3, 2, 9, 0, 0, 500, time.UTC),
		End:          time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC),
		Assignees:    []string{" Dana ", "dana", "", "Lee"},
		Tags:         []string{"Wave-1", "wave-1", " storage "},
		Dependencies: []string{"act-0", "act-1", "act-0", " "},
		Progress:     40,
	}, now)
	if err != nil {
		t.Fatalf("NewActivity() error = %v", err)
	}
	if a.ID != "act-1" || a.Name != "Migrate cluster A" {
		t.Fatalf("unexpected id/name: %q %q", a.ID, a.Name)
	}
	if a.Kind != KindCustom || a.Status != StatusPending {
		t.Fatalf("expected kind/status defaults, got %q %q", a.Kind, a.Status)
	}
	if !reflect.DeepEqual(a.Assignees, []string{"Dana", "Lee"}) {
		t.Fatalf("assignees = %v", a.Assignees)
	}
	if !reflect.DeepEqual(a.Tags, []string{"storage", "wave-1"}) {
		t.Fatalf("tags = %v", a.Tags)
	}
	// Self reference and blanks stripped, rest deduped and sorted.
	if !reflect.DeepEqual(a.Dependencies, []string{"act-0"}) {
		t.Fatalf("dependencies = %v", a.Dependencies)
	}
	if a.Start.Nanosecond() != 0 {
		t.Fatalf("start not truncated to seconds: %v", a.Start)
	}
}

func TestNewActivityValidation(t *testing.T) {
	now := time.Now()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		in      ActivityInput
		wantErr error
	}{
		{name: "missing id", in: ActivityInput{Name: "x", Start: start, End: start}, wantErr: ErrInvalidID},
		{name: "missing name", in: ActivityInput{ID: "a", Start: start, End: start}, wantErr: ErrInvalidName},
		{name: "unknown kind", in: ActivityInput{ID: "a", Name: "x", Kind: "renovation", Start: start, End: start}, wantErr: ErrInvalidKind},
		{name: "unknown status", in: ActivityInput{ID: "a", Name: "x", Status: "paused", Start: start, End: start}, wantErr: ErrInvalidStatus},
		{name: "inverted span", in: ActivityInput{ID: "a", Name: "x", Start: start, End: start.Add(-time.Hour)}, wantErr: ErrInvalidSpan},
		{name: "progress below range", in: ActivityInput{ID: "a", Name: "x", Start: start, End: start, Progress: -1}, wantErr: ErrInvalidProgress},
		{name: "progress above range", in: ActivityInput{ID: "a", Name: "x", Start: start, End: start, Progress: 101}, wantErr: ErrInvalidProgress},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewActivity(tc.in, now); !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewActivityZeroLengthSpanAllowed(t *testing.T) {
	now := time.Now()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	a, err := NewActivity(ActivityInput{ID: "a", Name: "milestone", Start: start, End: start}, now)
	if err != nil {
		t.Fatalf("zero-length span rejected: %v", err)
	}
	if a.Duration() != 0 {
		t.Fatalf("duration = %v, want 0", a.Duration())
	}
}

func TestActivityReschedule(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := mustActivity(t, "a", now)

	if err := a.Reschedule(now.Add(48*time.Hour), now.Add(24*time.Hour), now); !errors.Is(err, ErrInvalidSpan) {
		t.Fatalf("inverted reschedule error = %v, want ErrInvalidSpan", err)
	}
	if err := a.Reschedule(now.Add(24*time.Hour), now.Add(72*time.Hour), now.Add(time.Minute)); err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}
	if !a.UpdatedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("updated_at not bumped: %v", a.UpdatedAt)
	}
}

func TestActivitySetDependenciesStripsSelf(t *testing.T) {
	now := time.Now()
	a := mustActivity(t, "a", now)
	a.SetDependencies([]string{"b", "a", "c", "b"}, now)
	if !reflect.DeepEqual(a.Dependencies, []string{"b", "c"}) {
		t.Fatalf("dependencies = %v", a.Dependencies)
	}
	if !a.DependsOn("b") || a.DependsOn("a") {
		t.Fatalf("DependsOn wrong: %v", a.Dependencies)
	}
}

func TestActivityArchiveRestore(t *testing.T) {
	now := time.Now()
	a := mustActivity(t, "a", now)
	later := now.Add(time.Minute)
	a.Archive(later)
	if a.ArchivedAt == nil {
		t.Fatal("expected archived_at to be set")
	}
	a.Restore(later.Add(time.Minute))
	if a.ArchivedAt != nil {
		t.Fatal("expected archived_at to be nil")
	}
}

func TestParseKind(t *testing.T) {
	if kind, err := ParseKind("  Migration "); err != nil || kind != KindMigration {
		t.Fatalf("ParseKind = %q, %v", kind, err)
	}
	if kind, err := ParseKind(""); err != nil || kind != KindCustom {
		t.Fatalf("blank kind should default to custom, got %q, %v", kind, err)
	}
	if _, err := ParseKind("renovation"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	if status, err := ParseStatus("IN_PROGRESS"); err != nil || status != StatusInProgress {
		t.Fatalf("ParseStatus = %q, %v", status, err)
	}
	if status, err := ParseStatus(""); err != nil || status != StatusPending {
		t.Fatalf("blank status should default to pending, got %q, %v", status, err)
	}
	if _, err := ParseStatus("paused"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestKindAndStatusTablesAreExhaustive(t *testing.T) {
	for _, kind := range Kinds() {
		if kind.Label() == string(kind) && kind != KindCustom {
			t.Errorf("kind %q has no display entry", kind)
		}
	}
	for _, status := range Statuses() {
		if _, ok := statusTable[status]; !ok {
			t.Errorf("status %q has no display entry", status)
		}
	}
}

func mustActivity(t *testing.T, id string, now time.Time) Activity {
	t.Helper()
	a, err := NewActivity(ActivityInput{
		ID:    id,
		Name:  "activity " + id,
		Start: now,
		End:   now.Add(24 * time.Hour),
	}, now)
	if err != nil {
		t.Fatalf("NewActivity(%s): %v", id, err)
	}
	return a
}

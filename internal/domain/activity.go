package domain

import (
	"slices"
	"strings"
	"time"
)

// Activity is one scheduled unit of migration work, shown as a single bar on
// the timeline. Start and End always satisfy Start <= End; zero-length spans
// are allowed.
type Activity struct {
	ID           string
	Name         string
	Kind         Kind
	Status       Status
	Start        time.Time
	End          time.Time
	Assignees    []string
	Tags         []string
	Notes        string
	Dependencies []string
	Progress     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ArchivedAt   *time.Time
}

// ActivityInput holds write-time values for creating an activity.
type ActivityInput struct {
	ID           string
	Name         string
	Kind         Kind
	Status       Status
	Start        time.Time
	End          time.Time
	Assignees    []string
	Tags         []string
	Notes        string
	Dependencies []string
	Progress     int
}

// NewActivity validates and normalizes one activity. Inverted spans
// (Start after End) are rejected here so the layout engine never sees one.
func NewActivity(in ActivityInput, now time.Time) (Activity, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Notes = strings.TrimSpace(in.Notes)

	if in.ID == "" {
		return Activity{}, ErrInvalidID
	}
	if in.Name == "" {
		return Activity{}, ErrInvalidName
	}
	if in.Kind == "" {
		in.Kind = KindCustom
	}
	if !in.Kind.Valid() {
		return Activity{}, ErrInvalidKind
	}
	if in.Status == "" {
		in.Status = StatusPending
	}
	if !in.Status.Valid() {
		return Activity{}, ErrInvalidStatus
	}
	if in.Start.After(in.End) {
		return Activity{}, ErrInvalidSpan
	}
	if in.Progress < 0 || in.Progress > 100 {
		return Activity{}, ErrInvalidProgress
	}

	ts := now.UTC()
	return Activity{
		ID:           in.ID,
		Name:         in.Name,
		Kind:         in.Kind,
		Status:       in.Status,
		Start:        in.Start.UTC().Truncate(time.Second),
		End:          in.End.UTC().Truncate(time.Second),
		Assignees:    normalizeAssignees(in.Assignees),
		Tags:         normalizeTags(in.Tags),
		Notes:        in.Notes,
		Dependencies: NormalizeDependencies(in.ID, in.Dependencies),
		Progress:     in.Progress,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}, nil
}

// UpdateDetails replaces the editable fields of the activity.
func (a *Activity) UpdateDetails(name string, kind Kind, status Status, assignees, tags []string, notes string, progress int, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	if !kind.Valid() {
		return ErrInvalidKind
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if progress < 0 || progress > 100 {
		return ErrInvalidProgress
	}
	a.Name = name
	a.Kind = kind
	a.Status = status
	a.Assignees = normalizeAssignees(assignees)
	a.Tags = normalizeTags(tags)
	a.Notes = strings.TrimSpace(notes)
	a.Progress = progress
	a.UpdatedAt = now.UTC()
	return nil
}

// Reschedule moves the activity span. Inverted spans are rejected.
func (a *Activity) Reschedule(start, end time.Time, now time.Time) error {
	if start.After(end) {
		return ErrInvalidSpan
	}
	a.Start = start.UTC().Truncate(time.Second)
	a.End = end.UTC().Truncate(time.Second)
	a.UpdatedAt = now.UTC()
	return nil
}

// SetDependencies replaces the dependency id set. Self references are
// stripped; cycles are not validated here (the layout engine tolerates them).
func (a *Activity) SetDependencies(ids []string, now time.Time) {
	a.Dependencies = NormalizeDependencies(a.ID, ids)
	a.UpdatedAt = now.UTC()
}

// Archive marks the activity archived without destroying it.
func (a *Activity) Archive(now time.Time) {
	ts := now.UTC()
	a.ArchivedAt = &ts
	a.UpdatedAt = ts
}

// Restore clears the archived marker.
func (a *Activity) Restore(now time.Time) {
	a.ArchivedAt = nil
	a.UpdatedAt = now.UTC()
}

// Duration returns the span length. Zero for point-in-time activities.
func (a Activity) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

// DependsOn reports whether id is in the dependency set.
func (a Activity) DependsOn(id string) bool {
	return slices.Contains(a.Dependencies, id)
}

// NormalizeDependencies dedupes, sorts, and strips blanks and self references
// from a dependency id list.
func NormalizeDependencies(selfID string, ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]struct{}{}
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" || id == selfID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func normalizeAssignees(assignees []string) []string {
	out := make([]string, 0, len(assignees))
	seen := map[string]struct{}{}
	for _, raw := range assignees {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

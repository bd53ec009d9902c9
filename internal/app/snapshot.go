package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hovden/spanlane/internal/domain"
)

// SnapshotVersion identifies the export file format.
const SnapshotVersion = "spanlane.snapshot.v1"

// Snapshot is the portable JSON form of a full plan.
type Snapshot struct {
	Version    string             `json:"version"`
	ExportedAt time.Time          `json:"exported_at"`
	Activities []SnapshotActivity `json:"activities"`
}

// SnapshotActivity is one persisted activity row in a snapshot.
type SnapshotActivity struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Kind         string     `json:"kind"`
	Status       string     `json:"status"`
	Start        time.Time  `json:"start"`
	End          time.Time  `json:"end"`
	Assignees    []string   `json:"assignees,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Dependencies []string   `json:"dependencies,omitempty"`
	Progress     int        `json:"progress"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
}

// ExportSnapshot serializes the plan for backup or transfer.
func (s *Service) ExportSnapshot(ctx context.Context, includeArchived bool) (Snapshot, error) {
	activities, err := s.repo.ListActivities(ctx, includeArchived)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Activities: make([]SnapshotActivity, 0, len(activities)),
	}
	for _, activity := range activities {
		snap.Activities = append(snap.Activities, snapshotActivityFromDomain(activity))
	}
	snap.sort()
	return snap, nil
}

// ImportSnapshot merges a snapshot into the current plan. Existing activities
// are overwritten by id; everything else is created.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()

	for _, entry := range snap.Activities {
		activity := entry.toDomain()
		if _, err := s.repo.GetActivity(ctx, activity.ID); err == nil {
			if err := s.repo.UpdateActivity(ctx, activity); err != nil {
				return err
			}
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.repo.CreateActivity(ctx, activity); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a snapshot for structural problems before import.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}

	ids := map[string]struct{}{}
	for i, a := range s.Activities {
		if strings.TrimSpace(a.ID) == "" {
			return fmt.Errorf("activities[%d].id is required", i)
		}
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("activities[%d].name is required", i)
		}
		if !domain.Kind(a.Kind).Valid() {
			return fmt.Errorf("activities[%d].kind %q is unknown", i, a.Kind)
		}
		if !domain.Status(a.Status).Valid() {
			return fmt.Errorf("activities[%d].status %q is unknown", i, a.Status)
		}
		if a.Start.IsZero() || a.End.IsZero() {
			return fmt.Errorf("activities[%d] span is required", i)
		}
		if a.End.Before(a.Start) {
			return fmt.Errorf("activities[%d] span ends before it starts", i)
		}
		if a.Progress < 0 || a.Progress > 100 {
			return fmt.Errorf("activities[%d].progress must be 0-100", i)
		}
		if a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
			return fmt.Errorf("activities[%d] timestamps are required", i)
		}
		if _, exists := ids[a.ID]; exists {
			return fmt.Errorf("duplicate activity id: %q", a.ID)
		}
		ids[a.ID] = struct{}{}
	}
	return nil
}

// sort orders activities by start then id so exports diff cleanly.
func (s *Snapshot) sort() {
	sort.Slice(s.Activities, func(i, j int) bool {
		if !s.Activities[i].Start.Equal(s.Activities[j].Start) {
			return s.Activities[i].Start.Before(s.Activities[j].Start)
		}
		return s.Activities[i].ID < s.Activities[j].ID
	})
}

func snapshotActivityFromDomain(a domain.Activity) SnapshotActivity {
	out := SnapshotActivity{
		ID:           a.ID,
		Name:         a.Name,
		Kind:         string(a.Kind),
		Status:       string(a.Status),
		Start:        a.Start,
		End:          a.End,
		Assignees:    append([]string(nil), a.Assignees...),
		Tags:         append([]string(nil), a.Tags...),
		Notes:        a.Notes,
		Dependencies: append([]string(nil), a.Dependencies...),
		Progress:     a.Progress,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if a.ArchivedAt != nil {
		archived := *a.ArchivedAt
		out.ArchivedAt = &archived
	}
	return out
}

func (a SnapshotActivity) toDomain() domain.Activity {
	out := domain.Activity{
		ID:           strings.TrimSpace(a.ID),
		Name:         strings.TrimSpace(a.Name),
		Kind:         domain.Kind(a.Kind),
		Status:       domain.Status(a.Status),
		Start:        a.Start,
		End:          a.End,
		Assignees:    append([]string(nil), a.Assignees...),
		Tags:         append([]string(nil), a.Tags...),
		Notes:        a.Notes,
		Dependencies: append([]string(nil), a.Dependencies...),
		Progress:     a.Progress,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if a.ArchivedAt != nil {
		archived := *a.ArchivedAt
		out.ArchivedAt = &archived
	}
	return out
}

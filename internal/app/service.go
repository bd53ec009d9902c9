package app

import (
	"context"
	"fmt"
	"time"

	"github.com/hovden/spanlane/internal/domain"
	"github.com/hovden/spanlane/internal/timeline"
)

// DeleteMode selects what happens when an activity is deleted.
type DeleteMode string

// DeleteModeArchive and related constants define package defaults.
const (
	DeleteModeArchive DeleteMode = "archive"
	DeleteModeHard    DeleteMode = "hard"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// ServiceConfig holds configuration for the plan service.
type ServiceConfig struct {
	DefaultDeleteMode DeleteMode
}

// Service coordinates activity mutations against the repository and exposes
// layout recomputation over the current plan.
type Service struct {
	repo              Repository
	idGen             IDGenerator
	clock             Clock
	defaultDeleteMode DeleteMode
}

// NewService constructs the plan service.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.DefaultDeleteMode == "" {
		cfg.DefaultDeleteMode = DeleteModeArchive
	}
	return &Service{
		repo:              repo,
		idGen:             idGen,
		clock:             clock,
		defaultDeleteMode: cfg.DefaultDeleteMode,
	}
}

// DefaultDeleteMode returns the configured delete behavior.
func (s *Service) DefaultDeleteMode() DeleteMode {
	return s.defaultDeleteMode
}

// ListActivities lists activities, optionally including archived ones.
func (s *Service) ListActivities(ctx context.Context, includeArchived bool) ([]domain.Activity, error) {
	return s.repo.ListActivities(ctx, includeArchived)
}

// GetActivity fetches one activity by id.
func (s *Service) GetActivity(ctx context.Context, id string) (domain.Activity, error) {
	return s.repo.GetActivity(ctx, id)
}

// CreateActivityInput holds input values for create operations.
type CreateActivityInput struct {
	Name         string
	Kind         domain.Kind
	Status       domain.Status
	Start        time.Time
	End          time.Time
	Assignees    []string
	Tags         []string
	Notes        string
	Dependencies []string
	Progress     int
}

// CreateActivity validates and persists a new activity.
func (s *Service) CreateActivity(ctx context.Context, in CreateActivityInput) (domain.Activity, error) {
	activity, err := domain.NewActivity(domain.ActivityInput{
		ID:           s.idGen(),
		Name:         in.Name,
		Kind:         in.Kind,
		Status:       in.Status,
		Start:        in.Start,
		End:          in.End,
		Assignees:    in.Assignees,
		Tags:         in.Tags,
		Notes:        in.Notes,
		Dependencies: in.Dependencies,
		Progress:     in.Progress,
	}, s.clock())
	if err != nil {
		return domain.Activity{}, err
	}
	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		return domain.Activity{}, fmt.Errorf("create activity: %w", err)
	}
	return activity, nil
}

// UpdateActivityInput holds input values for update operations.
type UpdateActivityInput struct {
	ID        string
	Name      string
	Kind      domain.Kind
	Status    domain.Status
	Start     time.Time
	End       time.Time
	Assignees []string
	Tags      []string
	Notes     string
	Progress  int
}

// UpdateActivity applies edits to one activity.
func (s *Service) UpdateActivity(ctx context.Context, in UpdateActivityInput) (domain.Activity, error) {
	activity, err := s.repo.GetActivity(ctx, in.ID)
	if err != nil {
		return domain.Activity{}, err
	}
	now := s.clock()
	if err := activity.UpdateDetails(in.Name, in.Kind, in.Status, in.Assignees, in.Tags, in.Notes, in.Progress, now); err != nil {
		return domain.Activity{}, err
	}
	if err := activity.Reschedule(in.Start, in.End, now); err != nil {
		return domain.Activity{}, err
	}
	if err := s.repo.UpdateActivity(ctx, activity); err != nil {
		return domain.Activity{}, fmt.Errorf("update activity: %w", err)
	}
	return activity, nil
}

// RescheduleActivity moves only the activity span.
func (s *Service) RescheduleActivity(ctx context.Context, id string, start, end time.Time) (domain.Activity, error) {
	activity, err := s.repo.GetActivity(ctx, id)
	if err != nil {
		return domain.Activity{}, err
	}
	if err := activity.Reschedule(start, end, s.clock()); err != nil {
		return domain.Activity{}, err
	}
	if err := s.repo.UpdateActivity(ctx, activity); err != nil {
		return domain.Activity{}, fmt.Errorf("reschedule activity: %w", err)
	}
	return activity, nil
}

// SetDependencies replaces one activity's dependency set. Referenced ids are
// not required to exist; the layout engine skips dangling edges, so a stale
// reference degrades to a missing connector rather than an error here.
func (s *Service) SetDependencies(ctx context.Context, id string, dependencyIDs []string) (domain.Activity, error) {
	activity, err := s.repo.GetActivity(ctx, id)
	if err != nil {
		return domain.Activity{}, err
	}
	activity.SetDependencies(dependencyIDs, s.clock())
	if err := s.repo.UpdateActivity(ctx, activity); err != nil {
		return domain.Activity{}, fmt.Errorf("set dependencies: %w", err)
	}
	return activity, nil
}

// DeleteActivity archives or hard-deletes one activity. An empty mode uses
// the configured default. Hard deletion also drops the row's dependency
// edges; references from other activities remain and dangle harmlessly.
func (s *Service) DeleteActivity(ctx context.Context, id string, mode DeleteMode) error {
	if mode == "" {
		mode = s.defaultDeleteMode
	}
	switch mode {
	case DeleteModeArchive:
		activity, err := s.repo.GetActivity(ctx, id)
		if err != nil {
			return err
		}
		activity.Archive(s.clock())
		if err := s.repo.UpdateActivity(ctx, activity); err != nil {
			return fmt.Errorf("archive activity: %w", err)
		}
		return nil
	case DeleteModeHard:
		return s.repo.DeleteActivity(ctx, id)
	default:
		return ErrInvalidDeleteMode
	}
}

// RestoreActivity clears the archived marker.
func (s *Service) RestoreActivity(ctx context.Context, id string) (domain.Activity, error) {
	activity, err := s.repo.GetActivity(ctx, id)
	if err != nil {
		return domain.Activity{}, err
	}
	activity.Restore(s.clock())
	if err := s.repo.UpdateActivity(ctx, activity); err != nil {
		return domain.Activity{}, fmt.Errorf("restore activity: %w", err)
	}
	return activity, nil
}

// ComputeLayout lists the active plan and runs one full layout pass.
func (s *Service) ComputeLayout(ctx context.Context, metrics timeline.RowMetrics) (timeline.Layout, error) {
	activities, err := s.repo.ListActivities(ctx, false)
	if err != nil {
		return timeline.Layout{}, err
	}
	return timeline.Compute(activities, timeline.Config{
		Metrics: metrics,
		Now:     s.clock(),
	}), nil
}

// EstimateTimeline produces a duration estimate for a migration workload.
func (s *Service) EstimateTimeline(req EstimationRequest) EstimationResult {
	return EstimateTimeline(req)
}

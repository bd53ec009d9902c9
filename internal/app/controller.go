package app

import (
	"context"
	"time"

	"github.com/hovden/spanlane/internal/domain"
	"github.com/hovden/spanlane/internal/timeline"
)

// Collaborator is the mutation surface the controller forwards intents to.
// *Service satisfies it; tests substitute an in-memory fake. The controller
// performs no validation beyond existence checks and leaves failures for the
// collaborator to surface.
type Collaborator interface {
	ListActivities(ctx context.Context, includeArchived bool) ([]domain.Activity, error)
	CreateActivity(ctx context.Context, in CreateActivityInput) (domain.Activity, error)
	UpdateActivity(ctx context.Context, in UpdateActivityInput) (domain.Activity, error)
	DeleteActivity(ctx context.Context, id string, mode DeleteMode) error
	SetDependencies(ctx context.Context, id string, dependencyIDs []string) (domain.Activity, error)
}

// Modal identifies which transient UI surface is open.
type Modal int

// Modal values.
const (
	ModalNone Modal = iota
	ModalCreate
	ModalEdit
	ModalConfirmDelete
	ModalDependencies
)

// UIState is the controller's transient state: selection and modal
// visibility. It is an explicit value, never module-level, so the layout
// engine stays independently testable.
type UIState struct {
	SelectedID string
	Modal      Modal
}

// Controller holds transient UI state and forwards create/update/delete and
// dependency-change intents to the collaborator, recomputing the full layout
// after every completed mutation. It never mutates rows or positions itself.
type Controller struct {
	collab     Collaborator
	metrics    timeline.RowMetrics
	clock      Clock
	state      UIState
	activities []domain.Activity
	layout     timeline.Layout
}

// NewController constructs a controller over the given collaborator.
func NewController(collab Collaborator, metrics timeline.RowMetrics, clock Clock) *Controller {
	if clock == nil {
		clock = time.Now
	}
	return &Controller{collab: collab, metrics: metrics, clock: clock}
}

// State returns the current transient UI state.
func (c *Controller) State() UIState {
	return c.state
}

// Layout returns the layout from the most recent recomputation.
func (c *Controller) Layout() timeline.Layout {
	return c.layout
}

// Activities returns the activity list from the most recent refresh.
func (c *Controller) Activities() []domain.Activity {
	return c.activities
}

// Refresh reloads the complete activity list and recomputes the layout in
// one pass. Mutation helpers call it after the collaborator reports success,
// so a recomputation never runs against a half-applied change.
func (c *Controller) Refresh(ctx context.Context) error {
	activities, err := c.collab.ListActivities(ctx, false)
	if err != nil {
		return err
	}
	c.activities = activities
	c.layout = timeline.Compute(activities, timeline.Config{
		Metrics: c.metrics,
		Now:     c.clock(),
	})
	if c.state.SelectedID != "" && !c.hasActivity(c.state.SelectedID) {
		c.state.SelectedID = ""
	}
	return nil
}

// Select marks one activity selected. An empty id clears the selection; an
// unknown id is ignored (existence check only).
func (c *Controller) Select(id string) {
	if id == "" {
		c.state.SelectedID = ""
		return
	}
	if c.hasActivity(id) {
		c.state.SelectedID = id
	}
}

// OpenModal and CloseModal toggle modal visibility flags.
func (c *Controller) OpenModal(m Modal) {
	c.state.Modal = m
}

// CloseModal clears any open modal.
func (c *Controller) CloseModal() {
	c.state.Modal = ModalNone
}

// RequestCreate forwards a create intent and recomputes on success.
func (c *Controller) RequestCreate(ctx context.Context, in CreateActivityInput) (domain.Activity, error) {
	activity, err := c.collab.CreateActivity(ctx, in)
	if err != nil {
		return domain.Activity{}, err
	}
	if err := c.Refresh(ctx); err != nil {
		return domain.Activity{}, err
	}
	return activity, nil
}

// RequestUpdate forwards an update intent and recomputes on success.
func (c *Controller) RequestUpdate(ctx context.Context, in UpdateActivityInput) (domain.Activity, error) {
	if !c.hasActivity(in.ID) {
		return domain.Activity{}, ErrNotFound
	}
	activity, err := c.collab.UpdateActivity(ctx, in)
	if err != nil {
		return domain.Activity{}, err
	}
	if err := c.Refresh(ctx); err != nil {
		return domain.Activity{}, err
	}
	return activity, nil
}

// RequestDelete forwards a delete intent and recomputes on success.
func (c *Controller) RequestDelete(ctx context.Context, id string, mode DeleteMode) error {
	if !c.hasActivity(id) {
		return ErrNotFound
	}
	if err := c.collab.DeleteActivity(ctx, id, mode); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// RequestDependencyChange forwards a dependency-set replacement and
// recomputes on success.
func (c *Controller) RequestDependencyChange(ctx context.Context, id string, dependencyIDs []string) (domain.Activity, error) {
	if !c.hasActivity(id) {
		return domain.Activity{}, ErrNotFound
	}
	activity, err := c.collab.SetDependencies(ctx, id, dependencyIDs)
	if err != nil {
		return domain.Activity{}, err
	}
	if err := c.Refresh(ctx); err != nil {
		return domain.Activity{}, err
	}
	return activity, nil
}

func (c *Controller) hasActivity(id string) bool {
	for _, a := range c.activities {
		if a.ID == id {
			return true
		}
	}
	return false
}

package tui

import (
	"github.com/hovden/spanlane/internal/app"
	"github.com/hovden/spanlane/internal/timeline"
)

type ActivityFieldConfig struct {
	ShowAssignees bool
	ShowProgress  bool
	ShowTags      bool
	ShowNotes     bool
}

type Option func(*Model)

func DefaultActivityFieldConfig() ActivityFieldConfig {
	return ActivityFieldConfig{
		ShowAssignees: true,
		ShowProgress:  true,
		ShowTags:      true,
		ShowNotes:     false,
	}
}

func WithActivityFieldConfig(cfg ActivityFieldConfig) Option {
	return func(m *Model) {
		m.activityFields = cfg
	}
}

func WithDefaultDeleteMode(mode app.DeleteMode) Option {
	return func(m *Model) {
		switch mode {
		case app.DeleteModeArchive, app.DeleteModeHard:
			m.defaultDeleteMode = mode
		}
	}
}

func WithRowMetrics(metrics timeline.RowMetrics) Option {
	return func(m *Model) {
		if metrics.RowHeight > 0 {
			m.metrics = metrics
		}
	}
}

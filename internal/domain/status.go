package domain

import (
	"slices"
	"strings"
)

// Status tracks an activity through its execution lifecycle.
type Status string

// Status values.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
)

// validStatuses stores all supported activity statuses.
var validStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusBlocked,
}

// statusInfo carries display metadata for one status.
type statusInfo struct {
	Label string
	Glyph string
}

// statusTable maps every status to its display metadata.
var statusTable = map[Status]statusInfo{
	StatusPending:    {Label: "Pending", Glyph: "○"},
	StatusInProgress: {Label: "In Progress", Glyph: "◐"},
	StatusCompleted:  {Label: "Completed", Glyph: "●"},
	StatusBlocked:    {Label: "Blocked", Glyph: "■"},
}

// Statuses returns all supported statuses in canonical order.
func Statuses() []Status {
	return slices.Clone(validStatuses)
}

// ParseStatus normalizes and validates one status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if status == "" {
		return StatusPending, nil
	}
	if !slices.Contains(validStatuses, status) {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Valid reports whether the status is a member of the closed enumeration.
func (s Status) Valid() bool {
	return slices.Contains(validStatuses, s)
}

// Label returns the human display label for the status.
func (s Status) Label() string {
	if info, ok := statusTable[s]; ok {
		return info.Label
	}
	return string(s)
}

// Glyph returns the single-cell marker used for the status in list views.
func (s Status) Glyph() string {
	if info, ok := statusTable[s]; ok {
		return info.Glyph
	}
	return "○"
}

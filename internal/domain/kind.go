package domain

import (
	"slices"
	"strings"
)

// Kind classifies an activity by the type of work it represents.
type Kind string

// Kind values.
const (
	KindMigration             Kind = "migration"
	KindLifecycle             Kind = "lifecycle"
	KindDecommission          Kind = "decommission"
	KindHardwareCustomization Kind = "hardware_customization"
	KindCommissioning         Kind = "commissioning"
	KindCustom                Kind = "custom"
)

// validKinds stores all supported activity kinds.
var validKinds = []Kind{
	KindMigration,
	KindLifecycle,
	KindDecommission,
	KindHardwareCustomization,
	KindCommissioning,
	KindCustom,
}

// kindInfo carries display metadata for one activity kind.
type kindInfo struct {
	Label string
	Glyph string
}

// kindTable maps every kind to its display metadata. Rendering layers read
// from this table instead of switching on raw strings so a new kind cannot
// slip through without a display entry.
var kindTable = map[Kind]kindInfo{
	KindMigration:             {Label: "Migration", Glyph: "⇄"},
	KindLifecycle:             {Label: "Lifecycle", Glyph: "↻"},
	KindDecommission:          {Label: "Decommission", Glyph: "✕"},
	KindHardwareCustomization: {Label: "Hardware Customization", Glyph: "⚙"},
	KindCommissioning:         {Label: "Commissioning", Glyph: "▲"},
	KindCustom:                {Label: "Custom", Glyph: "•"},
}

// Kinds returns all supported kinds in canonical order.
func Kinds() []Kind {
	return slices.Clone(validKinds)
}

// ParseKind normalizes and validates one kind string.
func ParseKind(raw string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if kind == "" {
		return KindCustom, nil
	}
	if !slices.Contains(validKinds, kind) {
		return "", ErrInvalidKind
	}
	return kind, nil
}

// Valid reports whether the kind is a member of the closed enumeration.
func (k Kind) Valid() bool {
	return slices.Contains(validKinds, k)
}

// Label returns the human display label for the kind.
func (k Kind) Label() string {
	if info, ok := kindTable[k]; ok {
		return info.Label
	}
	return string(k)
}

// Glyph returns the single-cell marker used for the kind in list views.
func (k Kind) Glyph() string {
	if info, ok := kindTable[k]; ok {
		return info.Glyph
	}
	return "•"
}

package domain

import (
	"fmt"
	"strings"
)

// MarkerKind distinguishes persisted markers from derived placeholders. The
// reconciliation and mutation paths branch on this tag rather than sniffing
// id prefixes.
type MarkerKind string

const (
	// MarkerPersisted tags a marker backed by a stored document.
	MarkerPersisted MarkerKind = "persisted"
	// MarkerDerived tags a synthesized placeholder for a scheduled but
	// unplaced staff member. Derived markers are never stored.
	MarkerDerived MarkerKind = "derived"
)

// SlotMarker is one entry of a slot's effective marker set as produced by the
// reconciliation engine.
type SlotMarker struct {
	Kind     MarkerKind `json:"kind"`
	ID       string     `json:"id"`
	StaffIDs []string   `json:"staff_ids"`
	Day      int        `json:"day"`
	Time     string     `json:"time"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
}

// derivedMarkerPrefix is the wire-level id convention for derived markers.
// Clients hand these ids back to the mutation API when a placeholder is
// dragged or dismissed.
const derivedMarkerPrefix = "default-marker-"

// DerivedMarkerID builds the stable id of the placeholder marker for a
// scheduled but unplaced staff member in one slot.
func DerivedMarkerID(staffID string, day int, timeLabel string) string {
	return fmt.Sprintf("%s%s-%d-%s", derivedMarkerPrefix, staffID, day, timeLabel)
}

// IsDerivedMarkerID reports whether id follows the derived marker convention.
func IsDerivedMarkerID(id string) bool {
	return strings.HasPrefix(id, derivedMarkerPrefix)
}

// DefaultMarkerX and DefaultMarkerY are the center-of-map coordinates given
// to derived markers until an explicit drag promotes them.
const (
	DefaultMarkerX = 50.0
	DefaultMarkerY = 50.0
)

// ClampCoordinate bounds a percentage coordinate to the map surface.
func ClampCoordinate(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Package reconcile derives, for one selected (day, time) slot, a single
// consistent view of "who is on the map, and where" from the slot's persisted
// markers and its schedule assignments. It is a pure recompute over whatever
// is currently cached, so it is correct under any snapshot arrival order.
package reconcile

import (
	"sort"

	"staffmap/pkg/domain"
)

// SlotMarkers merges the slot's persisted markers with synthesized
// placeholders for staff who are scheduled in the slot but not yet explicitly
// placed. Placeholders sit at the center of the map until an explicit drag
// promotes them to persisted markers.
//
// Persisted markers come first in id order, then derived markers in staff id
// order, so repeated reconciliations of the same inputs render identically.
func SlotMarkers(markers []domain.MapMarker, schedule []domain.ScheduleItem, slot domain.Slot) []domain.SlotMarker {
	scheduled := scheduledStaffIDs(schedule, slot)

	placed := make(map[string]struct{})
	var out []domain.SlotMarker
	for _, m := range markers {
		if m.Day != slot.Day || m.Time != slot.Time {
			continue
		}
		out = append(out, domain.SlotMarker{
			Kind:     domain.MarkerPersisted,
			ID:       m.ID,
			StaffIDs: append([]string(nil), m.StaffIDs...),
			Day:      m.Day,
			Time:     m.Time,
			X:        m.X,
			Y:        m.Y,
		})
		for _, id := range m.StaffIDs {
			placed[id] = struct{}{}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	unplaced := make([]string, 0, len(scheduled))
	for id := range scheduled {
		if _, ok := placed[id]; !ok {
			unplaced = append(unplaced, id)
		}
	}
	sort.Strings(unplaced)
	for _, staffID := range unplaced {
		out = append(out, domain.SlotMarker{
			Kind:     domain.MarkerDerived,
			ID:       domain.DerivedMarkerID(staffID, slot.Day, slot.Time),
			StaffIDs: []string{staffID},
			Day:      slot.Day,
			Time:     slot.Time,
			X:        domain.DefaultMarkerX,
			Y:        domain.DefaultMarkerY,
		})
	}
	return out
}

func scheduledStaffIDs(schedule []domain.ScheduleItem, slot domain.Slot) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, item := range schedule {
		if item.Day != slot.Day || item.Time != slot.Time {
			continue
		}
		for _, id := range item.StaffIDs {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// EffectiveMapImage resolves the background image for one slot: the slot's
// override when present, else the venue's default image.
func EffectiveMapImage(maps []domain.MapInfo, venue domain.Venue, slot domain.Slot) string {
	for _, m := range maps {
		if m.Day == slot.Day && m.Time == slot.Time && m.MapImageURL != "" {
			return m.MapImageURL
		}
	}
	return venue.DefaultMapURL
}

// UnassignedStaff returns the staff members absent from the slot's effective
// marker set, in input order. Assignment is slot-scoped, so this is
// recomputed per slot.
func UnassignedStaff(staff []domain.StaffMember, slotMarkers []domain.SlotMarker) []domain.StaffMember {
	assigned := make(map[string]struct{})
	for _, m := range slotMarkers {
		for _, id := range m.StaffIDs {
			assigned[id] = struct{}{}
		}
	}
	var out []domain.StaffMember
	for _, member := range staff {
		if _, ok := assigned[member.ID]; !ok {
			out = append(out, member)
		}
	}
	return out
}

package reconcile

import (
	"testing"

	"staffmap/pkg/domain"
)

func marker(id string, staff []string, day int, tm string, x, y float64) domain.MapMarker {
	return domain.MapMarker{Base: domain.Base{ID: id}, StaffIDs: staff, Day: day, Time: tm, X: x, Y: y}
}

func schedule(id string, staff []string, day int, tm string) domain.ScheduleItem {
	return domain.ScheduleItem{Base: domain.Base{ID: id}, StaffIDs: staff, Day: day, Time: tm, Event: "patrol"}
}

func TestSlotMarkersSynthesizesPlaceholders(t *testing.T) {
	markers := []domain.MapMarker{
		marker("m1", []string{"s1"}, 1, "12:00", 10, 20),
	}
	items := []domain.ScheduleItem{
		schedule("r1", []string{"s1", "s2"}, 1, "12:00"),
		schedule("r2", []string{"s3"}, 1, "12:30"),
	}
	out := SlotMarkers(markers, items, domain.Slot{Day: 1, Time: "12:00"})
	if len(out) != 2 {
		t.Fatalf("expected persisted + derived markers, got %d", len(out))
	}
	if out[0].Kind != domain.MarkerPersisted || out[0].ID != "m1" {
		t.Fatalf("expected persisted marker first, got %+v", out[0])
	}
	derived := out[1]
	if derived.Kind != domain.MarkerDerived {
		t.Fatalf("expected derived marker, got %+v", derived)
	}
	if derived.ID != "default-marker-s2-1-12:00" {
		t.Fatalf("unexpected derived id %q", derived.ID)
	}
	if derived.X != domain.DefaultMarkerX || derived.Y != domain.DefaultMarkerY {
		t.Fatalf("derived marker must sit at map center, got (%v,%v)", derived.X, derived.Y)
	}
}

func TestSlotMarkersPlacedStaffNotDuplicated(t *testing.T) {
	markers := []domain.MapMarker{
		marker("m1", []string{"s1", "s2"}, 0, "07:00", 30, 40),
	}
	items := []domain.ScheduleItem{
		schedule("r1", []string{"s1"}, 0, "07:00"),
		schedule("r2", []string{"s2"}, 0, "07:00"),
	}
	out := SlotMarkers(markers, items, domain.Slot{Day: 0, Time: "07:00"})
	if len(out) != 1 {
		t.Fatalf("staff already placed must not get placeholders, got %d markers", len(out))
	}
}

func TestSlotMarkersIgnoresOtherSlots(t *testing.T) {
	markers := []domain.MapMarker{
		marker("m1", []string{"s1"}, 0, "08:00", 10, 10),
		marker("m2", []string{"s2"}, 1, "07:00", 10, 10),
	}
	out := SlotMarkers(markers, nil, domain.Slot{Day: 0, Time: "07:00"})
	if len(out) != 0 {
		t.Fatalf("expected no markers for untouched slot, got %d", len(out))
	}
}

func TestSlotMarkersDeterministicOrder(t *testing.T) {
	markers := []domain.MapMarker{
		marker("m2", []string{"s9"}, 0, "07:00", 1, 1),
		marker("m1", []string{"s8"}, 0, "07:00", 2, 2),
	}
	items := []domain.ScheduleItem{
		schedule("r1", []string{"s2", "s1"}, 0, "07:00"),
	}
	out := SlotMarkers(markers, items, domain.Slot{Day: 0, Time: "07:00"})
	want := []string{"m1", "m2", "default-marker-s1-0-07:00", "default-marker-s2-0-07:00"}
	if len(out) != len(want) {
		t.Fatalf("expected %d markers, got %d", len(want), len(out))
	}
	for i, id := range want {
		if out[i].ID != id {
			t.Fatalf("position %d: expected %q, got %q", i, id, out[i].ID)
		}
	}
}

func TestEffectiveMapImage(t *testing.T) {
	venue := domain.Venue{DefaultMapURL: "default.png"}
	maps := []domain.MapInfo{
		{Base: domain.Base{ID: "a"}, Day: 0, Time: "07:00", MapImageURL: "override.png"},
	}
	if got := EffectiveMapImage(maps, venue, domain.Slot{Day: 0, Time: "07:00"}); got != "override.png" {
		t.Fatalf("expected slot override, got %q", got)
	}
	if got := EffectiveMapImage(maps, venue, domain.Slot{Day: 0, Time: "07:30"}); got != "default.png" {
		t.Fatalf("expected venue default, got %q", got)
	}
}

func TestUnassignedStaff(t *testing.T) {
	staff := []domain.StaffMember{
		{Base: domain.Base{ID: "s1"}, Name: "A"},
		{Base: domain.Base{ID: "s2"}, Name: "B"},
		{Base: domain.Base{ID: "s3"}, Name: "C"},
	}
	slotMarkers := []domain.SlotMarker{
		{ID: "m1", StaffIDs: []string{"s1"}},
		{ID: "default-marker-s3-0-07:00", StaffIDs: []string{"s3"}},
	}
	out := UnassignedStaff(staff, slotMarkers)
	if len(out) != 1 || out[0].ID != "s2" {
		t.Fatalf("expected only s2 unassigned, got %+v", out)
	}
}

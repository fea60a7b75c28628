package domain

import "testing"

func TestTimeSlots(t *testing.T) {
	slots := TimeSlots()
	if len(slots) != 35 {
		t.Fatalf("expected 35 time slots, got %d", len(slots))
	}
	if slots[0] != "07:00" {
		t.Fatalf("expected first slot 07:00, got %s", slots[0])
	}
	if slots[len(slots)-2] != "23:30" {
		t.Fatalf("expected penultimate slot 23:30, got %s", slots[len(slots)-2])
	}
	if slots[len(slots)-1] != "00:00" {
		t.Fatalf("expected final slot 00:00, got %s", slots[len(slots)-1])
	}
}

func TestValidSlot(t *testing.T) {
	cases := []struct {
		name string
		slot Slot
		want bool
	}{
		{"first day first slot", Slot{Day: 0, Time: "07:00"}, true},
		{"last day midnight", Slot{Day: 3, Time: "00:00"}, true},
		{"half hour", Slot{Day: 2, Time: "18:30"}, true},
		{"day below range", Slot{Day: -1, Time: "07:00"}, false},
		{"day above range", Slot{Day: 4, Time: "07:00"}, false},
		{"time before grid", Slot{Day: 0, Time: "06:30"}, false},
		{"quarter hour", Slot{Day: 0, Time: "07:15"}, false},
		{"empty time", Slot{Day: 0, Time: ""}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidSlot(tc.slot); got != tc.want {
				t.Fatalf("ValidSlot(%+v) = %v, want %v", tc.slot, got, tc.want)
			}
		})
	}
}

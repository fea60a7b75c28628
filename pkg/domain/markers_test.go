package domain

import "testing"

func TestDerivedMarkerID(t *testing.T) {
	id := DerivedMarkerID("staff-1", 2, "18:30")
	if id != "default-marker-staff-1-2-18:30" {
		t.Fatalf("unexpected derived id %q", id)
	}
	if !IsDerivedMarkerID(id) {
		t.Fatalf("expected %q to be recognized as derived", id)
	}
	if IsDerivedMarkerID("b2c6f3a0") {
		t.Fatal("uuid-style id must not be treated as derived")
	}
}

func TestClampCoordinate(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{-5, 0},
		{0, 0},
		{50, 50},
		{100, 100},
		{140.2, 100},
	}
	for _, tc := range cases {
		if got := ClampCoordinate(tc.in); got != tc.want {
			t.Fatalf("ClampCoordinate(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

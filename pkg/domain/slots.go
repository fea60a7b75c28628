package domain

import "fmt"

// DayCount is the number of event days. Days are numbered 0..DayCount-1.
const DayCount = 4

// Slot identifies one (day, time) schedule and map cell.
type Slot struct {
	Day  int    `json:"day"`
	Time string `json:"time"`
}

func (s Slot) String() string {
	return fmt.Sprintf("%d/%s", s.Day, s.Time)
}

// ValidDay reports whether day is within the event's day range.
func ValidDay(day int) bool {
	return day >= 0 && day < DayCount
}

// TimeSlots returns the fixed enumeration of slot labels: every 30 minutes
// from 07:00 through 23:30, plus 00:00 as the closing slot. The enumeration
// is a hard external contract; every surface that lists "all time slots"
// consumes it.
func TimeSlots() []string {
	labels := make([]string, 0, 35)
	for h := 7; h <= 23; h++ {
		labels = append(labels, fmt.Sprintf("%02d:00", h), fmt.Sprintf("%02d:30", h))
	}
	labels = append(labels, "00:00")
	return labels
}

var timeSlotSet = func() map[string]struct{} {
	set := make(map[string]struct{}, 35)
	for _, label := range TimeSlots() {
		set[label] = struct{}{}
	}
	return set
}()

// ValidTime reports whether label is one of the fixed slot labels.
func ValidTime(label string) bool {
	_, ok := timeSlotSet[label]
	return ok
}

// ValidSlot reports whether both components of the slot are in range.
func ValidSlot(s Slot) bool {
	return ValidDay(s.Day) && ValidTime(s.Time)
}

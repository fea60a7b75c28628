package core

import (
	"context"

	"staffmap/pkg/domain"
)

// SlotRangeRule blocks documents addressed to a slot outside the fixed
// day/time domain. The slot enumeration is a hard external contract; a
// document outside it would be invisible to every UI surface.
type SlotRangeRule struct{}

// NewSlotRangeRule constructs the rule.
func NewSlotRangeRule() SlotRangeRule {
	return SlotRangeRule{}
}

// Name identifies the rule in violation reports.
func (SlotRangeRule) Name() string { return "slot_range" }

// Evaluate checks the slot fields of markers and schedule items.
func (r SlotRangeRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	var result domain.Result
	violation := func(session string, col domain.Collection, id string) domain.Violation {
		return domain.Violation{
			Rule:       r.Name(),
			Severity:   domain.SeverityBlock,
			Message:    "slot outside the fixed day/time domain",
			Session:    session,
			Collection: col,
			DocumentID: id,
		}
	}
	for _, sess := range view.ListSessions() {
		for _, marker := range view.ListMarkers(sess.ID) {
			if !domain.ValidSlot(domain.Slot{Day: marker.Day, Time: marker.Time}) {
				result.Violations = append(result.Violations, violation(sess.ID, domain.CollectionMarkers, marker.ID))
			}
		}
		for _, item := range view.ListSchedules(sess.ID) {
			if !domain.ValidSlot(domain.Slot{Day: item.Day, Time: item.Time}) {
				result.Violations = append(result.Violations, violation(sess.ID, domain.CollectionSchedules, item.ID))
			}
		}
	}
	return result, nil
}

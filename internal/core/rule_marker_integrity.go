package core

import (
	"context"

	"staffmap/pkg/domain"
)

// MarkerIntegrityRule enforces that no persisted marker survives a commit
// with an empty staff set, and warns when a marker references a staff id that
// no longer exists. The store operations and service cascades uphold the
// first invariant structurally; the rule is the transaction-level backstop.
type MarkerIntegrityRule struct{}

// NewMarkerIntegrityRule constructs the rule.
func NewMarkerIntegrityRule() MarkerIntegrityRule {
	return MarkerIntegrityRule{}
}

// Name identifies the rule in violation reports.
func (MarkerIntegrityRule) Name() string { return "marker_integrity" }

// Evaluate scans every session's markers against its staff collection.
func (r MarkerIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	var result domain.Result
	for _, sess := range view.ListSessions() {
		known := make(map[string]struct{})
		for _, member := range view.ListStaff(sess.ID) {
			known[member.ID] = struct{}{}
		}
		for _, marker := range view.ListMarkers(sess.ID) {
			if len(marker.StaffIDs) == 0 {
				result.Violations = append(result.Violations, domain.Violation{
					Rule:       r.Name(),
					Severity:   domain.SeverityBlock,
					Message:    "persisted marker has an empty staff set",
					Session:    sess.ID,
					Collection: domain.CollectionMarkers,
					DocumentID: marker.ID,
				})
				continue
			}
			for _, staffID := range marker.StaffIDs {
				if _, ok := known[staffID]; !ok {
					result.Violations = append(result.Violations, domain.Violation{
						Rule:       r.Name(),
						Severity:   domain.SeverityWarn,
						Message:    "marker references unknown staff " + staffID,
						Session:    sess.ID,
						Collection: domain.CollectionMarkers,
						DocumentID: marker.ID,
					})
				}
			}
		}
	}
	return result, nil
}

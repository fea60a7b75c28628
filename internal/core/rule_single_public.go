package core

import (
	"context"

	"staffmap/pkg/domain"
)

// SinglePublicVenueRule blocks any commit that would leave more than one
// session flagged public. The anonymous viewer projection depends on the flag
// identifying at most one session.
type SinglePublicVenueRule struct{}

// NewSinglePublicVenueRule constructs the rule.
func NewSinglePublicVenueRule() SinglePublicVenueRule {
	return SinglePublicVenueRule{}
}

// Name identifies the rule in violation reports.
func (SinglePublicVenueRule) Name() string { return "single_public_venue" }

// Evaluate counts public venue documents across all sessions.
func (r SinglePublicVenueRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	var public []string
	for session, venue := range view.ListVenues() {
		if venue.IsPublic {
			public = append(public, session)
		}
	}
	if len(public) <= 1 {
		return domain.Result{}, nil
	}
	var result domain.Result
	for _, session := range public {
		result.Violations = append(result.Violations, domain.Violation{
			Rule:       r.Name(),
			Severity:   domain.SeverityBlock,
			Message:    "more than one session is flagged public",
			Session:    session,
			Collection: domain.CollectionVenue,
			DocumentID: "venue",
		})
	}
	return result, nil
}

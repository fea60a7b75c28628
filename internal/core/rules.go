package core

import "staffmap/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set:
// the global single-public-venue invariant, marker integrity, and slot range
// checks.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewSinglePublicVenueRule())
	engine.Register(NewMarkerIntegrityRule())
	engine.Register(NewSlotRangeRule())
	return engine
}

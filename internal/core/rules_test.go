package core

import (
	"context"
	"errors"
	"testing"

	"staffmap/internal/infra/persistence/memory"
	"staffmap/pkg/domain"
)

func TestSinglePublicVenueRuleBlocksSecondPublic(t *testing.T) {
	store := memory.NewStore(NewDefaultRulesEngine())
	ctx := context.Background()

	var a, b domain.Session
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		if a, err = tx.CreateSession(domain.Session{Name: "a"}); err != nil {
			return err
		}
		b, err = tx.CreateSession(domain.Session{Name: "b"})
		return err
	})
	if err != nil {
		t.Fatalf("create sessions: %v", err)
	}

	publish := func(session string) error {
		_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.SetVenue(session, func(v *domain.Venue) error {
				v.IsPublic = true
				return nil
			})
			return err
		})
		return err
	}
	if err := publish(a.ID); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	err = publish(b.ID)
	var ruleErr domain.RuleViolationError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("second publish must be blocked, got %v", err)
	}
}

func TestMarkerIntegrityRuleWarnsOnDanglingStaff(t *testing.T) {
	store := memory.NewStore(NewDefaultRulesEngine())
	ctx := context.Background()
	var sess domain.Session
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		sess, err = tx.CreateSession(domain.Session{Name: "s"})
		return err
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	res, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateMarker(sess.ID, domain.MapMarker{StaffIDs: []string{"ghost"}, Day: 0, Time: "07:00", X: 1, Y: 1})
		return err
	})
	if err != nil {
		t.Fatalf("dangling staff reference must warn, not block: %v", err)
	}
	warned := false
	for _, v := range res.Violations {
		if v.Severity == domain.SeverityWarn {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected a warning violation, got %+v", res.Violations)
	}
}

func TestSlotRangeRuleBlocksInvalidSlots(t *testing.T) {
	store := memory.NewStore(NewDefaultRulesEngine())
	ctx := context.Background()
	var sess domain.Session
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		sess, err = tx.CreateSession(domain.Session{Name: "s"})
		return err
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateStaff(sess.ID, domain.StaffMember{Base: domain.Base{ID: "s1"}, Name: "A", Avatar: "a.png"}); err != nil {
			return err
		}
		return nil
	}); err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateMarker(sess.ID, domain.MapMarker{StaffIDs: []string{"s1"}, Day: 7, Time: "07:00", X: 1, Y: 1})
		return err
	})
	var ruleErr domain.RuleViolationError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("out-of-range day must be blocked, got %v", err)
	}

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateSchedule(sess.ID, domain.ScheduleItem{Day: 0, Time: "25:99", Event: "x"})
		return err
	})
	if !errors.As(err, &ruleErr) {
		t.Fatalf("invalid time must be blocked, got %v", err)
	}
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"staffmap/pkg/domain"
)

func mustCreateSession(t *testing.T, store *Store, name string) domain.Session {
	t.Helper()
	var sess domain.Session
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		sess, err = tx.CreateSession(domain.Session{Name: name, OwnerID: "owner"})
		return err
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sess
}

func TestTransactionCommit(t *testing.T) {
	store := NewStore(nil)
	sess := mustCreateSession(t, store, "summer fest")

	var created domain.StaffMember
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateStaff(sess.ID, domain.StaffMember{Name: "Aoki", Avatar: "a.png"})
		return err
	})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated staff id")
	}
	if created.Role != domain.DefaultStaffRole {
		t.Fatalf("expected default role, got %q", created.Role)
	}

	err = store.View(context.Background(), func(v domain.TransactionView) error {
		if got := v.ListStaff(sess.ID); len(got) != 1 || got[0].Name != "Aoki" {
			t.Fatalf("unexpected staff after commit: %+v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestTransactionRollbackOnError(t *testing.T) {
	store := NewStore(nil)
	sess := mustCreateSession(t, store, "s")

	boom := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateStaff(sess.ID, domain.StaffMember{Name: "Ghost", Avatar: "g.png"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	_ = store.View(context.Background(), func(v domain.TransactionView) error {
		if got := v.ListStaff(sess.ID); len(got) != 0 {
			t.Fatalf("rollback leaked staff: %+v", got)
		}
		return nil
	})
}

type blockAllRule struct{}

func (blockAllRule) Name() string { return "block-all" }

func (blockAllRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	if len(changes) == 0 {
		return domain.Result{}, nil
	}
	return domain.Result{Violations: []domain.Violation{{Rule: "block-all", Severity: domain.SeverityBlock, Message: "blocked"}}}, nil
}

func TestBlockingRuleAbortsCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockAllRule{})
	store := NewStore(engine)

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateSession(domain.Session{Name: "blocked"})
		return err
	})
	var ruleErr domain.RuleViolationError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if len(store.ListSessions()) != 0 {
		t.Fatal("blocked transaction must not commit")
	}
}

func TestUnknownSessionRejected(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateStaff("nope", domain.StaffMember{Name: "X", Avatar: "x.png"})
		return err
	})
	var nf domain.ErrSessionNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func waitEvent(t *testing.T, events <-chan domain.CollectionEvent) domain.CollectionEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("event stream closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return domain.CollectionEvent{}
}

func TestSubscribeDeliversInitialAndCommitSnapshots(t *testing.T) {
	store := NewStore(nil)
	sess := mustCreateSession(t, store, "s")

	events, cancel := store.Subscribe(context.Background(), sess.ID, domain.CollectionStaff)
	defer cancel()

	initial := waitEvent(t, events)
	if initial.Collection != domain.CollectionStaff || len(initial.Data.Staff) != 0 {
		t.Fatalf("unexpected initial event: %+v", initial)
	}

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateStaff(sess.ID, domain.StaffMember{Name: "Endo", Avatar: "e.png"})
		return err
	})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}

	next := waitEvent(t, events)
	if len(next.Data.Staff) != 1 || next.Data.Staff[0].Name != "Endo" {
		t.Fatalf("expected staff snapshot after commit, got %+v", next.Data.Staff)
	}
	if next.Seq <= initial.Seq {
		t.Fatalf("sequence must advance: initial %d, next %d", initial.Seq, next.Seq)
	}
}

func TestSubscribeVenuesObservesPublicFlag(t *testing.T) {
	store := NewStore(nil)
	sess := mustCreateSession(t, store, "s")

	events, cancel := store.SubscribeVenues(context.Background())
	defer cancel()

	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for initial venue event")
	}

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.SetVenue(sess.ID, func(v *domain.Venue) error {
			v.IsPublic = true
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("set venue: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if venue, ok := ev.Venues[sess.ID]; ok && venue.IsPublic {
				return
			}
		case <-deadline:
			t.Fatal("never observed the public flag")
		}
	}
}

func TestExportImportRoundtrip(t *testing.T) {
	store := NewStore(nil)
	sess := mustCreateSession(t, store, "original")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateStaff(sess.ID, domain.StaffMember{Base: domain.Base{ID: "s1"}, Name: "Aoki", Avatar: "a.png"}); err != nil {
			return err
		}
		if _, err := tx.CreateMarker(sess.ID, domain.MapMarker{StaffIDs: []string{"s1"}, Day: 0, Time: "07:00", X: 10, Y: 20}); err != nil {
			return err
		}
		_, err := tx.SetVenue(sess.ID, func(v *domain.Venue) error {
			v.Notification = "doors at 7"
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	restored := NewStore(nil)
	restored.ImportState(store.ExportState())

	if got := restored.ListSessions(); len(got) != 1 || got[0].Name != "original" {
		t.Fatalf("sessions not restored: %+v", got)
	}
	_ = restored.View(context.Background(), func(v domain.TransactionView) error {
		if staff := v.ListStaff(sess.ID); len(staff) != 1 || staff[0].ID != "s1" {
			t.Fatalf("staff not restored: %+v", staff)
		}
		if markers := v.ListMarkers(sess.ID); len(markers) != 1 || markers[0].X != 10 {
			t.Fatalf("markers not restored: %+v", markers)
		}
		venue, ok := v.GetVenue(sess.ID)
		if !ok || venue.Notification != "doors at 7" {
			t.Fatalf("venue not restored: %+v", venue)
		}
		return nil
	})
}

func TestMarkerClampOnCreate(t *testing.T) {
	store := NewStore(nil)
	sess := mustCreateSession(t, store, "s")
	var created domain.MapMarker
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateMarker(sess.ID, domain.MapMarker{StaffIDs: []string{"s1"}, Day: 0, Time: "07:00", X: 140.2, Y: -3})
		return err
	})
	if err != nil {
		t.Fatalf("create marker: %v", err)
	}
	if created.X != 100 || created.Y != 0 {
		t.Fatalf("coordinates not clamped: (%v,%v)", created.X, created.Y)
	}
}

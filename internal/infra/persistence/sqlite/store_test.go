package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"staffmap/pkg/domain"
)

func TestReloadAfterRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staffmap.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var sess domain.Session
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		sess, err = tx.CreateSession(domain.Session{Name: "winter market", OwnerID: "owner"})
		if err != nil {
			return err
		}
		if _, err := tx.CreateStaff(sess.ID, domain.StaffMember{Base: domain.Base{ID: "s1"}, Name: "Sato", Avatar: "s.png"}); err != nil {
			return err
		}
		_, err = tx.CreateMarker(sess.ID, domain.MapMarker{StaffIDs: []string{"s1"}, Day: 1, Time: "10:00", X: 25, Y: 75})
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	sessions := reopened.ListSessions()
	if len(sessions) != 1 || sessions[0].Name != "winter market" {
		t.Fatalf("sessions not reloaded: %+v", sessions)
	}
	err = reopened.View(context.Background(), func(v domain.TransactionView) error {
		if staff := v.ListStaff(sess.ID); len(staff) != 1 || staff[0].Name != "Sato" {
			t.Fatalf("staff not reloaded: %+v", staff)
		}
		if markers := v.ListMarkers(sess.ID); len(markers) != 1 || markers[0].Y != 75 {
			t.Fatalf("markers not reloaded: %+v", markers)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestEmptyDatabaseStartsClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	if got := store.ListSessions(); len(got) != 0 {
		t.Fatalf("expected empty store, got %+v", got)
	}
	if store.Path() != path {
		t.Fatalf("unexpected path %q", store.Path())
	}
}

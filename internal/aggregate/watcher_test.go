package aggregate

import (
	"context"
	"testing"
	"time"

	"staffmap/internal/infra/persistence/memory"
	"staffmap/pkg/domain"
)

func staffEvent(session string, seq uint64, names ...string) domain.CollectionEvent {
	staff := make([]domain.StaffMember, 0, len(names))
	for _, n := range names {
		staff = append(staff, domain.StaffMember{Base: domain.Base{ID: n}, Name: n})
	}
	return domain.CollectionEvent{
		Session:    session,
		Collection: domain.CollectionStaff,
		Seq:        seq,
		Data:       domain.CollectionData{Staff: staff},
	}
}

func TestWatcherAppliesSnapshotsInAnyOrder(t *testing.T) {
	w := NewWatcher("s")

	venue := domain.Venue{Base: domain.Base{ID: "venue"}, Notification: "hello"}
	w.Apply(domain.CollectionEvent{Session: "s", Collection: domain.CollectionVenue, Seq: 3, Data: domain.CollectionData{Venue: &venue}})
	w.Apply(staffEvent("s", 2, "a", "b"))

	data := w.Data()
	if len(data.Staff) != 2 {
		t.Fatalf("staff snapshot lost: %+v", data.Staff)
	}
	if !data.HasVenue || data.Venue.Notification != "hello" {
		t.Fatalf("venue snapshot lost: %+v", data.Venue)
	}
	if data.Seq != 3 {
		t.Fatalf("seq must track the highest applied event, got %d", data.Seq)
	}

	// A later full snapshot replaces, never merges.
	w.Apply(staffEvent("s", 4, "c"))
	if data := w.Data(); len(data.Staff) != 1 || data.Staff[0].ID != "c" {
		t.Fatalf("stale staff retained: %+v", data.Staff)
	}
}

func TestWatcherIgnoresOtherSessions(t *testing.T) {
	w := NewWatcher("mine")
	w.Apply(staffEvent("theirs", 1, "x"))
	if data := w.Data(); len(data.Staff) != 0 {
		t.Fatalf("cross-session event applied: %+v", data.Staff)
	}
}

func TestWatcherReady(t *testing.T) {
	w := NewWatcher("s")
	if w.Ready() {
		t.Fatal("empty watcher must not be ready")
	}
	for i, col := range domain.Collections() {
		w.Apply(domain.CollectionEvent{Session: "s", Collection: col, Seq: uint64(i + 1)})
	}
	if !w.Ready() {
		t.Fatal("watcher must be ready once every collection delivered")
	}
}

func TestWatchStreamsLiveState(t *testing.T) {
	store := memory.NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sess domain.Session
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		sess, err = tx.CreateSession(domain.Session{Name: "live"})
		return err
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	stream := Watch(ctx, store, sess.ID)

	// First ready view arrives after the initial snapshots.
	select {
	case data := <-stream:
		if data.Session != sess.ID || len(data.Staff) != 0 {
			t.Fatalf("unexpected initial view: %+v", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("initial view never arrived")
	}

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateStaff(sess.ID, domain.StaffMember{Name: "Hara", Avatar: "h.png"})
		return err
	})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case data := <-stream:
			if len(data.Staff) == 1 && data.Staff[0].Name == "Hara" {
				return
			}
		case <-deadline:
			t.Fatal("staff change never surfaced in the watch stream")
		}
	}
}

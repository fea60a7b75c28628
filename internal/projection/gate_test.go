package projection

import (
	"context"
	"testing"
	"time"

	"staffmap/internal/core"
	"staffmap/internal/infra/persistence/memory"
	"staffmap/pkg/domain"
)

func createSession(t *testing.T, store *memory.Store, name string) domain.Session {
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

func setPublic(t *testing.T, store *memory.Store, session string, public bool) {
	t.Helper()
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.SetVenue(session, func(v *domain.Venue) error {
			v.IsPublic = public
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("set public=%v: %v", public, err)
	}
}

func waitFor(t *testing.T, updates <-chan Update, want State) Update {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				t.Fatalf("stream closed while waiting for %s", want)
			}
			if u.State == want {
				return u
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func TestGateStartsWithNoPublicSession(t *testing.T) {
	store := memory.NewStore(core.NewDefaultRulesEngine())
	createSession(t, store, "s")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := NewGate(store, nil).Run(ctx)
	waitFor(t, updates, StateNoPublicSession)
}

func TestGateStreamsPublishedSession(t *testing.T) {
	store := memory.NewStore(core.NewDefaultRulesEngine())
	sess := createSession(t, store, "published")
	setPublic(t, store, sess.ID, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := NewGate(store, nil).Run(ctx)

	active := waitFor(t, updates, StateActive)
	if active.Session != sess.ID {
		t.Fatalf("expected session %q streaming, got %q", sess.ID, active.Session)
	}

	// Edits to the published session keep flowing through the gate.
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateStaff(sess.ID, domain.StaffMember{Name: "Ito", Avatar: "i.png"})
		return err
	})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	deadline := time.After(3 * time.Second)
	for {
		select {
		case u := <-updates:
			if u.State == StateActive && len(u.Data.Staff) == 1 {
				return
			}
		case <-deadline:
			t.Fatal("edit never surfaced in the public stream")
		}
	}
}

func TestGateRevokesWhenUnpublished(t *testing.T) {
	store := memory.NewStore(core.NewDefaultRulesEngine())
	sess := createSession(t, store, "published")
	setPublic(t, store, sess.ID, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := NewGate(store, nil).Run(ctx)
	waitFor(t, updates, StateActive)

	setPublic(t, store, sess.ID, false)
	revoked := waitFor(t, updates, StateRevoked)
	if revoked.Session != sess.ID {
		t.Fatalf("revocation must name the former session, got %q", revoked.Session)
	}
}

func TestGateSwitchesToNewlyPublishedSession(t *testing.T) {
	store := memory.NewStore(core.NewDefaultRulesEngine())
	a := createSession(t, store, "a")
	b := createSession(t, store, "b")
	setPublic(t, store, a.ID, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := NewGate(store, nil).Run(ctx)
	first := waitFor(t, updates, StateActive)
	if first.Session != a.ID {
		t.Fatalf("expected %q first, got %q", a.ID, first.Session)
	}

	// Swap publication in one transaction, as the registry does.
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.SetVenue(a.ID, func(v *domain.Venue) error {
			v.IsPublic = false
			return nil
		}); err != nil {
			return err
		}
		_, err := tx.SetVenue(b.ID, func(v *domain.Venue) error {
			v.IsPublic = true
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("swap publication: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case u := <-updates:
			if u.State == StateActive && u.Session == b.ID {
				return
			}
		case <-deadline:
			t.Fatal("gate never switched to the new public session")
		}
	}
}

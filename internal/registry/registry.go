// Package registry manages the session catalog: creation, renaming,
// cross-session import, the public-session flag, and the operator's
// remembered active session.
package registry

import (
	"context"
	"sort"
	"strings"

	"staffmap/internal/broadcast"
	"staffmap/internal/core"
	"staffmap/pkg/domain"
)

// ClearPublic is the sentinel accepted by SetPublic to unpublish every
// session.
const ClearPublic = "none"

// Registry coordinates session-level operations on top of the entity store.
type Registry struct {
	store   domain.PersistentStore
	state   *ClientState
	channel broadcast.Channel
	logger  core.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger attaches a structured logger.
func WithLogger(l core.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithBroadcast attaches a broadcast channel for active/public session
// announcements.
func WithBroadcast(ch broadcast.Channel) Option {
	return func(r *Registry) { r.channel = ch }
}

// New creates a registry over the given store and client state file.
func New(store domain.PersistentStore, state *ClientState, opts ...Option) *Registry {
	r := &Registry{store: store, state: state, logger: core.NopLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateSession creates a named session owned by ownerID.
func (r *Registry) CreateSession(ctx context.Context, name, ownerID string) (domain.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Session{}, domain.ValidationError{Field: "session.name", Reason: "must not be empty"}
	}
	var created domain.Session
	_, err := r.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateSession(domain.Session{Name: name, OwnerID: ownerID})
		return err
	})
	if err != nil {
		return domain.Session{}, err
	}
	r.logger.Info("session created", "session", created.ID, "name", name)
	return created, nil
}

// ListSessions returns the sessions owned by ownerID in id order. Sessions of
// other owners are invisible.
func (r *Registry) ListSessions(ownerID string) []domain.Session {
	all := r.store.ListSessions()
	owned := make([]domain.Session, 0, len(all))
	for _, sess := range all {
		if sess.OwnerID == ownerID {
			owned = append(owned, sess)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })
	return owned
}

// Rename changes a session's display name. Blank names are rejected.
func (r *Registry) Rename(ctx context.Context, id, name string) (domain.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Session{}, domain.ValidationError{Field: "session.name", Reason: "must not be empty"}
	}
	var renamed domain.Session
	_, err := r.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		renamed, err = tx.UpdateSession(id, func(s *domain.Session) error {
			s.Name = name
			return nil
		})
		return err
	})
	return renamed, err
}

// ImportFrom overwrites the target session's venue, staff, roles, schedules,
// maps, and markers with copies from the source session, in one transaction.
// Document ids are preserved so cross-references between collections stay
// intact. The target's public flag is untouched; publication never transfers
// through an import.
func (r *Registry) ImportFrom(ctx context.Context, target, source string) error {
	if target == source {
		return domain.ValidationError{Field: "session", Reason: "cannot import a session into itself"}
	}
	_, err := r.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		view := tx.Snapshot()
		if _, ok := view.FindSession(target); !ok {
			return domain.ErrSessionNotFound{ID: target}
		}
		if _, ok := view.FindSession(source); !ok {
			return domain.ErrSessionNotFound{ID: source}
		}
		for _, col := range domain.ImportCollections() {
			if err := tx.ClearCollection(target, col); err != nil {
				return err
			}
		}
		if srcVenue, ok := view.GetVenue(source); ok {
			if _, err := tx.SetVenue(target, func(v *domain.Venue) error {
				v.Notification = srcVenue.Notification
				v.DefaultMapURL = srcVenue.DefaultMapURL
				return nil
			}); err != nil {
				return err
			}
		}
		for _, member := range view.ListStaff(source) {
			if _, err := tx.CreateStaff(target, member); err != nil {
				return err
			}
		}
		for _, role := range view.ListRoles(source) {
			if _, err := tx.CreateRole(target, role); err != nil {
				return err
			}
		}
		for _, item := range view.ListSchedules(source) {
			if _, err := tx.CreateSchedule(target, item); err != nil {
				return err
			}
		}
		for _, info := range view.ListMaps(source) {
			if _, err := tx.CreateMapInfo(target, info); err != nil {
				return err
			}
		}
		for _, marker := range view.ListMarkers(source) {
			if _, err := tx.CreateMarker(target, marker); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Info("session import completed", "target", target, "source", source)
	return nil
}

// SetPublic publishes one session and unpublishes all others, in one
// transaction. Passing ClearPublic (or an empty id) unpublishes everything.
// The clear runs before the set, so the at-most-one-public invariant holds at
// commit regardless of the prior state.
func (r *Registry) SetPublic(ctx context.Context, id string) error {
	if id == ClearPublic {
		id = ""
	}
	_, err := r.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		view := tx.Snapshot()
		if id != "" {
			if _, ok := view.FindSession(id); !ok {
				return domain.ErrSessionNotFound{ID: id}
			}
		}
		for session, venue := range view.ListVenues() {
			if !venue.IsPublic || session == id {
				continue
			}
			if _, err := tx.SetVenue(session, func(v *domain.Venue) error {
				v.IsPublic = false
				return nil
			}); err != nil {
				return err
			}
		}
		if id == "" {
			return nil
		}
		_, err := tx.SetVenue(id, func(v *domain.Venue) error {
			v.IsPublic = true
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}
	r.publish(ctx, broadcast.KeyPublicSession, id)
	r.logger.Info("public session changed", "session", id)
	return nil
}

// PublicSession returns the id of the currently published session, or empty.
func (r *Registry) PublicSession(ctx context.Context) (string, error) {
	var public string
	err := r.store.View(ctx, func(view domain.TransactionView) error {
		for session, venue := range view.ListVenues() {
			if venue.IsPublic {
				public = session
				return nil
			}
		}
		return nil
	})
	return public, err
}

// SetActive remembers the operator's working session and announces the
// switch.
func (r *Registry) SetActive(ctx context.Context, id string) error {
	if _, ok := r.store.GetSession(id); !ok {
		return domain.ErrSessionNotFound{ID: id}
	}
	if err := r.state.SetActiveSession(id); err != nil {
		return err
	}
	r.publish(ctx, broadcast.KeyActiveSession, id)
	return nil
}

// ActiveSession resolves the operator's working session for ownerID. A
// remembered id that no longer exists or belongs to someone else falls back
// to the owner's first session; an owner with no sessions gets an empty id.
func (r *Registry) ActiveSession(ownerID string) string {
	owned := r.ListSessions(ownerID)
	remembered := r.state.ActiveSession()
	for _, sess := range owned {
		if sess.ID == remembered {
			return remembered
		}
	}
	if len(owned) > 0 {
		return owned[0].ID
	}
	return ""
}

func (r *Registry) publish(ctx context.Context, key, value string) {
	if r.channel == nil {
		return
	}
	if err := r.channel.Publish(ctx, broadcast.Message{Key: key, NewValue: value}); err != nil {
		r.logger.Warn("broadcast publish failed", "key", key, "error", err)
	}
}

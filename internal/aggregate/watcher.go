// Package aggregate assembles per-collection snapshot streams into one
// coherent session view suitable for rendering or serialization.
package aggregate

import (
	"context"
	"sync"

	"staffmap/pkg/domain"
)

// VenueData is the full materialized state of one session. It is a value
// type; Apply mutates a Watcher's copy and Data returns independent clones.
type VenueData struct {
	Session   string                    `json:"session"`
	Staff     []domain.StaffMember      `json:"staff"`
	Roles     []domain.Role             `json:"roles"`
	Schedules []domain.ScheduleItem     `json:"schedules"`
	Markers   []domain.MapMarker        `json:"markers"`
	Maps      []domain.MapInfo          `json:"maps"`
	Templates []domain.ScheduleTemplate `json:"templates"`
	Positions []domain.Position         `json:"positions"`
	SlotNotes []domain.TimeSlotNote     `json:"slot_notes"`
	Venue     domain.Venue              `json:"venue"`
	HasVenue  bool                      `json:"has_venue"`
	Seq       uint64                    `json:"seq"`
}

// Watcher folds CollectionEvents into a VenueData. Events may arrive in any
// collection order; each one carries a full snapshot of its collection, so a
// dropped intermediate event never leaves the view stale once a later one
// lands.
type Watcher struct {
	mu       sync.RWMutex
	data     VenueData
	received map[domain.Collection]bool
}

// NewWatcher creates a watcher for one session.
func NewWatcher(session string) *Watcher {
	return &Watcher{
		data:     VenueData{Session: session},
		received: make(map[domain.Collection]bool),
	}
}

// Apply folds one event into the view. Events for other sessions are ignored.
func (w *Watcher) Apply(ev domain.CollectionEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ev.Session != w.data.Session {
		return
	}
	switch ev.Collection {
	case domain.CollectionStaff:
		w.data.Staff = ev.Data.Staff
	case domain.CollectionRoles:
		w.data.Roles = ev.Data.Roles
	case domain.CollectionSchedules:
		w.data.Schedules = ev.Data.Schedules
	case domain.CollectionMarkers:
		w.data.Markers = ev.Data.Markers
	case domain.CollectionMaps:
		w.data.Maps = ev.Data.Maps
	case domain.CollectionVenue:
		if ev.Data.Venue != nil {
			w.data.Venue = *ev.Data.Venue
			w.data.HasVenue = true
		} else {
			w.data.Venue = domain.Venue{}
			w.data.HasVenue = false
		}
	case domain.CollectionScheduleTemplates:
		w.data.Templates = ev.Data.Templates
	case domain.CollectionPositions:
		w.data.Positions = ev.Data.Positions
	case domain.CollectionTimeSlotInfo:
		w.data.SlotNotes = ev.Data.SlotNotes
	default:
		return
	}
	if ev.Seq > w.data.Seq {
		w.data.Seq = ev.Seq
	}
	w.received[ev.Collection] = true
}

// Ready reports whether every partitioned collection has delivered at least
// one snapshot. Subscriptions publish initial snapshots up front, so a watcher
// fed from Subscribe becomes ready after the first burst.
func (w *Watcher) Ready() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, col := range domain.Collections() {
		if !w.received[col] {
			return false
		}
	}
	return true
}

// Data returns a deep copy of the current view.
func (w *Watcher) Data() VenueData {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d := w.data
	d.Staff = append([]domain.StaffMember(nil), d.Staff...)
	d.Roles = append([]domain.Role(nil), d.Roles...)
	d.Schedules = append([]domain.ScheduleItem(nil), d.Schedules...)
	d.Markers = append([]domain.MapMarker(nil), d.Markers...)
	d.Maps = append([]domain.MapInfo(nil), d.Maps...)
	d.Templates = append([]domain.ScheduleTemplate(nil), d.Templates...)
	d.Positions = append([]domain.Position(nil), d.Positions...)
	d.SlotNotes = append([]domain.TimeSlotNote(nil), d.SlotNotes...)
	return d
}

// Watch subscribes to every collection of one session and emits a fresh
// VenueData after each delivered event, starting once the initial snapshots
// are complete. The stream closes when ctx is cancelled.
func Watch(ctx context.Context, store domain.PersistentStore, session string) <-chan VenueData {
	out := make(chan VenueData, 1)
	events, cancel := store.Subscribe(ctx, session)
	go func() {
		defer close(out)
		defer cancel()
		w := NewWatcher(session)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				w.Apply(ev)
				if !w.Ready() {
					continue
				}
				select {
				case out <- w.Data():
				case <-ctx.Done():
					return
				default:
					// Receiver is lagging; drop the stale view and
					// replace it with the current one.
					select {
					case <-out:
					default:
					}
					select {
					case out <- w.Data():
					default:
					}
				}
			}
		}
	}()
	return out
}

package memory

import (
	"context"
	"sync"

	"staffmap/pkg/domain"
)

// subscriber forwards collection snapshots to one consumer. Pending events
// are keyed by collection so a lagging consumer observes the latest snapshot
// of each collection rather than a backlog of stale ones.
type subscriber struct {
	session string
	cols    map[domain.Collection]struct{}

	mu      sync.Mutex
	pending map[domain.Collection]domain.CollectionEvent
	kick    chan struct{}
	done    chan struct{}
	out     chan domain.CollectionEvent
	once    sync.Once
}

func newSubscriber(session string, cols []domain.Collection) *subscriber {
	set := make(map[domain.Collection]struct{}, len(cols))
	for _, c := range cols {
		set[c] = struct{}{}
	}
	return &subscriber{
		session: session,
		cols:    set,
		pending: make(map[domain.Collection]domain.CollectionEvent),
		kick:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		out:     make(chan domain.CollectionEvent),
	}
}

func (sub *subscriber) publish(ev domain.CollectionEvent) {
	sub.mu.Lock()
	sub.pending[ev.Collection] = ev
	sub.mu.Unlock()
	select {
	case sub.kick <- struct{}{}:
	default:
	}
}

func (sub *subscriber) run() {
	defer close(sub.out)
	for {
		select {
		case <-sub.done:
			return
		case <-sub.kick:
		}
		for {
			ev, ok := sub.next()
			if !ok {
				break
			}
			select {
			case sub.out <- ev:
			case <-sub.done:
				return
			}
		}
	}
}

// next drains pending events in the stable collection order.
func (sub *subscriber) next() (domain.CollectionEvent, bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	for _, col := range domain.Collections() {
		if ev, ok := sub.pending[col]; ok {
			delete(sub.pending, col)
			return ev, true
		}
	}
	return domain.CollectionEvent{}, false
}

func (sub *subscriber) close() {
	sub.once.Do(func() { close(sub.done) })
}

type venueSubscriber struct {
	mu      sync.Mutex
	pending *domain.VenueEvent
	kick    chan struct{}
	done    chan struct{}
	out     chan domain.VenueEvent
	once    sync.Once
}

func newVenueSubscriber() *venueSubscriber {
	return &venueSubscriber{
		kick: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan domain.VenueEvent),
	}
}

func (sub *venueSubscriber) publish(ev domain.VenueEvent) {
	sub.mu.Lock()
	sub.pending = &ev
	sub.mu.Unlock()
	select {
	case sub.kick <- struct{}{}:
	default:
	}
}

func (sub *venueSubscriber) run() {
	defer close(sub.out)
	for {
		select {
		case <-sub.done:
			return
		case <-sub.kick:
		}
		sub.mu.Lock()
		ev := sub.pending
		sub.pending = nil
		sub.mu.Unlock()
		if ev == nil {
			continue
		}
		select {
		case sub.out <- *ev:
		case <-sub.done:
			return
		}
	}
}

func (sub *venueSubscriber) close() {
	sub.once.Do(func() { close(sub.done) })
}

// Subscribe streams full collection snapshots for one session. Every
// requested collection delivers its current snapshot immediately.
func (s *Store) Subscribe(ctx context.Context, session string, collections ...domain.Collection) (<-chan domain.CollectionEvent, func()) {
	if len(collections) == 0 {
		collections = domain.Collections()
	}
	sub := newSubscriber(session, collections)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = sub
	s.subMu.Unlock()

	go sub.run()

	// Initial snapshots, delivered before any commit-driven event.
	s.mu.RLock()
	seq := s.seq
	for _, col := range collections {
		sub.publish(domain.CollectionEvent{
			Session:    session,
			Collection: col,
			Seq:        seq,
			Data:       s.collectionData(session, col),
		})
	}
	s.mu.RUnlock()

	cancel := func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
		sub.close()
	}
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-sub.done:
			}
		}()
	}
	return sub.out, cancel
}

// SubscribeVenues streams the venue documents of every session.
func (s *Store) SubscribeVenues(ctx context.Context) (<-chan domain.VenueEvent, func()) {
	sub := newVenueSubscriber()

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.venueSubs[id] = sub
	s.subMu.Unlock()

	go sub.run()

	s.mu.RLock()
	sub.publish(domain.VenueEvent{Seq: s.seq, Venues: s.venueMap()})
	s.mu.RUnlock()

	cancel := func() {
		s.subMu.Lock()
		delete(s.venueSubs, id)
		s.subMu.Unlock()
		sub.close()
	}
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-sub.done:
			}
		}()
	}
	return sub.out, cancel
}

// notify fans fresh snapshots out to subscribers of touched collections.
func (s *Store) notify(seq uint64, touched map[touchKey]struct{}) {
	if len(touched) == 0 {
		return
	}

	s.subMu.Lock()
	subs := make([]*subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	venueSubs := make([]*venueSubscriber, 0, len(s.venueSubs))
	for _, sub := range s.venueSubs {
		venueSubs = append(venueSubs, sub)
	}
	s.subMu.Unlock()

	venueTouched := false
	for key := range touched {
		if key.collection == domain.CollectionVenue {
			venueTouched = true
			break
		}
	}

	s.mu.RLock()
	for _, sub := range subs {
		for key := range touched {
			if key.session != sub.session {
				continue
			}
			if _, ok := sub.cols[key.collection]; !ok {
				continue
			}
			sub.publish(domain.CollectionEvent{
				Session:    key.session,
				Collection: key.collection,
				Seq:        seq,
				Data:       s.collectionData(key.session, key.collection),
			})
		}
	}
	if venueTouched {
		venues := s.venueMap()
		for _, sub := range venueSubs {
			sub.publish(domain.VenueEvent{Seq: seq, Venues: venues})
		}
	}
	s.mu.RUnlock()
}

// collectionData snapshots one collection. Callers hold s.mu.
func (s *Store) collectionData(session string, col domain.Collection) domain.CollectionData {
	part, ok := s.state.parts[session]
	if !ok {
		return domain.CollectionData{}
	}
	ps := exportPartition(part)
	switch col {
	case domain.CollectionStaff:
		return domain.CollectionData{Staff: ps.Staff}
	case domain.CollectionRoles:
		return domain.CollectionData{Roles: ps.Roles}
	case domain.CollectionSchedules:
		return domain.CollectionData{Schedules: ps.Schedules}
	case domain.CollectionMarkers:
		return domain.CollectionData{Markers: ps.Markers}
	case domain.CollectionMaps:
		return domain.CollectionData{Maps: ps.Maps}
	case domain.CollectionVenue:
		return domain.CollectionData{Venue: ps.Venue}
	case domain.CollectionScheduleTemplates:
		return domain.CollectionData{Templates: ps.Templates}
	case domain.CollectionPositions:
		return domain.CollectionData{Positions: ps.Positions}
	case domain.CollectionTimeSlotInfo:
		return domain.CollectionData{SlotNotes: ps.SlotNotes}
	}
	return domain.CollectionData{}
}

// venueMap snapshots every session's venue document. Callers hold s.mu.
func (s *Store) venueMap() map[string]domain.Venue {
	venues := make(map[string]domain.Venue, len(s.state.parts))
	for id, part := range s.state.parts {
		if part.venue != nil {
			venues[id] = *part.venue
		}
	}
	return venues
}

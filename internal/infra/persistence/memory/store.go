package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"staffmap/pkg/domain"
)

// Store is the in-memory implementation of domain.PersistentStore.
// Transactions run against a clone of the state; commit swaps the clone in
// and fans full collection snapshots out to subscribers.
type Store struct {
	mu        sync.RWMutex
	state     memoryState
	engine    *domain.RulesEngine
	nowFn     func() time.Time
	seq       uint64
	subMu     sync.Mutex
	subs      map[int]*subscriber
	venueSubs map[int]*venueSubscriber
	nextSubID int
}

var _ domain.PersistentStore = (*Store)(nil)

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:     newMemoryState(),
		engine:    engine,
		nowFn:     func() time.Time { return time.Now().UTC() },
		subs:      make(map[int]*subscriber),
		venueSubs: make(map[int]*venueSubscriber),
	}
}

// SetNowFunc overrides the transaction clock, for tests.
func (s *Store) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.nowFn = now
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// Tx implements domain.Transaction over a cloned state.
type Tx struct {
	store   *Store
	state   memoryState
	changes []domain.Change
	now     time.Time
}

var _ domain.Transaction = (*Tx)(nil)

func (tx *Tx) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes a read-only view of the transactional state.
func (tx *Tx) Snapshot() domain.TransactionView {
	return &view{state: &tx.state}
}

// RunInTransaction executes fn within a transactional copy of the store
// state. Registered rules are evaluated against the resulting state; blocking
// violations abort the commit.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()

	tx := &Tx{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		v := &view{state: &tx.state}
		res, err := s.engine.Evaluate(ctx, v, tx.changes)
		if err != nil {
			s.mu.Unlock()
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			s.mu.Unlock()
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	s.seq++
	seq := s.seq
	touched := touchedCollections(tx.changes)
	s.mu.Unlock()

	s.notify(seq, touched)
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(&view{state: &snapshot})
}

// ListSessions returns all sessions ordered by id.
func (s *Store) ListSessions() []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, 0, len(s.state.sessions))
	for _, id := range sortedIDs(s.state.sessions) {
		out = append(out, s.state.sessions[id])
	}
	return out
}

// GetSession returns one session by id.
func (s *Store) GetSession(id string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.state.sessions[id]
	return sess, ok
}

type touchKey struct {
	session    string
	collection domain.Collection
}

func touchedCollections(changes []domain.Change) map[touchKey]struct{} {
	touched := make(map[touchKey]struct{}, len(changes))
	for _, c := range changes {
		if c.Collection == "" {
			// Session record changes surface through the venue stream so
			// registries observe renames and new sessions.
			touched[touchKey{collection: domain.CollectionVenue}] = struct{}{}
			continue
		}
		touched[touchKey{session: c.Session, collection: c.Collection}] = struct{}{}
	}
	return touched
}

// ExportState returns a deep snapshot of the full store state.
func (s *Store) ExportState() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return exportState(&s.state)
}

func exportState(state *memoryState) domain.Snapshot {
	snapshot := domain.Snapshot{Partitions: make(map[string]domain.PartitionSnapshot, len(state.parts))}
	for _, id := range sortedIDs(state.sessions) {
		snapshot.Sessions = append(snapshot.Sessions, state.sessions[id])
	}
	for id, part := range state.parts {
		snapshot.Partitions[id] = exportPartition(part)
	}
	return snapshot
}

func exportPartition(p *partition) domain.PartitionSnapshot {
	ps := domain.PartitionSnapshot{}
	for _, id := range sortedIDs(p.staff) {
		ps.Staff = append(ps.Staff, cloneStaff(p.staff[id]))
	}
	for _, id := range sortedIDs(p.roles) {
		ps.Roles = append(ps.Roles, cloneRole(p.roles[id]))
	}
	for _, id := range sortedIDs(p.schedules) {
		ps.Schedules = append(ps.Schedules, cloneSchedule(p.schedules[id]))
	}
	for _, id := range sortedIDs(p.markers) {
		ps.Markers = append(ps.Markers, cloneMarker(p.markers[id]))
	}
	for _, id := range sortedIDs(p.maps) {
		ps.Maps = append(ps.Maps, p.maps[id])
	}
	for _, id := range sortedIDs(p.templates) {
		ps.Templates = append(ps.Templates, cloneTemplate(p.templates[id]))
	}
	for _, id := range sortedIDs(p.positions) {
		ps.Positions = append(ps.Positions, p.positions[id])
	}
	for _, id := range sortedIDs(p.slotNotes) {
		ps.SlotNotes = append(ps.SlotNotes, p.slotNotes[id])
	}
	if p.venue != nil {
		v := *p.venue
		ps.Venue = &v
	}
	return ps
}

// ImportState replaces the full store state with the snapshot contents and
// notifies every subscriber.
func (s *Store) ImportState(snapshot domain.Snapshot) {
	s.mu.Lock()
	state := newMemoryState()
	for _, sess := range snapshot.Sessions {
		state.sessions[sess.ID] = sess
		state.parts[sess.ID] = newPartition()
	}
	for id, ps := range snapshot.Partitions {
		part, ok := state.parts[id]
		if !ok {
			part = newPartition()
			state.parts[id] = part
		}
		importPartition(part, ps)
	}
	s.state = state
	s.seq++
	seq := s.seq

	touched := make(map[touchKey]struct{})
	for id := range state.parts {
		for _, col := range domain.Collections() {
			touched[touchKey{session: id, collection: col}] = struct{}{}
		}
	}
	touched[touchKey{collection: domain.CollectionVenue}] = struct{}{}
	s.mu.Unlock()

	s.notify(seq, touched)
}

func importPartition(p *partition, ps domain.PartitionSnapshot) {
	for _, m := range ps.Staff {
		p.staff[m.ID] = cloneStaff(m)
	}
	for _, r := range ps.Roles {
		p.roles[r.ID] = cloneRole(r)
	}
	for _, i := range ps.Schedules {
		p.schedules[i.ID] = cloneSchedule(i)
	}
	for _, m := range ps.Markers {
		p.markers[m.ID] = cloneMarker(m)
	}
	for _, m := range ps.Maps {
		p.maps[m.ID] = m
	}
	for _, t := range ps.Templates {
		p.templates[t.ID] = cloneTemplate(t)
	}
	for _, pos := range ps.Positions {
		p.positions[pos.ID] = pos
	}
	for _, n := range ps.SlotNotes {
		p.slotNotes[n.ID] = n
	}
	if ps.Venue != nil {
		v := *ps.Venue
		p.venue = &v
	}
}

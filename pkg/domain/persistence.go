package domain

import "context"

// Transaction exposes the document operations a persistence implementation
// must support within an atomic scope. Every operation is addressed to a
// session partition; the whole transaction commits or rolls back as one unit,
// which is what makes cross-session import and slot copy atomic.
type Transaction interface {
	Snapshot() TransactionView

	CreateSession(Session) (Session, error)
	UpdateSession(id string, mutator func(*Session) error) (Session, error)

	CreateStaff(session string, member StaffMember) (StaffMember, error)
	UpdateStaff(session, id string, mutator func(*StaffMember) error) (StaffMember, error)
	DeleteStaff(session, id string) error

	CreateSchedule(session string, item ScheduleItem) (ScheduleItem, error)
	UpdateSchedule(session, id string, mutator func(*ScheduleItem) error) (ScheduleItem, error)
	DeleteSchedule(session, id string) error

	CreateMarker(session string, marker MapMarker) (MapMarker, error)
	UpdateMarker(session, id string, mutator func(*MapMarker) error) (MapMarker, error)
	DeleteMarker(session, id string) error

	CreateMapInfo(session string, info MapInfo) (MapInfo, error)
	UpdateMapInfo(session, id string, mutator func(*MapInfo) error) (MapInfo, error)
	DeleteMapInfo(session, id string) error

	CreateRole(session string, role Role) (Role, error)
	UpdateRole(session, id string, mutator func(*Role) error) (Role, error)
	DeleteRole(session, id string) error

	CreateScheduleTemplate(session string, tpl ScheduleTemplate) (ScheduleTemplate, error)
	UpdateScheduleTemplate(session, id string, mutator func(*ScheduleTemplate) error) (ScheduleTemplate, error)
	DeleteScheduleTemplate(session, id string) error

	CreatePosition(session string, pos Position) (Position, error)
	UpdatePosition(session, id string, mutator func(*Position) error) (Position, error)
	DeletePosition(session, id string) error

	CreateTimeSlotNote(session string, note TimeSlotNote) (TimeSlotNote, error)
	UpdateTimeSlotNote(session, id string, mutator func(*TimeSlotNote) error) (TimeSlotNote, error)
	DeleteTimeSlotNote(session, id string) error

	// SetVenue upserts the single per-session venue document.
	SetVenue(session string, mutator func(*Venue) error) (Venue, error)

	// ClearCollection removes every document of one collection in one
	// session partition. Import and slot-copy overwrite semantics build on
	// this.
	ClearCollection(session string, collection Collection) error
}

// TransactionView provides read-only access to snapshot data. List results
// are defensive copies in deterministic (id-sorted) order.
type TransactionView interface {
	RuleView
	FindSession(id string) (Session, bool)
	FindStaff(session, id string) (StaffMember, bool)
	FindSchedule(session, id string) (ScheduleItem, bool)
	FindMarker(session, id string) (MapMarker, bool)
	FindRole(session, id string) (Role, bool)
	FindScheduleTemplate(session, id string) (ScheduleTemplate, bool)
	FindPosition(session, id string) (Position, bool)
	ListRoles(session string) []Role
	ListMaps(session string) []MapInfo
	ListScheduleTemplates(session string) []ScheduleTemplate
	ListPositions(session string) []Position
	ListTimeSlotNotes(session string) []TimeSlotNote
	GetVenue(session string) (Venue, bool)
}

// CollectionData carries one collection's full snapshot. Exactly one field is
// populated, matching the event's Collection tag.
type CollectionData struct {
	Staff     []StaffMember      `json:"staff,omitempty"`
	Roles     []Role             `json:"roles,omitempty"`
	Schedules []ScheduleItem     `json:"schedules,omitempty"`
	Markers   []MapMarker        `json:"markers,omitempty"`
	Maps      []MapInfo          `json:"maps,omitempty"`
	Venue     *Venue             `json:"venue,omitempty"`
	Templates []ScheduleTemplate `json:"templates,omitempty"`
	Positions []Position         `json:"positions,omitempty"`
	SlotNotes []TimeSlotNote     `json:"slot_notes,omitempty"`
}

// CollectionEvent is one delivery of a subscription stream: the full snapshot
// of one collection in one session, tagged with a store-wide sequence number.
// Streams are last-value-wins; intermediate snapshots may be dropped when a
// subscriber lags.
type CollectionEvent struct {
	Session    string         `json:"session"`
	Collection Collection     `json:"collection"`
	Seq        uint64         `json:"seq"`
	Data       CollectionData `json:"data"`
}

// VenueEvent is one delivery of the cross-session venue stream used by the
// public projection gate and the session registry.
type VenueEvent struct {
	Seq    uint64           `json:"seq"`
	Venues map[string]Venue `json:"venues"`
}

// PartitionSnapshot captures the full contents of one session partition.
type PartitionSnapshot struct {
	Staff     []StaffMember      `json:"staff"`
	Roles     []Role             `json:"roles"`
	Schedules []ScheduleItem     `json:"schedules"`
	Markers   []MapMarker        `json:"markers"`
	Maps      []MapInfo          `json:"maps"`
	Venue     *Venue             `json:"venue,omitempty"`
	Templates []ScheduleTemplate `json:"templates"`
	Positions []Position         `json:"positions"`
	SlotNotes []TimeSlotNote     `json:"slot_notes"`
}

// Snapshot captures the full store state for durable persistence and
// import/export.
type Snapshot struct {
	Sessions   []Session                    `json:"sessions"`
	Partitions map[string]PartitionSnapshot `json:"partitions"`
}

// PersistentStore is the Entity Store boundary: a document-oriented,
// subscription-capable store partitioned by session.
type PersistentStore interface {
	// RunInTransaction executes fn within a transactional copy of the store
	// state, evaluates registered rules, and commits only when no blocking
	// violation is present. Subscribers of touched collections receive fresh
	// snapshots after commit.
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	// View executes fn against a read-only snapshot of the store state.
	View(ctx context.Context, fn func(TransactionView) error) error
	// Subscribe streams full collection snapshots for one session. Each
	// requested collection delivers its current snapshot immediately, then a
	// new snapshot after every commit that touches it. The returned cancel
	// function must be called to release the subscription; cancelling ctx
	// has the same effect.
	Subscribe(ctx context.Context, session string, collections ...Collection) (<-chan CollectionEvent, func())
	// SubscribeVenues streams the venue documents of every session whenever
	// any of them (or the session set) changes.
	SubscribeVenues(ctx context.Context) (<-chan VenueEvent, func())

	ListSessions() []Session
	GetSession(id string) (Session, bool)

	// ExportState and ImportState snapshot and restore the full store state.
	// Durable drivers persist the exported snapshot after each commit.
	ExportState() Snapshot
	ImportState(Snapshot)
}

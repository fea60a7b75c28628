// Package domain defines the persistent entities, value types, and rule
// evaluation primitives shared by the staffmap core.
package domain

import "time"

// Collection identifies a document collection within a session partition.
type Collection string

// Collections stored per session partition. Session records themselves live
// outside any partition.
const (
	// CollectionStaff holds staff member records.
	CollectionStaff Collection = "staff"
	// CollectionRoles holds day-scoped role records.
	CollectionRoles Collection = "roles"
	// CollectionSchedules holds schedule item records.
	CollectionSchedules Collection = "schedules"
	// CollectionMarkers holds persisted map marker records.
	CollectionMarkers Collection = "markers"
	// CollectionMaps holds per-slot map image overrides.
	CollectionMaps Collection = "maps"
	// CollectionVenue holds the single per-session venue document.
	CollectionVenue Collection = "venue"
	// CollectionScheduleTemplates holds day-agnostic task bundles.
	CollectionScheduleTemplates Collection = "scheduleTemplates"
	// CollectionPositions holds position tag records.
	CollectionPositions Collection = "positions"
	// CollectionTimeSlotInfo holds per-slot free-text notes.
	CollectionTimeSlotInfo Collection = "timeSlotInfo"
)

// Collections returns every partitioned collection in a stable order.
func Collections() []Collection {
	return []Collection{
		CollectionStaff,
		CollectionRoles,
		CollectionSchedules,
		CollectionMarkers,
		CollectionMaps,
		CollectionVenue,
		CollectionScheduleTemplates,
		CollectionPositions,
		CollectionTimeSlotInfo,
	}
}

// ImportCollections is the fixed set of collections copied by a cross-session
// import. The order matters only for determinism of the recorded changes.
func ImportCollections() []Collection {
	return []Collection{
		CollectionVenue,
		CollectionStaff,
		CollectionRoles,
		CollectionSchedules,
		CollectionMaps,
		CollectionMarkers,
	}
}

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is a tenant partition holding one event's staffing data.
type Session struct {
	Base
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

// StaffRole enumerates the duty categories a staff member can hold.
type StaffRole string

// Supported staff roles.
const (
	StaffRoleSecurity   StaffRole = "security"
	StaffRoleMedical    StaffRole = "medical"
	StaffRoleOperations StaffRole = "operations"
	StaffRoleInfo       StaffRole = "info"
)

// DefaultStaffRole is assigned to newly created staff members.
const DefaultStaffRole = StaffRoleSecurity

// ValidStaffRole reports whether the role is one of the supported values.
func ValidStaffRole(r StaffRole) bool {
	switch r {
	case StaffRoleSecurity, StaffRoleMedical, StaffRoleOperations, StaffRoleInfo:
		return true
	}
	return false
}

// StaffMember represents one person on the event crew. Avatar is an opaque
// image reference; the core never inspects its content.
type StaffMember struct {
	Base
	Name       string    `json:"name"`
	Role       StaffRole `json:"role"`
	Avatar     string    `json:"avatar"`
	PositionID *string   `json:"position_id,omitempty"`
}

// ScheduleItem is one task row in the time-sliced schedule. Grouping key is
// (Day, Time).
type ScheduleItem struct {
	Base
	Day         int      `json:"day"`
	Time        string   `json:"time"`
	Event       string   `json:"event"`
	Location    string   `json:"location"`
	StaffIDs    []string `json:"staff_ids"`
	RoleName    string   `json:"role_name,omitempty"`
	IsCompleted bool     `json:"is_completed"`
}

// MapMarker is a persisted spatial placement of one or more staff members on
// the floor map of a single slot. Coordinates are percentages of the map
// surface, clamped to [0,100]. A persisted marker's StaffIDs is never empty;
// emptied markers are deleted, not retained.
type MapMarker struct {
	Base
	StaffIDs []string `json:"staff_ids"`
	Day      int      `json:"day"`
	Time     string   `json:"time"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
}

// MapInfo overrides the background map image for one slot. Slots without an
// override fall back to the venue's default image.
type MapInfo struct {
	Base
	Day         int    `json:"day"`
	Time        string `json:"time"`
	MapImageURL string `json:"map_image_url"`
}

// RoleTask is a single task inside a role or schedule template. Tasks have no
// independent identity; equality is by event text.
type RoleTask struct {
	Event    string `json:"event"`
	Location string `json:"location,omitempty"`
}

// Role is a day-scoped, named bundle of tasks assignable to staff.
type Role struct {
	Base
	Name  string     `json:"name"`
	Day   int        `json:"day"`
	Tasks []RoleTask `json:"tasks"`
	Order int        `json:"order"`
}

// ScheduleTemplate is a day-agnostic task bundle copyable into a role for any
// day.
type ScheduleTemplate struct {
	Base
	Name  string     `json:"name"`
	Tasks []RoleTask `json:"tasks"`
}

// Position is a display-only tag assignable to staff members.
type Position struct {
	Base
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Venue is the single per-session venue document. It carries the public
// visibility flag, the notification banner text, and the session-wide default
// map image reference.
type Venue struct {
	Base
	IsPublic      bool   `json:"is_public"`
	Notification  string `json:"notification"`
	DefaultMapURL string `json:"default_map_url"`
}

// TimeSlotNote is a free-text note attached to one slot.
type TimeSlotNote struct {
	Base
	Day  int    `json:"day"`
	Time string `json:"time"`
	Note string `json:"note"`
}

// Change describes a mutation applied to a document during a transaction.
type Change struct {
	Session    string
	Collection Collection
	Action     Action
	Before     any
	After      any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported document operations.
const (
	// ActionCreate indicates a document was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates a document was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule       string
	Severity   Severity
	Message    string
	Session    string
	Collection Collection
	DocumentID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

// Package memory provides the canonical transactional, subscription-capable
// in-memory store for the staffmap domain. Durable drivers wrap it and
// persist exported snapshots after each commit.
package memory

import (
	"sort"

	"staffmap/pkg/domain"
)

// partition holds one session's document collections.
type partition struct {
	staff     map[string]domain.StaffMember
	roles     map[string]domain.Role
	schedules map[string]domain.ScheduleItem
	markers   map[string]domain.MapMarker
	maps      map[string]domain.MapInfo
	templates map[string]domain.ScheduleTemplate
	positions map[string]domain.Position
	slotNotes map[string]domain.TimeSlotNote
	venue     *domain.Venue
}

func newPartition() *partition {
	return &partition{
		staff:     make(map[string]domain.StaffMember),
		roles:     make(map[string]domain.Role),
		schedules: make(map[string]domain.ScheduleItem),
		markers:   make(map[string]domain.MapMarker),
		maps:      make(map[string]domain.MapInfo),
		templates: make(map[string]domain.ScheduleTemplate),
		positions: make(map[string]domain.Position),
		slotNotes: make(map[string]domain.TimeSlotNote),
	}
}

type memoryState struct {
	sessions map[string]domain.Session
	parts    map[string]*partition
}

func newMemoryState() memoryState {
	return memoryState{
		sessions: make(map[string]domain.Session),
		parts:    make(map[string]*partition),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for id, sess := range s.sessions {
		cloned.sessions[id] = sess
	}
	for id, part := range s.parts {
		cloned.parts[id] = part.clone()
	}
	return cloned
}

func (p *partition) clone() *partition {
	cp := newPartition()
	for k, v := range p.staff {
		cp.staff[k] = cloneStaff(v)
	}
	for k, v := range p.roles {
		cp.roles[k] = cloneRole(v)
	}
	for k, v := range p.schedules {
		cp.schedules[k] = cloneSchedule(v)
	}
	for k, v := range p.markers {
		cp.markers[k] = cloneMarker(v)
	}
	for k, v := range p.maps {
		cp.maps[k] = v
	}
	for k, v := range p.templates {
		cp.templates[k] = cloneTemplate(v)
	}
	for k, v := range p.positions {
		cp.positions[k] = v
	}
	for k, v := range p.slotNotes {
		cp.slotNotes[k] = v
	}
	if p.venue != nil {
		v := *p.venue
		cp.venue = &v
	}
	return cp
}

func cloneStaff(m domain.StaffMember) domain.StaffMember {
	cp := m
	if m.PositionID != nil {
		id := *m.PositionID
		cp.PositionID = &id
	}
	return cp
}

func cloneSchedule(i domain.ScheduleItem) domain.ScheduleItem {
	cp := i
	cp.StaffIDs = append([]string(nil), i.StaffIDs...)
	return cp
}

func cloneMarker(m domain.MapMarker) domain.MapMarker {
	cp := m
	cp.StaffIDs = append([]string(nil), m.StaffIDs...)
	return cp
}

func cloneRole(r domain.Role) domain.Role {
	cp := r
	cp.Tasks = append([]domain.RoleTask(nil), r.Tasks...)
	return cp
}

func cloneTemplate(t domain.ScheduleTemplate) domain.ScheduleTemplate {
	cp := t
	cp.Tasks = append([]domain.RoleTask(nil), t.Tasks...)
	return cp
}

// sortedIDs returns map keys in ascending order; list accessors rely on it
// because the store itself gives no ordering guarantee.
func sortedIDs[T any](docs map[string]T) []string {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

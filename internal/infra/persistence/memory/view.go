package memory

import "staffmap/pkg/domain"

// view exposes a read-only snapshot of a memoryState to rules and callers.
type view struct {
	state *memoryState
}

var _ domain.TransactionView = (*view)(nil)

func (v *view) part(session string) *partition {
	return v.state.parts[session]
}

// ListSessions returns all sessions ordered by id.
func (v *view) ListSessions() []domain.Session {
	out := make([]domain.Session, 0, len(v.state.sessions))
	for _, id := range sortedIDs(v.state.sessions) {
		out = append(out, v.state.sessions[id])
	}
	return out
}

// FindSession retrieves one session by id.
func (v *view) FindSession(id string) (domain.Session, bool) {
	sess, ok := v.state.sessions[id]
	return sess, ok
}

// ListVenues returns every session's venue document keyed by session id.
func (v *view) ListVenues() map[string]domain.Venue {
	out := make(map[string]domain.Venue, len(v.state.parts))
	for id, part := range v.state.parts {
		if part.venue != nil {
			out[id] = *part.venue
		}
	}
	return out
}

// GetVenue returns one session's venue document.
func (v *view) GetVenue(session string) (domain.Venue, bool) {
	part := v.part(session)
	if part == nil || part.venue == nil {
		return domain.Venue{}, false
	}
	return *part.venue, true
}

// ListStaff returns all staff in one session ordered by id.
func (v *view) ListStaff(session string) []domain.StaffMember {
	part := v.part(session)
	if part == nil {
		return nil
	}
	out := make([]domain.StaffMember, 0, len(part.staff))
	for _, id := range sortedIDs(part.staff) {
		out = append(out, cloneStaff(part.staff[id]))
	}
	return out
}

// FindStaff retrieves one staff member.
func (v *view) FindStaff(session, id string) (domain.StaffMember, bool) {
	part := v.part(session)
	if part == nil {
		return domain.StaffMember{}, false
	}
	m, ok := part.staff[id]
	if !ok {
		return domain.StaffMember{}, false
	}
	return cloneStaff(m), true
}

// ListSchedules returns all schedule items in one session ordered by id.
func (v *view) ListSchedules(session string) []domain.ScheduleItem {
	part := v.part(session)
	if part == nil {
		return nil
	}
	out := make([]domain.ScheduleItem, 0, len(part.schedules))
	for _, id := range sortedIDs(part.schedules) {
		out = append(out, cloneSchedule(part.schedules[id]))
	}
	return out
}

// FindSchedule retrieves one schedule item.
func (v *view) FindSchedule(session, id string) (domain.ScheduleItem, bool) {
	part := v.part(session)
	if part == nil {
		return domain.ScheduleItem{}, false
	}
	i, ok := part.schedules[id]
	if !ok {
		return domain.ScheduleItem{}, false
	}
	return cloneSchedule(i), true
}

// ListMarkers returns all persisted markers in one session ordered by id.
func (v *view) ListMarkers(session string) []domain.MapMarker {
	part := v.part(session)
	if part == nil {
		return nil
	}
	out := make([]domain.MapMarker, 0, len(part.markers))
	for _, id := range sortedIDs(part.markers) {
		out = append(out, cloneMarker(part.markers[id]))
	}
	return out
}

// FindMarker retrieves one persisted marker.
func (v *view) FindMarker(session, id string) (domain.MapMarker, bool) {
	part := v.part(session)
	if part == nil {
		return domain.MapMarker{}, false
	}
	m, ok := part.markers[id]
	if !ok {
		return domain.MapMarker{}, false
	}
	return cloneMarker(m), true
}

// ListRoles returns all roles in one session ordered by id.
func (v *view) ListRoles(session string) []domain.Role {
	part := v.part(session)
	if part == nil {
		return nil
	}
	out := make([]domain.Role, 0, len(part.roles))
	for _, id := range sortedIDs(part.roles) {
		out = append(out, cloneRole(part.roles[id]))
	}
	return out
}

// FindRole retrieves one role.
func (v *view) FindRole(session, id string) (domain.Role, bool) {
	part := v.part(session)
	if part == nil {
		return domain.Role{}, false
	}
	r, ok := part.roles[id]
	if !ok {
		return domain.Role{}, false
	}
	return cloneRole(r), true
}

// ListMaps returns all per-slot map overrides in one session ordered by id.
func (v *view) ListMaps(session string) []domain.MapInfo {
	part := v.part(session)
	if part == nil {
		return nil
	}
	out := make([]domain.MapInfo, 0, len(part.maps))
	for _, id := range sortedIDs(part.maps) {
		out = append(out, part.maps[id])
	}
	return out
}

// ListScheduleTemplates returns all schedule templates ordered by id.
func (v *view) ListScheduleTemplates(session string) []domain.ScheduleTemplate {
	part := v.part(session)
	if part == nil {
		return nil
	}
	out := make([]domain.ScheduleTemplate, 0, len(part.templates))
	for _, id := range sortedIDs(part.templates) {
		out = append(out, cloneTemplate(part.templates[id]))
	}
	return out
}

// FindScheduleTemplate retrieves one schedule template.
func (v *view) FindScheduleTemplate(session, id string) (domain.ScheduleTemplate, bool) {
	part := v.part(session)
	if part == nil {
		return domain.ScheduleTemplate{}, false
	}
	t, ok := part.templates[id]
	if !ok {
		return domain.ScheduleTemplate{}, false
	}
	return cloneTemplate(t), true
}

// ListPositions returns all position tags ordered by id.
func (v *view) ListPositions(session string) []domain.Position {
	part := v.part(session)
	if part == nil {
		return nil
	}
	out := make([]domain.Position, 0, len(part.positions))
	for _, id := range sortedIDs(part.positions) {
		out = append(out, part.positions[id])
	}
	return out
}

// FindPosition retrieves one position tag.
func (v *view) FindPosition(session, id string) (domain.Position, bool) {
	part := v.part(session)
	if part == nil {
		return domain.Position{}, false
	}
	p, ok := part.positions[id]
	return p, ok
}

// ListTimeSlotNotes returns all per-slot notes ordered by id.
func (v *view) ListTimeSlotNotes(session string) []domain.TimeSlotNote {
	part := v.part(session)
	if part == nil {
		return nil
	}
	out := make([]domain.TimeSlotNote, 0, len(part.slotNotes))
	for _, id := range sortedIDs(part.slotNotes) {
		out = append(out, part.slotNotes[id])
	}
	return out
}

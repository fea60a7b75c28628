package memory

import (
	"fmt"

	"staffmap/pkg/domain"
)

func (tx *Tx) part(session string) (*partition, error) {
	if _, ok := tx.state.sessions[session]; !ok {
		return nil, domain.ErrSessionNotFound{ID: session}
	}
	part, ok := tx.state.parts[session]
	if !ok {
		part = newPartition()
		tx.state.parts[session] = part
	}
	return part, nil
}

// CreateSession stores a new session with an empty partition.
func (tx *Tx) CreateSession(sess domain.Session) (domain.Session, error) {
	if sess.ID == "" {
		sess.ID = tx.store.newID()
	}
	if _, exists := tx.state.sessions[sess.ID]; exists {
		return domain.Session{}, fmt.Errorf("session %q already exists", sess.ID)
	}
	sess.CreatedAt = tx.now
	sess.UpdatedAt = tx.now
	tx.state.sessions[sess.ID] = sess
	tx.state.parts[sess.ID] = newPartition()
	tx.recordChange(domain.Change{Session: sess.ID, Action: domain.ActionCreate, After: sess})
	return sess, nil
}

// UpdateSession mutates a session record using the provided mutator.
func (tx *Tx) UpdateSession(id string, mutator func(*domain.Session) error) (domain.Session, error) {
	current, ok := tx.state.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound{ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.Session{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.sessions[id] = current
	tx.recordChange(domain.Change{Session: id, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreateStaff stores a new staff member.
func (tx *Tx) CreateStaff(session string, member domain.StaffMember) (domain.StaffMember, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.StaffMember{}, err
	}
	if member.ID == "" {
		member.ID = tx.store.newID()
	}
	if _, exists := part.staff[member.ID]; exists {
		return domain.StaffMember{}, fmt.Errorf("staff %q already exists", member.ID)
	}
	if member.Role == "" {
		member.Role = domain.DefaultStaffRole
	}
	member.CreatedAt = tx.now
	member.UpdatedAt = tx.now
	part.staff[member.ID] = cloneStaff(member)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionStaff, Action: domain.ActionCreate, After: cloneStaff(member)})
	return member, nil
}

// UpdateStaff mutates a staff member using the provided mutator.
func (tx *Tx) UpdateStaff(session, id string, mutator func(*domain.StaffMember) error) (domain.StaffMember, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.StaffMember{}, err
	}
	current, ok := part.staff[id]
	if !ok {
		return domain.StaffMember{}, domain.ErrNotFound{Collection: domain.CollectionStaff, ID: id}
	}
	before := cloneStaff(current)
	if err := mutator(&current); err != nil {
		return domain.StaffMember{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	part.staff[id] = cloneStaff(current)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionStaff, Action: domain.ActionUpdate, Before: before, After: cloneStaff(current)})
	return current, nil
}

// DeleteStaff removes a staff member record. Cascades (marker and schedule
// cleanup) are composed by the service layer within the same transaction.
func (tx *Tx) DeleteStaff(session, id string) error {
	part, err := tx.part(session)
	if err != nil {
		return err
	}
	current, ok := part.staff[id]
	if !ok {
		return domain.ErrNotFound{Collection: domain.CollectionStaff, ID: id}
	}
	delete(part.staff, id)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionStaff, Action: domain.ActionDelete, Before: cloneStaff(current)})
	return nil
}

// CreateSchedule stores a new schedule item.
func (tx *Tx) CreateSchedule(session string, item domain.ScheduleItem) (domain.ScheduleItem, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.ScheduleItem{}, err
	}
	if item.ID == "" {
		item.ID = tx.store.newID()
	}
	if _, exists := part.schedules[item.ID]; exists {
		return domain.ScheduleItem{}, fmt.Errorf("schedule %q already exists", item.ID)
	}
	item.CreatedAt = tx.now
	item.UpdatedAt = tx.now
	part.schedules[item.ID] = cloneSchedule(item)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionSchedules, Action: domain.ActionCreate, After: cloneSchedule(item)})
	return item, nil
}

// UpdateSchedule mutates a schedule item.
func (tx *Tx) UpdateSchedule(session, id string, mutator func(*domain.ScheduleItem) error) (domain.ScheduleItem, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.ScheduleItem{}, err
	}
	current, ok := part.schedules[id]
	if !ok {
		return domain.ScheduleItem{}, domain.ErrNotFound{Collection: domain.CollectionSchedules, ID: id}
	}
	before := cloneSchedule(current)
	if err := mutator(&current); err != nil {
		return domain.ScheduleItem{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	part.schedules[id] = cloneSchedule(current)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionSchedules, Action: domain.ActionUpdate, Before: before, After: cloneSchedule(current)})
	return current, nil
}

// DeleteSchedule removes a schedule item.
func (tx *Tx) DeleteSchedule(session, id string) error {
	part, err := tx.part(session)
	if err != nil {
		return err
	}
	current, ok := part.schedules[id]
	if !ok {
		return domain.ErrNotFound{Collection: domain.CollectionSchedules, ID: id}
	}
	delete(part.schedules, id)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionSchedules, Action: domain.ActionDelete, Before: cloneSchedule(current)})
	return nil
}

// CreateMarker stores a new persisted map marker. Coordinates are clamped to
// the map surface; an empty staff set is rejected.
func (tx *Tx) CreateMarker(session string, marker domain.MapMarker) (domain.MapMarker, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.MapMarker{}, err
	}
	if len(marker.StaffIDs) == 0 {
		return domain.MapMarker{}, domain.ValidationError{Field: "marker.staff_ids", Reason: "must not be empty"}
	}
	if marker.ID == "" {
		marker.ID = tx.store.newID()
	}
	if _, exists := part.markers[marker.ID]; exists {
		return domain.MapMarker{}, fmt.Errorf("marker %q already exists", marker.ID)
	}
	marker.X = domain.ClampCoordinate(marker.X)
	marker.Y = domain.ClampCoordinate(marker.Y)
	marker.CreatedAt = tx.now
	marker.UpdatedAt = tx.now
	part.markers[marker.ID] = cloneMarker(marker)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionMarkers, Action: domain.ActionCreate, After: cloneMarker(marker)})
	return marker, nil
}

// UpdateMarker mutates a persisted marker. The emptied-staff case must be
// handled by the caller via DeleteMarker; an update that leaves the staff set
// empty is rejected.
func (tx *Tx) UpdateMarker(session, id string, mutator func(*domain.MapMarker) error) (domain.MapMarker, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.MapMarker{}, err
	}
	current, ok := part.markers[id]
	if !ok {
		return domain.MapMarker{}, domain.ErrNotFound{Collection: domain.CollectionMarkers, ID: id}
	}
	before := cloneMarker(current)
	if err := mutator(&current); err != nil {
		return domain.MapMarker{}, err
	}
	if len(current.StaffIDs) == 0 {
		return domain.MapMarker{}, domain.ValidationError{Field: "marker.staff_ids", Reason: "must not be empty"}
	}
	current.ID = id
	current.X = domain.ClampCoordinate(current.X)
	current.Y = domain.ClampCoordinate(current.Y)
	current.UpdatedAt = tx.now
	part.markers[id] = cloneMarker(current)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionMarkers, Action: domain.ActionUpdate, Before: before, After: cloneMarker(current)})
	return current, nil
}

// DeleteMarker removes a persisted marker.
func (tx *Tx) DeleteMarker(session, id string) error {
	part, err := tx.part(session)
	if err != nil {
		return err
	}
	current, ok := part.markers[id]
	if !ok {
		return domain.ErrNotFound{Collection: domain.CollectionMarkers, ID: id}
	}
	delete(part.markers, id)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionMarkers, Action: domain.ActionDelete, Before: cloneMarker(current)})
	return nil
}

// CreateMapInfo stores a per-slot map image override.
func (tx *Tx) CreateMapInfo(session string, info domain.MapInfo) (domain.MapInfo, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.MapInfo{}, err
	}
	if info.ID == "" {
		info.ID = tx.store.newID()
	}
	if _, exists := part.maps[info.ID]; exists {
		return domain.MapInfo{}, fmt.Errorf("map info %q already exists", info.ID)
	}
	info.CreatedAt = tx.now
	info.UpdatedAt = tx.now
	part.maps[info.ID] = info
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionMaps, Action: domain.ActionCreate, After: info})
	return info, nil
}

// UpdateMapInfo mutates a map image override.
func (tx *Tx) UpdateMapInfo(session, id string, mutator func(*domain.MapInfo) error) (domain.MapInfo, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.MapInfo{}, err
	}
	current, ok := part.maps[id]
	if !ok {
		return domain.MapInfo{}, domain.ErrNotFound{Collection: domain.CollectionMaps, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.MapInfo{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	part.maps[id] = current
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionMaps, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteMapInfo removes a map image override.
func (tx *Tx) DeleteMapInfo(session, id string) error {
	part, err := tx.part(session)
	if err != nil {
		return err
	}
	current, ok := part.maps[id]
	if !ok {
		return domain.ErrNotFound{Collection: domain.CollectionMaps, ID: id}
	}
	delete(part.maps, id)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionMaps, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateRole stores a day-scoped role.
func (tx *Tx) CreateRole(session string, role domain.Role) (domain.Role, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.Role{}, err
	}
	if role.ID == "" {
		role.ID = tx.store.newID()
	}
	if _, exists := part.roles[role.ID]; exists {
		return domain.Role{}, fmt.Errorf("role %q already exists", role.ID)
	}
	role.CreatedAt = tx.now
	role.UpdatedAt = tx.now
	part.roles[role.ID] = cloneRole(role)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionRoles, Action: domain.ActionCreate, After: cloneRole(role)})
	return role, nil
}

// UpdateRole mutates a role.
func (tx *Tx) UpdateRole(session, id string, mutator func(*domain.Role) error) (domain.Role, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.Role{}, err
	}
	current, ok := part.roles[id]
	if !ok {
		return domain.Role{}, domain.ErrNotFound{Collection: domain.CollectionRoles, ID: id}
	}
	before := cloneRole(current)
	if err := mutator(&current); err != nil {
		return domain.Role{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	part.roles[id] = cloneRole(current)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionRoles, Action: domain.ActionUpdate, Before: before, After: cloneRole(current)})
	return current, nil
}

// DeleteRole removes a role.
func (tx *Tx) DeleteRole(session, id string) error {
	part, err := tx.part(session)
	if err != nil {
		return err
	}
	current, ok := part.roles[id]
	if !ok {
		return domain.ErrNotFound{Collection: domain.CollectionRoles, ID: id}
	}
	delete(part.roles, id)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionRoles, Action: domain.ActionDelete, Before: cloneRole(current)})
	return nil
}

// CreateScheduleTemplate stores a day-agnostic task bundle.
func (tx *Tx) CreateScheduleTemplate(session string, tpl domain.ScheduleTemplate) (domain.ScheduleTemplate, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.ScheduleTemplate{}, err
	}
	if tpl.ID == "" {
		tpl.ID = tx.store.newID()
	}
	if _, exists := part.templates[tpl.ID]; exists {
		return domain.ScheduleTemplate{}, fmt.Errorf("schedule template %q already exists", tpl.ID)
	}
	tpl.CreatedAt = tx.now
	tpl.UpdatedAt = tx.now
	part.templates[tpl.ID] = cloneTemplate(tpl)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionScheduleTemplates, Action: domain.ActionCreate, After: cloneTemplate(tpl)})
	return tpl, nil
}

// UpdateScheduleTemplate mutates a schedule template.
func (tx *Tx) UpdateScheduleTemplate(session, id string, mutator func(*domain.ScheduleTemplate) error) (domain.ScheduleTemplate, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.ScheduleTemplate{}, err
	}
	current, ok := part.templates[id]
	if !ok {
		return domain.ScheduleTemplate{}, domain.ErrNotFound{Collection: domain.CollectionScheduleTemplates, ID: id}
	}
	before := cloneTemplate(current)
	if err := mutator(&current); err != nil {
		return domain.ScheduleTemplate{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	part.templates[id] = cloneTemplate(current)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionScheduleTemplates, Action: domain.ActionUpdate, Before: before, After: cloneTemplate(current)})
	return current, nil
}

// DeleteScheduleTemplate removes a schedule template.
func (tx *Tx) DeleteScheduleTemplate(session, id string) error {
	part, err := tx.part(session)
	if err != nil {
		return err
	}
	current, ok := part.templates[id]
	if !ok {
		return domain.ErrNotFound{Collection: domain.CollectionScheduleTemplates, ID: id}
	}
	delete(part.templates, id)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionScheduleTemplates, Action: domain.ActionDelete, Before: cloneTemplate(current)})
	return nil
}

// CreatePosition stores a position tag.
func (tx *Tx) CreatePosition(session string, pos domain.Position) (domain.Position, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.Position{}, err
	}
	if pos.ID == "" {
		pos.ID = tx.store.newID()
	}
	if _, exists := part.positions[pos.ID]; exists {
		return domain.Position{}, fmt.Errorf("position %q already exists", pos.ID)
	}
	pos.CreatedAt = tx.now
	pos.UpdatedAt = tx.now
	part.positions[pos.ID] = pos
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionPositions, Action: domain.ActionCreate, After: pos})
	return pos, nil
}

// UpdatePosition mutates a position tag.
func (tx *Tx) UpdatePosition(session, id string, mutator func(*domain.Position) error) (domain.Position, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.Position{}, err
	}
	current, ok := part.positions[id]
	if !ok {
		return domain.Position{}, domain.ErrNotFound{Collection: domain.CollectionPositions, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.Position{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	part.positions[id] = current
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionPositions, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeletePosition removes a position tag. Clearing staff references is
// composed by the service layer.
func (tx *Tx) DeletePosition(session, id string) error {
	part, err := tx.part(session)
	if err != nil {
		return err
	}
	current, ok := part.positions[id]
	if !ok {
		return domain.ErrNotFound{Collection: domain.CollectionPositions, ID: id}
	}
	delete(part.positions, id)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionPositions, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateTimeSlotNote stores a per-slot note.
func (tx *Tx) CreateTimeSlotNote(session string, note domain.TimeSlotNote) (domain.TimeSlotNote, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.TimeSlotNote{}, err
	}
	if note.ID == "" {
		note.ID = tx.store.newID()
	}
	if _, exists := part.slotNotes[note.ID]; exists {
		return domain.TimeSlotNote{}, fmt.Errorf("time slot note %q already exists", note.ID)
	}
	note.CreatedAt = tx.now
	note.UpdatedAt = tx.now
	part.slotNotes[note.ID] = note
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionTimeSlotInfo, Action: domain.ActionCreate, After: note})
	return note, nil
}

// UpdateTimeSlotNote mutates a per-slot note.
func (tx *Tx) UpdateTimeSlotNote(session, id string, mutator func(*domain.TimeSlotNote) error) (domain.TimeSlotNote, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.TimeSlotNote{}, err
	}
	current, ok := part.slotNotes[id]
	if !ok {
		return domain.TimeSlotNote{}, domain.ErrNotFound{Collection: domain.CollectionTimeSlotInfo, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.TimeSlotNote{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	part.slotNotes[id] = current
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionTimeSlotInfo, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteTimeSlotNote removes a per-slot note.
func (tx *Tx) DeleteTimeSlotNote(session, id string) error {
	part, err := tx.part(session)
	if err != nil {
		return err
	}
	current, ok := part.slotNotes[id]
	if !ok {
		return domain.ErrNotFound{Collection: domain.CollectionTimeSlotInfo, ID: id}
	}
	delete(part.slotNotes, id)
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionTimeSlotInfo, Action: domain.ActionDelete, Before: current})
	return nil
}

// SetVenue upserts the single per-session venue document.
func (tx *Tx) SetVenue(session string, mutator func(*domain.Venue) error) (domain.Venue, error) {
	part, err := tx.part(session)
	if err != nil {
		return domain.Venue{}, err
	}
	action := domain.ActionUpdate
	var before any
	var current domain.Venue
	if part.venue != nil {
		current = *part.venue
		before = current
	} else {
		action = domain.ActionCreate
		current = domain.Venue{Base: domain.Base{ID: "venue", CreatedAt: tx.now}}
	}
	if err := mutator(&current); err != nil {
		return domain.Venue{}, err
	}
	current.ID = "venue"
	current.UpdatedAt = tx.now
	part.venue = &current
	tx.recordChange(domain.Change{Session: session, Collection: domain.CollectionVenue, Action: action, Before: before, After: current})
	return current, nil
}

// ClearCollection removes every document of one collection in one session.
func (tx *Tx) ClearCollection(session string, collection domain.Collection) error {
	part, err := tx.part(session)
	if err != nil {
		return err
	}
	record := func(before any) {
		tx.recordChange(domain.Change{Session: session, Collection: collection, Action: domain.ActionDelete, Before: before})
	}
	switch collection {
	case domain.CollectionStaff:
		for _, id := range sortedIDs(part.staff) {
			record(cloneStaff(part.staff[id]))
			delete(part.staff, id)
		}
	case domain.CollectionRoles:
		for _, id := range sortedIDs(part.roles) {
			record(cloneRole(part.roles[id]))
			delete(part.roles, id)
		}
	case domain.CollectionSchedules:
		for _, id := range sortedIDs(part.schedules) {
			record(cloneSchedule(part.schedules[id]))
			delete(part.schedules, id)
		}
	case domain.CollectionMarkers:
		for _, id := range sortedIDs(part.markers) {
			record(cloneMarker(part.markers[id]))
			delete(part.markers, id)
		}
	case domain.CollectionMaps:
		for _, id := range sortedIDs(part.maps) {
			record(part.maps[id])
			delete(part.maps, id)
		}
	case domain.CollectionScheduleTemplates:
		for _, id := range sortedIDs(part.templates) {
			record(cloneTemplate(part.templates[id]))
			delete(part.templates, id)
		}
	case domain.CollectionPositions:
		for _, id := range sortedIDs(part.positions) {
			record(part.positions[id])
			delete(part.positions, id)
		}
	case domain.CollectionTimeSlotInfo:
		for _, id := range sortedIDs(part.slotNotes) {
			record(part.slotNotes[id])
			delete(part.slotNotes, id)
		}
	case domain.CollectionVenue:
		if part.venue != nil {
			record(*part.venue)
			part.venue = nil
		}
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}
	return nil
}

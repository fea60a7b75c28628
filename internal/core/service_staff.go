package core

import (
	"context"
	"strings"

	"staffmap/pkg/domain"
)

// AddStaff creates a staff member with the default role. A name and an
// avatar reference are both required before creation; the image itself is
// uploaded by the caller beforehand.
func (s *Service) AddStaff(ctx context.Context, session, name, avatar string) (domain.StaffMember, domain.Result, error) {
	if strings.TrimSpace(name) == "" {
		return domain.StaffMember{}, domain.Result{}, domain.ValidationError{Field: "staff.name", Reason: "must not be empty"}
	}
	if avatar == "" {
		return domain.StaffMember{}, domain.Result{}, domain.ValidationError{Field: "staff.avatar", Reason: "an image is required before creating staff"}
	}
	var created domain.StaffMember
	res, err := s.run(ctx, "add_staff", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateStaff(session, domain.StaffMember{
			Name:   strings.TrimSpace(name),
			Role:   domain.DefaultStaffRole,
			Avatar: avatar,
		})
		return err
	})
	return created, res, err
}

// UpdateStaff mutates a staff member using the provided mutator. An unknown
// id surfaces as a not-found error to the caller.
func (s *Service) UpdateStaff(ctx context.Context, session, id string, mutator func(*domain.StaffMember) error) (domain.StaffMember, domain.Result, error) {
	var updated domain.StaffMember
	res, err := s.run(ctx, "update_staff", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateStaff(session, id, func(m *domain.StaffMember) error {
			if err := mutator(m); err != nil {
				return err
			}
			if !domain.ValidStaffRole(m.Role) {
				return domain.ValidationError{Field: "staff.role", Reason: "unknown role"}
			}
			if strings.TrimSpace(m.Name) == "" {
				return domain.ValidationError{Field: "staff.name", Reason: "must not be empty"}
			}
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteStaff removes a staff member and cascades: the id is stripped from
// every marker's and schedule item's staff set, and markers left empty are
// deleted. A marker with zero staff has no visual representation and is
// garbage.
func (s *Service) DeleteStaff(ctx context.Context, session, id string) (domain.Result, error) {
	return s.run(ctx, "delete_staff", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		if _, ok := view.FindStaff(session, id); !ok {
			return domain.ErrNotFound{Collection: domain.CollectionStaff, ID: id}
		}
		for _, marker := range view.ListMarkers(session) {
			remaining := withoutID(marker.StaffIDs, id)
			if len(remaining) == len(marker.StaffIDs) {
				continue
			}
			if len(remaining) == 0 {
				if err := tx.DeleteMarker(session, marker.ID); err != nil {
					return err
				}
				continue
			}
			if _, err := tx.UpdateMarker(session, marker.ID, func(m *domain.MapMarker) error {
				m.StaffIDs = remaining
				return nil
			}); err != nil {
				return err
			}
		}
		for _, item := range view.ListSchedules(session) {
			remaining := withoutID(item.StaffIDs, id)
			if len(remaining) == len(item.StaffIDs) {
				continue
			}
			if _, err := tx.UpdateSchedule(session, item.ID, func(i *domain.ScheduleItem) error {
				i.StaffIDs = remaining
				return nil
			}); err != nil {
				return err
			}
		}
		return tx.DeleteStaff(session, id)
	})
}

func withoutID(ids []string, remove string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != remove {
			out = append(out, id)
		}
	}
	return out
}

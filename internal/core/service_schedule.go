package core

import (
	"context"
	"strings"

	"staffmap/pkg/domain"
)

// AddSchedule creates one schedule row.
func (s *Service) AddSchedule(ctx context.Context, session string, item domain.ScheduleItem) (domain.ScheduleItem, domain.Result, error) {
	if !domain.ValidSlot(domain.Slot{Day: item.Day, Time: item.Time}) {
		return domain.ScheduleItem{}, domain.Result{}, domain.ValidationError{Field: "schedule.slot", Reason: "outside the fixed day/time domain"}
	}
	if strings.TrimSpace(item.Event) == "" {
		return domain.ScheduleItem{}, domain.Result{}, domain.ValidationError{Field: "schedule.event", Reason: "must not be empty"}
	}
	var created domain.ScheduleItem
	res, err := s.run(ctx, "add_schedule", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateSchedule(session, item)
		return err
	})
	return created, res, err
}

// UpdateSchedule mutates one schedule row.
func (s *Service) UpdateSchedule(ctx context.Context, session, id string, mutator func(*domain.ScheduleItem) error) (domain.ScheduleItem, domain.Result, error) {
	var updated domain.ScheduleItem
	res, err := s.run(ctx, "update_schedule", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateSchedule(session, id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteSchedule removes one schedule row. Markers referencing the row's
// staff are unaffected; the marker/schedule link is by staff id and slot, not
// by row id.
func (s *Service) DeleteSchedule(ctx context.Context, session, id string) (domain.Result, error) {
	return s.run(ctx, "delete_schedule", func(tx domain.Transaction) error {
		return tx.DeleteSchedule(session, id)
	})
}

// ToggleScheduleCompletion flips one row's completion flag.
func (s *Service) ToggleScheduleCompletion(ctx context.Context, session, id string) (domain.ScheduleItem, domain.Result, error) {
	var updated domain.ScheduleItem
	res, err := s.run(ctx, "toggle_schedule_completion", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateSchedule(session, id, func(i *domain.ScheduleItem) error {
			i.IsCompleted = !i.IsCompleted
			return nil
		})
		return err
	})
	return updated, res, err
}

// UpdateScheduleStatus applies the same completion value to every id in one
// batch, used when a role's task set is toggled as a unit. Ids deleted by a
// concurrent editor are skipped; the batch still commits for the rest.
func (s *Service) UpdateScheduleStatus(ctx context.Context, session string, ids []string, completed bool) (domain.Result, error) {
	return s.run(ctx, "update_schedule_status", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		for _, id := range ids {
			if _, ok := view.FindSchedule(session, id); !ok {
				continue
			}
			if _, err := tx.UpdateSchedule(session, id, func(i *domain.ScheduleItem) error {
				i.IsCompleted = completed
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// AssignTasksToStaff attaches a dropped task bundle to one staff member for
// the given slot: rows matching an existing (event, role) pair in the slot
// gain the staff id, missing rows are created.
func (s *Service) AssignTasksToStaff(ctx context.Context, session, staffID string, slot domain.Slot, roleName string, tasks []domain.RoleTask) (domain.Result, error) {
	if !domain.ValidSlot(slot) {
		return domain.Result{}, domain.ValidationError{Field: "schedule.slot", Reason: "outside the fixed day/time domain"}
	}
	return s.run(ctx, "assign_tasks_to_staff", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		if _, ok := view.FindStaff(session, staffID); !ok {
			return domain.ErrNotFound{Collection: domain.CollectionStaff, ID: staffID}
		}
		existing := make(map[string]domain.ScheduleItem)
		for _, item := range view.ListSchedules(session) {
			if item.Day == slot.Day && item.Time == slot.Time && item.RoleName == roleName {
				existing[item.Event] = item
			}
		}
		for _, task := range tasks {
			if item, ok := existing[task.Event]; ok {
				if containsID(item.StaffIDs, staffID) {
					continue
				}
				if _, err := tx.UpdateSchedule(session, item.ID, func(i *domain.ScheduleItem) error {
					i.StaffIDs = append(i.StaffIDs, staffID)
					return nil
				}); err != nil {
					return err
				}
				continue
			}
			if _, err := tx.CreateSchedule(session, domain.ScheduleItem{
				Day:      slot.Day,
				Time:     slot.Time,
				Event:    task.Event,
				Location: task.Location,
				StaffIDs: []string{staffID},
				RoleName: roleName,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

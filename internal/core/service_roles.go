package core

import (
	"context"
	"strings"

	"staffmap/pkg/domain"
)

// AddRole creates a day-scoped role.
func (s *Service) AddRole(ctx context.Context, session string, role domain.Role) (domain.Role, domain.Result, error) {
	if strings.TrimSpace(role.Name) == "" {
		return domain.Role{}, domain.Result{}, domain.ValidationError{Field: "role.name", Reason: "must not be empty"}
	}
	if !domain.ValidDay(role.Day) {
		return domain.Role{}, domain.Result{}, domain.ValidationError{Field: "role.day", Reason: "outside the event day range"}
	}
	var created domain.Role
	res, err := s.run(ctx, "add_role", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateRole(session, role)
		return err
	})
	return created, res, err
}

// UpdateRole mutates a role.
func (s *Service) UpdateRole(ctx context.Context, session, id string, mutator func(*domain.Role) error) (domain.Role, domain.Result, error) {
	var updated domain.Role
	res, err := s.run(ctx, "update_role", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateRole(session, id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteRole removes a role.
func (s *Service) DeleteRole(ctx context.Context, session, id string) (domain.Result, error) {
	return s.run(ctx, "delete_role", func(tx domain.Transaction) error {
		return tx.DeleteRole(session, id)
	})
}

// AddScheduleTemplatesToSlot copies each selected template into a role for
// the given day. A role already carrying the template's name for that day is
// merged, not replaced: tasks an operator added by hand survive repeated
// template application.
func (s *Service) AddScheduleTemplatesToSlot(ctx context.Context, session string, templateIDs []string, day int) (domain.Result, error) {
	if !domain.ValidDay(day) {
		return domain.Result{}, domain.ValidationError{Field: "role.day", Reason: "outside the event day range"}
	}
	return s.run(ctx, "add_schedule_templates_to_slot", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		byName := make(map[string]domain.Role)
		maxOrder := 0
		for _, role := range view.ListRoles(session) {
			if role.Day == day {
				byName[role.Name] = role
			}
			if role.Order > maxOrder {
				maxOrder = role.Order
			}
		}
		for _, tplID := range templateIDs {
			tpl, ok := view.FindScheduleTemplate(session, tplID)
			if !ok {
				return domain.ErrNotFound{Collection: domain.CollectionScheduleTemplates, ID: tplID}
			}
			if existing, ok := byName[tpl.Name]; ok {
				merged, changed := mergeTasks(existing.Tasks, tpl.Tasks)
				if !changed {
					continue
				}
				updated, err := tx.UpdateRole(session, existing.ID, func(r *domain.Role) error {
					r.Tasks = merged
					return nil
				})
				if err != nil {
					return err
				}
				byName[tpl.Name] = updated
				continue
			}
			maxOrder++
			created, err := tx.CreateRole(session, domain.Role{
				Name:  tpl.Name,
				Day:   day,
				Tasks: append([]domain.RoleTask(nil), tpl.Tasks...),
				Order: maxOrder,
			})
			if err != nil {
				return err
			}
			byName[tpl.Name] = created
		}
		return nil
	})
}

// mergeTasks appends tasks missing from existing, keyed by event text.
func mergeTasks(existing, incoming []domain.RoleTask) ([]domain.RoleTask, bool) {
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[t.Event] = struct{}{}
	}
	merged := append([]domain.RoleTask(nil), existing...)
	changed := false
	for _, t := range incoming {
		if _, ok := seen[t.Event]; ok {
			continue
		}
		merged = append(merged, t)
		seen[t.Event] = struct{}{}
		changed = true
	}
	return merged, changed
}

// AddTasksToRole appends tasks to a role, skipping events it already carries.
func (s *Service) AddTasksToRole(ctx context.Context, session, roleID string, tasks []domain.RoleTask) (domain.Role, domain.Result, error) {
	var updated domain.Role
	res, err := s.run(ctx, "add_tasks_to_role", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateRole(session, roleID, func(r *domain.Role) error {
			merged, _ := mergeTasks(r.Tasks, tasks)
			r.Tasks = merged
			return nil
		})
		return err
	})
	return updated, res, err
}

// RemoveTaskFromRole removes a task by event-text match. Tasks have no
// independent identity, so index-based removal would race concurrent edits.
func (s *Service) RemoveTaskFromRole(ctx context.Context, session, roleID string, task domain.RoleTask) (domain.Role, domain.Result, error) {
	var updated domain.Role
	res, err := s.run(ctx, "remove_task_from_role", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateRole(session, roleID, func(r *domain.Role) error {
			kept := make([]domain.RoleTask, 0, len(r.Tasks))
			for _, t := range r.Tasks {
				if t.Event != task.Event {
					kept = append(kept, t)
				}
			}
			r.Tasks = kept
			return nil
		})
		return err
	})
	return updated, res, err
}

// AddScheduleTemplate creates a reusable, day-agnostic task bundle.
func (s *Service) AddScheduleTemplate(ctx context.Context, session string, tpl domain.ScheduleTemplate) (domain.ScheduleTemplate, domain.Result, error) {
	if strings.TrimSpace(tpl.Name) == "" {
		return domain.ScheduleTemplate{}, domain.Result{}, domain.ValidationError{Field: "template.name", Reason: "must not be empty"}
	}
	var created domain.ScheduleTemplate
	res, err := s.run(ctx, "add_schedule_template", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateScheduleTemplate(session, tpl)
		return err
	})
	return created, res, err
}

// UpdateScheduleTemplate mutates a schedule template.
func (s *Service) UpdateScheduleTemplate(ctx context.Context, session, id string, mutator func(*domain.ScheduleTemplate) error) (domain.ScheduleTemplate, domain.Result, error) {
	var updated domain.ScheduleTemplate
	res, err := s.run(ctx, "update_schedule_template", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateScheduleTemplate(session, id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteScheduleTemplate removes a schedule template. Roles previously
// created from it keep their tasks.
func (s *Service) DeleteScheduleTemplate(ctx context.Context, session, id string) (domain.Result, error) {
	return s.run(ctx, "delete_schedule_template", func(tx domain.Transaction) error {
		return tx.DeleteScheduleTemplate(session, id)
	})
}

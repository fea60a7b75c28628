package core

import (
	"context"
	"strings"

	"staffmap/pkg/domain"
)

// AddPosition creates a position tag.
func (s *Service) AddPosition(ctx context.Context, session string, pos domain.Position) (domain.Position, domain.Result, error) {
	if strings.TrimSpace(pos.Name) == "" {
		return domain.Position{}, domain.Result{}, domain.ValidationError{Field: "position.name", Reason: "must not be empty"}
	}
	var created domain.Position
	res, err := s.run(ctx, "add_position", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreatePosition(session, pos)
		return err
	})
	return created, res, err
}

// UpdatePosition mutates a position tag.
func (s *Service) UpdatePosition(ctx context.Context, session, id string, mutator func(*domain.Position) error) (domain.Position, domain.Result, error) {
	var updated domain.Position
	res, err := s.run(ctx, "update_position", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdatePosition(session, id, mutator)
		return err
	})
	return updated, res, err
}

// DeletePosition removes a position tag and clears the reference from any
// staff member holding it.
func (s *Service) DeletePosition(ctx context.Context, session, id string) (domain.Result, error) {
	return s.run(ctx, "delete_position", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		if _, ok := view.FindPosition(session, id); !ok {
			return domain.ErrNotFound{Collection: domain.CollectionPositions, ID: id}
		}
		for _, member := range view.ListStaff(session) {
			if member.PositionID == nil || *member.PositionID != id {
				continue
			}
			if _, err := tx.UpdateStaff(session, member.ID, func(m *domain.StaffMember) error {
				m.PositionID = nil
				return nil
			}); err != nil {
				return err
			}
		}
		return tx.DeletePosition(session, id)
	})
}

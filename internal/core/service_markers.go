package core

import (
	"context"
	"errors"

	"staffmap/pkg/domain"
)

// AddMarker places one staff member on the map of a slot. Policy: every drop
// creates a new marker; markers sharing a point are never merged. The staff
// member must exist, so a stale palette entry cannot resurrect deleted staff.
func (s *Service) AddMarker(ctx context.Context, session, staffID string, slot domain.Slot, x, y float64) (domain.MapMarker, domain.Result, error) {
	if !domain.ValidSlot(slot) {
		return domain.MapMarker{}, domain.Result{}, domain.ValidationError{Field: "marker.slot", Reason: "outside the fixed day/time domain"}
	}
	var created domain.MapMarker
	res, err := s.run(ctx, "add_marker", func(tx domain.Transaction) error {
		if _, ok := tx.Snapshot().FindStaff(session, staffID); !ok {
			return domain.ErrNotFound{Collection: domain.CollectionStaff, ID: staffID}
		}
		var err error
		created, err = tx.CreateMarker(session, domain.MapMarker{
			StaffIDs: []string{staffID},
			Day:      slot.Day,
			Time:     slot.Time,
			X:        domain.ClampCoordinate(x),
			Y:        domain.ClampCoordinate(y),
		})
		return err
	})
	return created, res, err
}

// UpdateMarkerPosition commits a drag result. A derived marker id persists
// the placeholder for the first time at the given coordinates, converting a
// virtual marker into a real one; a persisted id updates coordinates in
// place. Coordinates are clamped to [0,100] on every path.
func (s *Service) UpdateMarkerPosition(ctx context.Context, session, markerID string, x, y float64, staffIDs []string, slot domain.Slot) (domain.MapMarker, domain.Result, error) {
	if !domain.ValidSlot(slot) {
		return domain.MapMarker{}, domain.Result{}, domain.ValidationError{Field: "marker.slot", Reason: "outside the fixed day/time domain"}
	}
	var updated domain.MapMarker
	operation := "update_marker_position"
	if domain.IsDerivedMarkerID(markerID) {
		operation = "promote_marker"
	}
	res, err := s.run(ctx, operation, func(tx domain.Transaction) error {
		if domain.IsDerivedMarkerID(markerID) {
			if len(staffIDs) == 0 {
				return domain.ValidationError{Field: "marker.staff_ids", Reason: "must not be empty"}
			}
			var err error
			updated, err = tx.CreateMarker(session, domain.MapMarker{
				StaffIDs: append([]string(nil), staffIDs...),
				Day:      slot.Day,
				Time:     slot.Time,
				X:        x,
				Y:        y,
			})
			return err
		}
		var err error
		updated, err = tx.UpdateMarker(session, markerID, func(m *domain.MapMarker) error {
			m.X = x
			m.Y = y
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteMarker removes a persisted marker. Derived ids are a no-op: the
// placeholder is not stored, it simply stops appearing once its schedule link
// is removed. A marker already deleted by another editor is likewise a no-op.
func (s *Service) DeleteMarker(ctx context.Context, session, markerID string) (domain.Result, error) {
	if domain.IsDerivedMarkerID(markerID) {
		return domain.Result{}, nil
	}
	res, err := s.run(ctx, "delete_marker", func(tx domain.Transaction) error {
		return tx.DeleteMarker(session, markerID)
	})
	if err != nil {
		var nf domain.ErrNotFound
		if errors.As(err, &nf) {
			return domain.Result{}, nil
		}
		return res, err
	}
	return res, nil
}

// RemoveStaffFromMarker strips one staff id from a persisted marker, deleting
// the marker when it would be left empty.
func (s *Service) RemoveStaffFromMarker(ctx context.Context, session, markerID, staffID string) (domain.Result, error) {
	if domain.IsDerivedMarkerID(markerID) {
		return domain.Result{}, nil
	}
	return s.run(ctx, "remove_staff_from_marker", func(tx domain.Transaction) error {
		marker, ok := tx.Snapshot().FindMarker(session, markerID)
		if !ok {
			return domain.ErrNotFound{Collection: domain.CollectionMarkers, ID: markerID}
		}
		remaining := withoutID(marker.StaffIDs, staffID)
		if len(remaining) == len(marker.StaffIDs) {
			return nil
		}
		if len(remaining) == 0 {
			return tx.DeleteMarker(session, markerID)
		}
		_, err := tx.UpdateMarker(session, markerID, func(m *domain.MapMarker) error {
			m.StaffIDs = remaining
			return nil
		})
		return err
	})
}

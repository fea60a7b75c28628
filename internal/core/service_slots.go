package core

import (
	"context"

	"staffmap/pkg/domain"
)

// CopyTimeSlotData copies schedule items, markers, and the map image of one
// slot into another, deleting any pre-existing target-slot data first. The
// whole overwrite runs in one transaction, so a failure leaves the target
// untouched.
func (s *Service) CopyTimeSlotData(ctx context.Context, session string, source, target domain.Slot) (domain.Result, error) {
	if !domain.ValidSlot(source) || !domain.ValidSlot(target) {
		return domain.Result{}, domain.ValidationError{Field: "slot", Reason: "outside the fixed day/time domain"}
	}
	if source == target {
		return domain.Result{}, domain.ValidationError{Field: "slot", Reason: "source and target are the same slot"}
	}
	return s.run(ctx, "copy_time_slot_data", func(tx domain.Transaction) error {
		view := tx.Snapshot()

		for _, item := range view.ListSchedules(session) {
			if item.Day == target.Day && item.Time == target.Time {
				if err := tx.DeleteSchedule(session, item.ID); err != nil {
					return err
				}
			}
		}
		for _, marker := range view.ListMarkers(session) {
			if marker.Day == target.Day && marker.Time == target.Time {
				if err := tx.DeleteMarker(session, marker.ID); err != nil {
					return err
				}
			}
		}
		for _, info := range view.ListMaps(session) {
			if info.Day == target.Day && info.Time == target.Time {
				if err := tx.DeleteMapInfo(session, info.ID); err != nil {
					return err
				}
			}
		}

		for _, item := range view.ListSchedules(session) {
			if item.Day != source.Day || item.Time != source.Time {
				continue
			}
			cp := item
			cp.Base = domain.Base{}
			cp.Day = target.Day
			cp.Time = target.Time
			if _, err := tx.CreateSchedule(session, cp); err != nil {
				return err
			}
		}
		for _, marker := range view.ListMarkers(session) {
			if marker.Day != source.Day || marker.Time != source.Time {
				continue
			}
			cp := marker
			cp.Base = domain.Base{}
			cp.Day = target.Day
			cp.Time = target.Time
			if _, err := tx.CreateMarker(session, cp); err != nil {
				return err
			}
		}
		for _, info := range view.ListMaps(session) {
			if info.Day != source.Day || info.Time != source.Time {
				continue
			}
			cp := info
			cp.Base = domain.Base{}
			cp.Day = target.Day
			cp.Time = target.Time
			if _, err := tx.CreateMapInfo(session, cp); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetSlotMapImage upserts the background image override for one slot.
func (s *Service) SetSlotMapImage(ctx context.Context, session string, slot domain.Slot, imageURL string) (domain.MapInfo, domain.Result, error) {
	if !domain.ValidSlot(slot) {
		return domain.MapInfo{}, domain.Result{}, domain.ValidationError{Field: "map.slot", Reason: "outside the fixed day/time domain"}
	}
	if imageURL == "" {
		return domain.MapInfo{}, domain.Result{}, domain.ValidationError{Field: "map.image", Reason: "must not be empty"}
	}
	var info domain.MapInfo
	res, err := s.run(ctx, "set_slot_map_image", func(tx domain.Transaction) error {
		for _, existing := range tx.Snapshot().ListMaps(session) {
			if existing.Day == slot.Day && existing.Time == slot.Time {
				var err error
				info, err = tx.UpdateMapInfo(session, existing.ID, func(m *domain.MapInfo) error {
					m.MapImageURL = imageURL
					return nil
				})
				return err
			}
		}
		var err error
		info, err = tx.CreateMapInfo(session, domain.MapInfo{Day: slot.Day, Time: slot.Time, MapImageURL: imageURL})
		return err
	})
	return info, res, err
}

// ClearSlotMapImage removes the background override of one slot, restoring
// the fall back to the venue default image. Clearing a slot without an
// override is a no-op.
func (s *Service) ClearSlotMapImage(ctx context.Context, session string, slot domain.Slot) (domain.Result, error) {
	return s.run(ctx, "clear_slot_map_image", func(tx domain.Transaction) error {
		for _, existing := range tx.Snapshot().ListMaps(session) {
			if existing.Day == slot.Day && existing.Time == slot.Time {
				return tx.DeleteMapInfo(session, existing.ID)
			}
		}
		return nil
	})
}

// SetTimeSlotNote upserts the free-text note of one slot; an empty note
// removes it.
func (s *Service) SetTimeSlotNote(ctx context.Context, session string, slot domain.Slot, note string) (domain.Result, error) {
	if !domain.ValidSlot(slot) {
		return domain.Result{}, domain.ValidationError{Field: "note.slot", Reason: "outside the fixed day/time domain"}
	}
	return s.run(ctx, "set_time_slot_note", func(tx domain.Transaction) error {
		for _, existing := range tx.Snapshot().ListTimeSlotNotes(session) {
			if existing.Day == slot.Day && existing.Time == slot.Time {
				if note == "" {
					return tx.DeleteTimeSlotNote(session, existing.ID)
				}
				_, err := tx.UpdateTimeSlotNote(session, existing.ID, func(n *domain.TimeSlotNote) error {
					n.Note = note
					return nil
				})
				return err
			}
		}
		if note == "" {
			return nil
		}
		_, err := tx.CreateTimeSlotNote(session, domain.TimeSlotNote{Day: slot.Day, Time: slot.Time, Note: note})
		return err
	})
}

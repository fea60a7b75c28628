package core

import (
	"context"

	"staffmap/pkg/domain"
)

// SetNotification replaces the session's banner text. There is no history;
// last write wins.
func (s *Service) SetNotification(ctx context.Context, session, text string) (domain.Venue, domain.Result, error) {
	var venue domain.Venue
	res, err := s.run(ctx, "set_notification", func(tx domain.Transaction) error {
		var err error
		venue, err = tx.SetVenue(session, func(v *domain.Venue) error {
			v.Notification = text
			return nil
		})
		return err
	})
	return venue, res, err
}

// SetDefaultMapImage replaces the session-wide fallback map image used by
// slots without an override.
func (s *Service) SetDefaultMapImage(ctx context.Context, session, imageURL string) (domain.Venue, domain.Result, error) {
	var venue domain.Venue
	res, err := s.run(ctx, "set_default_map_image", func(tx domain.Transaction) error {
		var err error
		venue, err = tx.SetVenue(session, func(v *domain.Venue) error {
			v.DefaultMapURL = imageURL
			return nil
		})
		return err
	})
	return venue, res, err
}

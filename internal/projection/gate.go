// Package projection serves the read-only public view of the currently
// published session. The gate tracks the public flag across all sessions and
// tears the projected stream down the instant publication is revoked.
package projection

import (
	"context"
	"sort"

	"staffmap/internal/aggregate"
	"staffmap/internal/core"
	"staffmap/pkg/domain"
)

// State describes what the public surface should show.
type State string

// Gate states.
const (
	// StateNoPublicSession means nothing has been published.
	StateNoPublicSession State = "no_public_session"
	// StateActive means a published session is streaming.
	StateActive State = "active"
	// StateRevoked means the session a viewer was watching has been
	// unpublished; the surface must drop its data and show the revoked
	// notice.
	StateRevoked State = "revoked"
)

// Update is one delivery of the gated public stream. Data is meaningful only
// when State is StateActive.
type Update struct {
	State   State
	Session string
	Data    aggregate.VenueData
}

// Gate runs the public projection loop.
type Gate struct {
	store  domain.PersistentStore
	logger core.Logger
}

// NewGate creates a projection gate over the store.
func NewGate(store domain.PersistentStore, logger core.Logger) *Gate {
	if logger == nil {
		logger = core.NopLogger()
	}
	return &Gate{store: store, logger: logger}
}

// Run streams gated updates until ctx is cancelled. The first delivery
// reflects the current publication state; every publication change and every
// commit to the published session produces a fresh delivery. The stream is
// last-value-wins for a lagging receiver.
func (g *Gate) Run(ctx context.Context) <-chan Update {
	out := make(chan Update, 1)
	go g.run(ctx, out)
	return out
}

func (g *Gate) run(ctx context.Context, out chan Update) {
	defer close(out)
	venueEvents, cancelVenues := g.store.SubscribeVenues(ctx)
	defer cancelVenues()

	var (
		current     string
		innerCancel context.CancelFunc
		innerData   <-chan aggregate.VenueData
		seeded      bool
	)
	stopInner := func() {
		if innerCancel != nil {
			innerCancel()
			innerCancel = nil
			innerData = nil
		}
	}
	defer stopInner()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-venueEvents:
			if !ok {
				return
			}
			public := publicSession(ev.Venues)
			if seeded && public == current {
				continue
			}
			wasActive := seeded && current != ""
			previous := current
			current = public
			seeded = true
			stopInner()
			switch {
			case public != "":
				inner, cancel := context.WithCancel(ctx)
				innerCancel = cancel
				innerData = aggregate.Watch(inner, g.store, public)
				g.logger.Info("public projection started", "session", public)
			case wasActive:
				g.logger.Info("public projection revoked", "session", previous)
				send(ctx, out, Update{State: StateRevoked, Session: previous})
			default:
				send(ctx, out, Update{State: StateNoPublicSession})
			}
		case data, ok := <-innerData:
			if !ok {
				innerData = nil
				continue
			}
			send(ctx, out, Update{State: StateActive, Session: current, Data: data})
		}
	}
}

// send delivers lossily: a receiver that has not drained the previous update
// gets the newest one instead.
func send(ctx context.Context, out chan Update, u Update) {
	select {
	case out <- u:
		return
	case <-ctx.Done():
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- u:
	default:
	}
}

// publicSession returns the id of the published session in the venue map, or
// empty. Ties are broken by id order; the single-public rule makes ties a
// transient anomaly only.
func publicSession(venues map[string]domain.Venue) string {
	ids := make([]string, 0, len(venues))
	for id, venue := range venues {
		if venue.IsPublic {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return ""
	}
	sort.Strings(ids)
	return ids[0]
}

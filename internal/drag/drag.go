// Package drag implements the pointer gesture protocol for relocating map
// markers: press, threshold detection, drag tracking, and a single position
// commit per gesture.
package drag

import (
	"context"
	"errors"

	"staffmap/pkg/domain"
)

// Threshold is the per-axis pixel distance a pointer must travel from its
// press point before the gesture becomes a drag instead of a click.
const Threshold = 5.0

// Point is a pointer position in surface pixels.
type Point struct {
	X float64
	Y float64
}

// Rect is the rendered bounds of the map surface in pixels.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Normalize converts a pixel position into percentage coordinates of the map
// surface, clamped to the valid marker range.
func Normalize(p Point, r Rect) (x, y float64) {
	if r.Width > 0 {
		x = (p.X - r.Left) / r.Width * 100
	}
	if r.Height > 0 {
		y = (p.Y - r.Top) / r.Height * 100
	}
	return domain.ClampCoordinate(x), domain.ClampCoordinate(y)
}

// Outcome reports how a gesture ended.
type Outcome int

// Gesture outcomes.
const (
	// OutcomeNone means the gesture was cancelled or never started.
	OutcomeNone Outcome = iota
	// OutcomeClick means the pointer never crossed the drag threshold; the
	// caller should toggle the marker's popover.
	OutcomeClick
	// OutcomeMove means the marker was dragged and its new position committed.
	OutcomeMove
)

// CommitFunc persists a marker's new normalized position. It is invoked at
// most once per gesture.
type CommitFunc func(ctx context.Context, markerID string, x, y float64) error

// ListenerRegistry abstracts the surface's pointer event wiring. Register and
// Unregister calls are balanced on every gesture exit path, including
// cancellation.
type ListenerRegistry interface {
	Register(event string)
	Unregister(event string)
}

// Tracked pointer events.
const (
	EventPointerMove = "pointermove"
	EventPointerUp   = "pointerup"
)

type state int

const (
	stateIdle state = iota
	statePressed
	stateDragging
)

// ErrGestureActive is returned when PointerDown is called while a gesture is
// already in progress.
var ErrGestureActive = errors.New("drag: gesture already active")

// Controller runs the gesture state machine for one map surface.
type Controller struct {
	registry ListenerRegistry
	commit   CommitFunc
	editable bool

	st       state
	markerID string
	pressAt  Point
	current  Point
}

// NewController creates a gesture controller. A non-editable controller still
// resolves clicks but never enters the dragging state and never commits.
func NewController(registry ListenerRegistry, commit CommitFunc, editable bool) *Controller {
	return &Controller{registry: registry, commit: commit, editable: editable}
}

// Dragging reports whether the pointer has crossed the drag threshold.
func (c *Controller) Dragging() bool { return c.st == stateDragging }

// PointerDown begins a gesture on the given marker and registers the move and
// up listeners.
func (c *Controller) PointerDown(markerID string, at Point) error {
	if c.st != stateIdle {
		return ErrGestureActive
	}
	c.st = statePressed
	c.markerID = markerID
	c.pressAt = at
	c.current = at
	c.registry.Register(EventPointerMove)
	c.registry.Register(EventPointerUp)
	return nil
}

// PointerMove tracks the pointer. Crossing the threshold on either axis
// promotes the press to a drag, unless the surface is read-only.
func (c *Controller) PointerMove(at Point) {
	if c.st == stateIdle {
		return
	}
	c.current = at
	if c.st == statePressed && c.editable && c.crossedThreshold(at) {
		c.st = stateDragging
	}
}

func (c *Controller) crossedThreshold(at Point) bool {
	dx := at.X - c.pressAt.X
	dy := at.Y - c.pressAt.Y
	return dx > Threshold || dx < -Threshold || dy > Threshold || dy < -Threshold
}

// PointerUp ends the gesture. A drag commits the marker's final normalized
// position exactly once; a press that never crossed the threshold resolves as
// a click. Listeners are unregistered on every path, commit failure included.
func (c *Controller) PointerUp(ctx context.Context, surface Rect) (Outcome, error) {
	switch c.st {
	case stateIdle:
		return OutcomeNone, nil
	case statePressed:
		c.teardown()
		return OutcomeClick, nil
	}
	x, y := Normalize(c.current, surface)
	markerID := c.markerID
	c.teardown()
	if err := c.commit(ctx, markerID, x, y); err != nil {
		return OutcomeNone, err
	}
	return OutcomeMove, nil
}

// Cancel aborts an in-flight gesture without committing.
func (c *Controller) Cancel() {
	if c.st == stateIdle {
		return
	}
	c.teardown()
}

func (c *Controller) teardown() {
	c.registry.Unregister(EventPointerMove)
	c.registry.Unregister(EventPointerUp)
	c.st = stateIdle
	c.markerID = ""
}

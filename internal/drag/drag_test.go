package drag

import (
	"context"
	"testing"
)

type recordingRegistry struct {
	registered   map[string]int
	unregistered map[string]int
}

func newRecordingRegistry() *recordingRegistry {
	return &recordingRegistry{registered: map[string]int{}, unregistered: map[string]int{}}
}

func (r *recordingRegistry) Register(event string)   { r.registered[event]++ }
func (r *recordingRegistry) Unregister(event string) { r.unregistered[event]++ }

func (r *recordingRegistry) balanced() bool {
	for event, n := range r.registered {
		if r.unregistered[event] != n {
			return false
		}
	}
	return len(r.registered) == len(r.unregistered)
}

type commitRecorder struct {
	calls  int
	marker string
	x, y   float64
	err    error
}

func (c *commitRecorder) commit(_ context.Context, markerID string, x, y float64) error {
	c.calls++
	c.marker = markerID
	c.x, c.y = x, y
	return c.err
}

var surface = Rect{Left: 100, Top: 50, Width: 400, Height: 200}

func TestClickWithinThreshold(t *testing.T) {
	reg := newRecordingRegistry()
	rec := &commitRecorder{}
	c := NewController(reg, rec.commit, true)

	if err := c.PointerDown("m1", Point{X: 200, Y: 100}); err != nil {
		t.Fatalf("pointer down: %v", err)
	}
	c.PointerMove(Point{X: 204, Y: 104})
	out, err := c.PointerUp(context.Background(), surface)
	if err != nil {
		t.Fatalf("pointer up: %v", err)
	}
	if out != OutcomeClick {
		t.Fatalf("movement inside the threshold must resolve as a click, got %v", out)
	}
	if rec.calls != 0 {
		t.Fatal("a click must not commit a position")
	}
	if !reg.balanced() {
		t.Fatalf("listeners leaked: %+v vs %+v", reg.registered, reg.unregistered)
	}
}

func TestDragCommitsOnce(t *testing.T) {
	reg := newRecordingRegistry()
	rec := &commitRecorder{}
	c := NewController(reg, rec.commit, true)

	if err := c.PointerDown("m1", Point{X: 200, Y: 100}); err != nil {
		t.Fatalf("pointer down: %v", err)
	}
	c.PointerMove(Point{X: 210, Y: 100})
	if !c.Dragging() {
		t.Fatal("crossing the threshold must enter the dragging state")
	}
	c.PointerMove(Point{X: 300, Y: 150})
	out, err := c.PointerUp(context.Background(), surface)
	if err != nil {
		t.Fatalf("pointer up: %v", err)
	}
	if out != OutcomeMove {
		t.Fatalf("expected a move outcome, got %v", out)
	}
	if rec.calls != 1 || rec.marker != "m1" {
		t.Fatalf("exactly one commit per gesture, got %d for %q", rec.calls, rec.marker)
	}
	// (300-100)/400*100 = 50, (150-50)/200*100 = 50
	if rec.x != 50 || rec.y != 50 {
		t.Fatalf("expected normalized (50,50), got (%v,%v)", rec.x, rec.y)
	}
	if !reg.balanced() {
		t.Fatal("listeners leaked after drag")
	}

	// The controller is reusable; a second up without a down is a no-op.
	out, err = c.PointerUp(context.Background(), surface)
	if err != nil || out != OutcomeNone {
		t.Fatalf("idle pointer up must be a no-op, got %v err=%v", out, err)
	}
	if rec.calls != 1 {
		t.Fatal("idle pointer up must not commit again")
	}
}

func TestDragClampsOutOfBounds(t *testing.T) {
	reg := newRecordingRegistry()
	rec := &commitRecorder{}
	c := NewController(reg, rec.commit, true)

	if err := c.PointerDown("m1", Point{X: 200, Y: 100}); err != nil {
		t.Fatalf("pointer down: %v", err)
	}
	c.PointerMove(Point{X: 900, Y: 0})
	if _, err := c.PointerUp(context.Background(), surface); err != nil {
		t.Fatalf("pointer up: %v", err)
	}
	if rec.x != 100 || rec.y != 0 {
		t.Fatalf("coordinates must be clamped to the surface, got (%v,%v)", rec.x, rec.y)
	}
}

func TestReadOnlyNeverDrags(t *testing.T) {
	reg := newRecordingRegistry()
	rec := &commitRecorder{}
	c := NewController(reg, rec.commit, false)

	if err := c.PointerDown("m1", Point{X: 200, Y: 100}); err != nil {
		t.Fatalf("pointer down: %v", err)
	}
	c.PointerMove(Point{X: 400, Y: 200})
	if c.Dragging() {
		t.Fatal("read-only surface must never enter the dragging state")
	}
	out, err := c.PointerUp(context.Background(), surface)
	if err != nil {
		t.Fatalf("pointer up: %v", err)
	}
	if out != OutcomeClick {
		t.Fatalf("read-only gesture resolves as click, got %v", out)
	}
	if rec.calls != 0 {
		t.Fatal("read-only surface must never commit")
	}
	if !reg.balanced() {
		t.Fatal("listeners leaked on read-only surface")
	}
}

func TestCancelReleasesListenersWithoutCommit(t *testing.T) {
	reg := newRecordingRegistry()
	rec := &commitRecorder{}
	c := NewController(reg, rec.commit, true)

	if err := c.PointerDown("m1", Point{X: 0, Y: 0}); err != nil {
		t.Fatalf("pointer down: %v", err)
	}
	c.PointerMove(Point{X: 50, Y: 50})
	c.Cancel()
	if rec.calls != 0 {
		t.Fatal("cancel must not commit")
	}
	if !reg.balanced() {
		t.Fatal("cancel must unregister all listeners")
	}
	// Cancel when idle is harmless.
	c.Cancel()
	if !reg.balanced() {
		t.Fatal("idle cancel must not unbalance listeners")
	}
}

func TestCommitFailureStillReleasesListeners(t *testing.T) {
	reg := newRecordingRegistry()
	rec := &commitRecorder{err: context.DeadlineExceeded}
	c := NewController(reg, rec.commit, true)

	if err := c.PointerDown("m1", Point{X: 0, Y: 0}); err != nil {
		t.Fatalf("pointer down: %v", err)
	}
	c.PointerMove(Point{X: 50, Y: 50})
	out, err := c.PointerUp(context.Background(), surface)
	if err == nil {
		t.Fatal("commit error must surface")
	}
	if out != OutcomeNone {
		t.Fatalf("failed commit yields no outcome, got %v", out)
	}
	if !reg.balanced() {
		t.Fatal("listeners leaked after commit failure")
	}
}

func TestConcurrentGestureRejected(t *testing.T) {
	reg := newRecordingRegistry()
	c := NewController(reg, (&commitRecorder{}).commit, true)
	if err := c.PointerDown("m1", Point{}); err != nil {
		t.Fatalf("pointer down: %v", err)
	}
	if err := c.PointerDown("m2", Point{}); err != ErrGestureActive {
		t.Fatalf("expected ErrGestureActive, got %v", err)
	}
	c.Cancel()
}

func TestPayloadRoundtrip(t *testing.T) {
	raw, err := EncodePayload(Payload{Kind: PayloadStaff, StaffID: "s1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	p, err := DecodePayload(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Kind != PayloadStaff || p.StaffID != "s1" {
		t.Fatalf("unexpected payload %+v", p)
	}

	if _, err := EncodePayload(Payload{Kind: PayloadStaff}); err == nil {
		t.Fatal("staff payload without id must be rejected")
	}
	if _, err := EncodePayload(Payload{Kind: PayloadTasks}); err == nil {
		t.Fatal("tasks payload without tasks must be rejected")
	}
	if _, err := DecodePayload(`{"kind":"bogus"}`); err == nil {
		t.Fatal("unknown kind must be rejected")
	}
	if _, err := DecodePayload("not json"); err == nil {
		t.Fatal("malformed payload must be rejected")
	}
}

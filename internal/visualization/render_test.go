package visualization

import (
	"errors"
	"testing"
	"time"

	"gridrange-sim/internal/geometry"
	"gridrange-sim/internal/simulation"
)

func newTestRenderer() (*Renderer, *time.Time) {
	clock := time.Unix(0, 0)
	r := NewRenderer(4, 6, 10, false)
	r.now = func() time.Time { return clock }
	return r, &clock
}

func TestUpdateRunsDueTicksOnly(t *testing.T) {
	r, clock := newTestRenderer()
	var ran []string
	r.ScheduleTick(15*time.Millisecond, func() error {
		ran = append(ran, "a")
		r.ScheduleTick(15*time.Millisecond, func() error { ran = append(ran, "c"); return nil })
		return nil
	})
	r.ScheduleTick(40*time.Millisecond, func() error { ran = append(ran, "b"); return nil })

	steps := []struct {
		advance time.Duration
		want    int
	}{
		{10 * time.Millisecond, 0},
		{10 * time.Millisecond, 1}, // t=20: a
		{10 * time.Millisecond, 1}, // t=30: c is due at 35
		{10 * time.Millisecond, 3}, // t=40: b and c
	}
	for i, st := range steps {
		*clock = clock.Add(st.advance)
		if err := r.Update(); err != nil {
			t.Fatalf("step %d: Update() error = %v", i, err)
		}
		if len(ran) != st.want {
			t.Errorf("step %d: ran %v, want %d ticks", i, ran, st.want)
		}
	}
	if !r.stopped || r.ticks != 3 {
		t.Errorf("stopped = %v, ticks = %d, want true and 3", r.stopped, r.ticks)
	}
}

func TestUpdateReturnsTickError(t *testing.T) {
	r, _ := newTestRenderer()
	boom := errors.New("boom")
	r.ScheduleTick(0, func() error { return boom })

	if err := r.Update(); !errors.Is(err, boom) {
		t.Errorf("Update() error = %v, want boom", err)
	}
}

func TestDrawRequestsUpdateFrame(t *testing.T) {
	r, _ := newTestRenderer()
	r.RequestDraw(simulation.Snapshot{ID: "h1", Center: geometry.Pt(1, 2)})
	r.RequestDraw(simulation.Snapshot{ID: "h1", Center: geometry.Pt(3, 4)})
	r.RequestDraw(simulation.Snapshot{ID: "s0"})
	r.RequestErase("s0")

	if len(r.frame) != 1 || r.frame["h1"].Center != geometry.Pt(3, 4) {
		t.Errorf("frame = %+v, want only h1 at (3, 4)", r.frame)
	}
	if w, h := r.Layout(1, 1); w != 60 || h != 40 {
		t.Errorf("Layout() = %dx%d, want 60x40", w, h)
	}
}

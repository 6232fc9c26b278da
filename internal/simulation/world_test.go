package simulation

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"gridrange-sim/internal/channel"
	"gridrange-sim/internal/config"
	"gridrange-sim/internal/geometry"
)

type poll struct {
	payload string
	ok      bool
	err     error
}

// fakeSource replays polls in order, then reports no data.
type fakeSource struct {
	polls []poll
	next  int
}

func (f *fakeSource) Poll() (string, bool, error) {
	if f.next >= len(f.polls) {
		return "", false, nil
	}
	p := f.polls[f.next]
	f.next++
	return p.payload, p.ok, p.err
}

type fakeDrawer struct {
	draws  []Snapshot
	erased []string
}

func (d *fakeDrawer) RequestDraw(n Snapshot) { d.draws = append(d.draws, n) }
func (d *fakeDrawer) RequestErase(id string) { d.erased = append(d.erased, id) }

type fakeScheduler struct {
	delays  []time.Duration
	pending []func() error
}

func (s *fakeScheduler) ScheduleTick(delay time.Duration, fn func() error) {
	s.delays = append(s.delays, delay)
	s.pending = append(s.pending, fn)
}

// runNext runs the oldest pending tick.
func (s *fakeScheduler) runNext(t *testing.T) error {
	t.Helper()
	if len(s.pending) == 0 {
		t.Fatal("no tick scheduled")
	}
	fn := s.pending[0]
	s.pending = s.pending[1:]
	return fn()
}

func newTestWorld(t *testing.T, opts Options, polls ...poll) (*World, *fakeDrawer, *fakeScheduler) {
	t.Helper()
	if opts.Rows == 0 {
		opts.Rows, opts.Cols, opts.GridSize = 16, 16, 50
	}
	d, s := &fakeDrawer{}, &fakeScheduler{}
	w, err := NewWorld(opts, &fakeSource{polls: polls}, d, s)
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}
	return w, d, s
}

func addNode(w *World, id string, kind Kind, x, y, radius float64) *Node {
	n := &Node{ID: id, Kind: kind, Center: geometry.Pt(x, y), CommRadius: radius, gridSize: w.GridSize()}
	w.AddNode(n)
	return n
}

func data(payload string) poll { return poll{payload: payload, ok: true} }

var noData = poll{}

func TestNewWorldValidation(t *testing.T) {
	src, d, s := &fakeSource{}, &fakeDrawer{}, &fakeScheduler{}
	tests := []struct {
		name string
		opts Options
		src  ControlSource
	}{
		{"Zero rows", Options{Rows: 0, Cols: 4, GridSize: 10}, src},
		{"Zero grid size", Options{Rows: 4, Cols: 4}, src},
		{"Missing control source", Options{Rows: 4, Cols: 4, GridSize: 10}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWorld(tt.opts, tt.src, d, s); err == nil {
				t.Error("NewWorld() returned nil error")
			}
		})
	}

	w, err := NewWorld(Options{Rows: 2, Cols: 3, GridSize: 10}, src, d, s)
	if err != nil {
		t.Fatal(err)
	}
	if w.Bounds() != geometry.NewRect(30, 20) {
		t.Errorf("Bounds() = %v, want 30x20", w.Bounds())
	}
	if w.interval != DefaultRefreshRate {
		t.Errorf("interval = %v, want %v", w.interval, DefaultRefreshRate)
	}
}

func TestApplyPayloadSkipsMalformedAndAppliesInOrder(t *testing.T) {
	w, d, _ := newTestWorld(t, Options{}, data("h1:10:20|bad|h2:5:x|h1:30:40"))
	addNode(w, "s0", Stationary, 400, 400, 100)
	h1 := addNode(w, "h1", Mobile, 0, 0, 50)
	h2 := addNode(w, "h2", Mobile, 7, 7, 50)

	if err := w.Tick(); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}

	if h1.Center != geometry.Pt(30, 40) {
		t.Errorf("h1.Center = %v, want (30, 40)", h1.Center)
	}
	// Heading of the last hop (10,20) -> (30,40)
	if math.Abs(h1.Direction-45) > 1e-9 {
		t.Errorf("h1.Direction = %v, want 45", h1.Direction)
	}
	if h2.Center != geometry.Pt(7, 7) {
		t.Errorf("h2 moved to %v by a malformed record", h2.Center)
	}
	if len(d.draws) != 1 || d.draws[0].ID != "h1" || d.draws[0].Center != geometry.Pt(30, 40) {
		t.Errorf("draws = %+v, want one draw of h1 at (30, 40)", d.draws)
	}
}

func TestApplyPayloadTargets(t *testing.T) {
	w, _, _ := newTestWorld(t, Options{})
	s0 := addNode(w, "s0", Stationary, 400, 400, 100)
	a := addNode(w, "dup", Mobile, 0, 0, 50)
	b := addNode(w, "dup", Mobile, 100, 0, 50)

	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"Stationary nodes ignore updates", "s0:1:1", 0},
		{"Unknown name ignored", "ghost:1:1", 0},
		{"Duplicate names all updated", "dup:60:80", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.ApplyPayload(tt.payload); got != tt.want {
				t.Errorf("ApplyPayload(%q) = %d, want %d", tt.payload, got, tt.want)
			}
		})
	}

	if s0.Center != geometry.Pt(400, 400) {
		t.Errorf("stationary node moved to %v", s0.Center)
	}
	if a.Center != geometry.Pt(60, 80) || b.Center != geometry.Pt(60, 80) {
		t.Errorf("duplicates at %v and %v, want both at (60, 80)", a.Center, b.Center)
	}
	if math.Abs(b.Direction-(math.Atan2(80, -40)*180/math.Pi)) > 1e-9 {
		t.Errorf("b.Direction = %v", b.Direction)
	}
}

func TestReceiveDeduplicates(t *testing.T) {
	w, _, _ := newTestWorld(t, Options{})
	addNode(w, "h1", Mobile, 0, 0, 50)

	steps := []struct {
		name    string
		payload string
		ok      bool
		want    int
	}{
		{"First payload applied", "h1:1:1", true, 1},
		{"Same payload again skipped", "h1:1:1", true, 0},
		{"New payload applied", "h1:2:2", true, 1},
		{"Empty payload ignored", "", true, 0},
		{"Payload after empty applied", "h1:2:2", true, 1},
		{"No data", "", false, 0},
		{"Same payload after no data applied", "h1:2:2", true, 1},
	}
	for _, st := range steps {
		if got := w.Receive(st.payload, st.ok); got != st.want {
			t.Errorf("%s: Receive(%q, %v) = %d, want %d", st.name, st.payload, st.ok, got, st.want)
		}
	}
}

func TestTickAppliesRepeatedPayloadOnce(t *testing.T) {
	w, d, s := newTestWorld(t, Options{}, data("h1:5:5"), data("h1:5:5"))
	addNode(w, "h1", Mobile, 0, 0, 50)

	if err := w.Tick(); err != nil {
		t.Fatal(err)
	}
	if err := s.runNext(t); err != nil {
		t.Fatal(err)
	}
	if len(d.draws) != 1 {
		t.Errorf("draws = %d, want 1", len(d.draws))
	}
	if w.Ticks() != 2 {
		t.Errorf("Ticks() = %d, want 2", w.Ticks())
	}
}

func TestStartWithDefaultConfigKeepsRunning(t *testing.T) {
	d, s := &fakeDrawer{}, &fakeScheduler{}
	w, err := NewFromConfig(config.Default(), &fakeSource{}, d, s)
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if w.State() != Running {
		t.Fatalf("State() = %v, want running", w.State())
	}
	if len(d.draws) != 5 {
		t.Errorf("initial draws = %d, want 5", len(d.draws))
	}
	if len(s.pending) != 1 || s.delays[0] != 15*time.Millisecond {
		t.Errorf("scheduled = %v, want one tick after 15ms", s.delays)
	}

	for i := 0; i < 3; i++ {
		if err := s.runNext(t); err != nil {
			t.Fatal(err)
		}
	}
	if w.Ticks() != 4 || w.State() != Running {
		t.Errorf("after 4 ticks: Ticks() = %d, State() = %v", w.Ticks(), w.State())
	}
}

func TestTickStopsWithOnlyStationaryNodes(t *testing.T) {
	cfg := config.Default()
	cfg.NumMobile = 0
	d, s := &fakeDrawer{}, &fakeScheduler{}
	w, err := NewFromConfig(cfg, &fakeSource{}, d, s)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if w.State() != Stopped {
		t.Errorf("State() = %v, want stopped", w.State())
	}
	if len(s.pending) != 0 {
		t.Errorf("%d ticks scheduled after stop", len(s.pending))
	}
	if err := w.Tick(); err != nil || w.Ticks() != 1 {
		t.Errorf("Tick() on stopped world = %v, Ticks() = %d", err, w.Ticks())
	}
}

func TestTickChannelFailureIsFatal(t *testing.T) {
	readErr := fmt.Errorf("%w: boom", channel.ErrChannelRead)
	w, _, s := newTestWorld(t, Options{}, noData, poll{err: readErr})
	addNode(w, "s0", Stationary, 0, 0, 10)
	addNode(w, "h1", Mobile, 0, 0, 10)

	if err := w.Tick(); err != nil {
		t.Fatalf("first Tick() error = %v", err)
	}
	err := s.runNext(t)
	if !errors.Is(err, channel.ErrChannelRead) {
		t.Fatalf("second Tick() error = %v, want ErrChannelRead", err)
	}
	if w.State() != Stopped || len(s.pending) != 0 {
		t.Errorf("State() = %v with %d pending ticks, want stopped with none", w.State(), len(s.pending))
	}
}

func TestRemoveOutsideStopsLoop(t *testing.T) {
	w, d, s := newTestWorld(t, Options{RemoveOutside: true}, data("h1:-5:100|h2:-500:-500"))
	addNode(w, "s0", Stationary, 400, 400, 100)
	h1 := addNode(w, "h1", Mobile, 100, 100, 10)
	addNode(w, "h2", Mobile, 100, 100, 10)

	if err := w.Tick(); err != nil {
		t.Fatal(err)
	}
	if len(d.erased) != 1 || d.erased[0] != "h2" {
		t.Errorf("erased = %v, want [h2]", d.erased)
	}
	if len(d.draws) != 1 || d.draws[0].ID != "h1" {
		t.Errorf("draws = %+v, want only h1", d.draws)
	}
	if _, ok := w.Node("h2"); ok {
		t.Error("h2 still in the world")
	}
	if w.State() != Running {
		t.Fatalf("State() = %v, want running while h1 remains", w.State())
	}

	// h1's circle still crosses the left edge; push it out fully.
	s.pending = nil
	w.control = &fakeSource{polls: []poll{data("h1:-50:100")}}
	if err := w.Tick(); err != nil {
		t.Fatal(err)
	}
	if len(w.Nodes()) != 1 || w.State() != Stopped {
		t.Errorf("nodes = %d, State() = %v, want 1 and stopped", len(w.Nodes()), w.State())
	}
	if h1.Center != geometry.Pt(-50, 100) {
		t.Errorf("h1.Center = %v", h1.Center)
	}
}

func TestNewFromConfigLayout(t *testing.T) {
	cfg := config.Default()
	cfg.NumMobile = 6
	cfg.AssignTargets = true

	w, err := NewFromConfig(cfg, &fakeSource{}, &fakeDrawer{}, &fakeScheduler{})
	if err != nil {
		t.Fatal(err)
	}
	nodes := w.Nodes()
	wantIDs := []string{"s0", "h9x1", "h2x1", "h8x1", "h12x2", "m4", "m5"}
	if len(nodes) != len(wantIDs) {
		t.Fatalf("len(Nodes()) = %d, want %d", len(nodes), len(wantIDs))
	}
	if w.NumStationary() != 1 {
		t.Errorf("NumStationary() = %d, want 1", w.NumStationary())
	}

	for i, n := range nodes {
		if n.ID != wantIDs[i] {
			t.Errorf("node %d ID = %q, want %q", i, n.ID, wantIDs[i])
		}
		if i == 0 {
			if n.Kind != Stationary || n.Center != geometry.Pt(400, 400) {
				t.Errorf("s0 = %v, want stationary at (400, 400)", n)
			}
			if n.CommRadius < 100 || n.CommRadius >= 300 {
				t.Errorf("s0 radius = %v, want in [100, 300)", n.CommRadius)
			}
			continue
		}
		if n.Kind != Mobile || n.Center != geometry.Pt(250, 150) {
			t.Errorf("%s = %v, want mobile at (250, 150)", n.ID, n)
		}
		if n.CommRadius < 25 || n.CommRadius >= 175 {
			t.Errorf("%s radius = %v, want in [25, 175)", n.ID, n.CommRadius)
		}
		if target, ok := n.CurrentTarget(); !ok || target != nodes[0].Center {
			t.Errorf("%s target = %v, %v, want s0 center", n.ID, target, ok)
		}
	}
}

func TestNewFromConfigSeedIsDeterministic(t *testing.T) {
	radii := func(seed int64) []float64 {
		cfg := config.Default()
		cfg.Seed = seed
		w, err := NewFromConfig(cfg, &fakeSource{}, &fakeDrawer{}, &fakeScheduler{})
		if err != nil {
			t.Fatal(err)
		}
		var out []float64
		for _, n := range w.Nodes() {
			out = append(out, n.CommRadius)
		}
		return out
	}

	a, b, c := radii(10), radii(10), radii(11)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed gave different radii: %v vs %v", a, b)
		}
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Errorf("different seeds gave identical radii: %v", a)
	}
}

func TestNewFromConfigRejectsInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.GridSize = 0
	if _, err := NewFromConfig(cfg, &fakeSource{}, &fakeDrawer{}, &fakeScheduler{}); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("NewFromConfig() error = %v, want ErrInvalidConfig", err)
	}
}

// Package headless runs a simulation without a window: ticks are driven by a
// timer loop on the calling goroutine and draw requests only update an
// in-memory frame.
package headless

import (
	"context"
	"sort"
	"time"

	"gridrange-sim/internal/geometry"
	"gridrange-sim/internal/simulation"
	"gridrange-sim/pkg/logger"
)

type task struct {
	delay time.Duration
	fn    func() error
}

// Runner implements simulation.Scheduler and simulation.Drawer.
type Runner struct {
	queue []task
	frame map[string]simulation.Snapshot

	draws  int
	erases int
}

// NewRunner creates an idle runner.
func NewRunner() *Runner {
	return &Runner{frame: make(map[string]simulation.Snapshot)}
}

// ScheduleTick queues fn to run after delay.
func (r *Runner) ScheduleTick(delay time.Duration, fn func() error) {
	r.queue = append(r.queue, task{delay: delay, fn: fn})
}

// RequestDraw records the node's latest state.
func (r *Runner) RequestDraw(n simulation.Snapshot) {
	r.frame[n.ID] = n
	r.draws++
	logger.Log.WithField("node", n.ID).WithField("center", geometry.Format(n.Center)).Debug("Draw")
}

// RequestErase drops the node from the frame.
func (r *Runner) RequestErase(id string) {
	delete(r.frame, id)
	r.erases++
	logger.Log.WithField("node", id).Debug("Erase")
}

// Run executes queued ticks one after another until none is left, a tick
// fails, or ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	for len(r.queue) > 0 {
		t := r.queue[0]
		r.queue = r.queue[1:]

		timer := time.NewTimer(t.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := t.fn(); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns the number of queued ticks.
func (r *Runner) Pending() int { return len(r.queue) }

// Draws returns how many draw requests were received.
func (r *Runner) Draws() int { return r.draws }

// Erases returns how many erase requests were received.
func (r *Runner) Erases() int { return r.erases }

// Frame returns the last drawn state of every visible node, ordered by ID.
func (r *Runner) Frame() []simulation.Snapshot {
	out := make([]simulation.Snapshot, 0, len(r.frame))
	for _, s := range r.frame {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

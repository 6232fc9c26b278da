package simulation

import "time"

// ControlSource is polled once per tick for position updates.
type ControlSource interface {
	// Poll returns ok == false when no data is available right now.
	// A non-nil error is fatal for the run.
	Poll() (payload string, ok bool, err error)
}

// Drawer is the rendering collaborator. Requests are fire-and-forget.
type Drawer interface {
	RequestDraw(n Snapshot)
	RequestErase(id string)
}

// Scheduler runs fn once after delay. An error returned by fn ends the scheduler's run.
type Scheduler interface {
	ScheduleTick(delay time.Duration, fn func() error)
}

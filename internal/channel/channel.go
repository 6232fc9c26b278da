// Package channel implements the control channel: a named pipe that an
// external process writes node positions into and the simulation polls
// without blocking.
package channel

import "errors"

const (
	// DefaultPath is where the feeder and the simulation meet.
	DefaultPath = "/tmp/test.fifo"
	// DefaultBufferSize is the maximum number of bytes returned by one Poll.
	DefaultBufferSize = 100
)

var (
	// ErrChannelUnavailable means the FIFO could not be created or opened.
	ErrChannelUnavailable = errors.New("control channel unavailable")
	// ErrChannelRead means a read failed for a reason other than "no data yet".
	ErrChannelRead = errors.New("control channel read failed")
)

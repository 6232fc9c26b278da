//go:build !unix

package channel

import "fmt"

// FIFO is unavailable on platforms without named pipes.
type FIFO struct{ path string }

// Open always fails on this platform.
func Open(path string, bufferSize int) (*FIFO, error) {
	return nil, fmt.Errorf("%w: named pipes are not supported on this platform", ErrChannelUnavailable)
}

func (f *FIFO) Poll() (string, bool, error) {
	return "", false, fmt.Errorf("%w: named pipes are not supported on this platform", ErrChannelRead)
}

func (f *FIFO) Path() string { return f.path }

func (f *FIFO) Close() error { return nil }

// Writer is unavailable on platforms without named pipes.
type Writer struct{}

// OpenWriter always fails on this platform.
func OpenWriter(path string) (*Writer, error) {
	return nil, fmt.Errorf("%w: named pipes are not supported on this platform", ErrChannelUnavailable)
}

func (w *Writer) Send(payload string) error {
	return fmt.Errorf("%w: named pipes are not supported on this platform", ErrChannelUnavailable)
}

func (w *Writer) Close() error { return nil }

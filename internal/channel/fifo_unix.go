//go:build unix

package channel

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FIFO is the read side of the control channel, opened non-blocking.
type FIFO struct {
	path string
	fd   int
	buf  []byte
}

// Open creates the FIFO at path if needed and opens it for non-blocking reads.
// An already existing FIFO is reused.
func Open(path string, bufferSize int) (*FIFO, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if err := create(path); err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrChannelUnavailable, path, err)
	}
	return &FIFO{path: path, fd: fd, buf: make([]byte, bufferSize)}, nil
}

func create(path string) error {
	err := unix.Mkfifo(path, 0o777)
	if err != nil && err != unix.EEXIST {
		return fmt.Errorf("%w: mkfifo %s: %v", ErrChannelUnavailable, path, err)
	}
	return nil
}

// Poll performs a single non-blocking read.
// ok is false when no data is currently available; that is not an error.
// With no writer attached the read yields an empty payload with ok set.
func (f *FIFO) Poll() (payload string, ok bool, err error) {
	for {
		n, err := unix.Read(f.fd, f.buf)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return "", false, nil
			}
			return "", false, fmt.Errorf("%w: %s: %v", ErrChannelRead, f.path, err)
		}
		return string(f.buf[:n]), true, nil
	}
}

// Path returns the FIFO location.
func (f *FIFO) Path() string {
	return f.path
}

// Close releases the descriptor. The FIFO node itself is left in place for the next run.
func (f *FIFO) Close() error {
	return unix.Close(f.fd)
}

// Writer is the feeding side of the control channel.
type Writer struct {
	path string
	fd   int
}

// OpenWriter creates the FIFO if needed and opens it for writing.
// It blocks until a reader has the FIFO open.
func OpenWriter(path string) (*Writer, error) {
	if err := create(path); err != nil {
		return nil, err
	}
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s for writing: %v", ErrChannelUnavailable, path, err)
	}
	return &Writer{path: path, fd: fd}, nil
}

// Send writes one payload in a single write call so the reader sees it whole.
func (w *Writer) Send(payload string) error {
	if _, err := unix.Write(w.fd, []byte(payload)); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}

// Close releases the descriptor.
func (w *Writer) Close() error {
	return unix.Close(w.fd)
}

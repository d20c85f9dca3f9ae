// ABOUTME: Bounded byte FIFO feeding the oto player
// ABOUTME: Supports blocking and non-blocking appends with timeouts
package backend

import (
	"errors"
	"sync"
	"time"
)

// errFIFOClosed is returned once the FIFO has been closed for writing.
var errFIFOClosed = errors.New("fifo is closed")

// frameFIFO is a bounded queue of interleaved PCM bytes. The producer side
// appends whole frames; the consumer side drains arbitrary byte counts.
// Appends past capacity either block (with a timeout) or return short.
type frameFIFO struct {
	mu     sync.Mutex
	buf    []byte
	max    int
	closed bool
	wake   chan struct{} // closed and replaced on every mutation
}

func newFrameFIFO(capacityBytes int) *frameFIFO {
	return &frameFIFO{
		max:  capacityBytes,
		wake: make(chan struct{}),
	}
}

// broadcast wakes all waiters. Callers must hold f.mu.
func (f *frameFIFO) broadcast() {
	close(f.wake)
	f.wake = make(chan struct{})
}

// Append queues up to len(data) bytes, never splitting a frame. With a zero
// timeout it stores whatever fits and returns immediately; with a positive
// timeout it blocks for space until all bytes are stored or the timeout
// elapses. Returns the number of bytes accepted.
func (f *frameFIFO) Append(data []byte, frameBytes int, timeout time.Duration) (int, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	written := 0
	for {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return written, errFIFOClosed
		}

		free := f.max - len(f.buf)
		n := len(data) - written
		if n > free {
			n = free - free%frameBytes
		}
		if n > 0 {
			f.buf = append(f.buf, data[written:written+n]...)
			written += n
			f.broadcast()
		}
		if written == len(data) {
			f.mu.Unlock()
			return written, nil
		}
		if timeout == 0 {
			f.mu.Unlock()
			return written, nil
		}

		wake := f.wake
		f.mu.Unlock()

		select {
		case <-wake:
		case <-deadline:
			return written, nil
		}
	}
}

// Drain removes up to len(p) bytes into p, returning the count removed.
// It never blocks; an empty FIFO drains zero bytes.
func (f *frameFIFO) Drain(p []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := copy(p, f.buf)
	if n > 0 {
		f.buf = f.buf[n:]
		f.broadcast()
	}
	return n
}

// Flush discards everything queued and returns the discarded byte count.
func (f *frameFIFO) Flush() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.buf)
	f.buf = nil
	if n > 0 {
		f.broadcast()
	}
	return n
}

// Buffered returns the queued byte count.
func (f *frameFIFO) Buffered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buf)
}

// Close rejects further appends. Queued bytes remain drainable.
func (f *frameFIFO) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		f.broadcast()
	}
}

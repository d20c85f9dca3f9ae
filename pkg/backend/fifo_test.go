// ABOUTME: Tests for the frame FIFO
// ABOUTME: Covers bounded appends, draining, flushing and timeouts
package backend

import (
	"bytes"
	"testing"
	"time"
)

func TestFIFOAppendAndDrain(t *testing.T) {
	f := newFrameFIFO(64)

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	n, err := f.Append(data, 4, 0)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if n != len(data) {
		t.Fatalf("expected %d bytes appended, got %d", len(data), n)
	}
	if f.Buffered() != len(data) {
		t.Errorf("expected %d buffered bytes, got %d", len(data), f.Buffered())
	}

	out := make([]byte, len(data))
	if got := f.Drain(out); got != len(data) {
		t.Fatalf("expected %d drained bytes, got %d", len(data), got)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("drained %v, want %v", out, data)
	}
	if f.Buffered() != 0 {
		t.Errorf("expected empty FIFO, got %d bytes", f.Buffered())
	}
}

func TestFIFONonBlockingPartialAppend(t *testing.T) {
	f := newFrameFIFO(10) // room for two 4-byte frames plus slack

	n, err := f.Append(make([]byte, 16), 4, 0)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if n != 8 {
		t.Errorf("expected 8 bytes (two whole frames), got %d", n)
	}
}

func TestFIFOFrameAlignment(t *testing.T) {
	f := newFrameFIFO(6) // capacity is not a multiple of the frame size

	n, err := f.Append(make([]byte, 8), 4, 0)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if n != 4 {
		t.Errorf("expected one whole frame (4 bytes), got %d", n)
	}
}

func TestFIFOBlockingAppendTimesOut(t *testing.T) {
	f := newFrameFIFO(4)

	if _, err := f.Append(make([]byte, 4), 4, 0); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	start := time.Now()
	n, err := f.Append(make([]byte, 4), 4, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no bytes accepted, got %d", n)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("returned before the timeout: %v", elapsed)
	}
}

func TestFIFOBlockingAppendResumesAfterDrain(t *testing.T) {
	f := newFrameFIFO(4)

	if _, err := f.Append([]byte{1, 2, 3, 4}, 4, 0); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		f.Drain(make([]byte, 4))
	}()

	n, err := f.Append([]byte{5, 6, 7, 8}, 4, time.Second)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if n != 4 {
		t.Errorf("expected the full frame after space freed, got %d bytes", n)
	}
}

func TestFIFOFlush(t *testing.T) {
	f := newFrameFIFO(64)

	if _, err := f.Append(make([]byte, 12), 4, 0); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if dropped := f.Flush(); dropped != 12 {
		t.Errorf("expected 12 dropped bytes, got %d", dropped)
	}
	if f.Buffered() != 0 {
		t.Errorf("expected empty FIFO after flush, got %d bytes", f.Buffered())
	}
}

func TestFIFOClosedAppend(t *testing.T) {
	f := newFrameFIFO(64)
	f.Close()

	if _, err := f.Append(make([]byte, 4), 4, 0); err == nil {
		t.Fatal("expected error appending to a closed FIFO")
	}
}

func TestFIFODrainAfterClose(t *testing.T) {
	f := newFrameFIFO(64)
	if _, err := f.Append([]byte{1, 2, 3, 4}, 4, 0); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	f.Close()

	out := make([]byte, 4)
	if got := f.Drain(out); got != 4 {
		t.Errorf("expected queued bytes to remain drainable, got %d", got)
	}
}

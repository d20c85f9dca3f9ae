// ABOUTME: Backend audio stream primitives
// ABOUTME: Defines the opaque stream interface the bridge drives
package backend

import "time"

// StreamState is the lifecycle state of a backend stream.
type StreamState int

const (
	StateUninitialized StreamState = iota
	StateOpen
	StateStarting
	StateStarted
	StatePausing
	StatePaused
	StateStopping
	StateStopped
	StateFlushing
	StateFlushed
	StateClosed
)

// String returns a human-readable state name for diagnostics.
func (s StreamState) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateOpen:
		return "Open"
	case StateStarting:
		return "Starting"
	case StateStarted:
		return "Started"
	case StatePausing:
		return "Pausing"
	case StatePaused:
		return "Paused"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	case StateFlushing:
		return "Flushing"
	case StateFlushed:
		return "Flushed"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Format is a backend sample format.
type Format int

const (
	FormatInvalid Format = iota
	FormatI16            // 16-bit signed integer
	FormatFloat          // 32-bit float
	FormatI24            // 24-bit packed signed integer
	FormatI32            // 32-bit signed integer
)

// BytesPerSample returns the storage size of one sample.
func (f Format) BytesPerSample() int {
	switch f {
	case FormatI16:
		return 2
	case FormatFloat, FormatI32:
		return 4
	case FormatI24:
		return 3
	default:
		return 0
	}
}

// Direction is the stream data direction.
type Direction int

const (
	DirectionOutput Direction = iota
	DirectionInput
)

// PerformanceMode hints the backend's latency/power tradeoff.
type PerformanceMode int

const (
	PerformanceNone PerformanceMode = iota
	PerformanceLowLatency
	PerformancePowerSaving
)

// SharingMode controls device sharing with other streams.
type SharingMode int

const (
	SharingShared SharingMode = iota
	SharingExclusive
)

// RateConversionQuality selects the backend resampler quality.
type RateConversionQuality int

const (
	RateConversionNone RateConversionQuality = iota
	RateConversionLow
	RateConversionMedium
	RateConversionHigh
)

// Config describes the stream to open.
type Config struct {
	Direction                Direction
	Format                   Format
	Channels                 int
	SampleRate               int
	BufferCapacityInFrames   int
	Performance              PerformanceMode
	Sharing                  SharingMode
	FormatConversionAllowed  bool
	ChannelConversionAllowed bool
	RateConversion           RateConversionQuality
}

// Stream is one backend-owned audio stream. The backend schedules and
// buffers internally; callers only see the request/state/counter surface.
type Stream interface {
	// RequestStart asks the backend to begin consuming frames.
	RequestStart() error

	// RequestPause asks the backend to pause consumption.
	RequestPause() error

	// RequestStop asks the backend to stop the stream.
	RequestStop() error

	// RequestFlush discards frames the device has not consumed yet.
	RequestFlush() error

	// State returns the current stream state.
	State() StreamState

	// WaitForStateChange blocks until the state differs from current or
	// the timeout elapses, returning the new state.
	WaitForStateChange(current StreamState, timeout time.Duration) (StreamState, error)

	// Write pushes up to frames interleaved frames from data. A zero
	// timeout returns immediately when the backend buffer is full; a
	// positive timeout blocks up to that long for space. Returns the
	// number of frames accepted.
	Write(data []byte, frames int, timeout time.Duration) (int, error)

	// FramesWritten returns the cumulative frames accepted by Write.
	FramesWritten() (int64, error)

	// FramesRead returns the cumulative frames consumed by the device.
	FramesRead() (int64, error)

	// BufferCapacityInFrames returns the capacity the backend granted.
	BufferCapacityInFrames() int

	// Close releases the stream. The stream is unusable afterwards.
	Close() error
}

// Opener opens backend streams. The bridge takes an Opener so tests can
// substitute a simulated backend for the real audio device.
type Opener interface {
	OpenStream(cfg Config) (Stream, error)
}

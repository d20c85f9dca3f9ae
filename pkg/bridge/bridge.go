// ABOUTME: Stream bridge between the host PCM plug and the audio backend
// ABOUTME: Owns one backend stream and serializes every operation on it
package bridge

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pcmbridge/pcmbridge-go/pkg/backend"
	"github.com/pcmbridge/pcmbridge-go/pkg/plug"
)

// longTimeout bounds every backend state wait and blocking write. It is an
// arbitrarily long timeout that should never be reached in practice.
const longTimeout = time.Hour

// interleaveChecks enables the non-interleaved transfer diagnostic. The
// check guards against host configuration bugs and corresponds to a
// debug-build-only assertion.
const interleaveChecks = true

// Bridge adapts the host's pull-based, ring-buffer PCM model to a
// push-based backend stream. One bridge owns at most one backend stream;
// a single mutex orders every control and transfer operation against it.
type Bridge struct {
	mu     sync.Mutex
	opener backend.Opener
	stream backend.Stream
	plug   *plug.Plug

	// DrainPollInterval is how long Drain sleeps between counter reads.
	// DrainStuckTimeout is how long Drain tolerates a frames-read counter
	// stuck at zero before assuming the backend will never advance it.
	// Both are workaround policy for backend defects, not contract; tune
	// them before the bridge is first used.
	DrainPollInterval time.Duration
	DrainStuckTimeout time.Duration
}

// New creates a bridge over the given backend opener. Most callers should
// use Create, which also builds the host plug handle.
func New(opener backend.Opener) *Bridge {
	return &Bridge{
		opener:            opener,
		DrainPollInterval: time.Millisecond,
		DrainStuckTimeout: time.Second,
	}
}

// Create is the factory entry point the host calls to open a PCM device.
// Capture streams are rejected; playback streams get a plug handle wired
// to a new bridge advertising the fixed negotiation table.
func Create(name string, direction plug.Direction, mode plug.Mode, opener backend.Opener) (*plug.Plug, error) {
	if direction != plug.Playback {
		return nil, fmt.Errorf("device %q: %w", name, ErrInvalidDirection)
	}

	b := New(opener)
	p, err := plug.New(name, direction, mode, b, Constraints())
	if err != nil {
		return nil, err
	}
	b.plug = p
	return p, nil
}

// Constraints returns the negotiation table every bridge advertises:
// interleaved read/write access, four sample formats, mono or stereo,
// 8 kHz to 192 kHz, and a modest buffer window. The backend decides its
// real period and buffer sizes internally once started, so the byte and
// period ranges are reasonable placeholders rather than hardware facts.
func Constraints() plug.Constraints {
	return plug.Constraints{
		Access: []plug.Access{plug.AccessRWInterleaved},
		Formats: []plug.Format{
			plug.FormatS16LE,
			plug.FormatFloatLE,
			plug.FormatS24_3LE,
			plug.FormatS32LE,
		},
		ChannelsMin:    1,
		ChannelsMax:    2,
		RateMin:        8000,
		RateMax:        192000,
		PeriodsMin:     2,
		PeriodsMax:     4,
		BufferBytesMin: 32 * 1024,
		BufferBytesMax: 64 * 1024,
	}
}

// backendFormat maps a host sample format onto the backend's formats.
func backendFormat(f plug.Format) backend.Format {
	switch f {
	case plug.FormatS16LE:
		return backend.FormatI16
	case plug.FormatFloatLE:
		return backend.FormatFloat
	case plug.FormatS24_3LE:
		return backend.FormatI24
	case plug.FormatS32LE:
		return backend.FormatI32
	default:
		return backend.FormatInvalid
	}
}

// Prepare opens the backend stream from the negotiated parameters. It is
// idempotent: a bridge that already owns a stream succeeds immediately.
func (b *Bridge) Prepare() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream != nil {
		return nil
	}

	params := b.plug.Params()
	format := backendFormat(params.Format)
	if format == backend.FormatInvalid {
		return fmt.Errorf("format %s: %w", params.Format, ErrConfiguration)
	}

	stream, err := b.opener.OpenStream(backend.Config{
		Direction:                backend.DirectionOutput,
		Format:                   format,
		Channels:                 params.Channels,
		SampleRate:               params.Rate,
		BufferCapacityInFrames:   params.BufferSize,
		Performance:              backend.PerformanceLowLatency,
		Sharing:                  backend.SharingShared,
		FormatConversionAllowed:  true,
		ChannelConversionAllowed: true,
		RateConversion:           backend.RateConversionMedium,
	})
	if err != nil {
		log.Printf("Failed to open stream: %v", err)
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if granted := stream.BufferCapacityInFrames(); granted < params.BufferSize {
		log.Printf("Buffer size smaller than requested: %d < %d", granted, params.BufferSize)
		if cerr := stream.Close(); cerr != nil {
			log.Printf("Failed to close undersized stream: %v", cerr)
		}
		return fmt.Errorf("granted %d frames, requested %d: %w",
			granted, params.BufferSize, ErrIO)
	}

	b.stream = stream
	return nil
}

// Start asks the backend to begin playback. It also serves as Resume; the
// backend treats resuming a paused stream and starting a fresh one the
// same way.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return ErrNotReady
	}
	if err := b.stream.RequestStart(); err != nil {
		log.Printf("Failed to start stream: %v", err)
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// Resume restarts a paused stream. Identical to Start.
func (b *Bridge) Resume() error {
	return b.Start()
}

// Pause requests a pause without waiting for it to land.
func (b *Bridge) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return ErrNotReady
	}
	if err := b.stream.RequestPause(); err != nil {
		log.Printf("Failed to pause stream: %v", err)
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// Stop pauses and flushes the stream, waiting for each transition to
// complete. A stream that is already stopped or flushed needs no work.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return ErrNotReady
	}

	state := b.stream.State()
	if state == backend.StateStopped || state == backend.StateFlushed {
		return nil
	}

	if err := b.stream.RequestPause(); err != nil {
		log.Printf("Failed to pause stream: %v", err)
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}

	// The backend documents flushing as valid while the stream is still
	// pausing, but in practice that returns an invalid-state error, so
	// wait for the pause to land before flushing.
	state = b.stream.State()
	for state != backend.StatePaused {
		var err error
		state, err = b.stream.WaitForStateChange(state, longTimeout)
		if err != nil {
			log.Printf("Failed to wait for pause: %v", err)
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}

	if err := b.stream.RequestFlush(); err != nil {
		log.Printf("Failed to flush stream: %v", err)
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}

	state = b.stream.State()
	for state != backend.StateFlushed {
		var err error
		state, err = b.stream.WaitForStateChange(backend.StateFlushing, longTimeout)
		if err != nil {
			log.Printf("Failed to wait for flush: %v", err)
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}

	return nil
}

// Drain blocks until every written frame has been consumed by the device,
// then stops the stream. The backend's stop request does not reliably wait
// for consumption, so progress is polled from the frame counters instead.
func (b *Bridge) Drain() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return ErrNotReady
	}

	deadline := time.Now().Add(b.DrainStuckTimeout)
	for {
		framesRead, err := b.stream.FramesRead()
		if err != nil {
			log.Printf("Failed to get frames read: %v", err)
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
		framesWritten, err := b.stream.FramesWritten()
		if err != nil {
			log.Printf("Failed to get frames written: %v", err)
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}

		if framesRead == framesWritten {
			break
		}

		time.Sleep(b.DrainPollInterval)

		if time.Now().After(deadline) && framesRead == 0 {
			// Some backend configurations never advance the read counter
			// until an arbitrary minimum number of frames has accumulated.
			// After a second of zero progress, assume the counter is stuck
			// and treat the stream as drained.
			break
		}
	}

	if err := b.stream.RequestStop(); err != nil {
		log.Printf("Failed to stop stream: %v", err)
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}

	state := b.stream.State()
	for state != backend.StateStopped {
		var err error
		state, err = b.stream.WaitForStateChange(state, longTimeout)
		if err != nil {
			log.Printf("Failed to wait for stop: %v", err)
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}

	return nil
}

// Pointer reports the playback position inside the host's circular buffer.
// The backend's real ring position is opaque, so the position is derived
// from the cumulative write counter modulo the nominal buffer size.
func (b *Bridge) Pointer() (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return 0, ErrNotReady
	}

	framesWritten, err := b.stream.FramesWritten()
	if err != nil {
		log.Printf("Failed to get frames written: %v", err)
		return 0, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	// Xruns are not reported here; the backend recovers from them on its
	// own.
	return framesWritten % int64(b.plug.Params().BufferSize), nil
}

// Transfer pushes interleaved frames from the host buffer into the backend
// stream, starting the stream first if the host has not done so.
func (b *Bridge) Transfer(areas []plug.ChannelArea, offset, frames int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return 0, ErrNotReady
	}
	if frames == 0 {
		return 0, nil
	}

	if b.stream.State() != backend.StateStarted {
		// The host expects playback to self-start on the first transfer.
		if err := b.stream.RequestStart(); err != nil {
			log.Printf("Failed to start stream from transfer: %v", err)
			return 0, fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}

	if len(areas) == 0 || len(areas[0].Data) == 0 {
		return 0, fmt.Errorf("empty channel areas: %w", ErrConfiguration)
	}
	first := areas[0]

	if interleaveChecks {
		for _, area := range areas {
			if len(area.Data) == 0 || &area.Data[0] != &first.Data[0] ||
				area.Step != first.Step || area.First >= first.Step {
				log.Printf("Attempt to transfer non-interleaved samples")
				return 0, fmt.Errorf("non-interleaved channel areas: %w", ErrConfiguration)
			}
		}
	}

	data := first.Data[offset*first.Step:]

	timeout := longTimeout
	if b.plug.Nonblock() {
		timeout = 0
	}

	n, err := b.stream.Write(data, frames, timeout)
	if err != nil {
		log.Printf("Failed to write samples to stream: %v", err)
		return 0, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if n == 0 {
		// In non-blocking mode a zero result is normal backpressure; in
		// blocking mode the backend broke its contract.
		if !b.plug.Nonblock() {
			log.Printf("Cannot write samples in blocking mode")
		}
		return 0, ErrWouldBlock
	}

	return n, nil
}

// Close detaches the backend stream and releases it. Calling Close again,
// or with no stream open, is a no-op.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return nil
	}

	stream := b.stream
	b.stream = nil
	if err := stream.Close(); err != nil {
		log.Printf("Failed to close stream: %v", err)
	}
	return nil
}

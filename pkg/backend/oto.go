// ABOUTME: Backend stream implementation using the oto library
// ABOUTME: Adapts oto's pull-based player to the push-based Stream interface
package backend

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/pcmbridge/pcmbridge-go/pkg/pcm"
)

// OtoOpener opens streams backed by github.com/ebitengine/oto. The oto
// context is process-wide, so every stream opened through one opener must
// share the first stream's sample rate and channel count.
type OtoOpener struct {
	mu          sync.Mutex
	ctx         *oto.Context
	ctxRate     int
	ctxChannels int
}

// NewOtoOpener creates an opener for the system audio device.
func NewOtoOpener() *OtoOpener {
	return &OtoOpener{}
}

// OpenStream opens a playback stream for the given config.
func (o *OtoOpener) OpenStream(cfg Config) (Stream, error) {
	if cfg.Direction != DirectionOutput {
		return nil, fmt.Errorf("oto backend only supports output streams")
	}
	if cfg.Channels < 1 || cfg.SampleRate < 1 || cfg.BufferCapacityInFrames < 1 {
		return nil, fmt.Errorf("invalid stream config: %d channels, %d Hz, %d frames",
			cfg.Channels, cfg.SampleRate, cfg.BufferCapacityInFrames)
	}

	var otoFormat oto.Format
	var convert func([]byte) []byte
	outSampleBytes := 0

	switch cfg.Format {
	case FormatI16:
		otoFormat = oto.FormatSignedInt16LE
		outSampleBytes = 2
	case FormatFloat:
		otoFormat = oto.FormatFloat32LE
		outSampleBytes = 4
	case FormatI24:
		if !cfg.FormatConversionAllowed {
			return nil, fmt.Errorf("format I24 requires format conversion")
		}
		otoFormat = oto.FormatSignedInt16LE
		outSampleBytes = 2
		convert = pcm.I24ToI16
	case FormatI32:
		if !cfg.FormatConversionAllowed {
			return nil, fmt.Errorf("format I32 requires format conversion")
		}
		otoFormat = oto.FormatSignedInt16LE
		outSampleBytes = 2
		convert = pcm.I32ToI16
	default:
		return nil, fmt.Errorf("unsupported stream format %d", cfg.Format)
	}

	ctx, err := o.context(cfg, otoFormat)
	if err != nil {
		return nil, err
	}

	s := &otoStream{
		capacityFrames: cfg.BufferCapacityInFrames,
		inFrameBytes:   cfg.Format.BytesPerSample() * cfg.Channels,
		outFrameBytes:  outSampleBytes * cfg.Channels,
		convert:        convert,
		state:          StateOpen,
		wake:           make(chan struct{}),
	}
	s.fifo = newFrameFIFO(cfg.BufferCapacityInFrames * s.outFrameBytes)
	s.player = ctx.NewPlayer(s)
	return s, nil
}

// context returns the shared oto context, creating it on first use.
func (o *OtoOpener) context(cfg Config, format oto.Format) (*oto.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctx != nil {
		if o.ctxRate != cfg.SampleRate || o.ctxChannels != cfg.Channels {
			return nil, fmt.Errorf("oto context already opened at %d Hz/%d channels",
				o.ctxRate, o.ctxChannels)
		}
		return o.ctx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	o.ctx = ctx
	o.ctxRate = cfg.SampleRate
	o.ctxChannels = cfg.Channels
	return ctx, nil
}

// otoStream adapts an oto player to the Stream interface. The player pulls
// from the stream's FIFO via Read; Write pushes into it.
type otoStream struct {
	capacityFrames int
	inFrameBytes   int
	outFrameBytes  int
	convert        func([]byte) []byte

	fifo   *frameFIFO
	player *oto.Player

	mu            sync.Mutex
	state         StreamState
	wake          chan struct{} // closed and replaced on state change
	framesWritten int64
	framesRead    int64
}

func (s *otoStream) setState(state StreamState) {
	s.state = state
	close(s.wake)
	s.wake = make(chan struct{})
}

func (s *otoStream) RequestStart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return fmt.Errorf("stream is closed")
	}
	s.player.Play()
	s.setState(StateStarted)
	return nil
}

func (s *otoStream) RequestPause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return fmt.Errorf("stream is closed")
	}
	s.player.Pause()
	s.setState(StatePaused)
	return nil
}

func (s *otoStream) RequestStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return fmt.Errorf("stream is closed")
	}
	s.player.Pause()
	s.setState(StateStopped)
	return nil
}

func (s *otoStream) RequestFlush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return fmt.Errorf("stream is closed")
	}
	dropped := s.fifo.Flush()
	// Flushed frames will never reach the device; advance the read counter
	// so they no longer count as pending.
	s.framesRead += int64(dropped / s.outFrameBytes)
	s.setState(StateFlushed)
	return nil
}

func (s *otoStream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *otoStream) WaitForStateChange(current StreamState, timeout time.Duration) (StreamState, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		s.mu.Lock()
		if s.state != current {
			state := s.state
			s.mu.Unlock()
			return state, nil
		}
		wake := s.wake
		s.mu.Unlock()

		select {
		case <-wake:
		case <-deadline:
			return current, fmt.Errorf("timed out waiting to leave state %s", current)
		}
	}
}

func (s *otoStream) Write(data []byte, frames int, timeout time.Duration) (int, error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return 0, fmt.Errorf("stream is closed")
	}
	s.mu.Unlock()

	if frames > len(data)/s.inFrameBytes {
		frames = len(data) / s.inFrameBytes
	}
	payload := data[:frames*s.inFrameBytes]
	if s.convert != nil {
		payload = s.convert(payload)
	}

	n, err := s.fifo.Append(payload, s.outFrameBytes, timeout)
	accepted := n / s.outFrameBytes
	if accepted > 0 {
		s.mu.Lock()
		s.framesWritten += int64(accepted)
		s.mu.Unlock()
	}
	if err != nil {
		return accepted, fmt.Errorf("backend write failed: %w", err)
	}
	return accepted, nil
}

// Read feeds the oto player. Starved reads are zero-filled so the device
// keeps running; only real frames advance the read counter.
func (s *otoStream) Read(p []byte) (int, error) {
	n := s.fifo.Drain(p)
	if n > 0 {
		s.mu.Lock()
		s.framesRead += int64(n / s.outFrameBytes)
		s.mu.Unlock()
	}
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

func (s *otoStream) FramesWritten() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return -1, fmt.Errorf("stream is closed")
	}
	return s.framesWritten, nil
}

func (s *otoStream) FramesRead() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return -1, fmt.Errorf("stream is closed")
	}
	return s.framesRead, nil
}

func (s *otoStream) BufferCapacityInFrames() int {
	return s.capacityFrames
}

func (s *otoStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}
	s.fifo.Close()
	err := s.player.Close()
	s.setState(StateClosed)
	if err != nil {
		return fmt.Errorf("failed to close oto player: %w", err)
	}
	return nil
}

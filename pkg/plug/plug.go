// ABOUTME: Host-facing PCM plug contract
// ABOUTME: Factory, negotiation table and callback interface for PCM plugs
package plug

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Direction is the data direction requested by the host.
type Direction int

const (
	Playback Direction = iota
	Capture
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Capture {
		return "capture"
	}
	return "playback"
}

// Mode carries host open-mode flags.
type Mode int

const (
	// ModeNonblock opens the plug with non-blocking transfers.
	ModeNonblock Mode = 1 << iota
)

// Access is a host buffer access mode.
type Access int

const (
	// AccessRWInterleaved is read/write access to interleaved frames.
	AccessRWInterleaved Access = iota
	// AccessMMapInterleaved is memory-mapped access; not supported here.
	AccessMMapInterleaved
)

// Format is a host-side sample format.
type Format int

const (
	FormatUnknown Format = iota
	FormatS16LE
	FormatFloatLE
	FormatS24_3LE
	FormatS32LE
)

// BytesPerSample returns the storage size of one sample.
func (f Format) BytesPerSample() int {
	switch f {
	case FormatS16LE:
		return 2
	case FormatFloatLE, FormatS32LE:
		return 4
	case FormatS24_3LE:
		return 3
	default:
		return 0
	}
}

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatS16LE:
		return "S16_LE"
	case FormatFloatLE:
		return "FLOAT_LE"
	case FormatS24_3LE:
		return "S24_3LE"
	case FormatS32LE:
		return "S32_LE"
	default:
		return "UNKNOWN"
	}
}

// Constraints is the negotiation table a plug advertises to the host.
// Configure validates every negotiated parameter against it.
type Constraints struct {
	Access         []Access
	Formats        []Format
	ChannelsMin    int
	ChannelsMax    int
	RateMin        int
	RateMax        int
	PeriodsMin     int
	PeriodsMax     int
	BufferBytesMin int
	BufferBytesMax int
}

// Params is one negotiated hardware configuration. BufferSize is in frames.
type Params struct {
	Access     Access
	Format     Format
	Channels   int
	Rate       int
	BufferSize int
	Periods    int
}

// FrameBytes returns the byte size of one interleaved frame.
func (p Params) FrameBytes() int {
	return p.Format.BytesPerSample() * p.Channels
}

// ChannelArea describes where one channel's samples live inside the host
// buffer: a backing slice, the byte offset of the first sample, and the
// byte stride between consecutive frames.
type ChannelArea struct {
	Data  []byte
	First int
	Step  int
}

// Callbacks is the operation table a plug implementation provides. It is
// the polymorphic replacement for a C-style callback struct with a raw
// context pointer.
type Callbacks interface {
	Prepare() error
	Start() error
	Stop() error
	Pause() error
	Resume() error
	Drain() error
	Close() error
	Pointer() (int64, error)
	Transfer(areas []ChannelArea, offset, frames int) (int, error)
}

// Plug is one opened PCM device handle. The host configures it once, then
// drives the plug's callbacks through the forwarding methods.
type Plug struct {
	id          uuid.UUID
	name        string
	direction   Direction
	callbacks   Callbacks
	constraints Constraints

	mu         sync.Mutex
	params     Params
	configured bool
	nonblock   bool
}

// New creates a plug handle for the given device name and direction.
func New(name string, direction Direction, mode Mode, callbacks Callbacks, constraints Constraints) (*Plug, error) {
	if callbacks == nil {
		return nil, fmt.Errorf("plug %q has no callbacks", name)
	}
	return &Plug{
		id:          uuid.New(),
		name:        name,
		direction:   direction,
		callbacks:   callbacks,
		constraints: constraints,
		nonblock:    mode&ModeNonblock != 0,
	}, nil
}

// ID returns the unique handle identity.
func (p *Plug) ID() uuid.UUID { return p.id }

// Name returns the device name the plug was opened with.
func (p *Plug) Name() string { return p.name }

// Direction returns the plug's data direction.
func (p *Plug) Direction() Direction { return p.direction }

// Constraints returns the advertised negotiation table.
func (p *Plug) Constraints() Constraints { return p.constraints }

// Configure applies a negotiated configuration. Parameters are validated
// against the constraint table and become immutable once accepted.
func (p *Plug) Configure(params Params) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.configured {
		return fmt.Errorf("plug %q is already configured", p.name)
	}
	if err := p.constraints.validate(params); err != nil {
		return fmt.Errorf("plug %q: %w", p.name, err)
	}

	p.params = params
	p.configured = true
	return nil
}

// Params returns the negotiated configuration.
func (p *Plug) Params() Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// Configured reports whether Configure has been called successfully.
func (p *Plug) Configured() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.configured
}

// SetNonblock switches the transfer path between blocking and
// non-blocking mode.
func (p *Plug) SetNonblock(nonblock bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nonblock = nonblock
}

// Nonblock reports whether transfers are non-blocking.
func (p *Plug) Nonblock() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nonblock
}

// Prepare forwards to the implementation's Prepare callback.
func (p *Plug) Prepare() error { return p.callbacks.Prepare() }

// Start forwards to the implementation's Start callback.
func (p *Plug) Start() error { return p.callbacks.Start() }

// Stop forwards to the implementation's Stop callback.
func (p *Plug) Stop() error { return p.callbacks.Stop() }

// Pause forwards to the implementation's Pause callback.
func (p *Plug) Pause() error { return p.callbacks.Pause() }

// Resume forwards to the implementation's Resume callback.
func (p *Plug) Resume() error { return p.callbacks.Resume() }

// Drain forwards to the implementation's Drain callback.
func (p *Plug) Drain() error { return p.callbacks.Drain() }

// Close forwards to the implementation's Close callback.
func (p *Plug) Close() error { return p.callbacks.Close() }

// Pointer forwards to the implementation's Pointer callback.
func (p *Plug) Pointer() (int64, error) { return p.callbacks.Pointer() }

// Transfer forwards interleaved channel areas to the implementation.
func (p *Plug) Transfer(areas []ChannelArea, offset, frames int) (int, error) {
	return p.callbacks.Transfer(areas, offset, frames)
}

// Writei writes interleaved frames from a flat buffer, building the
// per-channel areas the Transfer callback expects.
func (p *Plug) Writei(buf []byte, frames int) (int, error) {
	params := p.Params()
	sampleBytes := params.Format.BytesPerSample()
	frameBytes := params.FrameBytes()
	if frameBytes == 0 {
		return 0, fmt.Errorf("plug %q is not configured", p.name)
	}

	areas := make([]ChannelArea, params.Channels)
	for c := range areas {
		areas[c] = ChannelArea{Data: buf, First: c * sampleBytes, Step: frameBytes}
	}
	return p.Transfer(areas, 0, frames)
}

// validate checks params against the table.
func (c Constraints) validate(params Params) error {
	accessOK := false
	for _, a := range c.Access {
		if a == params.Access {
			accessOK = true
			break
		}
	}
	if !accessOK {
		return fmt.Errorf("access mode %d not supported", params.Access)
	}

	formatOK := false
	for _, f := range c.Formats {
		if f == params.Format {
			formatOK = true
			break
		}
	}
	if !formatOK {
		return fmt.Errorf("format %s not supported", params.Format)
	}

	if params.Channels < c.ChannelsMin || params.Channels > c.ChannelsMax {
		return fmt.Errorf("channel count %d outside [%d, %d]",
			params.Channels, c.ChannelsMin, c.ChannelsMax)
	}
	if params.Rate < c.RateMin || params.Rate > c.RateMax {
		return fmt.Errorf("rate %d outside [%d, %d] Hz", params.Rate, c.RateMin, c.RateMax)
	}
	if params.Periods < c.PeriodsMin || params.Periods > c.PeriodsMax {
		return fmt.Errorf("period count %d outside [%d, %d]",
			params.Periods, c.PeriodsMin, c.PeriodsMax)
	}

	bufferBytes := params.BufferSize * params.FrameBytes()
	if bufferBytes < c.BufferBytesMin || bufferBytes > c.BufferBytesMax {
		return fmt.Errorf("buffer size %d bytes outside [%d, %d]",
			bufferBytes, c.BufferBytesMin, c.BufferBytesMax)
	}

	return nil
}

// ABOUTME: Test tone generator for the demo player
// ABOUTME: Generates a sine wave as interleaved 16-bit PCM frames
package tone

import (
	"math"
	"sync"

	"github.com/pcmbridge/pcmbridge-go/pkg/pcm"
)

// Source generates a sine wave at a fixed frequency.
type Source struct {
	mu          sync.Mutex
	sampleIndex uint64
	frequency   float64
	sampleRate  int
	channels    int
	amplitude   float64
}

// NewSource creates a tone generator. A frequency of 0 defaults to A4.
func NewSource(frequency float64, sampleRate, channels int) *Source {
	if frequency == 0 {
		frequency = 440.0 // A4 note
	}
	return &Source{
		frequency:  frequency,
		sampleRate: sampleRate,
		channels:   channels,
		amplitude:  0.5,
	}
}

// Frames fills a buffer with the next frames interleaved 16-bit samples
// and returns them as PCM bytes.
func (s *Source) Frames(frames int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := make([]int16, frames*s.channels)
	for i := 0; i < frames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.sampleRate)
		v := int16(math.Sin(2*math.Pi*s.frequency*t) * 32767.0 * s.amplitude)
		for c := 0; c < s.channels; c++ {
			samples[i*s.channels+c] = v
		}
	}
	s.sampleIndex += uint64(frames)

	return pcm.Int16ToBytes(samples)
}

// SampleRate returns the generator's sample rate.
func (s *Source) SampleRate() int { return s.sampleRate }

// Channels returns the generator's channel count.
func (s *Source) Channels() int { return s.channels }

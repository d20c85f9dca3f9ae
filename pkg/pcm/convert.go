// ABOUTME: PCM sample conversion helpers
// ABOUTME: Converts between packed 24-bit, 32-bit and 16-bit samples
package pcm

import "encoding/binary"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian).
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian).
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// I24ToI16 repacks little-endian 24-bit packed samples as 16-bit samples,
// keeping the most significant bytes. Trailing partial samples are dropped.
func I24ToI16(data []byte) []byte {
	samples := len(data) / 3
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		// The top two bytes of a 24-bit sample are its 16-bit rendering.
		out[i*2] = data[i*3+1]
		out[i*2+1] = data[i*3+2]
	}
	return out
}

// I32ToI16 converts little-endian 32-bit integer samples to 16-bit samples.
func I32ToI16(data []byte) []byte {
	samples := len(data) / 4
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int32(binary.LittleEndian.Uint32(data[i*4:]))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v>>16)))
	}
	return out
}

// Int16ToBytes renders int16 samples as little-endian PCM bytes.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

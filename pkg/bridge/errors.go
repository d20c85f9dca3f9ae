// ABOUTME: Error taxonomy for the stream bridge
// ABOUTME: Sentinel errors mirroring the host's negative status codes
package bridge

import "errors"

var (
	// ErrNotReady means no backend stream exists when one is required.
	ErrNotReady = errors.New("stream not ready")

	// ErrInvalidDirection means a capture stream was requested.
	ErrInvalidDirection = errors.New("only playback is supported")

	// ErrConfiguration means the negotiated parameters cannot be mapped
	// onto the backend.
	ErrConfiguration = errors.New("unsupported configuration")

	// ErrIO means the backend granted a buffer smaller than requested.
	ErrIO = errors.New("backend buffer unusable")

	// ErrBackend means a backend request or state wait failed.
	ErrBackend = errors.New("backend request failed")

	// ErrWouldBlock means the backend accepted no frames in non-blocking
	// mode; the host should retry once space frees up.
	ErrWouldBlock = errors.New("no buffer space available")
)
